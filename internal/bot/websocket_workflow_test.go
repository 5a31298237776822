package bot

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"PixelSentinel/internal/clock"
	"PixelSentinel/internal/headers"
	"PixelSentinel/internal/transport"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketWorkflowReadsFirstFrame(t *testing.T) {
	gotUA := make(chan string, 1)
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA <- r.Header.Get("User-Agent")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"pixels":[]}`))
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	wf := &WebSocketWorkflow{URL: wsURL(srv), FrameDeadline: time.Second}
	env := &Env{Name: "acc-1", Headers: headers.Build("ws-agent"), State: NewState()}

	require.NoError(t, wf.Run(context.Background(), env))
	assert.Equal(t, "ws-agent", <-gotUA)
}

func TestWebSocketWorkflowToleratesSilentServer(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	wf := &WebSocketWorkflow{URL: wsURL(srv), FrameDeadline: 50 * time.Millisecond}
	env := &Env{Name: "acc-1", Headers: headers.Build("ua"), State: NewState()}
	assert.NoError(t, wf.Run(context.Background(), env))
}

func TestWebSocketWorkflowFrameDeadlineFollowsClock(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	clk := clock.NewFake(epoch)
	wf := &WebSocketWorkflow{URL: wsURL(srv), FrameDeadline: time.Hour, Clock: clk}
	env := &Env{Name: "acc-1", Headers: headers.Build("ua"), State: NewState()}

	done := make(chan error, 1)
	go func() { done <- wf.Run(context.Background(), env) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("frame wait did not follow the simulated clock")
	}
	assert.Equal(t, []time.Duration{time.Hour}, clk.Sleeps())
}

func TestWebSocketWorkflowHandshakeRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	wf := &WebSocketWorkflow{URL: wsURL(srv)}
	env := &Env{Name: "acc-1", Headers: headers.Build("ua"), State: NewState()}

	err := wf.Run(context.Background(), env)
	var rej *transport.RejectionError
	require.True(t, errors.As(err, &rej), "got %v", err)
	assert.Equal(t, http.StatusUnauthorized, rej.StatusCode)
	assert.Equal(t, ActionContinue, Classify(err))
}

func TestWebSocketWorkflowDialFailureIsRetried(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv)
	srv.Close()

	wf := &WebSocketWorkflow{URL: url}
	env := &Env{Name: "acc-1", Headers: headers.Build("ua"), State: NewState()}

	err := wf.Run(context.Background(), env)
	var terr *transport.Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, ActionRetry, Classify(err))
}

func TestWebSocketWorkflowBadProxy(t *testing.T) {
	wf := &WebSocketWorkflow{URL: "wss://example.invalid/ws", Proxy: "gopher://proxy:70"}
	env := &Env{Name: "acc-1", Headers: headers.Build("ua"), State: NewState()}

	var terr *transport.Error
	require.ErrorAs(t, wf.Run(context.Background(), env), &terr)
}
