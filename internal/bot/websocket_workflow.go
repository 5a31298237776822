package bot

import (
	"context"
	"log"
	"net/http"
	"time"

	"PixelSentinel/internal/clock"
	"PixelSentinel/internal/headers"
	"PixelSentinel/internal/transport"

	"github.com/gorilla/websocket"
)

const (
	DefaultWebSocketURL  = "wss://notpx.app/connection/websocket"
	defaultFrameDeadline = 15 * time.Second
)

// WebSocketWorkflow keeps the account visible on the live canvas feed: it opens the game
// websocket through the account proxy, waits for the first frame and disconnects.
type WebSocketWorkflow struct {
	URL           string
	Proxy         string
	FrameDeadline time.Duration
	Clock         clock.Clock // System when nil
}

type frame struct {
	msg []byte
	err error
}

func (w *WebSocketWorkflow) Name() string { return "websocket" }

func (w *WebSocketWorkflow) Run(ctx context.Context, env *Env) error {
	proxyURL, err := transport.ParseProxy(w.Proxy)
	if err != nil {
		return &transport.Error{Op: "websocket dial", URL: w.URL, Err: err}
	}
	dialer := websocket.Dialer{HandshakeTimeout: transport.DefaultTimeout}
	if proxyURL != nil {
		dialer.Proxy = http.ProxyURL(proxyURL)
	}

	conn, resp, err := dialer.DialContext(ctx, w.URL, env.Headers.Get(headers.WebSocket))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if resp != nil {
			return &transport.RejectionError{Step: "websocket handshake", StatusCode: resp.StatusCode}
		}
		return &transport.Error{Op: "websocket dial", URL: w.URL, Err: err}
	}
	defer conn.Close()
	log.Printf("[INFO] %s | Websocket connected", env.Name)

	deadline := w.FrameDeadline
	if deadline <= 0 {
		deadline = defaultFrameDeadline
	}
	clk := w.clock()

	frames := make(chan frame, 1)
	go func() {
		_, msg, err := conn.ReadMessage()
		frames <- frame{msg: msg, err: err}
	}()

	waitCtx, stopWait := context.WithCancel(ctx)
	defer stopWait()
	expired := make(chan struct{})
	go func() {
		if clk.Sleep(waitCtx, deadline) == nil {
			close(expired)
		}
	}()

	select {
	case f := <-frames:
		switch {
		case f.err == nil:
			log.Printf("[INFO] %s | Websocket frame received (%d bytes)", env.Name, len(f.msg))
		case websocket.IsCloseError(f.err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
			log.Printf("[INFO] %s | Websocket closed by server", env.Name)
			return nil
		default:
			return &transport.Error{Op: "websocket read", URL: w.URL, Err: f.err}
		}
	case <-expired:
		log.Printf("[WARN] %s | No websocket frame within %v", env.Name, deadline)
	case <-ctx.Done():
		return ctx.Err()
	}

	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, closeMsg, clk.Now().Add(time.Second))
	return nil
}

func (w *WebSocketWorkflow) clock() clock.Clock {
	if w.Clock == nil {
		return clock.System{}
	}
	return w.Clock
}
