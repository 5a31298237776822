package bot

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"PixelSentinel/internal/ads"
	"PixelSentinel/internal/clock"
	"PixelSentinel/internal/headers"
	"PixelSentinel/internal/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAdsURL = "https://ads.test/ads"

func newAdEnv(state *State, handler func(url string) (*transport.Response, error)) *Env {
	return &Env{
		Name:        "acc-1",
		IterationID: "it-1",
		Session:     &fakeSession{handler: handler},
		Headers:     headers.Build("ua"),
		State:       state,
	}
}

func newAdWorkflow(rec *memRecorder) *AdWorkflow {
	cycle := ads.NewCycle("acc-1", clock.NewFake(epoch))
	cycle.BaseURL = testAdsURL
	return &AdWorkflow{Cycle: cycle, Recorder: rec}
}

func TestAdWorkflowFoldsClaimsIntoBalance(t *testing.T) {
	fetches := 0
	handler := func(url string) (*transport.Response, error) {
		switch url {
		case testAdsURL:
			fetches++
			if fetches > 2 {
				return &transport.Response{StatusCode: http.StatusNotFound}, nil
			}
			return okJSON(adsBanner("x"))
		case "x/reward":
			return okJSON(`{"reward": 15}`)
		default:
			return okJSON(`{}`)
		}
	}
	state := NewState()
	state.Fold(100, 0)
	rec := &memRecorder{}

	require.NoError(t, newAdWorkflow(rec).Run(context.Background(), newAdEnv(state, handler)))

	assert.Equal(t, int64(130), state.Balance())
	require.Len(t, rec.claims, 2)
	assert.Equal(t, int64(115), rec.claims[0].BalanceAfter)
	assert.Equal(t, int64(130), rec.claims[1].BalanceAfter)
	assert.Equal(t, "it-1", rec.claims[0].IterationID)
	assert.Equal(t, 2, state.snapshot("acc-1").Claims)
}

func TestAdWorkflowSwallowsClaimRejection(t *testing.T) {
	handler := func(url string) (*transport.Response, error) {
		switch url {
		case testAdsURL:
			return okJSON(adsBanner("y"))
		case "y/reward":
			return &transport.Response{StatusCode: http.StatusForbidden}, nil
		default:
			return okJSON(`{}`)
		}
	}
	state := NewState()
	err := newAdWorkflow(&memRecorder{}).Run(context.Background(), newAdEnv(state, handler))
	require.NoError(t, err)
	assert.Zero(t, state.Balance())
}

func TestAdWorkflowSwallowsTransportError(t *testing.T) {
	handler := func(url string) (*transport.Response, error) {
		return nil, &transport.Error{Op: "get", URL: url, Err: errors.New("timeout")}
	}
	err := newAdWorkflow(&memRecorder{}).Run(context.Background(), newAdEnv(NewState(), handler))
	assert.NoError(t, err)
}

func TestAdWorkflowKeepsBalanceWhenRecorderFails(t *testing.T) {
	fetched := false
	handler := func(url string) (*transport.Response, error) {
		switch url {
		case testAdsURL:
			if fetched {
				return &transport.Response{StatusCode: http.StatusNoContent}, nil
			}
			fetched = true
			return okJSON(adsBanner("z"))
		case "z/reward":
			return okJSON(`{"reward": 8}`)
		default:
			return okJSON(`{}`)
		}
	}
	state := NewState()
	rec := &memRecorder{failNext: errors.New("disk full")}
	require.NoError(t, newAdWorkflow(rec).Run(context.Background(), newAdEnv(state, handler)))
	assert.Equal(t, int64(8), state.Balance())
}

func TestAdWorkflowReturnsContextError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	handler := func(url string) (*transport.Response, error) {
		cancel()
		return nil, context.Canceled
	}
	err := newAdWorkflow(&memRecorder{}).Run(ctx, newAdEnv(NewState(), handler))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStateBalanceNeverDecreases(t *testing.T) {
	s := NewState()
	assert.Equal(t, int64(10), s.Fold(10, 1))
	assert.Equal(t, int64(10), s.Fold(3, 0))
	assert.Equal(t, int64(25), s.Fold(25, 2))

	snap := s.snapshot("acc-1")
	assert.Equal(t, "acc-1", snap.Name)
	assert.Equal(t, 3, snap.Claims)
}

func TestStateSnapshotCopiesCollections(t *testing.T) {
	s := NewState()
	s.SetBoosts(map[string]int{"paintReward": 3, "energyLimit": 2})
	s.SetPendingTasks([]string{"x:notcoin", "channel:notpixel"})
	s.markIteration(epoch, errors.New("boom"))

	snap := s.snapshot("acc-1")
	snap.Boosts["paintReward"] = 99

	again := s.snapshot("acc-1")
	assert.Equal(t, 3, again.Boosts["paintReward"])
	assert.Equal(t, []string{"channel:notpixel", "x:notcoin"}, again.PendingTasks)
	assert.Equal(t, "boom", again.LastError)
	assert.Equal(t, epoch, again.LastIteration)

	s.markIteration(epoch.Add(time.Minute), nil)
	assert.Empty(t, s.snapshot("acc-1").LastError)
}
