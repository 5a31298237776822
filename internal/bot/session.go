package bot

import (
	"context"
	"time"

	"PixelSentinel/internal/ads"
	"PixelSentinel/internal/clock"
	"PixelSentinel/internal/model"
	"PixelSentinel/internal/recorder"
	"PixelSentinel/internal/transport"
)

// Settings are the per-account knobs shared by every session.
type Settings struct {
	AdsURL        string
	WatchDuration time.Duration

	IdleMin  time.Duration
	IdleMax  time.Duration
	Cooldown time.Duration

	RequestTimeout    time.Duration
	RequestsPerSecond float64

	WatchAds bool

	WebSocket     bool
	WebSocketURL  string
	FrameDeadline time.Duration
}

// DefaultSettings mirrors the timings of the game client.
func DefaultSettings() Settings {
	return Settings{
		AdsURL:         ads.DefaultBaseURL,
		WatchDuration:  ads.DefaultWatchDuration,
		IdleMin:        DefaultIdleMin,
		IdleMax:        DefaultIdleMax,
		Cooldown:       DefaultCooldown,
		RequestTimeout: transport.DefaultTimeout,
		WatchAds:       true,
		WebSocketURL:   DefaultWebSocketURL,
	}
}

// Session binds one account identity to its supervisor and state.
type Session struct {
	Identity   model.Identity
	State      *State
	Supervisor *Supervisor
}

// NewSession wires the enabled workflows for one account. Ads always run first.
func NewSession(id model.Identity, st Settings, clk clock.Clock, rec recorder.Recorder, n Notifier) *Session {
	if clk == nil {
		clk = clock.System{}
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	state := NewState()

	var workflows []Workflow
	if st.WatchAds {
		cycle := ads.NewCycle(id.Name, clk)
		if st.AdsURL != "" {
			cycle.BaseURL = st.AdsURL
		}
		if st.WatchDuration > 0 {
			cycle.WatchDuration = st.WatchDuration
		}
		workflows = append(workflows, &AdWorkflow{Cycle: cycle, Recorder: rec})
	}
	if st.WebSocket {
		workflows = append(workflows, &WebSocketWorkflow{
			URL:           st.WebSocketURL,
			Proxy:         id.Proxy,
			FrameDeadline: st.FrameDeadline,
			Clock:         clk,
		})
	}

	dialer := transport.NewHTTPDialer(id.Proxy, st.RequestTimeout)
	dialer.RequestsPerSecond = st.RequestsPerSecond

	return &Session{
		Identity: id,
		State:    state,
		Supervisor: &Supervisor{
			Identity:  id,
			Dialer:    dialer,
			Workflows: workflows,
			State:     state,
			Clock:     clk,
			Recorder:  rec,
			Notifier:  n,
			IdleMin:   st.IdleMin,
			IdleMax:   st.IdleMax,
			Cooldown:  st.Cooldown,
		},
	}
}

// Register appends a workflow slot after the built-in ones.
func (s *Session) Register(wf Workflow) {
	s.Supervisor.Workflows = append(s.Supervisor.Workflows, wf)
}

// Run blocks until ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	return s.Supervisor.Run(ctx)
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	return s.State.snapshot(s.Identity.Name)
}
