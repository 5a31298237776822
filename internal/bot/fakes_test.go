package bot

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"PixelSentinel/internal/clock"
	"PixelSentinel/internal/recorder"
	"PixelSentinel/internal/transport"
)

// fakeDialer records when sessions are opened and fails the first len(errs) opens.
type fakeDialer struct {
	mu       sync.Mutex
	clock    clock.Clock
	errs     []error
	opens    []time.Time
	sessions []*fakeSession
	handler  func(url string) (*transport.Response, error)
}

func (d *fakeDialer) Open(ctx context.Context) (transport.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opens = append(d.opens, d.clock.Now())
	if len(d.errs) > 0 {
		err := d.errs[0]
		d.errs = d.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	s := &fakeSession{handler: d.handler}
	d.sessions = append(d.sessions, s)
	return s, nil
}

func (d *fakeDialer) openTimes() []time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]time.Time(nil), d.opens...)
}

type fakeSession struct {
	mu      sync.Mutex
	handler func(url string) (*transport.Response, error)
	gets    []string
	closed  int
}

func (s *fakeSession) Get(_ context.Context, url string, _ http.Header) (*transport.Response, error) {
	s.mu.Lock()
	s.gets = append(s.gets, url)
	s.mu.Unlock()
	if s.handler == nil {
		return &transport.Response{StatusCode: http.StatusNotFound}, nil
	}
	return s.handler(url)
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

// funcWorkflow adapts a function to Workflow.
type funcWorkflow struct {
	name string
	run  func(ctx context.Context, env *Env) error
}

func (w funcWorkflow) Name() string                            { return w.name }
func (w funcWorkflow) Run(ctx context.Context, env *Env) error { return w.run(ctx, env) }

// memRecorder keeps everything in memory.
type memRecorder struct {
	mu         sync.Mutex
	iterations []recorder.Iteration
	claims     []recorder.Claim
	failNext   error
}

func (m *memRecorder) RecordIteration(it *recorder.Iteration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.iterations = append(m.iterations, *it)
	return nil
}

func (m *memRecorder) RecordClaim(c *recorder.Claim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	m.claims = append(m.claims, *c)
	return nil
}

func (m *memRecorder) Totals(time.Time) ([]recorder.SessionTotal, error) { return nil, nil }
func (m *memRecorder) RecentClaims(int) ([]recorder.Claim, error)        { return nil, nil }
func (m *memRecorder) Close() error                                      { return nil }

type memNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (n *memNotifier) Notify(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, text)
	return nil
}

// cancelAfterSleeps cancels ctx once the fake clock has slept n times.
func cancelAfterSleeps(f *clock.Fake, n int) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	f.OnSleep = func(count int) {
		if count >= n {
			cancel()
		}
	}
	return ctx, cancel
}

func okJSON(body string) (*transport.Response, error) {
	return &transport.Response{StatusCode: http.StatusOK, Body: []byte(body)}, nil
}

func adsBanner(prefix string) string {
	return fmt.Sprintf(`{"banner":{"trackings":[{"value":"%[1]s/render"},{"value":"%[1]s/show"},{},{},{"value":"%[1]s/reward"}]}}`, prefix)
}
