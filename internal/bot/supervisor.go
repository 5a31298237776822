package bot

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"PixelSentinel/internal/clock"
	"PixelSentinel/internal/headers"
	"PixelSentinel/internal/model"
	"PixelSentinel/internal/recorder"
	"PixelSentinel/internal/transport"

	"github.com/google/uuid"
)

const (
	DefaultIdleMin  = 5 * time.Minute
	DefaultIdleMax  = 10 * time.Minute
	DefaultCooldown = 10 * time.Minute

	// AlertTimeout bounds the failure alert sent before a cooldown.
	AlertTimeout = 5 * time.Second
)

// Notifier delivers operator alerts. Implementations must honour ctx cancellation.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Supervisor owns the forever loop of one account.
type Supervisor struct {
	Identity  model.Identity
	Dialer    transport.Dialer
	Workflows []Workflow
	State     *State
	Clock     clock.Clock
	Recorder  recorder.Recorder
	Notifier  Notifier // optional

	IdleMin  time.Duration
	IdleMax  time.Duration
	Cooldown time.Duration

	// Int64N returns a uniform value in [0, n). Defaults to math/rand/v2.
	Int64N func(n int64) int64
}

// Run loops until ctx is cancelled and returns ctx.Err(). Failures never escape: each one is
// logged, recorded and followed by the cooldown.
func (s *Supervisor) Run(ctx context.Context) error {
	hs := headers.Build(s.Identity.UserAgent)
	name := s.Identity.Name

	for {
		err := s.iterate(ctx, hs)
		if ctx.Err() != nil {
			log.Printf("[INFO] %s | Account loop stopped", name)
			return ctx.Err()
		}

		if err != nil {
			log.Printf("[ERROR] %s | Error occurred: %v", name, err)
			s.State.setCooldown(s.Clock.Now().Add(s.cooldown()))
			s.notify(ctx, fmt.Sprintf("⚠️ <b>%s</b> entering %v cooldown\n%v", name, s.cooldown(), err))
			if err := s.Clock.Sleep(ctx, s.cooldown()); err != nil {
				log.Printf("[INFO] %s | Account loop stopped", name)
				return err
			}
			s.State.setCooldown(time.Time{})
			continue
		}

		idle := s.idleInterval()
		log.Printf("[INFO] %s | Sleeping %v before next iteration", name, idle)
		if err := s.Clock.Sleep(ctx, idle); err != nil {
			log.Printf("[INFO] %s | Account loop stopped", name)
			return err
		}
	}
}

// iterate runs one session-scoped pass over the workflows.
func (s *Supervisor) iterate(ctx context.Context, hs headers.Set) (err error) {
	it := &recorder.Iteration{
		ID:        uuid.NewString(),
		Session:   s.Identity.Name,
		StartedAt: s.Clock.Now(),
		Outcome:   model.OutcomeCompleted,
	}
	defer func() {
		if ctx.Err() != nil {
			return
		}
		it.FinishedAt = s.Clock.Now()
		if err != nil {
			it.Outcome = model.OutcomeFailed
			it.Error = err.Error()
		}
		s.State.markIteration(it.FinishedAt, err)
		if rerr := s.Recorder.RecordIteration(it); rerr != nil {
			log.Printf("[ERROR] %s | record iteration: %v", s.Identity.Name, rerr)
		}
	}()

	sess, err := s.Dialer.Open(ctx)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Printf("[WARN] %s | close session: %v", s.Identity.Name, cerr)
		}
	}()

	env := &Env{
		Name:        s.Identity.Name,
		IterationID: it.ID,
		Session:     sess,
		Headers:     hs,
		State:       s.State,
	}
	for _, wf := range s.Workflows {
		if err := wf.Run(ctx, env); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if Classify(err) == ActionContinue {
				log.Printf("[ERROR] %s | Workflow %s: %v", s.Identity.Name, wf.Name(), err)
				continue
			}
			return fmt.Errorf("workflow %s: %w", wf.Name(), err)
		}
	}
	return nil
}

// idleInterval draws uniformly from [IdleMin, IdleMax].
func (s *Supervisor) idleInterval() time.Duration {
	lo, hi := s.IdleMin, s.IdleMax
	if lo <= 0 && hi <= 0 {
		lo, hi = DefaultIdleMin, DefaultIdleMax
	}
	if hi < lo {
		hi = lo
	}
	span := int64(hi - lo)
	if span == 0 {
		return lo
	}
	draw := rand.Int64N
	if s.Int64N != nil {
		draw = s.Int64N
	}
	return lo + time.Duration(draw(span+1))
}

func (s *Supervisor) cooldown() time.Duration {
	if s.Cooldown <= 0 {
		return DefaultCooldown
	}
	return s.Cooldown
}

func (s *Supervisor) notify(ctx context.Context, text string) {
	if s.Notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, AlertTimeout)
	defer cancel()
	if err := s.Notifier.Notify(ctx, text); err != nil {
		log.Printf("[WARN] %s | send alert: %v", s.Identity.Name, err)
	}
}
