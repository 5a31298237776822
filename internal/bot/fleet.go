package bot

import (
	"context"
	"errors"
	"log"

	"golang.org/x/sync/errgroup"
)

// Fleet runs every account loop concurrently. Loops share nothing and are not ordered.
type Fleet struct {
	Sessions []*Session
}

func NewFleet(sessions ...*Session) *Fleet {
	return &Fleet{Sessions: sessions}
}

// Run starts one goroutine per session and waits for all of them to stop.
func (f *Fleet) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, s := range f.Sessions {
		g.Go(func() error {
			log.Printf("[INFO] %s | Account loop started (proxy: %t)", s.Identity.Name, s.Identity.Proxy != "")
			return s.Run(ctx)
		})
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Snapshots returns the state of every session in configuration order.
func (f *Fleet) Snapshots() []Snapshot {
	out := make([]Snapshot, 0, len(f.Sessions))
	for _, s := range f.Sessions {
		out = append(out, s.Snapshot())
	}
	return out
}
