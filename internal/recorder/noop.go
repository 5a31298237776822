package recorder

import "time"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordIteration(_ *Iteration) error         { return nil }
func (n *NoopRecorder) RecordClaim(_ *Claim) error                 { return nil }
func (n *NoopRecorder) Totals(_ time.Time) ([]SessionTotal, error) { return nil, nil }
func (n *NoopRecorder) RecentClaims(_ int) ([]Claim, error)        { return nil, nil }
func (n *NoopRecorder) Close() error                               { return nil }
