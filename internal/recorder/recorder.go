package recorder

import (
	"time"

	"PixelSentinel/internal/model"
)

// Iteration is one pass of an account loop.
type Iteration struct {
	ID         string
	Session    string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    model.IterationOutcome
	Error      string
}

// Claim is one successful ad reward claim.
type Claim struct {
	IterationID  string
	Session      string
	Amount       int64
	BalanceAfter int64
	ClaimedAt    time.Time
}

// SessionTotal aggregates claims of one account over a period.
type SessionTotal struct {
	Session     string
	Claims      int
	Earned      int64
	LastBalance int64
	Failures    int
}

// Recorder persists reward history for reports and the ledger command.
type Recorder interface {
	RecordIteration(it *Iteration) error
	RecordClaim(c *Claim) error
	Totals(since time.Time) ([]SessionTotal, error)
	RecentClaims(limit int) ([]Claim, error)
	Close() error
}
