package model

import "time"

// RewardOutcome is the result of one successful claim.
type RewardOutcome struct {
	Amount    int64
	ClaimedAt time.Time
}

// IterationOutcome labels how one supervisor iteration ended.
type IterationOutcome string

const (
	OutcomeCompleted IterationOutcome = "COMPLETED"
	OutcomeFailed    IterationOutcome = "FAILED"
)
