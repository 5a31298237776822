package bot

import (
	"context"
	"errors"

	"PixelSentinel/internal/headers"
	"PixelSentinel/internal/transport"
)

// Env is what a workflow gets for one iteration.
type Env struct {
	Name        string
	IterationID string
	Session     transport.Session
	Headers     headers.Set
	State       *State
}

// Workflow is one pluggable step of an account iteration. Workflows run in registration order;
// a later workflow sees the balance and state left by earlier ones.
type Workflow interface {
	Name() string
	Run(ctx context.Context, env *Env) error
}

// Action tells the supervisor what to do with a workflow error.
type Action int

const (
	// ActionRetry aborts the iteration and retries after the cooldown.
	ActionRetry Action = iota
	// ActionContinue logs the error and moves on to the next workflow.
	ActionContinue
)

func (a Action) String() string {
	if a == ActionContinue {
		return "continue"
	}
	return "retry"
}

// Classify maps an error onto the supervisor's two recovery paths. Remote responses that
// were rejected or unreadable are local to the workflow; everything else, transport failures
// included, is retried.
func Classify(err error) Action {
	var perr *transport.ParseError
	var rerr *transport.RejectionError
	if errors.As(err, &perr) || errors.As(err, &rerr) {
		return ActionContinue
	}
	return ActionRetry
}
