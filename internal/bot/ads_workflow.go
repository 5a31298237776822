package bot

import (
	"context"
	"log"

	"PixelSentinel/internal/ads"
	"PixelSentinel/internal/headers"
	"PixelSentinel/internal/recorder"
)

// AdWorkflow runs the ad cycle and folds its claims into the session balance.
// It is the catch boundary of the cycle: failures are logged here and never reach the supervisor.
type AdWorkflow struct {
	Cycle    *ads.Cycle
	Recorder recorder.Recorder
}

func (w *AdWorkflow) Name() string { return "ads" }

func (w *AdWorkflow) Run(ctx context.Context, env *Env) error {
	log.Printf("[INFO] %s | Starting ad-watching loop", env.Name)

	balanceIn := env.State.Balance()
	res, err := w.Cycle.Run(ctx, env.Session, env.Headers.Get(headers.Rewards), balanceIn)

	running := balanceIn
	for _, c := range res.Claims {
		running += c.Amount
		if rerr := w.Recorder.RecordClaim(&recorder.Claim{
			IterationID:  env.IterationID,
			Session:      env.Name,
			Amount:       c.Amount,
			BalanceAfter: running,
			ClaimedAt:    c.ClaimedAt,
		}); rerr != nil {
			log.Printf("[ERROR] %s | record claim: %v", env.Name, rerr)
		}
	}
	balance := env.State.Fold(res.Balance, len(res.Claims))

	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("[ERROR] %s | Error watching ads: %v", env.Name, err)
		return nil
	}
	log.Printf("[INFO] %s | Ad loop finished: %d claims, +%d PX, balance %d", env.Name, len(res.Claims), res.Earned(), balance)
	return nil
}
