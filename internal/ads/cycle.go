package ads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"PixelSentinel/internal/clock"
	"PixelSentinel/internal/model"
	"PixelSentinel/internal/transport"
)

const (
	DefaultBaseURL       = "https://notpx.app/api/v1/ads"
	DefaultWatchDuration = 10 * time.Second

	maxErrorBody = 256
)

// State is a step of the ad state machine.
type State int

const (
	StateFetch State = iota
	StateRenderTracked
	StateViewing
	StateShowTracked
	StateClaimed
	StateExhausted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateFetch:
		return "FETCH"
	case StateRenderTracked:
		return "RENDER_TRACKED"
	case StateViewing:
		return "VIEWING"
	case StateShowTracked:
		return "SHOW_TRACKED"
	case StateClaimed:
		return "CLAIMED"
	case StateExhausted:
		return "EXHAUSTED"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result is what one Run produced. Claims made before a failure are kept.
type Result struct {
	Balance   int64
	Claims    []model.RewardOutcome
	Exhausted bool
}

// Earned sums the claimed amounts.
func (r Result) Earned() int64 {
	var sum int64
	for _, c := range r.Claims {
		sum += c.Amount
	}
	return sum
}

// Cycle watches ads and claims their rewards until the service runs out of inventory.
type Cycle struct {
	BaseURL       string
	WatchDuration time.Duration
	Clock         clock.Clock
	Name          string // log prefix
}

// NewCycle creates a Cycle with default endpoint and watch duration.
func NewCycle(name string, clk clock.Clock) *Cycle {
	return &Cycle{
		BaseURL:       DefaultBaseURL,
		WatchDuration: DefaultWatchDuration,
		Clock:         clk,
		Name:          name,
	}
}

type adsResponse struct {
	Banner *model.Banner `json:"banner"`
}

type rewardResponse struct {
	Reward *json.Number `json:"reward"`
}

// Run drives FETCH -> RENDER_TRACKED -> VIEWING -> SHOW_TRACKED -> CLAIMED in a loop, starting
// from balance. It returns when the ads endpoint stops serving (Exhausted, nil error) or a
// step fails. The returned Result always reflects every claim that succeeded.
func (c *Cycle) Run(ctx context.Context, sess transport.Session, header http.Header, balance int64) (Result, error) {
	res := Result{Balance: balance}
	state := StateFetch
	var banner *model.Banner

	for {
		switch state {
		case StateFetch:
			b, ok, err := c.fetch(ctx, sess, header)
			if err != nil {
				return res, err
			}
			if !ok {
				log.Printf("[INFO] %s | No ads available, exiting loop", c.Name)
				res.Exhausted = true
				return res, nil
			}
			banner = b
			state = StateRenderTracked

		case StateRenderTracked:
			if _, err := sess.Get(ctx, banner.RenderURL(), header); err != nil {
				return res, fmt.Errorf("track render: %w", err)
			}
			log.Printf("[INFO] %s | Ad render tracked", c.Name)
			state = StateViewing

		case StateViewing:
			if err := c.Clock.Sleep(ctx, c.watchDuration()); err != nil {
				return res, err
			}
			state = StateShowTracked

		case StateShowTracked:
			if _, err := sess.Get(ctx, banner.ShowURL(), header); err != nil {
				return res, fmt.Errorf("track show: %w", err)
			}
			log.Printf("[INFO] %s | Ad show tracked", c.Name)
			state = StateClaimed

		case StateClaimed:
			amount, err := c.claim(ctx, sess, banner.RewardURL(), header)
			if err != nil {
				return res, err
			}
			if amount > math.MaxInt64-res.Balance {
				return res, &transport.ParseError{Step: "reward", Err: fmt.Errorf("reward %d overflows balance %d", amount, res.Balance)}
			}
			res.Balance += amount
			res.Claims = append(res.Claims, model.RewardOutcome{Amount: amount, ClaimedAt: c.Clock.Now()})
			log.Printf("[INFO] %s | Ad reward claimed: %d PX (balance %d)", c.Name, amount, res.Balance)
			banner = nil
			state = StateFetch

		default:
			return res, fmt.Errorf("ad cycle reached unexpected state %s", state)
		}
	}
}

func (c *Cycle) watchDuration() time.Duration {
	if c.WatchDuration <= 0 {
		return DefaultWatchDuration
	}
	return c.WatchDuration
}

// fetch returns ok=false when the service signals it has no ad to serve.
func (c *Cycle) fetch(ctx context.Context, sess transport.Session, header http.Header) (*model.Banner, bool, error) {
	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	resp, err := sess.Get(ctx, baseURL, header)
	if err != nil {
		return nil, false, fmt.Errorf("fetch ads: %w", err)
	}
	if !resp.OK() {
		return nil, false, nil
	}

	var body adsResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, false, &transport.ParseError{Step: "ads", Err: err}
	}
	if body.Banner == nil {
		return nil, false, &transport.ParseError{Step: "ads", Err: errors.New("missing banner")}
	}
	if n := len(body.Banner.Trackings); n < model.MinTrackings {
		return nil, false, &transport.ParseError{Step: "ads", Err: fmt.Errorf("banner has %d trackings, need %d", n, model.MinTrackings)}
	}
	return body.Banner, true, nil
}

func (c *Cycle) claim(ctx context.Context, sess transport.Session, rewardURL string, header http.Header) (int64, error) {
	resp, err := sess.Get(ctx, rewardURL, header)
	if err != nil {
		return 0, fmt.Errorf("claim reward: %w", err)
	}
	if !resp.Success() {
		return 0, &transport.RejectionError{Step: "claim", StatusCode: resp.StatusCode, Body: truncate(resp.Body)}
	}

	var body rewardResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return 0, &transport.ParseError{Step: "reward", Err: err}
	}
	if body.Reward == nil {
		return 0, nil
	}
	return parseReward(*body.Reward)
}

// parseReward accepts integral JSON numbers, including 15.0. float64(math.MaxInt64) rounds up to
// 2^63, so the bound is exclusive.
func parseReward(n json.Number) (int64, error) {
	if v, err := n.Int64(); err == nil {
		if v < 0 {
			return 0, &transport.ParseError{Step: "reward", Err: fmt.Errorf("negative reward %d", v)}
		}
		return v, nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f >= math.MaxInt64 {
		return 0, &transport.ParseError{Step: "reward", Err: fmt.Errorf("reward %q is not an integer", n.String())}
	}
	if f < 0 {
		return 0, &transport.ParseError{Step: "reward", Err: fmt.Errorf("negative reward %s", n.String())}
	}
	return int64(f), nil
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody]) + "..."
	}
	return string(b)
}
