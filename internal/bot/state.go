package bot

import (
	"sort"
	"sync"
	"time"
)

// State is the mutable state of one bot session. Only the session's own loop writes it;
// the mutex lets the Telegram command handler read snapshots concurrently.
type State struct {
	mu            sync.Mutex
	balance       int64
	claims        int
	boosts        map[string]int
	pendingTasks  map[string]struct{}
	lastIteration time.Time
	lastError     string
	cooldownUntil time.Time
}

// Snapshot is a point-in-time copy of State.
type Snapshot struct {
	Name          string
	Balance       int64
	Claims        int
	Boosts        map[string]int
	PendingTasks  []string
	LastIteration time.Time
	LastError     string
	CooldownUntil time.Time
}

func NewState() *State {
	return &State{
		boosts:       map[string]int{},
		pendingTasks: map[string]struct{}{},
	}
}

func (s *State) Balance() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

// Fold replaces the balance with the value an ad cycle returned. A lower value is ignored:
// the balance only moves up.
func (s *State) Fold(balance int64, claims int) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if balance > s.balance {
		s.balance = balance
	}
	s.claims += claims
	return s.balance
}

// SetBoosts records the boost levels reported by the game.
func (s *State) SetBoosts(levels map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boosts = make(map[string]int, len(levels))
	for k, v := range levels {
		s.boosts[k] = v
	}
}

// SetPendingTasks replaces the set of task ids still to complete.
func (s *State) SetPendingTasks(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingTasks = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.pendingTasks[id] = struct{}{}
	}
}

func (s *State) markIteration(at time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastIteration = at
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}
}

func (s *State) setCooldown(until time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cooldownUntil = until
}

func (s *State) snapshot(name string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	boosts := make(map[string]int, len(s.boosts))
	for k, v := range s.boosts {
		boosts[k] = v
	}
	tasks := make([]string, 0, len(s.pendingTasks))
	for id := range s.pendingTasks {
		tasks = append(tasks, id)
	}
	sort.Strings(tasks)

	return Snapshot{
		Name:          name,
		Balance:       s.balance,
		Claims:        s.claims,
		Boosts:        boosts,
		PendingTasks:  tasks,
		LastIteration: s.lastIteration,
		LastError:     s.lastError,
		CooldownUntil: s.cooldownUntil,
	}
}
