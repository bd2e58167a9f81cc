// Package rewards turns first-time task completions into gamification side
// effects: a reward hook call, a toast, a celebration and periodic
// milestones.
package rewards

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/marcus/tdash/internal/db"
	"github.com/marcus/tdash/internal/models"
)

// Ledger remembers which tasks have already been rewarded and how many todo
// completions have been rewarded in total. It is persisted in the local
// store regardless of which backend holds the tasks.
type Ledger struct {
	mu    sync.Mutex
	store *db.DB
	state ledgerState
}

type ledgerState struct {
	Rewarded        []string `json:"rewarded"`
	TodoCompletions int      `json:"todo_completions"`

	seen map[string]bool
}

// NewLedger returns an empty ledger backed by store.
func NewLedger(store *db.DB) *Ledger {
	return &Ledger{store: store, state: ledgerState{seen: map[string]bool{}}}
}

// LoadLedger reads the ledger, or starts an empty one.
func LoadLedger(store *db.DB) (*Ledger, error) {
	l := NewLedger(store)
	raw, ok, err := store.Get(db.RewardsKey)
	if err != nil {
		return nil, fmt.Errorf("read rewards: %w", err)
	}
	if !ok {
		return l, nil
	}
	if err := json.Unmarshal([]byte(raw), &l.state); err != nil {
		return nil, fmt.Errorf("decode rewards: %w", err)
	}
	l.state.seen = make(map[string]bool, len(l.state.Rewarded))
	for _, id := range l.state.Rewarded {
		l.state.seen[id] = true
	}
	return l, nil
}

// Rewarded reports whether id has been rewarded before.
func (l *Ledger) Rewarded(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.seen[id]
}

// TodoCompletions returns the cumulative rewarded todo completions.
func (l *Ledger) TodoCompletions() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.TodoCompletions
}

// Record marks t as rewarded. first is false when t was rewarded before, in
// which case nothing changes. count is the todo completion total after the
// call. The in-memory ledger is updated even when persisting fails.
func (l *Ledger) Record(t models.Task) (first bool, count int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.seen[t.ID] {
		return false, l.state.TodoCompletions, nil
	}
	l.state.seen[t.ID] = true
	l.state.Rewarded = append(l.state.Rewarded, t.ID)
	if t.Type == models.TypeTodo {
		l.state.TodoCompletions++
	}
	return true, l.state.TodoCompletions, l.save()
}

// Forget drops id so a later completion is rewarded again. Used when a task
// is permanently deleted.
func (l *Ledger) Forget(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.state.seen[id] {
		return nil
	}
	delete(l.state.seen, id)
	out := l.state.Rewarded[:0]
	for _, r := range l.state.Rewarded {
		if r != id {
			out = append(out, r)
		}
	}
	l.state.Rewarded = out
	return l.save()
}

func (l *Ledger) save() error {
	ids := append([]string(nil), l.state.Rewarded...)
	sort.Strings(ids)
	data, err := json.Marshal(ledgerState{Rewarded: ids, TodoCompletions: l.state.TodoCompletions})
	if err != nil {
		return err
	}
	if err := l.store.Set(db.RewardsKey, string(data)); err != nil {
		return fmt.Errorf("write rewards: %w", err)
	}
	return nil
}
