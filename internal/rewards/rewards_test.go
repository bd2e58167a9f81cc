package rewards

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/marcus/tdash/internal/db"
	"github.com/marcus/tdash/internal/events"
	"github.com/marcus/tdash/internal/models"
)

func setupStore(t *testing.T) *db.DB {
	t.Helper()
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })
	store, err := db.Wrap(conn)
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	return store
}

type recorder struct {
	mu         sync.Mutex
	toasts     []string
	celebrated []string
	milestones []int
	rewarded   []string
	hookErr    error
}

func (r *recorder) Reward(t models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rewarded = append(r.rewarded, t.ID)
	return r.hookErr
}

func (r *recorder) Toast(m string) {
	r.mu.Lock()
	r.toasts = append(r.toasts, m)
	r.mu.Unlock()
}

func (r *recorder) Celebrate(t models.Task) {
	r.mu.Lock()
	r.celebrated = append(r.celebrated, t.ID)
	r.mu.Unlock()
}

func (r *recorder) Milestone(n int) {
	r.mu.Lock()
	r.milestones = append(r.milestones, n)
	r.mu.Unlock()
}

func setup(t *testing.T) (*events.Bus, *recorder, *Ledger, *db.DB) {
	t.Helper()
	store := setupStore(t)
	ledger, err := LoadLedger(store)
	if err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	bus := events.NewBus()
	t.Cleanup(bus.Close)
	rec := &recorder{}
	NewDispatcher(ledger, rec, rec, bus, nil).Attach()
	return bus, rec, ledger, store
}

func complete(bus *events.Bus, id string, typ models.Type) {
	bus.Publish(events.Event{Kind: events.KindCompleted, Task: models.Task{ID: id, Title: "task " + id, Type: typ, Status: models.StatusCompleted}})
}

func TestFirstCompletionOnly(t *testing.T) {
	bus, rec, _, _ := setup(t)

	complete(bus, "a", models.TypeTodo)
	complete(bus, "a", models.TypeTodo)
	bus.Flush()

	if len(rec.rewarded) != 1 || len(rec.toasts) != 1 || len(rec.celebrated) != 1 {
		t.Fatalf("repeat completion re-rewarded: hook=%d toast=%d celebrate=%d", len(rec.rewarded), len(rec.toasts), len(rec.celebrated))
	}
}

func TestMilestoneEveryFifthTodo(t *testing.T) {
	bus, rec, _, _ := setup(t)

	var milestones []int
	bus.Subscribe(func(ev events.Event) {
		if ev.Kind == events.KindMilestone {
			milestones = append(milestones, ev.Count)
		}
	})

	for i := 1; i <= 4; i++ {
		complete(bus, fmt.Sprintf("t%d", i), models.TypeTodo)
	}
	complete(bus, "p", models.TypeProject) // not a todo
	bus.Flush()
	if len(rec.milestones) != 0 {
		t.Fatalf("milestone before fifth todo: %v", rec.milestones)
	}

	complete(bus, "t5", models.TypeTodo)
	bus.Flush()
	if len(rec.milestones) != 1 || rec.milestones[0] != 5 {
		t.Fatalf("milestones: got %v, want [5]", rec.milestones)
	}
	if len(milestones) != 1 || milestones[0] != 5 {
		t.Fatalf("milestone events: got %v, want [5]", milestones)
	}

	for i := 6; i <= 10; i++ {
		complete(bus, fmt.Sprintf("t%d", i), models.TypeTodo)
	}
	bus.Flush()
	if len(rec.milestones) != 2 || rec.milestones[1] != 10 {
		t.Fatalf("milestones: got %v, want [5 10]", rec.milestones)
	}
}

func TestLedgerPersists(t *testing.T) {
	bus, _, _, store := setup(t)
	complete(bus, "a", models.TypeTodo)
	complete(bus, "b", models.TypeReference)
	bus.Flush()

	reloaded, err := LoadLedger(store)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.Rewarded("a") || !reloaded.Rewarded("b") {
		t.Fatal("rewarded ids not persisted")
	}
	if got := reloaded.TodoCompletions(); got != 1 {
		t.Fatalf("todo completions: got %d, want 1", got)
	}
}

func TestPurgeForgets(t *testing.T) {
	bus, _, ledger, _ := setup(t)
	complete(bus, "a", models.TypeTodo)
	bus.Publish(events.Event{Kind: events.KindPurged, Task: models.Task{ID: "a"}})
	bus.Flush()

	if ledger.Rewarded("a") {
		t.Fatal("purged task still in ledger")
	}
	if got := ledger.TodoCompletions(); got != 1 {
		t.Fatalf("count must not go backwards: got %d", got)
	}
}

func TestHookFailureStillNotifies(t *testing.T) {
	bus, rec, ledger, _ := setup(t)
	rec.hookErr = errors.New("offline")

	complete(bus, "a", models.TypeTodo)
	bus.Flush()

	if len(rec.toasts) != 1 || !ledger.Rewarded("a") {
		t.Fatalf("hook failure blocked side effects: toasts=%d", len(rec.toasts))
	}
}

func TestCorruptLedger(t *testing.T) {
	store := setupStore(t)
	if err := store.Set(db.RewardsKey, "{nope"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := LoadLedger(store); err == nil {
		t.Fatal("expected decode error")
	}
}
