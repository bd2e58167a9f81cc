// Package engine owns the canonical task collection. It loads it through the
// persistence router, applies every mutation, and publishes the domain events
// that drive rewards and the legacy mirror.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marcus/tdash/internal/db"
	"github.com/marcus/tdash/internal/events"
	"github.com/marcus/tdash/internal/legacy"
	"github.com/marcus/tdash/internal/mirror"
	"github.com/marcus/tdash/internal/models"
	"github.com/marcus/tdash/internal/rewards"
	"github.com/marcus/tdash/internal/router"
	"github.com/marcus/tdash/internal/views"
	"github.com/marcus/tdash/internal/workflow"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrEmptyTitle   = errors.New("title is required")
	ErrNotDeleted   = errors.New("task is not deleted")
	ErrUnknownView  = errors.New("unknown view")
	ErrClosed       = errors.New("engine closed")
)

// Options configures an Engine. Store is required; everything else has a
// default.
type Options struct {
	Store *db.DB

	// Auth and Remote enable the remote path. Without both, every read and
	// write goes to the local store.
	Auth   router.AuthSource
	Remote router.RemoteAdapter

	Hook     rewards.Hook
	Notifier rewards.Notifier

	// Workflow checks status moves. Defaults to an advisory machine.
	Workflow *workflow.StateMachine

	Logger *slog.Logger
	Now    func() time.Time
	NewID  func() string
}

// Engine is the task service for one session. Construct it with New, call
// Start before any operation and Close on sign-out or exit.
type Engine struct {
	mu      sync.Mutex
	tasks   []models.Task
	started bool
	closed  bool

	store   *db.DB
	router  *router.Router
	bus     *events.Bus
	scanner *legacy.Scanner
	ledger  *rewards.Ledger
	flow    *workflow.StateMachine
	log     *slog.Logger
	now     func() time.Time
	newID   func() string

	// evicted collects tasks the local store dropped to stay under quota
	// during the current commit. Only touched with mu held.
	evicted []models.Task
	unsubs  []func()
}

// New wires an engine and its subscribers. It does not read any tasks.
func New(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, errors.New("engine: store is required")
	}
	e := &Engine{
		store:   opts.Store,
		bus:     events.NewBus(),
		scanner: legacy.NewScanner(opts.Store),
		flow:    opts.Workflow,
		log:     opts.Logger,
		now:     opts.Now,
		newID:   opts.NewID,
	}
	if e.flow == nil {
		e.flow = workflow.DefaultMachine()
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}

	local := db.NewTaskStore(opts.Store)
	local.OnEvict = func(t models.Task) { e.evicted = append(e.evicted, t) }
	e.router = router.New(opts.Auth, opts.Remote, local, e.log)

	ledger, err := rewards.LoadLedger(opts.Store)
	if err != nil {
		e.log.Warn("rewards ledger unreadable, starting fresh", "err", err)
		ledger = rewards.NewLedger(opts.Store)
	}
	e.ledger = ledger

	e.unsubs = append(e.unsubs,
		rewards.NewDispatcher(ledger, opts.Hook, opts.Notifier, e.bus, e.log).Attach(),
		mirror.New(opts.Store, e.bus, e.log).Attach(),
	)
	return e, nil
}

// Start loads the collection from the current backend, runs the one-time
// legacy migration when it is due and normalizes the result. A remote read
// failure is logged and leaves the collection empty.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	tasks, err := e.load(ctx)
	if err != nil {
		return err
	}

	if e.scanner.ShouldRun(e.router.IsRemote(), tasks) {
		migrated := e.scanner.Migrate(tasks)
		if len(migrated) > 0 {
			tasks = models.NormalizeAll(append(tasks, migrated...))
			if err := e.router.SaveAll(ctx, tasks); err != nil {
				return fmt.Errorf("save migrated tasks: %w", err)
			}
			tasks = e.dropEvicted(tasks)
			e.tasks = tasks
			e.started = true
			e.bus.Publish(events.Event{Kind: events.KindMigrated, At: e.now(), Count: len(migrated)})
			e.publishCollection(false)
			return nil
		}
	}

	e.tasks = tasks
	e.started = true
	return nil
}

// Refresh re-reads the collection from whichever backend is current. Call it
// after signing in or out.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	tasks, err := e.load(ctx)
	if err != nil {
		return err
	}
	e.tasks = tasks
	e.started = true
	return nil
}

func (e *Engine) load(ctx context.Context) ([]models.Task, error) {
	remote := e.router.IsRemote()
	tasks, err := e.router.Load(ctx)
	if err != nil {
		if !remote {
			return nil, fmt.Errorf("load tasks: %w", err)
		}
		e.log.Warn("remote load failed, starting empty", "err", err)
		tasks = nil
	}
	return models.NormalizeAll(tasks), nil
}

// Close unsubscribes the side-effect handlers after draining every queued
// event. It is safe to call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.bus.Close()
	for _, unsub := range e.unsubs {
		unsub()
	}
	return nil
}

// IsRemote reports whether the next write goes to the remote store.
func (e *Engine) IsRemote() bool {
	return e.router.IsRemote()
}

// Subscribe registers an event handler. Handlers run on the bus goroutine.
func (e *Engine) Subscribe(h events.Handler) func() {
	return e.bus.Subscribe(h)
}

// Flush waits until every event published so far has been handled.
func (e *Engine) Flush() {
	e.bus.Flush()
}

// Ledger exposes the rewards ledger for read-only display.
func (e *Engine) Ledger() *rewards.Ledger {
	return e.ledger
}

// Tasks returns a normalized snapshot of the collection in insertion order.
func (e *Engine) Tasks() []models.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return models.NormalizeAll(e.tasks)
}

// Task returns one task by id.
func (e *Engine) Task(id string) (models.Task, error) {
	t, ok := views.Get(e.Tasks(), id)
	if !ok {
		return models.Task{}, fmt.Errorf("%s: %w", id, ErrTaskNotFound)
	}
	return t, nil
}

// View returns a named slice of the collection.
func (e *Engine) View(name views.Name) ([]models.Task, error) {
	out, ok := views.Project(e.Tasks(), name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownView)
	}
	return out, nil
}

// ViewByType returns non-deleted tasks of one type.
func (e *Engine) ViewByType(typ models.Type) []models.Task {
	return views.ByType(e.Tasks(), typ)
}

// Counts summarizes the collection.
func (e *Engine) Counts() views.Counts {
	return views.Count(e.Tasks())
}

func (e *Engine) ready() error {
	if e.closed {
		return ErrClosed
	}
	if !e.started {
		return errors.New("engine: Start has not been called")
	}
	return nil
}

// insert appends a new task and commits it.
func (e *Engine) insert(ctx context.Context, t models.Task, kind events.Kind) (models.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return models.Task{}, err
	}

	t = models.Normalize(t)
	all := append(models.NormalizeAll(e.tasks), t)
	if err := e.commit(ctx, kind, t, all); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// change edits one task in place and reports which event it produced.
type change func(t *models.Task) (events.Kind, error)

// mutate runs a named operation against one task.
func (e *Engine) mutate(ctx context.Context, id string, fn change) (models.Task, error) {
	return e.apply(ctx, id, false, fn)
}

// apply runs fn against the current version of one task, checks the status
// move, persists and replaces the in-memory collection. edit marks a free
// status edit, which strict mode holds to the lifecycle diagram. Events are
// published with the lock held so subscribers see mutations in commit
// order.
func (e *Engine) apply(ctx context.Context, id string, edit bool, fn change) (models.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return models.Task{}, err
	}

	all := models.NormalizeAll(e.tasks)
	idx := indexOf(all, id)
	if idx < 0 {
		return models.Task{}, fmt.Errorf("%s: %w", id, ErrTaskNotFound)
	}
	prev := all[idx]
	next := prev.Clone()
	kind, err := fn(&next)
	if err != nil {
		return models.Task{}, err
	}
	next = models.Normalize(next)

	check := e.flow.CheckOp
	if edit {
		check = e.flow.Check
	}
	ok, err := check(id, prev.Status, next.Status)
	if err != nil {
		return models.Task{}, err
	}
	if !ok {
		e.log.Info("off-lifecycle status move", "id", id, "from", prev.Status, "to", next.Status, "event", kind)
	}

	all[idx] = next
	if err := e.commit(ctx, kind, next, all); err != nil {
		return models.Task{}, err
	}
	return next, nil
}

// commit persists all through the router and, on success, replaces the
// in-memory collection and publishes kind followed by a collection change.
// Remote failures never reach here; local failures leave memory untouched.
func (e *Engine) commit(ctx context.Context, kind events.Kind, changed models.Task, all []models.Task) error {
	e.evicted = nil
	remote, err := e.router.Commit(ctx, changed, all)
	if err != nil {
		e.evicted = nil
		return fmt.Errorf("save %s: %w", changed.ID, err)
	}
	e.bus.Publish(events.Event{Kind: kind, At: e.now(), Task: changed, Authenticated: remote})
	e.tasks = e.dropEvicted(all)
	e.publishCollection(remote)
	return nil
}

// dropEvicted removes tasks evicted by the local quota fallback from tasks
// and publishes a purge for each of them.
func (e *Engine) dropEvicted(tasks []models.Task) []models.Task {
	if len(e.evicted) == 0 {
		return tasks
	}
	gone := make(map[string]bool, len(e.evicted))
	for _, t := range e.evicted {
		gone[t.ID] = true
		e.bus.Publish(events.Event{Kind: events.KindPurged, At: e.now(), Task: t})
	}
	e.evicted = nil

	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if !gone[t.ID] {
			out = append(out, t)
		}
	}
	return out
}

func (e *Engine) publishCollection(remote bool) {
	e.bus.Publish(events.Event{
		Kind:          events.KindCollectionChanged,
		At:            e.now(),
		Tasks:         models.NormalizeAll(e.tasks),
		Authenticated: remote,
	})
}

func indexOf(tasks []models.Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}
