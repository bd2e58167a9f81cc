package legacy

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/marcus/tdash/internal/db"
	"github.com/marcus/tdash/internal/models"
)

// Source is one legacy collection stored under its own key.
type Source struct {
	Key    string
	Decode func(raw json.RawMessage) (models.Task, error)
}

// errInvalidRecord marks records that decode but cannot become a task.
var errInvalidRecord = errors.New("invalid legacy record")

// DefaultSources lists the known legacy collections in precedence order:
// when two sources carry the same id, the earlier one wins.
func DefaultSources() []Source {
	return []Source{
		{Key: db.LegacyActionsKey, Decode: decodeAction},
		{Key: db.LegacyGTDKey, Decode: decodeGTD},
	}
}

func decodeAction(raw json.RawMessage) (models.Task, error) {
	var r ActionRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return models.Task{}, err
	}
	return validate(FromAction(r))
}

func decodeGTD(raw json.RawMessage) (models.Task, error) {
	var r GTDRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return models.Task{}, err
	}
	return validate(FromGTD(r))
}

func validate(t models.Task) (models.Task, error) {
	if t.ID == "" {
		return t, fmt.Errorf("%w: missing id", errInvalidRecord)
	}
	if t.Title == "" {
		return t, fmt.Errorf("%w: %s has no title", errInvalidRecord, t.ID)
	}
	return t, nil
}

// Scanner imports legacy collections once. It never writes to the legacy
// keys; the only thing it persists is the migrated flag.
type Scanner struct {
	store   *db.DB
	sources []Source
	now     func() time.Time
}

// NewScanner returns a scanner over the default sources.
func NewScanner(store *db.DB) *Scanner {
	return &Scanner{store: store, sources: DefaultSources(), now: time.Now}
}

// WithSources replaces the source list.
func (s *Scanner) WithSources(sources ...Source) *Scanner {
	s.sources = sources
	return s
}

// Migrated reports whether the migrated flag has been set.
func (s *Scanner) Migrated() (bool, error) {
	_, ok, err := s.store.Get(db.MigratedFlagKey)
	return ok, err
}

// ShouldRun reports whether a migration is due: the user is signed out, the
// collection is empty and no earlier run set the flag. A flag that cannot be
// read counts as set.
func (s *Scanner) ShouldRun(authenticated bool, existing []models.Task) bool {
	if authenticated || len(existing) > 0 {
		return false
	}
	done, err := s.Migrated()
	if err != nil {
		slog.Warn("legacy migration: read flag", "err", err)
		return false
	}
	return !done
}

// Migrate converts every legacy record whose id is not already in existing
// and sets the migrated flag, even when nothing was converted. Bad records
// are logged and skipped; Migrate never fails.
func (s *Scanner) Migrate(existing []models.Task) []models.Task {
	seen := make(map[string]bool, len(existing))
	for _, t := range existing {
		seen[t.ID] = true
	}

	var out []models.Task
	for _, src := range s.sources {
		for _, t := range s.scan(src) {
			if seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			out = append(out, t)
		}
	}

	flag, _ := json.Marshal(map[string]any{"at": s.now().UTC(), "count": len(out)})
	if err := s.store.Set(db.MigratedFlagKey, string(flag)); err != nil {
		slog.Warn("legacy migration: set flag", "err", err)
	}
	if len(out) > 0 {
		slog.Info("legacy migration", "migrated", len(out))
	}
	return out
}

// scan decodes one source element by element so a bad record does not
// take its siblings down with it.
func (s *Scanner) scan(src Source) []models.Task {
	raw, ok, err := s.store.Get(src.Key)
	if err != nil {
		slog.Warn("legacy migration: read source", "key", src.Key, "err", err)
		return nil
	}
	if !ok {
		return nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elems); err != nil {
		slog.Warn("legacy migration: source is not an array", "key", src.Key, "err", err)
		return nil
	}

	tasks := make([]models.Task, 0, len(elems))
	for i, e := range elems {
		t, err := src.Decode(e)
		if err != nil {
			slog.Warn("legacy migration: skip record", "key", src.Key, "index", i, "err", err)
			continue
		}
		if t.CreatedAt.IsZero() {
			now := s.now()
			t.CreatedAt = now
			// Normalize borrowed the missing creation time for these
			if t.CompletedAt != nil && t.CompletedAt.IsZero() {
				t.CompletedAt = &now
			}
			if t.DeletedAt != nil && t.DeletedAt.IsZero() {
				t.DeletedAt = &now
			}
		}
		tasks = append(tasks, t)
	}
	return tasks
}
