package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/marcus/tdash/internal/models"
)

// TaskStore keeps the whole task collection as one JSON array under a
// single key. Reads and writes are whole-collection.
type TaskStore struct {
	db  *DB
	key string

	// OnEvict, when set, is called for each task dropped by the quota
	// fallback in Save.
	OnEvict func(models.Task)
}

// NewTaskStore returns a TaskStore over the default tasks key.
func NewTaskStore(db *DB) *TaskStore {
	return &TaskStore{db: db, key: TasksKey}
}

// Load reads the collection. Elements that fail to decode are skipped.
func (s *TaskStore) Load() ([]models.Task, error) {
	raw, ok, err := s.db.Get(s.key)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elems); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.key, err)
	}

	tasks := make([]models.Task, 0, len(elems))
	for i, e := range elems {
		var t models.Task
		if err := json.Unmarshal(e, &t); err != nil {
			slog.Warn("skip undecodable task", "key", s.key, "index", i, "err", err)
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// Save replaces the stored collection. When the write exceeds the quota the
// oldest soft-deleted tasks are evicted one at a time until it fits; if no
// deleted task is left the quota error is returned.
func (s *TaskStore) Save(tasks []models.Task) error {
	for {
		data, err := json.Marshal(nonNil(tasks))
		if err != nil {
			return fmt.Errorf("encode tasks: %w", err)
		}
		err = s.db.Set(s.key, string(data))
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrQuotaExceeded) {
			return err
		}
		var evicted *models.Task
		tasks, evicted = evictOldestDeleted(tasks)
		if evicted == nil {
			return err
		}
		slog.Warn("local store full, evicted deleted task", "id", evicted.ID)
		if s.OnEvict != nil {
			s.OnEvict(*evicted)
		}
	}
}

// Upsert replaces the task with the same id, or appends it.
func (s *TaskStore) Upsert(t models.Task) error {
	tasks, err := s.Load()
	if err != nil {
		return err
	}
	for i := range tasks {
		if tasks[i].ID == t.ID {
			tasks[i] = t
			return s.Save(tasks)
		}
	}
	return s.Save(append(tasks, t))
}

// Remove drops the task with the given id. Removing a missing id is a no-op.
func (s *TaskStore) Remove(id string) error {
	tasks, err := s.Load()
	if err != nil {
		return err
	}
	out := tasks[:0]
	for _, t := range tasks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	if len(out) == len(tasks) {
		return nil
	}
	return s.Save(out)
}

func evictOldestDeleted(tasks []models.Task) ([]models.Task, *models.Task) {
	var deleted []int
	for i, t := range tasks {
		if t.Status == models.StatusDeleted {
			deleted = append(deleted, i)
		}
	}
	if len(deleted) == 0 {
		return tasks, nil
	}
	sort.SliceStable(deleted, func(a, b int) bool {
		return deletedTime(tasks[deleted[a]]).Before(deletedTime(tasks[deleted[b]]))
	})
	victim := deleted[0]
	gone := tasks[victim]
	out := make([]models.Task, 0, len(tasks)-1)
	out = append(out, tasks[:victim]...)
	out = append(out, tasks[victim+1:]...)
	return out, &gone
}

func deletedTime(t models.Task) time.Time {
	if t.DeletedAt != nil {
		return *t.DeletedAt
	}
	return t.CreatedAt
}

func nonNil(tasks []models.Task) []models.Task {
	if tasks == nil {
		return []models.Task{}
	}
	return tasks
}
