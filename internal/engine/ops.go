package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/marcus/tdash/internal/events"
	"github.com/marcus/tdash/internal/models"
)

// AddTask creates a fully specified task. Status defaults to active; type to
// todo. The Eisenhower pair is taken from the draft when both halves are
// set, otherwise derived from its priority.
func (e *Engine) AddTask(ctx context.Context, d models.Draft) (models.Task, error) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return models.Task{}, ErrEmptyTitle
	}
	urgent, important := models.ResolveEisenhower(d.Urgent, d.Important, d.Priority)

	status := d.Status
	if status == "" {
		status = models.StatusActive
	}
	typ := d.Type
	if typ == "" {
		typ = models.TypeTodo
	}

	t := models.Task{
		ID:            e.newID(),
		Title:         title,
		Description:   d.Description,
		Type:          typ,
		Status:        status,
		Urgent:        urgent,
		Important:     important,
		Clarified:     status != models.StatusInbox,
		Category:      strings.TrimSpace(d.Category),
		Tags:          d.Tags,
		Context:       d.Context,
		NextAction:    d.NextAction,
		DelegatedTo:   d.DelegatedTo,
		GoalID:        d.GoalID,
		DueDate:       d.DueDate,
		ScheduledDate: d.ScheduledDate,
		TimeEstimate:  d.TimeEstimate,
		CreatedAt:     e.now(),
	}
	e.stampStatus(&t, "")
	return e.insert(ctx, t, events.KindCreated)
}

// QuickCapture drops a bare title into the inbox for later clarification.
func (e *Engine) QuickCapture(ctx context.Context, title string) (models.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Task{}, ErrEmptyTitle
	}
	t := models.Task{
		ID:        e.newID(),
		Title:     title,
		Type:      models.TypeTodo,
		Status:    models.StatusInbox,
		Clarified: false,
		Category:  models.DefaultCategory,
		CreatedAt: e.now(),
	}
	return e.insert(ctx, t, events.KindCaptured)
}

// Clarify takes a task out of the inbox with the given Eisenhower pair.
func (e *Engine) Clarify(ctx context.Context, id string, urgent, important bool) (models.Task, error) {
	return e.mutate(ctx, id, func(t *models.Task) (events.Kind, error) {
		t.Clarified = true
		t.Status = models.StatusActive
		t.Urgent, t.Important = urgent, important
		return events.KindClarified, nil
	})
}

// UpdateTask shallow-merges p into the task. Eisenhower values in the patch
// win over the stored ones; a patch priority applies only when the patch
// sets neither half of the pair.
func (e *Engine) UpdateTask(ctx context.Context, id string, p models.Patch) (models.Task, error) {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return models.Task{}, ErrEmptyTitle
	}
	return e.apply(ctx, id, true, func(t *models.Task) (events.Kind, error) {
		prevStatus := t.Status
		applyPatch(t, p)
		e.stampStatus(t, prevStatus)
		if t.Status == models.StatusCompleted && prevStatus != models.StatusCompleted {
			return events.KindCompleted, nil
		}
		return events.KindUpdated, nil
	})
}

func applyPatch(t *models.Task, p models.Patch) {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	switch {
	case p.Urgent != nil || p.Important != nil:
		if p.Urgent != nil {
			t.Urgent = *p.Urgent
		}
		if p.Important != nil {
			t.Important = *p.Important
		}
	case p.Priority != nil:
		t.Urgent, t.Important = models.Inverse(*p.Priority)
	}
	if p.Category != nil {
		t.Category = strings.TrimSpace(*p.Category)
	}
	if p.Tags != nil {
		t.Tags = append([]string(nil), p.Tags...)
	}
	if p.Context != nil {
		t.Context = *p.Context
	}
	if p.NextAction != nil {
		t.NextAction = *p.NextAction
	}
	if p.DelegatedTo != nil {
		t.DelegatedTo = *p.DelegatedTo
	}
	if p.GoalID != nil {
		t.GoalID = *p.GoalID
	}
	if p.DueDate != nil {
		d := *p.DueDate
		t.DueDate = &d
	}
	if p.ClearDueDate {
		t.DueDate = nil
	}
	if p.ScheduledDate != nil {
		d := *p.ScheduledDate
		t.ScheduledDate = &d
	}
	if p.ClearScheduledDate {
		t.ScheduledDate = nil
	}
	if p.TimeEstimate != nil {
		v := *p.TimeEstimate
		t.TimeEstimate = &v
	}
	if t.Status == models.StatusInbox && p.Status != nil {
		t.Clarified = false
	}
}

// stampStatus sets the timestamps that entering a status implies, using the
// engine clock rather than the fallbacks Normalize would pick.
func (e *Engine) stampStatus(t *models.Task, from models.Status) {
	if t.Status == from {
		return
	}
	now := e.now()
	switch t.Status {
	case models.StatusCompleted:
		if t.CompletedAt == nil || from != "" {
			t.CompletedAt = &now
		}
	case models.StatusDeleted:
		if t.DeletedAt == nil || from != "" {
			t.DeletedAt = &now
		}
	}
}

// CompleteTask toggles completion. Completing records the time; reopening
// returns the task to active and clears it.
func (e *Engine) CompleteTask(ctx context.Context, id string) (models.Task, error) {
	return e.mutate(ctx, id, func(t *models.Task) (events.Kind, error) {
		if t.Completed() {
			t.Status = models.StatusActive
			t.CompletedAt = nil
			return events.KindReopened, nil
		}
		now := e.now()
		t.Status = models.StatusCompleted
		t.CompletedAt = &now
		return events.KindCompleted, nil
	})
}

// DeleteTask soft-deletes a task.
func (e *Engine) DeleteTask(ctx context.Context, id string) (models.Task, error) {
	return e.mutate(ctx, id, func(t *models.Task) (events.Kind, error) {
		now := e.now()
		t.Status = models.StatusDeleted
		t.DeletedAt = &now
		return events.KindDeleted, nil
	})
}

// RestoreTask brings a soft-deleted task back to active.
func (e *Engine) RestoreTask(ctx context.Context, id string) (models.Task, error) {
	return e.mutate(ctx, id, func(t *models.Task) (events.Kind, error) {
		if t.Status != models.StatusDeleted {
			return "", fmt.Errorf("%s is %s: %w", id, t.Status, ErrNotDeleted)
		}
		t.Status = models.StatusActive
		t.DeletedAt = nil
		return events.KindRestored, nil
	})
}

// PermanentlyDeleteTask removes a task from the collection and the backing
// store. It returns the removed task.
func (e *Engine) PermanentlyDeleteTask(ctx context.Context, id string) (models.Task, error) {
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
	gone := all[idx]
	remaining := append(all[:idx:idx], all[idx+1:]...)

	e.evicted = nil
	remote, err := e.router.Purge(ctx, id, remaining)
	if err != nil {
		e.evicted = nil
		return models.Task{}, fmt.Errorf("purge %s: %w", id, err)
	}
	e.bus.Publish(events.Event{Kind: events.KindPurged, At: e.now(), Task: gone, Authenticated: remote})
	e.tasks = e.dropEvicted(remaining)
	e.publishCollection(remote)
	return gone, nil
}

// ScheduleTask sets the scheduled date. A nil date clears it.
func (e *Engine) ScheduleTask(ctx context.Context, id string, date *time.Time) (models.Task, error) {
	return e.mutate(ctx, id, func(t *models.Task) (events.Kind, error) {
		if date == nil {
			t.ScheduledDate = nil
		} else {
			d := *date
			t.ScheduledDate = &d
		}
		return events.KindScheduled, nil
	})
}

// MoveToWaitingFor parks a task on someone else.
func (e *Engine) MoveToWaitingFor(ctx context.Context, id, delegatedTo string) (models.Task, error) {
	return e.moveTo(ctx, id, models.StatusWaitingFor, func(t *models.Task) {
		t.DelegatedTo = strings.TrimSpace(delegatedTo)
	})
}

// MoveToSomeday defers a task indefinitely.
func (e *Engine) MoveToSomeday(ctx context.Context, id string) (models.Task, error) {
	return e.moveTo(ctx, id, models.StatusSomeday, nil)
}

// MoveToActive makes a task actionable again.
func (e *Engine) MoveToActive(ctx context.Context, id string) (models.Task, error) {
	return e.moveTo(ctx, id, models.StatusActive, nil)
}

func (e *Engine) moveTo(ctx context.Context, id string, status models.Status, extra func(*models.Task)) (models.Task, error) {
	return e.mutate(ctx, id, func(t *models.Task) (events.Kind, error) {
		t.Status = status
		t.Clarified = true
		if extra != nil {
			extra(t)
		}
		return events.KindMoved, nil
	})
}
