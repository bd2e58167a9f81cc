// Package legacy reads task collections written by earlier, incompatible
// versions of the dashboard and converts them into the unified shape.
package legacy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/marcus/tdash/internal/models"
)

// Timestamp decodes the date encodings found in old stores: RFC 3339
// strings, bare YYYY-MM-DD dates and epoch milliseconds.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON accepts a string, a number or null.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] != '"' {
		ms, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return fmt.Errorf("timestamp %s: %w", data, err)
		}
		ts.Time = time.UnixMilli(ms).UTC()
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			ts.Time = t
			return nil
		}
	}
	return fmt.Errorf("timestamp %q: unrecognized format", s)
}

// MarshalJSON writes RFC 3339, or null for the zero time.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Time.Format(time.RFC3339Nano))
}

// Ptr returns nil for the zero time.
func (ts *Timestamp) Ptr() *time.Time {
	if ts == nil || ts.IsZero() {
		return nil
	}
	t := ts.Time
	return &t
}

func stamp(t *time.Time) *Timestamp {
	if t == nil {
		return nil
	}
	return &Timestamp{*t}
}

// ActionRecord is the flat "actions" shape: booleans for completion and
// deletion, a single priority string, no Eisenhower fields.
type ActionRecord struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Notes       string     `json:"notes,omitempty"`
	Completed   bool       `json:"completed"`
	Deleted     bool       `json:"deleted"`
	IsToDoNot   bool       `json:"isToDoNot"`
	Priority    string     `json:"priority,omitempty"`
	Category    string     `json:"category,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	DueDate     *Timestamp `json:"dueDate,omitempty"`
	CreatedAt   *Timestamp `json:"createdAt,omitempty"`
	CompletedAt *Timestamp `json:"completedAt,omitempty"`
	DeletedAt   *Timestamp `json:"deletedAt,omitempty"`
}

// GTDClarification is the nested triage block of a GTD item.
type GTDClarification struct {
	Clarified    bool   `json:"clarified"`
	Context      string `json:"context,omitempty"`
	NextAction   string `json:"nextAction,omitempty"`
	DelegatedTo  string `json:"delegatedTo,omitempty"`
	TimeEstimate *int   `json:"timeEstimate,omitempty"`
}

// GTDRecord is the "GTD" shape: a string status that includes inbox,
// waiting and someday, plus a nested clarification flag.
type GTDRecord struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Description   string            `json:"description,omitempty"`
	Status        string            `json:"status"`
	Type          string            `json:"type,omitempty"`
	Priority      string            `json:"priority,omitempty"`
	Urgent        *bool             `json:"urgent,omitempty"`
	Important     *bool             `json:"important,omitempty"`
	Category      string            `json:"category,omitempty"`
	Tags          []string          `json:"tags,omitempty"`
	GoalID        string            `json:"goalId,omitempty"`
	Clarification *GTDClarification `json:"clarification,omitempty"`
	DueDate       *Timestamp        `json:"dueDate,omitempty"`
	ScheduledDate *Timestamp        `json:"scheduledDate,omitempty"`
	CreatedAt     *Timestamp        `json:"createdAt,omitempty"`
	CompletedAt   *Timestamp        `json:"completedAt,omitempty"`
}

// FromAction converts an actions record.
func FromAction(r ActionRecord) models.Task {
	status := models.StatusActive
	switch {
	case r.Deleted:
		status = models.StatusDeleted
	case r.Completed:
		status = models.StatusCompleted
	}
	typ := models.TypeTodo
	if r.IsToDoNot {
		typ = models.TypeNotTodo
	}
	urgent, important := models.Inverse(models.Priority(r.Priority))

	t := models.Task{
		ID:          r.ID,
		Title:       strings.TrimSpace(r.Title),
		Description: r.Notes,
		Type:        typ,
		Status:      status,
		Urgent:      urgent,
		Important:   important,
		Clarified:   true,
		Category:    r.Category,
		Tags:        r.Tags,
		DueDate:     r.DueDate.Ptr(),
		CompletedAt: r.CompletedAt.Ptr(),
		DeletedAt:   r.DeletedAt.Ptr(),
	}
	if c := r.CreatedAt.Ptr(); c != nil {
		t.CreatedAt = *c
	}
	return models.Normalize(t)
}

// ToAction projects a task onto the actions shape.
func ToAction(t models.Task) ActionRecord {
	created := t.CreatedAt
	return ActionRecord{
		ID:          t.ID,
		Title:       t.Title,
		Notes:       t.Description,
		Completed:   t.Completed(),
		Deleted:     t.Status == models.StatusDeleted,
		IsToDoNot:   t.Type == models.TypeNotTodo,
		Priority:    string(t.Priority()),
		Category:    t.Category,
		Tags:        t.Tags,
		DueDate:     stamp(t.DueDate),
		CreatedAt:   stamp(&created),
		CompletedAt: stamp(t.CompletedAt),
		DeletedAt:   stamp(t.DeletedAt),
	}
}

// gtdStatus maps a GTD status string. Unknown values fall back on the
// clarification flag.
func gtdStatus(s string, clarified bool) models.Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inbox":
		return models.StatusInbox
	case "next", "active", "next-action":
		return models.StatusActive
	case "waiting", "waiting-for", "waiting_for":
		return models.StatusWaitingFor
	case "someday", "someday-maybe", "maybe":
		return models.StatusSomeday
	case "done", "completed":
		return models.StatusCompleted
	case "trash", "deleted":
		return models.StatusDeleted
	}
	if clarified {
		return models.StatusActive
	}
	return models.StatusInbox
}

// FromGTD converts a GTD record.
func FromGTD(r GTDRecord) models.Task {
	var c GTDClarification
	if r.Clarification != nil {
		c = *r.Clarification
	}
	status := gtdStatus(r.Status, c.Clarified)
	urgent, important := models.ResolveEisenhower(r.Urgent, r.Important, models.Priority(r.Priority))

	typ := models.NormalizeType(r.Type)
	if r.Type == "" {
		typ = models.TypeTodo
	}

	t := models.Task{
		ID:            r.ID,
		Title:         strings.TrimSpace(r.Title),
		Description:   r.Description,
		Type:          typ,
		Status:        status,
		Urgent:        urgent,
		Important:     important,
		Clarified:     c.Clarified,
		Category:      r.Category,
		Tags:          r.Tags,
		Context:       c.Context,
		NextAction:    c.NextAction,
		DelegatedTo:   c.DelegatedTo,
		GoalID:        r.GoalID,
		DueDate:       r.DueDate.Ptr(),
		ScheduledDate: r.ScheduledDate.Ptr(),
		TimeEstimate:  c.TimeEstimate,
		CompletedAt:   r.CompletedAt.Ptr(),
	}
	if cr := r.CreatedAt.Ptr(); cr != nil {
		t.CreatedAt = *cr
	}
	return models.Normalize(t)
}
