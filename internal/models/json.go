package models

import (
	"encoding/json"
	"time"
)

// taskJSON is the camelCase wire form used by the local store. It carries
// both priority representations and the completed flag for readers that
// predate the computed fields.
type taskJSON struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Type          string     `json:"type"`
	Status        string     `json:"status"`
	Priority      string     `json:"priority"`
	Urgent        *bool      `json:"urgent,omitempty"`
	Important     *bool      `json:"important,omitempty"`
	Clarified     bool       `json:"clarified"`
	Category      string     `json:"category"`
	Tags          []string   `json:"tags,omitempty"`
	Context       string     `json:"context,omitempty"`
	NextAction    string     `json:"nextAction,omitempty"`
	DelegatedTo   string     `json:"delegatedTo,omitempty"`
	GoalID        string     `json:"goalId,omitempty"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	ScheduledDate *time.Time `json:"scheduledDate,omitempty"`
	TimeEstimate  *int       `json:"timeEstimate,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	DeletedAt     *time.Time `json:"deletedAt,omitempty"`
	Completed     *bool      `json:"completed,omitempty"`
}

// MarshalJSON writes the camelCase wire form.
func (t Task) MarshalJSON() ([]byte, error) {
	urgent, important, completed := t.Urgent, t.Important, t.Completed()
	return json.Marshal(taskJSON{
		ID:            t.ID,
		Title:         t.Title,
		Description:   t.Description,
		Type:          string(t.Type),
		Status:        string(t.Status),
		Priority:      string(t.Priority()),
		Urgent:        &urgent,
		Important:     &important,
		Clarified:     t.Clarified,
		Category:      t.Category,
		Tags:          t.Tags,
		Context:       t.Context,
		NextAction:    t.NextAction,
		DelegatedTo:   t.DelegatedTo,
		GoalID:        t.GoalID,
		DueDate:       t.DueDate,
		ScheduledDate: t.ScheduledDate,
		TimeEstimate:  t.TimeEstimate,
		CreatedAt:     t.CreatedAt,
		CompletedAt:   t.CompletedAt,
		DeletedAt:     t.DeletedAt,
		Completed:     &completed,
	})
}

// UnmarshalJSON reads the wire form and normalizes the result.
func (t *Task) UnmarshalJSON(data []byte) error {
	var w taskJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	status := Status(w.Status)
	if w.Status == "" {
		status = StatusActive
		if w.Completed != nil && *w.Completed {
			status = StatusCompleted
		}
	}
	urgent, important := ResolveEisenhower(w.Urgent, w.Important, Priority(w.Priority))
	*t = Normalize(Task{
		ID:            w.ID,
		Title:         w.Title,
		Description:   w.Description,
		Type:          Type(w.Type),
		Status:        status,
		Urgent:        urgent,
		Important:     important,
		Clarified:     w.Clarified,
		Category:      w.Category,
		Tags:          w.Tags,
		Context:       w.Context,
		NextAction:    w.NextAction,
		DelegatedTo:   w.DelegatedTo,
		GoalID:        w.GoalID,
		DueDate:       w.DueDate,
		ScheduledDate: w.ScheduledDate,
		TimeEstimate:  w.TimeEstimate,
		CreatedAt:     w.CreatedAt,
		CompletedAt:   w.CompletedAt,
		DeletedAt:     w.DeletedAt,
	})
	return nil
}
