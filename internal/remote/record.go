package remote

import (
	"encoding/json"
	"time"

	"github.com/marcus/tdash/internal/models"
)

// Record is the snake_case wire form of a task exchanged with the server.
type Record struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Type          string     `json:"type"`
	Status        string     `json:"status"`
	Priority      string     `json:"priority"`
	Urgent        *bool      `json:"urgent"`
	Important     *bool      `json:"important"`
	Completed     bool       `json:"completed"`
	Clarified     bool       `json:"clarified"`
	Category      string     `json:"category,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	Context       string     `json:"context,omitempty"`
	NextAction    string     `json:"next_action,omitempty"`
	DelegatedTo   string     `json:"delegated_to,omitempty"`
	GoalID        string     `json:"goal_id,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
	TimeEstimate  *int       `json:"time_estimate,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// camelFields covers the multi-word fields some older servers send in
// camelCase.
type camelFields struct {
	UserID        string     `json:"userId"`
	NextAction    string     `json:"nextAction"`
	DelegatedTo   string     `json:"delegatedTo"`
	GoalID        string     `json:"goalId"`
	DueDate       *time.Time `json:"dueDate"`
	ScheduledDate *time.Time `json:"scheduledDate"`
	TimeEstimate  *int       `json:"timeEstimate"`
	CreatedAt     *time.Time `json:"createdAt"`
	CompletedAt   *time.Time `json:"completedAt"`
	DeletedAt     *time.Time `json:"deletedAt"`
}

// UnmarshalJSON reads snake_case fields and falls back to their camelCase
// spelling when the snake_case one is absent.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var c camelFields
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	*r = Record(p)

	if r.UserID == "" {
		r.UserID = c.UserID
	}
	if r.NextAction == "" {
		r.NextAction = c.NextAction
	}
	if r.DelegatedTo == "" {
		r.DelegatedTo = c.DelegatedTo
	}
	if r.GoalID == "" {
		r.GoalID = c.GoalID
	}
	if r.DueDate == nil {
		r.DueDate = c.DueDate
	}
	if r.ScheduledDate == nil {
		r.ScheduledDate = c.ScheduledDate
	}
	if r.TimeEstimate == nil {
		r.TimeEstimate = c.TimeEstimate
	}
	if r.CreatedAt.IsZero() && c.CreatedAt != nil {
		r.CreatedAt = *c.CreatedAt
	}
	if r.CompletedAt == nil {
		r.CompletedAt = c.CompletedAt
	}
	if r.DeletedAt == nil {
		r.DeletedAt = c.DeletedAt
	}
	return nil
}

// ToRecord maps a task onto the wire form for the given user.
func ToRecord(userID string, t models.Task) Record {
	return Record{
		ID:            t.ID,
		UserID:        userID,
		Title:         t.Title,
		Description:   t.Description,
		Type:          string(t.Type),
		Status:        string(t.Status),
		Priority:      string(t.Priority()),
		Urgent:        &t.Urgent,
		Important:     &t.Important,
		Completed:     t.Completed(),
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
	}
}

// FromRecord maps a wire record back to a normalized task.
func FromRecord(r Record) models.Task {
	status := models.NormalizeStatus(r.Status)
	if r.Status == "" {
		status = models.StatusActive
		if r.Completed {
			status = models.StatusCompleted
		}
	}
	urgent, important := models.ResolveEisenhower(r.Urgent, r.Important, models.Priority(r.Priority))
	return models.Normalize(models.Task{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		Type:          models.NormalizeType(r.Type),
		Status:        status,
		Urgent:        urgent,
		Important:     important,
		Clarified:     r.Clarified,
		Category:      r.Category,
		Tags:          r.Tags,
		Context:       r.Context,
		NextAction:    r.NextAction,
		DelegatedTo:   r.DelegatedTo,
		GoalID:        r.GoalID,
		DueDate:       r.DueDate,
		ScheduledDate: r.ScheduledDate,
		TimeEstimate:  r.TimeEstimate,
		CreatedAt:     r.CreatedAt,
		CompletedAt:   r.CompletedAt,
		DeletedAt:     r.DeletedAt,
	})
}
