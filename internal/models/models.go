package models

import (
	"strings"
	"time"
)

// Status represents task status
type Status string

const (
	StatusInbox      Status = "inbox"
	StatusActive     Status = "active"
	StatusCompleted  Status = "completed"
	StatusDeleted    Status = "deleted"
	StatusWaitingFor Status = "waiting-for"
	StatusSomeday    Status = "someday"
)

// Type represents task type
type Type string

const (
	TypeTodo      Type = "todo"
	TypeNotTodo   Type = "not-todo"
	TypeProject   Type = "project"
	TypeReference Type = "reference"
)

// Priority represents the four-level priority. It is never stored on a Task;
// it is computed from the Eisenhower pair.
type Priority string

const (
	PriorityUrgent Priority = "urgent" // urgent + important
	PriorityHigh   Priority = "high"   // important only
	PriorityMedium Priority = "medium" // urgent only
	PriorityLow    Priority = "low"    // neither
)

// DefaultCategory is assigned to tasks created without a category.
const DefaultCategory = "general"

// Task is the unified task record.
type Task struct {
	ID            string
	Title         string
	Description   string
	Type          Type
	Status        Status
	Urgent        bool
	Important     bool
	Clarified     bool
	Category      string
	Tags          []string
	Context       string
	NextAction    string
	DelegatedTo   string
	GoalID        string
	DueDate       *time.Time
	ScheduledDate *time.Time
	TimeEstimate  *int // minutes
	CreatedAt     time.Time
	CompletedAt   *time.Time
	DeletedAt     *time.Time
}

// Priority returns the priority derived from the Eisenhower pair.
func (t Task) Priority() Priority {
	return Derive(t.Urgent, t.Important)
}

// Completed reports whether the task is in the completed state.
func (t Task) Completed() bool {
	return t.Status == StatusCompleted
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	c := t
	if t.Tags != nil {
		c.Tags = append([]string(nil), t.Tags...)
	}
	c.DueDate = cloneTime(t.DueDate)
	c.ScheduledDate = cloneTime(t.ScheduledDate)
	c.CompletedAt = cloneTime(t.CompletedAt)
	c.DeletedAt = cloneTime(t.DeletedAt)
	if t.TimeEstimate != nil {
		v := *t.TimeEstimate
		c.TimeEstimate = &v
	}
	return c
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Draft holds the caller-supplied fields for a new task.
// Urgent/Important win over Priority when both are set.
type Draft struct {
	Title         string
	Description   string
	Type          Type
	Status        Status
	Priority      Priority
	Urgent        *bool
	Important     *bool
	Category      string
	Tags          []string
	Context       string
	NextAction    string
	DelegatedTo   string
	GoalID        string
	DueDate       *time.Time
	ScheduledDate *time.Time
	TimeEstimate  *int
}

// Patch is a shallow update. Nil fields are left untouched.
type Patch struct {
	Title         *string
	Description   *string
	Type          *Type
	Status        *Status
	Urgent        *bool
	Important     *bool
	Priority      *Priority // only used when neither Urgent nor Important is set
	Category      *string
	Tags          []string
	Context       *string
	NextAction    *string
	DelegatedTo   *string
	GoalID        *string
	DueDate       *time.Time
	ScheduledDate *time.Time
	TimeEstimate  *int

	ClearDueDate       bool
	ClearScheduledDate bool
}

// IsValidStatus checks if a status is valid
func IsValidStatus(s Status) bool {
	switch s {
	case StatusInbox, StatusActive, StatusCompleted, StatusDeleted, StatusWaitingFor, StatusSomeday:
		return true
	}
	return false
}

// IsValidType checks if a type is valid
func IsValidType(t Type) bool {
	switch t {
	case TypeTodo, TypeNotTodo, TypeProject, TypeReference:
		return true
	}
	return false
}

// IsValidPriority checks if a priority is valid
func IsValidPriority(p Priority) bool {
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// NormalizeStatus converts alternate status names to canonical form
// Accepts: "waiting", "waiting_for", "done", "trash", "next"
func NormalizeStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "waiting", "waiting_for", "waitingfor":
		return StatusWaitingFor
	case "done", "complete":
		return StatusCompleted
	case "trash", "trashed":
		return StatusDeleted
	case "next", "next-action", "next_action":
		return StatusActive
	default:
		return Status(strings.ToLower(strings.TrimSpace(s)))
	}
}

// NormalizeType converts alternate type names to canonical form
// Accepts: "task", "not_todo", "nottodo", "ref"
func NormalizeType(t string) Type {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "task", "action":
		return TypeTodo
	case "not_todo", "nottodo", "todo-not", "not":
		return TypeNotTodo
	case "ref":
		return TypeReference
	default:
		return Type(strings.ToLower(strings.TrimSpace(t)))
	}
}

// NormalizePriority converts alternate priority names to canonical form
// Accepts: "critical" for urgent, "normal" for medium, "none" for low
func NormalizePriority(p string) Priority {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "critical":
		return PriorityUrgent
	case "normal":
		return PriorityMedium
	case "none":
		return PriorityLow
	default:
		return Priority(strings.ToLower(strings.TrimSpace(p)))
	}
}

// AllStatuses returns every status in lifecycle order.
func AllStatuses() []Status {
	return []Status{StatusInbox, StatusActive, StatusWaitingFor, StatusSomeday, StatusCompleted, StatusDeleted}
}

// AllTypes returns every task type.
func AllTypes() []Type {
	return []Type{TypeTodo, TypeNotTodo, TypeProject, TypeReference}
}
