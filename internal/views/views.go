// Package views computes the named slices of the task collection. Every
// function is pure and preserves collection order.
package views

import "github.com/marcus/tdash/internal/models"

// Name identifies a view.
type Name string

const (
	Inbox      Name = "inbox"
	Active     Name = "active"
	WaitingFor Name = "waiting"
	Someday    Name = "someday"
	Deleted    Name = "deleted"
	Projects   Name = "projects"
	All        Name = "all"
)

func filter(tasks []models.Task, keep func(models.Task) bool) []models.Task {
	var out []models.Task
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// InboxTasks returns tasks still waiting for triage.
func InboxTasks(tasks []models.Task) []models.Task {
	return filter(tasks, func(t models.Task) bool {
		return t.Status == models.StatusInbox && !t.Clarified
	})
}

// ActiveTasks returns active, uncompleted tasks.
func ActiveTasks(tasks []models.Task) []models.Task {
	return filter(tasks, func(t models.Task) bool {
		return t.Status == models.StatusActive && !t.Completed()
	})
}

// ByType returns non-deleted tasks of the given type.
func ByType(tasks []models.Task, typ models.Type) []models.Task {
	return filter(tasks, func(t models.Task) bool {
		return t.Type == typ && t.Status != models.StatusDeleted
	})
}

// WaitingForTasks returns delegated tasks.
func WaitingForTasks(tasks []models.Task) []models.Task {
	return byStatus(tasks, models.StatusWaitingFor)
}

// SomedayTasks returns deferred tasks.
func SomedayTasks(tasks []models.Task) []models.Task {
	return byStatus(tasks, models.StatusSomeday)
}

// DeletedTasks returns soft-deleted tasks.
func DeletedTasks(tasks []models.Task) []models.Task {
	return byStatus(tasks, models.StatusDeleted)
}

// ProjectTasks returns non-deleted projects.
func ProjectTasks(tasks []models.Task) []models.Task {
	return ByType(tasks, models.TypeProject)
}

func byStatus(tasks []models.Task, s models.Status) []models.Task {
	return filter(tasks, func(t models.Task) bool { return t.Status == s })
}

// Get returns the task with the given id.
func Get(tasks []models.Task, id string) (models.Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

// Project returns the named view. ok is false for unknown names.
func Project(tasks []models.Task, name Name) (out []models.Task, ok bool) {
	switch name {
	case Inbox:
		return InboxTasks(tasks), true
	case Active:
		return ActiveTasks(tasks), true
	case WaitingFor:
		return WaitingForTasks(tasks), true
	case Someday:
		return SomedayTasks(tasks), true
	case Deleted:
		return DeletedTasks(tasks), true
	case Projects:
		return ProjectTasks(tasks), true
	case All:
		return filter(tasks, func(models.Task) bool { return true }), true
	}
	return nil, false
}

// Counts summarizes the collection for a dashboard header.
type Counts struct {
	Inbox      int `json:"inbox"`
	Active     int `json:"active"`
	WaitingFor int `json:"waiting_for"`
	Someday    int `json:"someday"`
	Completed  int `json:"completed"`
	Deleted    int `json:"deleted"`
	Projects   int `json:"projects"`
}

// Count computes Counts in one pass.
func Count(tasks []models.Task) Counts {
	var c Counts
	for _, t := range tasks {
		switch t.Status {
		case models.StatusInbox:
			if !t.Clarified {
				c.Inbox++
			}
		case models.StatusActive:
			c.Active++
		case models.StatusWaitingFor:
			c.WaitingFor++
		case models.StatusSomeday:
			c.Someday++
		case models.StatusCompleted:
			c.Completed++
		case models.StatusDeleted:
			c.Deleted++
		}
		if t.Type == models.TypeProject && t.Status != models.StatusDeleted {
			c.Projects++
		}
	}
	return c
}
