// Package events carries domain events from task mutations to the
// subscribers that turn them into side effects.
package events

import (
	"time"

	"github.com/marcus/tdash/internal/models"
)

// Kind names a domain event.
type Kind string

// Task lifecycle events
const (
	KindCreated   Kind = "task.created"
	KindCaptured  Kind = "task.captured"
	KindClarified Kind = "task.clarified"
	KindUpdated   Kind = "task.updated"
	KindCompleted Kind = "task.completed"
	KindReopened  Kind = "task.reopened"
	KindDeleted   Kind = "task.deleted"
	KindRestored  Kind = "task.restored"
	KindPurged    Kind = "task.purged"
	KindScheduled Kind = "task.scheduled"
	KindMoved     Kind = "task.moved"
)

// Collection and side-effect events
const (
	KindCollectionChanged Kind = "collection.changed"
	KindMigrated          Kind = "collection.migrated"
	KindMilestone         Kind = "rewards.milestone"
	KindMirrorWritten     Kind = "mirror.written"
)

// Event is a single domain event. Which fields are meaningful depends on Kind.
type Event struct {
	Kind Kind
	At   time.Time

	// Task is the affected task after the change (before it, for KindPurged).
	Task models.Task
	// Tasks is the whole collection after the change (KindCollectionChanged).
	Tasks []models.Task
	// Authenticated records which backend took the write.
	Authenticated bool
	// Count is the migrated count (KindMigrated) or the completion total
	// (KindMilestone).
	Count int
}

// AllKinds returns all valid kinds.
func AllKinds() map[Kind]bool {
	return map[Kind]bool{
		KindCreated:           true,
		KindCaptured:          true,
		KindClarified:         true,
		KindUpdated:           true,
		KindCompleted:         true,
		KindReopened:          true,
		KindDeleted:           true,
		KindRestored:          true,
		KindPurged:            true,
		KindScheduled:         true,
		KindMoved:             true,
		KindCollectionChanged: true,
		KindMigrated:          true,
		KindMilestone:         true,
		KindMirrorWritten:     true,
	}
}

// IsValidKind checks if the given kind string is valid.
func IsValidKind(k string) bool {
	return AllKinds()[Kind(k)]
}

// IsTaskKind reports whether events of this kind carry a single task.
func (k Kind) IsTaskKind() bool {
	switch k {
	case KindCreated, KindCaptured, KindClarified, KindUpdated, KindCompleted, KindReopened,
		KindDeleted, KindRestored, KindPurged, KindScheduled, KindMoved:
		return true
	}
	return false
}
