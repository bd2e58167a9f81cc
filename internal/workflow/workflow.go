// Package workflow describes the task status lifecycle and checks mutations
// against it.
package workflow

import (
	"fmt"
	"sort"

	"github.com/marcus/tdash/internal/models"
)

// TransitionMode controls what happens to a move that is off the lifecycle
// diagram.
type TransitionMode int

const (
	// ModeLiberal allows every move between valid statuses
	ModeLiberal TransitionMode = iota
	// ModeAdvisory allows every move but reports off-diagram ones
	ModeAdvisory
	// ModeStrict rejects off-diagram moves made through a status edit
	ModeStrict
)

// Transition is one edge of the lifecycle.
type Transition struct {
	From models.Status
	To   models.Status
	// Op names the operation that normally takes this edge.
	Op string
}

// TransitionError is returned in strict mode for an off-diagram move made
// by editing the status directly.
type TransitionError struct {
	TaskID string
	From   models.Status
	To     models.Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("task %s: %s -> %s is not a lifecycle transition", e.TaskID, e.From, e.To)
}

// AllTransitions lists the lifecycle edges: forward from inbox through
// active to the four resting states, with completed and deleted returning to
// active.
func AllTransitions() []*Transition {
	return []*Transition{
		{From: models.StatusInbox, To: models.StatusActive, Op: "clarify"},
		{From: models.StatusActive, To: models.StatusCompleted, Op: "complete"},
		{From: models.StatusActive, To: models.StatusWaitingFor, Op: "wait"},
		{From: models.StatusActive, To: models.StatusSomeday, Op: "someday"},
		{From: models.StatusActive, To: models.StatusDeleted, Op: "delete"},
		{From: models.StatusCompleted, To: models.StatusActive, Op: "reopen"},
		{From: models.StatusDeleted, To: models.StatusActive, Op: "restore"},
	}
}

// StateMachine manages task status transitions
type StateMachine struct {
	transitions map[models.Status]map[models.Status]*Transition
	mode        TransitionMode
}

// New creates a new StateMachine with the given mode
func New(mode TransitionMode) *StateMachine {
	sm := &StateMachine{
		transitions: make(map[models.Status]map[models.Status]*Transition),
		mode:        mode,
	}
	for _, t := range AllTransitions() {
		if sm.transitions[t.From] == nil {
			sm.transitions[t.From] = make(map[models.Status]*Transition)
		}
		sm.transitions[t.From][t.To] = t
	}
	return sm
}

// DefaultMachine returns an advisory machine.
func DefaultMachine() *StateMachine {
	return New(ModeAdvisory)
}

// Mode returns the current transition mode
func (sm *StateMachine) Mode() TransitionMode {
	return sm.mode
}

// IsValidTransition reports whether from -> to is on the diagram. Staying in
// the same status is always valid.
func (sm *StateMachine) IsValidTransition(from, to models.Status) bool {
	if from == to {
		return models.IsValidStatus(from)
	}
	_, ok := sm.transitions[from][to]
	return ok
}

// GetTransition returns the edge definition if it exists
func (sm *StateMachine) GetTransition(from, to models.Status) *Transition {
	return sm.transitions[from][to]
}

// Check validates a move for the task with the given id. In advisory mode an
// off-diagram move returns ok=false and a nil error; in strict mode it
// returns a *TransitionError. Moves to an unknown status are always an
// error.
func (sm *StateMachine) Check(taskID string, from, to models.Status) (ok bool, err error) {
	if !models.IsValidStatus(to) {
		return false, &TransitionError{TaskID: taskID, From: from, To: to}
	}
	if sm.IsValidTransition(from, to) {
		return true, nil
	}
	switch sm.mode {
	case ModeLiberal:
		return true, nil
	case ModeStrict:
		return false, &TransitionError{TaskID: taskID, From: from, To: to}
	}
	return false, nil
}

// CheckOp validates a move made by a named lifecycle operation such as
// delete or moveToActive. Those operations are allowed from any status the
// engine lets them start from, so strict mode does not reject them; ok is
// still false for an off-diagram move outside liberal mode.
func (sm *StateMachine) CheckOp(taskID string, from, to models.Status) (ok bool, err error) {
	if !models.IsValidStatus(to) {
		return false, &TransitionError{TaskID: taskID, From: from, To: to}
	}
	return sm.mode == ModeLiberal || sm.IsValidTransition(from, to), nil
}

// GetAllowedTransitions returns the diagram targets from a status, sorted.
func (sm *StateMachine) GetAllowedTransitions(from models.Status) []models.Status {
	var allowed []models.Status
	for to := range sm.transitions[from] {
		allowed = append(allowed, to)
	}
	sort.Slice(allowed, func(i, j int) bool { return allowed[i] < allowed[j] })
	return allowed
}
