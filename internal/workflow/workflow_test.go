package workflow

import (
	"errors"
	"testing"

	"github.com/marcus/tdash/internal/models"
)

func TestIsValidTransition(t *testing.T) {
	sm := DefaultMachine()

	tests := []struct {
		name     string
		from     models.Status
		to       models.Status
		expected bool
	}{
		{"inbox → active", models.StatusInbox, models.StatusActive, true},
		{"active → completed", models.StatusActive, models.StatusCompleted, true},
		{"active → waiting-for", models.StatusActive, models.StatusWaitingFor, true},
		{"active → someday", models.StatusActive, models.StatusSomeday, true},
		{"active → deleted", models.StatusActive, models.StatusDeleted, true},
		{"completed → active", models.StatusCompleted, models.StatusActive, true},
		{"deleted → active", models.StatusDeleted, models.StatusActive, true},
		{"active → active", models.StatusActive, models.StatusActive, true},

		// Off the diagram
		{"inbox → completed", models.StatusInbox, models.StatusCompleted, false},
		{"someday → active", models.StatusSomeday, models.StatusActive, false},
		{"completed → deleted", models.StatusCompleted, models.StatusDeleted, false},
		{"active → inbox", models.StatusActive, models.StatusInbox, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sm.IsValidTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidTransition(%s, %s) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestCheckModes(t *testing.T) {
	from, to := models.StatusSomeday, models.StatusActive

	ok, err := New(ModeLiberal).Check("t1", from, to)
	if !ok || err != nil {
		t.Errorf("liberal: got ok=%v err=%v", ok, err)
	}

	ok, err = New(ModeAdvisory).Check("t1", from, to)
	if ok || err != nil {
		t.Errorf("advisory: got ok=%v err=%v, want ok=false err=nil", ok, err)
	}

	_, err = New(ModeStrict).Check("t1", from, to)
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("strict: got %v, want *TransitionError", err)
	}
	if te.TaskID != "t1" || te.From != from || te.To != to {
		t.Errorf("strict error fields: got %+v", te)
	}
}

func TestCheckOp(t *testing.T) {
	from, to := models.StatusSomeday, models.StatusActive

	ok, err := New(ModeStrict).CheckOp("t1", from, to)
	if ok || err != nil {
		t.Errorf("strict: got ok=%v err=%v, want ok=false err=nil", ok, err)
	}
	ok, err = New(ModeStrict).CheckOp("t1", models.StatusInbox, models.StatusActive)
	if !ok || err != nil {
		t.Errorf("strict on diagram: got ok=%v err=%v", ok, err)
	}
	ok, _ = New(ModeLiberal).CheckOp("t1", from, to)
	if !ok {
		t.Error("liberal: got ok=false")
	}
	if _, err := New(ModeStrict).CheckOp("t1", from, models.Status("archived")); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestCheckUnknownStatus(t *testing.T) {
	for _, mode := range []TransitionMode{ModeLiberal, ModeAdvisory, ModeStrict} {
		if _, err := New(mode).Check("t1", models.StatusActive, models.Status("archived")); err == nil {
			t.Errorf("mode %d: expected error for unknown status", mode)
		}
	}
}

func TestGetAllowedTransitions(t *testing.T) {
	sm := DefaultMachine()

	got := sm.GetAllowedTransitions(models.StatusActive)
	want := []models.Status{models.StatusCompleted, models.StatusDeleted, models.StatusSomeday, models.StatusWaitingFor}
	if len(got) != len(want) {
		t.Fatalf("from active: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("from active: got %v, want %v", got, want)
		}
	}

	if got := sm.GetAllowedTransitions(models.StatusWaitingFor); len(got) != 0 {
		t.Errorf("from waiting-for: got %v, want none", got)
	}
}

func TestGetTransitionOp(t *testing.T) {
	sm := DefaultMachine()
	if tr := sm.GetTransition(models.StatusDeleted, models.StatusActive); tr == nil || tr.Op != "restore" {
		t.Fatalf("deleted → active: got %+v", tr)
	}
	if tr := sm.GetTransition(models.StatusInbox, models.StatusDeleted); tr != nil {
		t.Fatalf("inbox → deleted: got %+v, want nil", tr)
	}
}
