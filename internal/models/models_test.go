package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDeriveQuadrants(t *testing.T) {
	tests := []struct {
		urgent, important bool
		want              Priority
	}{
		{true, true, PriorityUrgent},
		{false, true, PriorityHigh},
		{true, false, PriorityMedium},
		{false, false, PriorityLow},
	}
	for _, tt := range tests {
		if got := Derive(tt.urgent, tt.important); got != tt.want {
			t.Errorf("Derive(%v, %v): got %s, want %s", tt.urgent, tt.important, got, tt.want)
		}
	}
}

func TestDeriveInverseRoundTrip(t *testing.T) {
	for _, u := range []bool{true, false} {
		for _, i := range []bool{true, false} {
			p := Derive(u, i)
			if got := Derive(Inverse(p)); got != p {
				t.Errorf("round trip (%v, %v): got %s, want %s", u, i, got, p)
			}
		}
	}
}

func TestInverseUnknownPriority(t *testing.T) {
	u, i := Inverse("whenever")
	if u || i {
		t.Fatalf("unknown priority: got (%v, %v), want (false, false)", u, i)
	}
	if u, i := Inverse("critical"); !u || !i {
		t.Fatalf("alias critical: got (%v, %v), want (true, true)", u, i)
	}
}

func TestResolveEisenhower(t *testing.T) {
	yes, no := true, false

	// Both present: booleans win over a disagreeing priority
	u, i := ResolveEisenhower(&yes, &no, PriorityHigh)
	if Derive(u, i) != PriorityMedium {
		t.Fatalf("both present: got %s, want medium", Derive(u, i))
	}

	// One missing: derived from priority
	u, i = ResolveEisenhower(&yes, nil, PriorityHigh)
	if u || !i {
		t.Fatalf("partial: got (%v, %v), want (false, true)", u, i)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	n := Normalize(Task{ID: "a", Title: "x", Type: "bogus", Status: "bogus"})
	if n.Type != TypeTodo {
		t.Errorf("type: got %s, want todo", n.Type)
	}
	if n.Status != StatusActive {
		t.Errorf("status: got %s, want active", n.Status)
	}
	if n.Category != DefaultCategory {
		t.Errorf("category: got %q, want %q", n.Category, DefaultCategory)
	}
	if !n.Clarified {
		t.Error("active task should be clarified")
	}
}

func TestNormalizeAliases(t *testing.T) {
	n := Normalize(Task{ID: "a", Type: "task", Status: "waiting"})
	if n.Type != TypeTodo || n.Status != StatusWaitingFor {
		t.Fatalf("aliases: got (%s, %s), want (todo, waiting-for)", n.Type, n.Status)
	}
}

func TestNormalizeTimestamps(t *testing.T) {
	created := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	done := created.Add(time.Hour)

	n := Normalize(Task{ID: "a", Status: StatusActive, CreatedAt: created, CompletedAt: &done, DeletedAt: &done})
	if n.CompletedAt != nil || n.DeletedAt != nil {
		t.Fatal("active task must not carry completedAt/deletedAt")
	}

	n = Normalize(Task{ID: "a", Status: StatusDeleted, CreatedAt: created, CompletedAt: &done})
	if n.DeletedAt == nil || !n.DeletedAt.Equal(done) {
		t.Fatalf("deleted without deletedAt: got %v, want %v", n.DeletedAt, done)
	}

	n = Normalize(Task{ID: "a", Status: StatusCompleted, CreatedAt: created})
	if n.CompletedAt == nil || !n.Completed() {
		t.Fatal("completed task must have completedAt")
	}
}

func TestNormalizeKeepsInboxUnclarified(t *testing.T) {
	n := Normalize(Task{ID: "a", Status: StatusInbox})
	if n.Clarified {
		t.Fatal("inbox task should stay unclarified")
	}
}

func TestNormalizeDoesNotAlias(t *testing.T) {
	due := time.Now()
	orig := Task{ID: "a", Status: StatusActive, Tags: []string{"x"}, DueDate: &due}
	n := Normalize(orig)
	n.Tags[0] = "y"
	*n.DueDate = due.Add(time.Hour)
	if orig.Tags[0] != "x" || !orig.DueDate.Equal(due) {
		t.Fatal("Normalize must not share slices or pointers with its input")
	}
}

func TestUnmarshalEisenhowerAuthoritative(t *testing.T) {
	var task Task
	raw := `{"id":"t1","title":"Pay rent","status":"active","priority":"low","urgent":true,"important":true,"clarified":true}`
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if task.Priority() != PriorityUrgent {
		t.Fatalf("priority: got %s, want urgent", task.Priority())
	}
}

func TestUnmarshalPriorityOnly(t *testing.T) {
	var task Task
	raw := `{"id":"t1","title":"Call mom","status":"active","priority":"high"}`
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if task.Urgent || !task.Important {
		t.Fatalf("pair: got (%v, %v), want (false, true)", task.Urgent, task.Important)
	}
}

func TestUnmarshalLegacyCompletedFlag(t *testing.T) {
	var task Task
	raw := `{"id":"t1","title":"Old","completed":true,"createdAt":"2025-05-01T10:00:00Z"}`
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if task.Status != StatusCompleted {
		t.Fatalf("status: got %s, want completed", task.Status)
	}
}

func TestMarshalCarriesBothRepresentations(t *testing.T) {
	task := Task{ID: "t1", Title: "x", Type: TypeTodo, Status: StatusCompleted, Urgent: true}
	data, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("decode map: %v", err)
	}
	if m["priority"] != "medium" || m["urgent"] != true || m["important"] != false || m["completed"] != true {
		t.Fatalf("wire fields: got %v", m)
	}
}

func TestCloneIsDeep(t *testing.T) {
	est := 30
	orig := Task{ID: "a", TimeEstimate: &est}
	c := orig.Clone()
	*c.TimeEstimate = 60
	if *orig.TimeEstimate != 30 {
		t.Fatal("clone shares time estimate")
	}
}
