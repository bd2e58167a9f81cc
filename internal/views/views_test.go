package views

import (
	"testing"

	"github.com/marcus/tdash/internal/models"
)

func fixture() []models.Task {
	return []models.Task{
		{ID: "in1", Status: models.StatusInbox, Type: models.TypeTodo},
		{ID: "in2", Status: models.StatusInbox, Type: models.TypeTodo, Clarified: true},
		{ID: "act", Status: models.StatusActive, Type: models.TypeTodo, Clarified: true},
		{ID: "proj", Status: models.StatusActive, Type: models.TypeProject, Clarified: true},
		{ID: "wait", Status: models.StatusWaitingFor, Type: models.TypeTodo, Clarified: true},
		{ID: "some", Status: models.StatusSomeday, Type: models.TypeReference, Clarified: true},
		{ID: "done", Status: models.StatusCompleted, Type: models.TypeTodo, Clarified: true},
		{ID: "trash", Status: models.StatusDeleted, Type: models.TypeProject, Clarified: true},
	}
}

func ids(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func assertIDs(t *testing.T, name string, got []models.Task, want ...string) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("%s: got %v, want %v", name, g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("%s: got %v, want %v", name, g, want)
		}
	}
}

func TestViews(t *testing.T) {
	tasks := fixture()
	assertIDs(t, "inbox", InboxTasks(tasks), "in1")
	assertIDs(t, "active", ActiveTasks(tasks), "act", "proj")
	assertIDs(t, "todo", ByType(tasks, models.TypeTodo), "in1", "in2", "act", "wait", "done")
	assertIDs(t, "waiting", WaitingForTasks(tasks), "wait")
	assertIDs(t, "someday", SomedayTasks(tasks), "some")
	assertIDs(t, "deleted", DeletedTasks(tasks), "trash")
	assertIDs(t, "projects", ProjectTasks(tasks), "proj")
}

func TestProjectByName(t *testing.T) {
	tasks := fixture()
	got, ok := Project(tasks, Inbox)
	if !ok {
		t.Fatal("inbox view should exist")
	}
	assertIDs(t, "inbox", got, "in1")

	all, _ := Project(tasks, All)
	if len(all) != len(tasks) {
		t.Fatalf("all: got %d, want %d", len(all), len(tasks))
	}
	if _, ok := Project(tasks, "nope"); ok {
		t.Fatal("unknown view should not resolve")
	}
}

func TestCount(t *testing.T) {
	c := Count(fixture())
	want := Counts{Inbox: 1, Active: 2, WaitingFor: 1, Someday: 1, Completed: 1, Deleted: 1, Projects: 1}
	if c != want {
		t.Fatalf("counts: got %+v, want %+v", c, want)
	}
}

func TestGet(t *testing.T) {
	if _, ok := Get(fixture(), "wait"); !ok {
		t.Fatal("expected to find wait")
	}
	if _, ok := Get(fixture(), "missing"); ok {
		t.Fatal("did not expect to find missing")
	}
}
