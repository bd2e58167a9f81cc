package events

import (
	"sync"
	"testing"
)

func TestBusDeliversInOrder(t *testing.T) {
	b := NewBus()
	defer b.Close()

	var got []Kind
	b.Subscribe(func(ev Event) { got = append(got, ev.Kind) })

	want := []Kind{KindCreated, KindUpdated, KindCompleted, KindDeleted}
	for _, k := range want {
		b.Publish(Event{Kind: k})
	}
	b.Flush()

	if len(got) != len(want) {
		t.Fatalf("delivered: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order at %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestBusFanOut(t *testing.T) {
	b := NewBus()
	defer b.Close()

	var mu sync.Mutex
	counts := map[string]int{}
	for _, name := range []string{"rewards", "mirror"} {
		name := name
		b.Subscribe(func(Event) {
			mu.Lock()
			counts[name]++
			mu.Unlock()
		})
	}
	b.Publish(Event{Kind: KindCollectionChanged})
	b.Flush()

	if counts["rewards"] != 1 || counts["mirror"] != 1 {
		t.Fatalf("fan out: got %v", counts)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	b := NewBus()
	defer b.Close()

	n := 0
	unsub := b.Subscribe(func(Event) { n++ })
	b.Publish(Event{Kind: KindCreated})
	b.Flush()
	unsub()
	b.Publish(Event{Kind: KindCreated})
	b.Flush()

	if n != 1 {
		t.Fatalf("after unsubscribe: got %d deliveries, want 1", n)
	}
}

func TestBusHandlerMayPublish(t *testing.T) {
	b := NewBus()

	var got []Kind
	b.Subscribe(func(ev Event) {
		got = append(got, ev.Kind)
		if ev.Kind == KindCompleted {
			b.Publish(Event{Kind: KindMilestone})
		}
	})
	b.Publish(Event{Kind: KindCompleted})
	b.Close()

	if len(got) != 2 || got[1] != KindMilestone {
		t.Fatalf("chained publish: got %v", got)
	}
}

func TestBusRecoversFromPanic(t *testing.T) {
	b := NewBus()
	defer b.Close()

	n := 0
	b.Subscribe(func(Event) { panic("boom") })
	b.Subscribe(func(Event) { n++ })
	b.Publish(Event{Kind: KindCreated})
	b.Publish(Event{Kind: KindCreated})
	b.Flush()

	if n != 2 {
		t.Fatalf("handler after panicking one: got %d, want 2", n)
	}
}

func TestBusPublishAfterClose(t *testing.T) {
	b := NewBus()
	b.Close()
	// Must not block or panic
	b.Publish(Event{Kind: KindCreated})
	b.Flush()
}

func TestKinds(t *testing.T) {
	if !IsValidKind("task.completed") {
		t.Error("task.completed should be valid")
	}
	if IsValidKind("task.exploded") {
		t.Error("task.exploded should be invalid")
	}
	if !KindPurged.IsTaskKind() || KindCollectionChanged.IsTaskKind() {
		t.Error("IsTaskKind misclassifies")
	}
}
