package events

import (
	"log/slog"
	"sync"
)

// Handler receives events. Handlers run one at a time on the bus goroutine,
// in publish order, and may publish further events.
type Handler func(Event)

// Bus delivers events asynchronously and in order to every subscriber.
type Bus struct {
	mu       sync.Mutex
	cond     *sync.Cond
	queue    []Event
	busy     bool
	closing  bool
	stopped  bool
	handlers []subscription
	nextID   int
	done     chan struct{}
}

type subscription struct {
	id int
	fn Handler
}

// NewBus starts a bus.
func NewBus() *Bus {
	b := &Bus{done: make(chan struct{})}
	b.cond = sync.NewCond(&b.mu)
	go b.run()
	return b
}

// Subscribe registers h and returns a function that removes it.
func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.handlers = append(b.handlers, subscription{id: id, fn: h})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.handlers {
			if s.id == id {
				b.handlers = append(b.handlers[:i:i], b.handlers[i+1:]...)
				return
			}
		}
	}
}

// Publish queues ev. Events published after Close has finished are dropped.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		slog.Warn("event dropped, bus closed", "kind", ev.Kind)
		return
	}
	b.queue = append(b.queue, ev)
	b.cond.Broadcast()
}

// Flush blocks until every queued event has been handled. It must not be
// called from a handler.
func (b *Bus) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for (len(b.queue) > 0 || b.busy) && !b.stopped {
		b.cond.Wait()
	}
}

// Close drains the queue, including events published by handlers while
// draining, then stops the bus.
func (b *Bus) Close() {
	b.mu.Lock()
	b.closing = true
	b.cond.Broadcast()
	b.mu.Unlock()
	<-b.done
}

func (b *Bus) run() {
	defer close(b.done)
	for {
		b.mu.Lock()
		for len(b.queue) == 0 && !b.closing {
			b.cond.Wait()
		}
		if len(b.queue) == 0 {
			b.stopped = true
			b.cond.Broadcast()
			b.mu.Unlock()
			return
		}
		ev := b.queue[0]
		b.queue = b.queue[1:]
		b.busy = true
		handlers := append([]subscription(nil), b.handlers...)
		b.mu.Unlock()

		for _, s := range handlers {
			deliver(s.fn, ev)
		}

		b.mu.Lock()
		b.busy = false
		b.cond.Broadcast()
		b.mu.Unlock()
	}
}

func deliver(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event handler panic", "kind", ev.Kind, "panic", r)
		}
	}()
	h(ev)
}
