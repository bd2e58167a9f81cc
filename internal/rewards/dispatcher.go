package rewards

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/marcus/tdash/internal/events"
	"github.com/marcus/tdash/internal/models"
)

// MilestoneEvery is how many rewarded todo completions make a milestone.
const MilestoneEvery = 5

// Hook is the gamification backend credited on a first completion.
type Hook interface {
	Reward(t models.Task) error
}

// Notifier shows transient UI feedback.
type Notifier interface {
	Toast(message string)
	Celebrate(t models.Task)
	Milestone(count int)
}

// NopHook ignores rewards.
type NopHook struct{}

// Reward does nothing.
func (NopHook) Reward(models.Task) error { return nil }

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	Log *slog.Logger
}

func (n LogNotifier) logger() *slog.Logger {
	if n.Log != nil {
		return n.Log
	}
	return slog.Default()
}

// Toast logs message.
func (n LogNotifier) Toast(message string) { n.logger().Info("toast", "msg", message) }

// Celebrate logs the completed task.
func (n LogNotifier) Celebrate(t models.Task) { n.logger().Info("celebrate", "id", t.ID) }

// Milestone logs the completion count.
func (n LogNotifier) Milestone(count int) { n.logger().Info("milestone", "count", count) }

// Dispatcher subscribes to completion events and fires rewards.
type Dispatcher struct {
	ledger *Ledger
	hook   Hook
	notify Notifier
	bus    *events.Bus
	log    *slog.Logger
}

// NewDispatcher wires a dispatcher. nil hook or notifier means no-op/log.
func NewDispatcher(ledger *Ledger, hook Hook, notify Notifier, bus *events.Bus, log *slog.Logger) *Dispatcher {
	if hook == nil {
		hook = NopHook{}
	}
	if log == nil {
		log = slog.Default()
	}
	if notify == nil {
		notify = LogNotifier{Log: log}
	}
	return &Dispatcher{ledger: ledger, hook: hook, notify: notify, bus: bus, log: log}
}

// Attach subscribes the dispatcher and returns the unsubscribe function.
func (d *Dispatcher) Attach() func() {
	return d.bus.Subscribe(d.Handle)
}

// Handle processes one event.
func (d *Dispatcher) Handle(ev events.Event) {
	switch ev.Kind {
	case events.KindCompleted:
		d.completed(ev.Task)
	case events.KindPurged:
		if err := d.ledger.Forget(ev.Task.ID); err != nil {
			d.log.Warn("rewards: forget purged task", "id", ev.Task.ID, "err", err)
		}
	}
}

func (d *Dispatcher) completed(t models.Task) {
	first, count, err := d.ledger.Record(t)
	if err != nil {
		d.log.Warn("rewards: persist ledger", "id", t.ID, "err", err)
	}
	if !first {
		return
	}

	if err := d.hook.Reward(t); err != nil {
		d.log.Warn("rewards: hook failed", "id", t.ID, "err", err)
	}
	d.notify.Toast(fmt.Sprintf("Completed %q", t.Title))
	d.notify.Celebrate(t)

	if t.Type == models.TypeTodo && count > 0 && count%MilestoneEvery == 0 {
		d.notify.Milestone(count)
		d.bus.Publish(events.Event{Kind: events.KindMilestone, At: time.Now(), Task: t, Count: count})
	}
}
