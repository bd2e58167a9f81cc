// Package mirror keeps a legacy-shaped copy of the task collection for
// readers that have not moved to the unified format.
package mirror

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/marcus/tdash/internal/db"
	"github.com/marcus/tdash/internal/events"
	"github.com/marcus/tdash/internal/legacy"
	"github.com/marcus/tdash/internal/models"
)

// Writer projects the collection onto the actions shape after every change
// made while signed out.
type Writer struct {
	store *db.DB
	bus   *events.Bus
	log   *slog.Logger
}

// New returns a Writer. A nil logger means slog.Default().
func New(store *db.DB, bus *events.Bus, log *slog.Logger) *Writer {
	if log == nil {
		log = slog.Default()
	}
	return &Writer{store: store, bus: bus, log: log}
}

// Attach subscribes the writer and returns the unsubscribe function.
func (w *Writer) Attach() func() {
	return w.bus.Subscribe(w.Handle)
}

// Handle mirrors on collection changes made while signed out. Failures are
// logged.
func (w *Writer) Handle(ev events.Event) {
	if ev.Kind != events.KindCollectionChanged || ev.Authenticated {
		return
	}
	if err := w.Write(ev.Tasks); err != nil {
		w.log.Warn("legacy mirror write failed", "err", err)
		return
	}
	w.bus.Publish(events.Event{Kind: events.KindMirrorWritten, At: time.Now(), Count: len(ev.Tasks)})
}

// Write stores the projection of tasks under the mirror key.
func (w *Writer) Write(tasks []models.Task) error {
	records := make([]legacy.ActionRecord, 0, len(tasks))
	for _, t := range tasks {
		records = append(records, legacy.ToAction(t))
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode mirror: %w", err)
	}
	return w.store.Set(db.LegacyMirrorKey, string(data))
}

// Read decodes the current mirror. It returns nil when none was written.
func Read(store *db.DB) ([]legacy.ActionRecord, error) {
	raw, ok, err := store.Get(db.LegacyMirrorKey)
	if err != nil || !ok {
		return nil, err
	}
	var records []legacy.ActionRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("decode mirror: %w", err)
	}
	return records, nil
}
