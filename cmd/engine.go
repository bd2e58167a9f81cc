package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/marcus/tdash/internal/db"
	"github.com/marcus/tdash/internal/engine"
	"github.com/marcus/tdash/internal/models"
	"github.com/marcus/tdash/internal/output"
	"github.com/marcus/tdash/internal/remote"
	"github.com/marcus/tdash/internal/syncconfig"
)

// cliNotifier prints reward feedback to the terminal.
type cliNotifier struct{}

func (cliNotifier) Toast(message string) {
	output.Success("%s", message)
}

func (cliNotifier) Celebrate(t models.Task) {
	output.Success("🎉 Nice work on %q", t.Title)
}

func (cliNotifier) Milestone(count int) {
	output.Success("★ Milestone: %d todos completed", count)
}

// session bundles an engine with the store it owns.
type session struct {
	*engine.Engine
	store *db.DB
}

// Close drains pending side effects before closing the store.
func (s *session) Close() {
	if err := s.Engine.Close(); err != nil {
		slog.Warn("close engine", "err", err)
	}
	if err := s.store.Close(); err != nil {
		slog.Warn("close store", "err", err)
	}
}

// openSession opens the local store, wires the remote client and starts an
// engine. The caller must Close it.
func openSession(ctx context.Context) (*session, error) {
	store, err := db.Open(getBaseDir())
	if err != nil {
		return nil, err
	}
	store.SetQuota(syncconfig.GetLocalQuota())

	auth := syncconfig.Session{}
	client := remote.New(syncconfig.GetServerURL(), auth, syncconfig.GetRemoteTimeout())

	eng, err := engine.New(engine.Options{
		Store:    store,
		Auth:     auth,
		Remote:   client,
		Notifier: cliNotifier{},
		Logger:   slog.Default(),
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	if err := eng.Start(ctx); err != nil {
		eng.Close()
		store.Close()
		return nil, err
	}
	return &session{Engine: eng, store: store}, nil
}

// withSession runs fn against a started engine and closes it afterwards.
func withSession(ctx context.Context, fn func(*session) error) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

// resolveID expands a unique id prefix, the way list output shortens ids.
func resolveID(s *session, prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", errors.New("task id is required")
	}
	var matches []string
	for _, t := range s.Tasks() {
		if t.ID == prefix {
			return t.ID, nil
		}
		if strings.HasPrefix(t.ID, prefix) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%s: %w", prefix, engine.ErrTaskNotFound)
	case 1:
		return matches[0], nil
	}
	return "", fmt.Errorf("id prefix %q is ambiguous (%d matches)", prefix, len(matches))
}
