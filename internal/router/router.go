// Package router sends task reads and writes to the remote store when the
// user is signed in and to the local store otherwise.
package router

import (
	"context"
	"log/slog"

	"github.com/marcus/tdash/internal/models"
)

// AuthSource supplies the authentication signal. It is consulted on every
// call, never cached.
type AuthSource interface {
	Authenticated() bool
	UserID() string
}

// RemoteAdapter persists tasks keyed by (user id, task id).
type RemoteAdapter interface {
	Upsert(ctx context.Context, userID string, t models.Task) error
	Delete(ctx context.Context, userID, id string) error
	ListByUser(ctx context.Context, userID string) ([]models.Task, error)
}

// LocalAdapter persists the whole collection as one blob.
type LocalAdapter interface {
	Load() ([]models.Task, error)
	Save(tasks []models.Task) error
	Upsert(t models.Task) error
	Remove(id string) error
}

// Router picks a backend per call.
type Router struct {
	auth   AuthSource
	remote RemoteAdapter
	local  LocalAdapter
	log    *slog.Logger
}

// New returns a Router. remote may be nil, in which case every call goes to
// the local adapter. A nil logger means slog.Default().
func New(auth AuthSource, remote RemoteAdapter, local LocalAdapter, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{auth: auth, remote: remote, local: local, log: log}
}

// IsRemote reports whether the next call would go to the remote adapter.
func (r *Router) IsRemote() bool {
	return r.remote != nil && r.auth != nil && r.auth.Authenticated() && r.auth.UserID() != ""
}

// target evaluates the routing rule once and returns the user id for the
// remote path, or "" for the local path.
func (r *Router) target() (userID string, remote bool) {
	if !r.IsRemote() {
		return "", false
	}
	return r.auth.UserID(), true
}

// Save persists a single task. Remote failures are logged, not returned.
// Commit uses it for the remote path.
func (r *Router) Save(ctx context.Context, t models.Task) error {
	if uid, ok := r.target(); ok {
		if err := r.remote.Upsert(ctx, uid, t); err != nil {
			r.log.Warn("remote save failed", "id", t.ID, "err", err)
		}
		return nil
	}
	return r.local.Upsert(t)
}

// SaveAll replaces the collection. On the remote path every task is
// upserted independently; there is no cross-record transaction.
func (r *Router) SaveAll(ctx context.Context, tasks []models.Task) error {
	if uid, ok := r.target(); ok {
		failed := 0
		for _, t := range tasks {
			if err := r.remote.Upsert(ctx, uid, t); err != nil {
				failed++
				r.log.Warn("remote save failed", "id", t.ID, "err", err)
			}
		}
		if failed > 0 {
			r.log.Warn("remote bulk save incomplete", "failed", failed, "total", len(tasks))
		}
		return nil
	}
	return r.local.Save(tasks)
}

// Commit persists the result of one mutation: the changed task on the
// remote path, the whole collection on the local path. It reports which
// path was taken.
func (r *Router) Commit(ctx context.Context, changed models.Task, all []models.Task) (remote bool, err error) {
	if r.IsRemote() {
		return true, r.Save(ctx, changed)
	}
	return false, r.local.Save(all)
}

// Purge persists a permanent deletion: a remote delete on the remote path,
// the remaining collection on the local path.
func (r *Router) Purge(ctx context.Context, id string, remaining []models.Task) (remote bool, err error) {
	if r.IsRemote() {
		return true, r.Remove(ctx, id)
	}
	return false, r.local.Save(remaining)
}

// Remove deletes a task permanently. Remote failures are logged, not
// returned. Purge uses it for the remote path.
func (r *Router) Remove(ctx context.Context, id string) error {
	if uid, ok := r.target(); ok {
		if err := r.remote.Delete(ctx, uid, id); err != nil {
			r.log.Warn("remote delete failed", "id", id, "err", err)
		}
		return nil
	}
	return r.local.Remove(id)
}

// Load reads the collection from the current backend. Unlike writes, a
// remote read error is returned.
func (r *Router) Load(ctx context.Context) ([]models.Task, error) {
	if uid, ok := r.target(); ok {
		return r.remote.ListByUser(ctx, uid)
	}
	return r.local.Load()
}
