// Package db is the on-device store: a SQLite file holding namespaced JSON
// documents, the way a browser holds local storage entries.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const (
	dbDir  = ".tdash"
	dbFile = ".tdash/store.db"

	// DefaultQuota mirrors the per-origin local storage budget of browsers.
	DefaultQuota int64 = 5 << 20
)

// ErrQuotaExceeded is returned when a write would push the store past its quota.
var ErrQuotaExceeded = errors.New("local store quota exceeded")

// DB wraps the database connection
type DB struct {
	conn    *sql.DB
	baseDir string
	quota   int64
}

// Open opens the store under baseDir, creating it on first use, and runs any
// pending migrations.
func Open(baseDir string) (*DB, error) {
	dbPath := filepath.Join(baseDir, dbFile)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for concurrent reads while writes are serialized
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Set busy timeout as fallback protection (500ms, matches lock timeout)
	if _, err := conn.Exec("PRAGMA busy_timeout=500"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	// Slightly faster writes, still safe with WAL
	conn.Exec("PRAGMA synchronous=NORMAL")

	db := &DB{conn: conn, baseDir: baseDir, quota: DefaultQuota}
	if _, err := db.RunMigrations(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

// Wrap adopts an already-open connection. No file lock is taken for writes,
// so it suits in-memory databases.
func Wrap(conn *sql.DB) (*DB, error) {
	db := &DB{conn: conn, quota: DefaultQuota}
	if _, err := db.runMigrationsInternal(); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

// Close closes the database
func (db *DB) Close() error {
	return db.conn.Close()
}

// BaseDir returns the base directory for the database
func (db *DB) BaseDir() string {
	return db.baseDir
}

// SetQuota sets the maximum number of value bytes the store may hold.
// Zero or negative disables the check.
func (db *DB) SetQuota(n int64) {
	db.quota = n
}

// Quota returns the configured quota in bytes.
func (db *DB) Quota() int64 {
	return db.quota
}

// withWriteLock executes fn while holding an exclusive write lock.
// This prevents concurrent writes from multiple processes.
func (db *DB) withWriteLock(fn func() error) error {
	if db.baseDir == "" {
		return fn()
	}
	locker := newWriteLocker(db.baseDir)
	if err := locker.acquire(defaultTimeout); err != nil {
		return err
	}
	defer locker.release()
	return fn()
}

// Get returns the value stored under key. ok is false when the key is absent.
func (db *DB) Get(key string) (value string, ok bool, err error) {
	err = db.conn.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, enforcing the quota. Compatibility copies
// (see Uncounted) are stored without a check.
func (db *DB) Set(key, value string) error {
	return db.withWriteLock(func() error {
		if db.quota > 0 && !Uncounted(key) {
			used, err := db.usageExcluding(key)
			if err != nil {
				return err
			}
			if used+int64(len(value)) > db.quota {
				return fmt.Errorf("set %s (%d bytes, %d in use, quota %d): %w", key, len(value), used, db.quota, ErrQuotaExceeded)
			}
		}
		_, err := db.conn.Exec(`
			INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, key, value)
		if err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
		return nil
	})
}

// Delete removes key. Deleting a missing key is not an error.
func (db *DB) Delete(key string) error {
	return db.withWriteLock(func() error {
		if _, err := db.conn.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
		return nil
	})
}

// Keys lists keys with the given prefix in sorted order.
func (db *DB) Keys(prefix string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT key FROM kv WHERE key LIKE ? ESCAPE '\' ORDER BY key`, escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Usage returns the number of value bytes counted against the quota.
func (db *DB) Usage() (int64, error) {
	return db.usageExcluding("")
}

func (db *DB) usageExcluding(key string) (int64, error) {
	var used sql.NullInt64
	err := db.conn.QueryRow(`
		SELECT SUM(LENGTH(CAST(value AS BLOB))) FROM kv
		WHERE key != ? AND key NOT IN (?, ?, ?)
	`, key, LegacyMirrorKey, LegacyActionsKey, LegacyGTDKey).Scan(&used)
	if err != nil {
		return 0, fmt.Errorf("measure usage: %w", err)
	}
	return used.Int64, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
