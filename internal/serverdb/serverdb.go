// Package serverdb is the server-side task store: one postgres table keyed
// by (user_id, id), accessed through gorm.
package serverdb

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ServerDB wraps the server database connection
type ServerDB struct {
	db *gorm.DB
}

// Open connects to postgres and migrates the schema.
func Open(dsn string) (*ServerDB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sdb := New(db)
	if err := sdb.AutoMigrate(); err != nil {
		sdb.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return sdb, nil
}

// New wraps an existing gorm handle without migrating.
func New(db *gorm.DB) *ServerDB {
	return &ServerDB{db: db}
}

// DSN builds a postgres connection string.
func DSN(host, port, user, password, name string) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, name)
}

// Gorm exposes the underlying handle.
func (s *ServerDB) Gorm() *gorm.DB {
	return s.db
}

// Tasks returns the task repository.
func (s *ServerDB) Tasks() *TaskRepository {
	return NewTaskRepository(s.db)
}

// AutoMigrate creates or updates the tasks table.
func (s *ServerDB) AutoMigrate() error {
	return s.db.AutoMigrate(&TaskRow{})
}

// Ping checks the database connection is alive.
func (s *ServerDB) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection.
func (s *ServerDB) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
