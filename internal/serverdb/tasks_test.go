package serverdb_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/marcus/tdash/internal/models"
	"github.com/marcus/tdash/internal/serverdb"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		DriverName:           "postgres",
		Conn:                 db,
		PreferSimpleProtocol: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

var rowColumns = []string{
	"user_id", "id", "title", "description", "type", "status", "priority", "urgent", "important",
	"completed", "clarified", "category", "tags", "context", "next_action", "delegated_to", "goal_id",
	"due_date", "scheduled_date", "time_estimate", "created_at", "completed_at", "deleted_at", "updated_at",
}

func TestTaskRepository_Upsert(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := serverdb.NewTaskRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "tasks" .* ON CONFLICT \("user_id","id"\) DO UPDATE SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	row := &serverdb.TaskRow{UserID: "u1", ID: "t1", Title: "Ship", Status: "active", Urgent: true, Priority: "low"}
	err := repo.Upsert(context.Background(), row)

	assert.NoError(t, err)
	assert.Equal(t, "medium", row.Priority, "priority recomputed from the pair")
	assert.Equal(t, models.DefaultCategory, row.Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Upsert_MissingKey(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := serverdb.NewTaskRepository(gormDB)

	err := repo.Upsert(context.Background(), &serverdb.TaskRow{ID: "t1"})

	assert.ErrorIs(t, err, serverdb.ErrMissingKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_ListByUser(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := serverdb.NewTaskRepository(gormDB)

	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT \* FROM "tasks" WHERE user_id = \$1 ORDER BY created_at`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(rowColumns).
			AddRow("u1", "t1", "Ship", "", "todo", "waiting-for", "high", false, true,
				false, true, "work", `["release"]`, "", "", "Ann", "",
				nil, nil, nil, created, nil, nil, created))

	rows, err := repo.ListByUser(context.Background(), "u1")

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"release"}, rows[0].Tags)

	task := rows[0].Task()
	assert.Equal(t, models.StatusWaitingFor, task.Status)
	assert.Equal(t, models.PriorityHigh, task.Priority())
	assert.Equal(t, "Ann", task.DelegatedTo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Get_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := serverdb.NewTaskRepository(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "tasks" WHERE user_id = \$1 AND id = \$2`).
		WillReturnRows(sqlmock.NewRows(rowColumns))

	row, err := repo.Get(context.Background(), "u1", "missing")

	assert.ErrorIs(t, err, serverdb.ErrTaskNotFound)
	assert.Nil(t, row)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Delete(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := serverdb.NewTaskRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "tasks" WHERE user_id = \$1 AND id = \$2`).
		WithArgs("u1", "t1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), "u1", "t1")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Delete_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := serverdb.NewTaskRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "tasks"`).
		WithArgs("u1", "nope").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), "u1", "nope")

	assert.ErrorIs(t, err, serverdb.ErrTaskNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRow_Canonical(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	row := serverdb.TaskRow{UserID: "u1", ID: "t", Title: "x", Status: "completed", Urgent: true, Important: true, Priority: "low", CreatedAt: created}

	c := row.Canonical()

	assert.True(t, c.Urgent)
	assert.True(t, c.Important)
	assert.Equal(t, "urgent", c.Priority)
	assert.True(t, c.Completed)
	assert.NotNil(t, c.CompletedAt)
	assert.Equal(t, "todo", c.Type)
}

func TestTaskRow_BothFalsePairWins(t *testing.T) {
	row := serverdb.TaskRow{UserID: "u1", ID: "t", Title: "x", Status: "active", Priority: "urgent"}

	c := row.Canonical()

	assert.False(t, c.Urgent)
	assert.False(t, c.Important)
	assert.Equal(t, "low", c.Priority)
	assert.Equal(t, models.PriorityLow, row.Task().Priority())
}

func TestRowFromTask_RoundTrip(t *testing.T) {
	est := 30
	task := models.Normalize(models.Task{
		ID: "t", Title: "Plan", Type: models.TypeProject, Status: models.StatusSomeday,
		Important: true, TimeEstimate: &est, CreatedAt: time.Now().UTC(),
	})

	back := serverdb.RowFromTask("u1", task).Task()

	assert.Equal(t, task.Status, back.Status)
	assert.Equal(t, task.Type, back.Type)
	assert.Equal(t, task.Priority(), back.Priority())
	assert.Equal(t, est, *back.TimeEstimate)
}
