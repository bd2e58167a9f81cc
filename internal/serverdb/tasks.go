package serverdb

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marcus/tdash/internal/models"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrMissingKey   = errors.New("task row needs user_id and id")
)

// TaskRow is one stored task. Column names match the API's snake_case wire
// form so requests bind straight onto it.
type TaskRow struct {
	UserID        string     `gorm:"primaryKey;size:64" json:"user_id"`
	ID            string     `gorm:"primaryKey;size:64" json:"id"`
	Title         string     `gorm:"not null" json:"title"`
	Description   string     `json:"description,omitempty"`
	Type          string     `gorm:"size:16;not null" json:"type"`
	Status        string     `gorm:"size:16;not null;index" json:"status"`
	Priority      string     `gorm:"size:8;not null" json:"priority"`
	Urgent        bool       `json:"urgent"`
	Important     bool       `json:"important"`
	Completed     bool       `json:"completed"`
	Clarified     bool       `json:"clarified"`
	Category      string     `json:"category,omitempty"`
	Tags          []string   `gorm:"serializer:json" json:"tags,omitempty"`
	Context       string     `json:"context,omitempty"`
	NextAction    string     `json:"next_action,omitempty"`
	DelegatedTo   string     `json:"delegated_to,omitempty"`
	GoalID        string     `json:"goal_id,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
	TimeEstimate  *int       `json:"time_estimate,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName pins the table name.
func (TaskRow) TableName() string { return "tasks" }

// RowFromTask builds a row for the given owner.
func RowFromTask(userID string, t models.Task) TaskRow {
	return TaskRow{
		UserID:        userID,
		ID:            t.ID,
		Title:         t.Title,
		Description:   t.Description,
		Type:          string(t.Type),
		Status:        string(t.Status),
		Priority:      string(t.Priority()),
		Urgent:        t.Urgent,
		Important:     t.Important,
		Completed:     t.Completed(),
		Clarified:     t.Clarified,
		Category:      t.Category,
		Tags:          t.Tags,
		Context:       t.Context,
		NextAction:    t.NextAction,
		DelegatedTo:   t.DelegatedTo,
		GoalID:        t.GoalID,
		DueDate:       t.DueDate,
		ScheduledDate: t.ScheduledDate,
		TimeEstimate:  t.TimeEstimate,
		CreatedAt:     t.CreatedAt,
		CompletedAt:   t.CompletedAt,
		DeletedAt:     t.DeletedAt,
	}
}

// Task converts the row to a normalized task. The stored pair is always
// authoritative; the priority column is derived from it.
func (r TaskRow) Task() models.Task {
	status := models.Status(r.Status)
	if r.Status == "" && r.Completed {
		status = models.StatusCompleted
	}
	return models.Normalize(models.Task{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		Type:          models.Type(r.Type),
		Status:        status,
		Urgent:        r.Urgent,
		Important:     r.Important,
		Clarified:     r.Clarified,
		Category:      r.Category,
		Tags:          r.Tags,
		Context:       r.Context,
		NextAction:    r.NextAction,
		DelegatedTo:   r.DelegatedTo,
		GoalID:        r.GoalID,
		DueDate:       r.DueDate,
		ScheduledDate: r.ScheduledDate,
		TimeEstimate:  r.TimeEstimate,
		CreatedAt:     r.CreatedAt,
		CompletedAt:   r.CompletedAt,
		DeletedAt:     r.DeletedAt,
	})
}

// Canonical returns the row with every derived column recomputed from the
// normalized task, so priority and completed never disagree with the pair
// and the status.
func (r TaskRow) Canonical() TaskRow {
	c := RowFromTask(r.UserID, r.Task())
	c.UpdatedAt = r.UpdatedAt
	return c
}

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Upsert inserts the row or replaces the existing row with the same key.
func (r *TaskRepository) Upsert(ctx context.Context, row *TaskRow) error {
	if row.UserID == "" || row.ID == "" {
		return ErrMissingKey
	}
	*row = row.Canonical()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "id"}},
		UpdateAll: true,
	}).Create(row).Error
}

// Get retrieves one task owned by userID.
func (r *TaskRepository) Get(ctx context.Context, userID, id string) (*TaskRow, error) {
	var row TaskRow
	result := r.db.WithContext(ctx).First(&row, "user_id = ? AND id = ?", userID, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, result.Error
	}
	return &row, nil
}

// ListByUser returns every task owned by userID, oldest first.
func (r *TaskRepository) ListByUser(ctx context.Context, userID string) ([]TaskRow, error) {
	var rows []TaskRow
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	return rows, nil
}

// Delete removes one task owned by userID.
func (r *TaskRepository) Delete(ctx context.Context, userID, id string) error {
	result := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).Delete(&TaskRow{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}
