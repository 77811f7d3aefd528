package task

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Repository provides access to task storage.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository creates a new task repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source used for created_at and completed_at.
func (r *Repository) SetClock(now func() time.Time) {
	r.now = func() time.Time { return now().UTC() }
}

// Create saves a new task and returns it as stored.
func (r *Repository) Create(ctx context.Context, req NewTask) (*Task, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = DefaultTitle
	}
	pm := req.ProjectManagerID
	if pm == "" {
		pm = req.DeveloperID
	}

	t := &Task{
		Title:            title,
		Description:      strings.TrimSpace(req.Description),
		DeveloperID:      req.DeveloperID,
		ProjectManagerID: pm,
		CreatedAt:        r.now(),
		ChannelID:        req.ChannelID,
	}
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	created, err := r.Get(ctx, t.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: task %d missing after insert", ErrPersistence, t.ID)
		}
		return nil, err
	}
	return created, nil
}

// Get retrieves a task by its ID.
func (r *Repository) Get(ctx context.Context, id int64) (*Task, error) {
	return r.get(r.db.WithContext(ctx), id)
}

func (r *Repository) get(db *gorm.DB, id int64) (*Task, error) {
	var t Task
	if err := db.First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &t, nil
}

// UpdateMessageReference binds the rendered message location to a task.
func (r *Repository) UpdateMessageReference(ctx context.Context, id int64, channelID, messageTS string) error {
	result := r.db.WithContext(ctx).Model(&Task{}).Where("id = ?", id).Updates(map[string]any{
		"channel_id": channelID,
		"message_ts": messageTS,
	})
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update message reference: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateCheckmarks stores both sign-off flags and keeps completed_at in step:
// present exactly when both flags are set, preserved while the task stays completed.
func (r *Repository) UpdateCheckmarks(ctx context.Context, id int64, developerChecked, projectManagerChecked bool) (*Task, error) {
	var updated *Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := r.get(tx, id)
		if err != nil {
			return err
		}

		var completedAt *time.Time
		if developerChecked && projectManagerChecked {
			if existing.CompletedAt != nil {
				completedAt = existing.CompletedAt
			} else {
				now := r.now()
				completedAt = &now
			}
		}

		if err := tx.Model(&Task{}).Where("id = ?", id).Updates(map[string]any{
			"developer_checked":       developerChecked,
			"project_manager_checked": projectManagerChecked,
			"completed_at":            completedAt,
		}).Error; err != nil {
			return fmt.Errorf("failed to update checkmarks: %w", err)
		}

		updated, err = r.get(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// List returns tasks matching the filter, newest first.
func (r *Repository) List(ctx context.Context, f Filter) ([]Task, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	query := r.filtered(ctx, f).Order("created_at DESC").Order("id DESC")
	switch {
	case f.Limit > 0:
		query = query.Limit(f.Limit).Offset(f.Offset)
	case f.Offset > 0:
		// SQLite needs a LIMIT clause for OFFSET.
		query = query.Limit(math.MaxInt32).Offset(f.Offset)
	}

	tasks := make([]Task, 0)
	if err := query.Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Count returns the number of tasks matching the filter, ignoring pagination.
func (r *Repository) Count(ctx context.Context, f Filter) (int64, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}

	var total int64
	if err := r.filtered(ctx, f.Unpaged()).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return total, nil
}

// Delete removes a task permanently.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&Task{}, "id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) filtered(ctx context.Context, f Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&Task{})
	switch f.Status {
	case StatusCompleted:
		query = query.Where("developer_checked = ? AND project_manager_checked = ?", true, true)
	case StatusPending:
		query = query.Where("NOT (developer_checked = ? AND project_manager_checked = ?)", true, true)
	}
	if f.From != nil {
		query = query.Where("created_at >= ?", f.From.UTC())
	}
	if f.To != nil {
		query = query.Where("created_at < ?", f.To.UTC())
	}
	return query
}
