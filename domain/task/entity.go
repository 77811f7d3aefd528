// Package task holds the task entity and its SQLite-backed repository.
package task

import "time"

// DefaultTitle is stored when a task is created without any text.
const DefaultTitle = "Untitled task"

// Task is a unit of work owned by a developer and reviewed by a project manager.
type Task struct {
	ID                    int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title                 string     `gorm:"type:text" json:"title"`
	Description           string     `gorm:"type:text;not null" json:"description"`
	DeveloperID           string     `gorm:"type:text;not null" json:"developer_id"`
	ProjectManagerID      string     `gorm:"type:text;not null" json:"project_manager_id"`
	CreatedAt             time.Time  `gorm:"not null;index:idx_tasks_created_at" json:"created_at"`
	CompletedAt           *time.Time `json:"completed_at,omitempty"`
	DeveloperChecked      bool       `gorm:"not null;default:false" json:"developer_checked"`
	ProjectManagerChecked bool       `gorm:"not null;default:false" json:"project_manager_checked"`
	ChannelID             string     `gorm:"type:text;not null" json:"channel_id"`
	MessageTS             *string    `gorm:"type:text" json:"message_ts,omitempty"`
}

// TableName returns the table name for Task model.
func (Task) TableName() string {
	return "tasks"
}

// Completed reports whether both roles signed off.
func (t *Task) Completed() bool {
	return t.DeveloperChecked && t.ProjectManagerChecked
}

// CanToggleDeveloper reports whether userID owns the developer flag.
func (t *Task) CanToggleDeveloper(userID string) bool {
	return userID != "" && userID == t.DeveloperID
}

// CanToggleProjectManager reports whether userID owns the project manager flag.
func (t *Task) CanToggleProjectManager(userID string) bool {
	return userID != "" && userID == t.ProjectManagerID
}

// CanDelete reports whether userID is one of the task's two owners.
func (t *Task) CanDelete(userID string) bool {
	return t.CanToggleDeveloper(userID) || t.CanToggleProjectManager(userID)
}

// HasMessage reports whether the rendered message location is known.
func (t *Task) HasMessage() bool {
	return t.MessageTS != nil && *t.MessageTS != ""
}

// NewTask carries the caller-supplied fields of a task being created.
type NewTask struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	DeveloperID      string `json:"developer_id"`
	ProjectManagerID string `json:"project_manager_id"`
	ChannelID        string `json:"channel_id"`
}
