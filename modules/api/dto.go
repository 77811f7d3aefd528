package api

import (
	"time"

	domain "github.com/example/slack-task-tracker/domain/task"
	"github.com/example/slack-task-tracker/modules/notification"
)

// TaskResponse is the HTTP response for a single task.
type TaskResponse struct {
	ID                    int64      `json:"id"`
	Title                 string     `json:"title"`
	Description           string     `json:"description"`
	Status                string     `json:"status"`
	DeveloperID           string     `json:"developer_id"`
	ProjectManagerID      string     `json:"project_manager_id"`
	DeveloperChecked      bool       `json:"developer_checked"`
	ProjectManagerChecked bool       `json:"project_manager_checked"`
	ChannelID             string     `json:"channel_id"`
	MessageTS             string     `json:"message_ts,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	CompletedAt           *time.Time `json:"completed_at,omitempty"`
}

func toTaskResponse(t domain.Task) TaskResponse {
	status := domain.StatusPending
	if t.Completed() {
		status = domain.StatusCompleted
	}
	resp := TaskResponse{
		ID:                    t.ID,
		Title:                 t.Title,
		Description:           t.Description,
		Status:                string(status),
		DeveloperID:           t.DeveloperID,
		ProjectManagerID:      t.ProjectManagerID,
		DeveloperChecked:      t.DeveloperChecked,
		ProjectManagerChecked: t.ProjectManagerChecked,
		ChannelID:             t.ChannelID,
		CreatedAt:             t.CreatedAt,
		CompletedAt:           t.CompletedAt,
	}
	if t.MessageTS != nil {
		resp.MessageTS = *t.MessageTS
	}
	return resp
}

// ListTasksResponse is the HTTP response for listing tasks.
type ListTasksResponse struct {
	Tasks  []TaskResponse `json:"tasks"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// ActivityResponse is the HTTP response for the activity feed.
type ActivityResponse struct {
	Activity []notification.Activity `json:"activity"`
}

// HealthResponse is the HTTP response for health check.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorResponse is the HTTP response for errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
