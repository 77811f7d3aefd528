package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// TaskCreatedEvent is emitted when a new task is stored.
type TaskCreatedEvent struct {
	EventID          string    `json:"event_id"`
	TaskID           int64     `json:"task_id"`
	Title            string    `json:"title"`
	DeveloperID      string    `json:"developer_id"`
	ProjectManagerID string    `json:"project_manager_id"`
	ChannelID        string    `json:"channel_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// TaskCreatedV1 is the typed event definition for task creation.
// Subject: events.task.v1.task-created
var TaskCreatedV1 = helper.EventDefinition[TaskCreatedEvent](
	"task", "TaskCreated", "v1",
)

// TaskCompletedEvent is emitted when both sign-offs are in place.
type TaskCompletedEvent struct {
	EventID     string    `json:"event_id"`
	TaskID      int64     `json:"task_id"`
	Title       string    `json:"title"`
	CompletedAt time.Time `json:"completed_at"`
}

// TaskCompletedV1 is the typed event definition for task completion.
// Subject: events.task.v1.task-completed
var TaskCompletedV1 = helper.EventDefinition[TaskCompletedEvent](
	"task", "TaskCompleted", "v1",
)

// TaskReopenedEvent is emitted when a completed task loses a sign-off.
type TaskReopenedEvent struct {
	EventID    string    `json:"event_id"`
	TaskID     int64     `json:"task_id"`
	Title      string    `json:"title"`
	ReopenedAt time.Time `json:"reopened_at"`
}

// TaskReopenedV1 is the typed event definition for a completed task going back to pending.
// Subject: events.task.v1.task-reopened
var TaskReopenedV1 = helper.EventDefinition[TaskReopenedEvent](
	"task", "TaskReopened", "v1",
)

// TaskDeletedEvent is emitted when a task is removed.
type TaskDeletedEvent struct {
	EventID   string    `json:"event_id"`
	TaskID    int64     `json:"task_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// TaskDeletedV1 is the typed event definition for task deletion.
// Subject: events.task.v1.task-deleted
var TaskDeletedV1 = helper.EventDefinition[TaskDeletedEvent](
	"task", "TaskDeleted", "v1",
)
