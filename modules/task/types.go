package task

import (
	"context"

	domain "github.com/example/slack-task-tracker/domain/task"
)

// Fault carries a domain error across the request-reply boundary.
type Fault struct {
	ErrorCode string `json:"error_code,omitempty"`
	Error     string `json:"error,omitempty"`
}

func faultOf(err error) Fault {
	if err == nil {
		return Fault{}
	}
	return Fault{ErrorCode: domain.ErrorCode(err), Error: err.Error()}
}

// Err rebuilds the domain error, or nil when the call succeeded.
func (f Fault) Err() error {
	return domain.ErrorFromCode(f.ErrorCode, f.Error)
}

// CreateTaskRequest is the request for creating a task.
type CreateTaskRequest struct {
	domain.NewTask
}

// GetTaskRequest is the request for getting a task.
type GetTaskRequest struct {
	TaskID int64 `json:"task_id"`
}

// UpdateMessageRefRequest binds a rendered message to a task.
type UpdateMessageRefRequest struct {
	TaskID    int64  `json:"task_id"`
	ChannelID string `json:"channel_id"`
	MessageTS string `json:"message_ts"`
}

// UpdateCheckmarksRequest sets both sign-off flags.
type UpdateCheckmarksRequest struct {
	TaskID                int64 `json:"task_id"`
	DeveloperChecked      bool  `json:"developer_checked"`
	ProjectManagerChecked bool  `json:"project_manager_checked"`
}

// ListTasksRequest is the request for listing or counting tasks.
type ListTasksRequest struct {
	Filter domain.Filter `json:"filter"`
}

// DeleteTaskRequest is the request for deleting a task.
type DeleteTaskRequest struct {
	TaskID int64 `json:"task_id"`
}

// TaskResponse is the response for a single task.
type TaskResponse struct {
	Task *domain.Task `json:"task,omitempty"`
	Fault
}

// ListTasksResponse is the response containing a page of tasks.
type ListTasksResponse struct {
	Tasks []domain.Task `json:"tasks"`
	Fault
}

// CountTasksResponse is the response for counting tasks.
type CountTasksResponse struct {
	Total int64 `json:"total"`
	Fault
}

// AckResponse is the response for operations without a payload.
type AckResponse struct {
	Fault
}

// StorePort defines the task storage operations other modules depend on.
type StorePort interface {
	Create(ctx context.Context, req domain.NewTask) (*domain.Task, error)
	Get(ctx context.Context, id int64) (*domain.Task, error)
	UpdateMessageReference(ctx context.Context, id int64, channelID, messageTS string) error
	UpdateCheckmarks(ctx context.Context, id int64, developerChecked, projectManagerChecked bool) (*domain.Task, error)
	List(ctx context.Context, f domain.Filter) ([]domain.Task, error)
	Count(ctx context.Context, f domain.Filter) (int64, error)
	Delete(ctx context.Context, id int64) error
}

var _ StorePort = (*domain.Repository)(nil)
