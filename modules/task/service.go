package task

import (
	"context"
	"fmt"
	"time"

	domain "github.com/example/slack-task-tracker/domain/task"
	"github.com/example/slack-task-tracker/events"
	"github.com/go-monolith/mono"
	"github.com/google/uuid"
)

// createTask handles the task.create service request.
func (m *TaskModule) createTask(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	if req.DeveloperID == "" {
		return TaskResponse{Fault: faultOf(fmt.Errorf("%w: developer_id is required", domain.ErrValidation))}, nil
	}
	if req.ChannelID == "" {
		return TaskResponse{Fault: faultOf(fmt.Errorf("%w: channel_id is required", domain.ErrValidation))}, nil
	}

	created, err := m.repo.Create(ctx, req.NewTask)
	if err != nil {
		m.logger.Error("Failed to create task", "error", err)
		return TaskResponse{Fault: faultOf(err)}, nil
	}

	m.publish("TaskCreated", created.ID, func() error {
		return events.TaskCreatedV1.Publish(m.eventBus, events.TaskCreatedEvent{
			EventID:          uuid.NewString(),
			TaskID:           created.ID,
			Title:            created.Title,
			DeveloperID:      created.DeveloperID,
			ProjectManagerID: created.ProjectManagerID,
			ChannelID:        created.ChannelID,
			CreatedAt:        created.CreatedAt,
		}, nil)
	})

	return TaskResponse{Task: created}, nil
}

// getTask handles the task.get service request.
func (m *TaskModule) getTask(ctx context.Context, req GetTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	found, err := m.repo.Get(ctx, req.TaskID)
	if err != nil {
		return TaskResponse{Fault: faultOf(err)}, nil
	}
	return TaskResponse{Task: found}, nil
}

// updateMessageRef handles the task.update-message-ref service request.
func (m *TaskModule) updateMessageRef(ctx context.Context, req UpdateMessageRefRequest, _ *mono.Msg) (AckResponse, error) {
	if req.ChannelID == "" || req.MessageTS == "" {
		return AckResponse{Fault: faultOf(fmt.Errorf("%w: channel_id and message_ts are required", domain.ErrValidation))}, nil
	}
	err := m.repo.UpdateMessageReference(ctx, req.TaskID, req.ChannelID, req.MessageTS)
	return AckResponse{Fault: faultOf(err)}, nil
}

// updateCheckmarks handles the task.update-checkmarks service request.
func (m *TaskModule) updateCheckmarks(ctx context.Context, req UpdateCheckmarksRequest, _ *mono.Msg) (TaskResponse, error) {
	before, err := m.repo.Get(ctx, req.TaskID)
	if err != nil {
		return TaskResponse{Fault: faultOf(err)}, nil
	}

	updated, err := m.repo.UpdateCheckmarks(ctx, req.TaskID, req.DeveloperChecked, req.ProjectManagerChecked)
	if err != nil {
		m.logger.Error("Failed to update checkmarks", "task_id", req.TaskID, "error", err)
		return TaskResponse{Fault: faultOf(err)}, nil
	}

	switch {
	case before.CompletedAt == nil && updated.CompletedAt != nil:
		m.publish("TaskCompleted", updated.ID, func() error {
			return events.TaskCompletedV1.Publish(m.eventBus, events.TaskCompletedEvent{
				EventID:     uuid.NewString(),
				TaskID:      updated.ID,
				Title:       updated.Title,
				CompletedAt: *updated.CompletedAt,
			}, nil)
		})
	case before.CompletedAt != nil && updated.CompletedAt == nil:
		m.publish("TaskReopened", updated.ID, func() error {
			return events.TaskReopenedV1.Publish(m.eventBus, events.TaskReopenedEvent{
				EventID:    uuid.NewString(),
				TaskID:     updated.ID,
				Title:      updated.Title,
				ReopenedAt: time.Now().UTC(),
			}, nil)
		})
	}

	return TaskResponse{Task: updated}, nil
}

// listTasks handles the task.list service request.
func (m *TaskModule) listTasks(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	tasks, err := m.repo.List(ctx, req.Filter)
	if err != nil {
		return ListTasksResponse{Tasks: []domain.Task{}, Fault: faultOf(err)}, nil
	}
	return ListTasksResponse{Tasks: tasks}, nil
}

// countTasks handles the task.count service request.
func (m *TaskModule) countTasks(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (CountTasksResponse, error) {
	total, err := m.repo.Count(ctx, req.Filter)
	if err != nil {
		return CountTasksResponse{Fault: faultOf(err)}, nil
	}
	return CountTasksResponse{Total: total}, nil
}

// deleteTask handles the task.delete service request.
func (m *TaskModule) deleteTask(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (AckResponse, error) {
	if err := m.repo.Delete(ctx, req.TaskID); err != nil {
		return AckResponse{Fault: faultOf(err)}, nil
	}

	m.publish("TaskDeleted", req.TaskID, func() error {
		return events.TaskDeletedV1.Publish(m.eventBus, events.TaskDeletedEvent{
			EventID:   uuid.NewString(),
			TaskID:    req.TaskID,
			DeletedAt: time.Now().UTC(),
		}, nil)
	})

	return AckResponse{}, nil
}

// publish emits a lifecycle event. Publishing is best-effort; failures are logged.
func (m *TaskModule) publish(name string, taskID int64, fn func() error) {
	if m.eventBus == nil {
		return
	}
	if err := fn(); err != nil {
		m.logger.Warn("Failed to publish event", "event", name, "task_id", taskID, "error", err)
	}
}
