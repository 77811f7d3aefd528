package task

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/slack-task-tracker/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// storeAdapter wraps ServiceContainer for type-safe cross-module communication.
type storeAdapter struct {
	container mono.ServiceContainer
}

// NewStoreAdapter creates a StorePort backed by the task module's services.
// container is the ServiceContainer received via SetDependencyServiceContainer.
func NewStoreAdapter(container mono.ServiceContainer) StorePort {
	if container == nil {
		panic("task adapter requires non-nil ServiceContainer")
	}
	return &storeAdapter{container: container}
}

// callService calls a task service with typed request and response payloads.
func callService[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return fmt.Errorf("%s service call failed: %w", service, err)
	}
	return nil
}

// Create creates a task via the create service.
func (a *storeAdapter) Create(ctx context.Context, req domain.NewTask) (*domain.Task, error) {
	var resp TaskResponse
	if err := callService(ctx, a.container, "create", &CreateTaskRequest{NewTask: req}, &resp); err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	if resp.Task == nil {
		return nil, fmt.Errorf("%w: create returned no task", domain.ErrPersistence)
	}
	return resp.Task, nil
}

// Get retrieves a task via the get service.
func (a *storeAdapter) Get(ctx context.Context, id int64) (*domain.Task, error) {
	var resp TaskResponse
	if err := callService(ctx, a.container, "get", &GetTaskRequest{TaskID: id}, &resp); err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	if resp.Task == nil {
		return nil, domain.ErrNotFound
	}
	return resp.Task, nil
}

// UpdateMessageReference binds the rendered message via the update-message-ref service.
func (a *storeAdapter) UpdateMessageReference(ctx context.Context, id int64, channelID, messageTS string) error {
	var resp AckResponse
	req := UpdateMessageRefRequest{TaskID: id, ChannelID: channelID, MessageTS: messageTS}
	if err := callService(ctx, a.container, "update-message-ref", &req, &resp); err != nil {
		return err
	}
	return resp.Err()
}

// UpdateCheckmarks sets both flags via the update-checkmarks service.
func (a *storeAdapter) UpdateCheckmarks(ctx context.Context, id int64, developerChecked, projectManagerChecked bool) (*domain.Task, error) {
	var resp TaskResponse
	req := UpdateCheckmarksRequest{
		TaskID:                id,
		DeveloperChecked:      developerChecked,
		ProjectManagerChecked: projectManagerChecked,
	}
	if err := callService(ctx, a.container, "update-checkmarks", &req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	if resp.Task == nil {
		return nil, domain.ErrNotFound
	}
	return resp.Task, nil
}

// List lists tasks via the list service.
func (a *storeAdapter) List(ctx context.Context, f domain.Filter) ([]domain.Task, error) {
	var resp ListTasksResponse
	if err := callService(ctx, a.container, "list", &ListTasksRequest{Filter: f}, &resp); err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

// Count counts tasks via the count service.
func (a *storeAdapter) Count(ctx context.Context, f domain.Filter) (int64, error) {
	var resp CountTasksResponse
	if err := callService(ctx, a.container, "count", &ListTasksRequest{Filter: f}, &resp); err != nil {
		return 0, err
	}
	if err := resp.Err(); err != nil {
		return 0, err
	}
	return resp.Total, nil
}

// Delete deletes a task via the delete service.
func (a *storeAdapter) Delete(ctx context.Context, id int64) error {
	var resp AckResponse
	if err := callService(ctx, a.container, "delete", &DeleteTaskRequest{TaskID: id}, &resp); err != nil {
		return err
	}
	return resp.Err()
}
