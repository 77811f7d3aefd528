package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/slack-task-tracker/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// DefaultCapacity is the number of activity entries kept.
const DefaultCapacity = 100

// Activity is one entry of the activity feed.
type Activity struct {
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"`
	TaskID    int64     `json:"task_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// NotificationModule consumes task lifecycle events, logs them and keeps the
// most recent ones as an activity feed.
type NotificationModule struct {
	mu       sync.RWMutex
	entries  []Activity
	capacity int
	logger   types.Logger
}

var _ mono.Module = (*NotificationModule)(nil)
var _ mono.EventConsumerModule = (*NotificationModule)(nil)

func NewModule(logger types.Logger) *NotificationModule {
	return &NotificationModule{
		entries:  make([]Activity, 0, DefaultCapacity),
		capacity: DefaultCapacity,
		logger:   logger.WithModule("notification"),
	}
}

func (m *NotificationModule) Name() string {
	return "notification"
}

func (m *NotificationModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCompletedV1, m.handleTaskCompleted, m); err != nil {
		return fmt.Errorf("failed to register TaskCompleted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskReopenedV1, m.handleTaskReopened, m); err != nil {
		return fmt.Errorf("failed to register TaskReopened consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.handleTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}

	m.logger.Info("Registered event consumers",
		"events", []string{"TaskCreated", "TaskCompleted", "TaskReopened", "TaskDeleted"})
	return nil
}

func (m *NotificationModule) handleTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	m.logger.Info("Task created", "task_id", event.TaskID, "developer", event.DeveloperID, "project_manager", event.ProjectManagerID)
	m.record(event.EventID, "task_created", event.TaskID, event.CreatedAt,
		fmt.Sprintf("Task #%d '%s' created for <@%s>", event.TaskID, event.Title, event.DeveloperID))
	return nil
}

func (m *NotificationModule) handleTaskCompleted(_ context.Context, event events.TaskCompletedEvent, _ *mono.Msg) error {
	m.logger.Info("Task completed", "task_id", event.TaskID)
	m.record(event.EventID, "task_completed", event.TaskID, event.CompletedAt,
		fmt.Sprintf("Task #%d '%s' completed", event.TaskID, event.Title))
	return nil
}

func (m *NotificationModule) handleTaskReopened(_ context.Context, event events.TaskReopenedEvent, _ *mono.Msg) error {
	m.logger.Info("Task reopened", "task_id", event.TaskID)
	m.record(event.EventID, "task_reopened", event.TaskID, event.ReopenedAt,
		fmt.Sprintf("Task #%d '%s' reopened", event.TaskID, event.Title))
	return nil
}

func (m *NotificationModule) handleTaskDeleted(_ context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	m.logger.Info("Task deleted", "task_id", event.TaskID)
	m.record(event.EventID, "task_deleted", event.TaskID, event.DeletedAt,
		fmt.Sprintf("Task #%d deleted", event.TaskID))
	return nil
}

// record appends an entry, dropping the oldest beyond capacity. A repeated
// event id is ignored.
func (m *NotificationModule) record(eventID, activityType string, taskID int64, at time.Time, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if eventID != "" {
		for _, e := range m.entries {
			if e.EventID == eventID {
				return
			}
		}
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	m.entries = append(m.entries, Activity{
		EventID:   eventID,
		Type:      activityType,
		TaskID:    taskID,
		Message:   message,
		Timestamp: at,
	})
	if over := len(m.entries) - m.capacity; over > 0 {
		m.entries = append(m.entries[:0], m.entries[over:]...)
	}
}

// Recent returns up to limit entries, newest first. limit <= 0 returns all.
func (m *NotificationModule) Recent(limit int) []Activity {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	result := make([]Activity, 0, n)
	for i := len(m.entries) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, m.entries[i])
	}
	return result
}

func (m *NotificationModule) Start(_ context.Context) error {
	m.logger.Info("Module started, listening for task events")
	return nil
}

func (m *NotificationModule) Stop(_ context.Context) error {
	m.logger.Info("Module stopped")
	return nil
}
