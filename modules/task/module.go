package task

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/slack-task-tracker/domain/task"
	"github.com/example/slack-task-tracker/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/gorm"
)

// TaskModule owns the task database and serves the Task Store over request-reply.
type TaskModule struct {
	db       *gorm.DB
	repo     *domain.Repository
	dbPath   string
	debug    bool
	eventBus mono.EventBus
	logger   types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*TaskModule)(nil)
var _ mono.ServiceProviderModule = (*TaskModule)(nil)
var _ mono.HealthCheckableModule = (*TaskModule)(nil)
var _ mono.EventBusAwareModule = (*TaskModule)(nil)
var _ mono.EventEmitterModule = (*TaskModule)(nil)

// NewModule creates a new TaskModule backed by the SQLite file at dbPath.
func NewModule(dbPath string, debug bool, logger types.Logger) *TaskModule {
	return &TaskModule{
		dbPath: dbPath,
		debug:  debug,
		logger: logger.WithModule("task"),
	}
}

// Name returns the module name.
func (m *TaskModule) Name() string {
	return "task"
}

// SetEventBus receives the EventBus from the framework.
func (m *TaskModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the lifecycle events this module publishes.
func (m *TaskModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskCompletedV1.ToBase(),
		events.TaskReopenedV1.ToBase(),
		events.TaskDeletedV1.ToBase(),
	}
}

// Health performs a health check on the task database.
func (m *TaskModule) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get sql.DB: %v", err),
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver":         "sqlite",
			"path":           m.dbPath,
			"schema_version": domain.LatestSchemaVersion(),
		},
	}
}

// RegisterServices registers the Task Store operations as request-reply services.
// The framework prefixes them with "services.task.".
func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "create", json.Unmarshal, json.Marshal, m.createTask,
	); err != nil {
		return fmt.Errorf("failed to register create service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get", json.Unmarshal, json.Marshal, m.getTask,
	); err != nil {
		return fmt.Errorf("failed to register get service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-message-ref", json.Unmarshal, json.Marshal, m.updateMessageRef,
	); err != nil {
		return fmt.Errorf("failed to register update-message-ref service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-checkmarks", json.Unmarshal, json.Marshal, m.updateCheckmarks,
	); err != nil {
		return fmt.Errorf("failed to register update-checkmarks service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list", json.Unmarshal, json.Marshal, m.listTasks,
	); err != nil {
		return fmt.Errorf("failed to register list service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "count", json.Unmarshal, json.Marshal, m.countTasks,
	); err != nil {
		return fmt.Errorf("failed to register count service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete", json.Unmarshal, json.Marshal, m.deleteTask,
	); err != nil {
		return fmt.Errorf("failed to register delete service: %w", err)
	}

	m.logger.Info("Registered services",
		"services", []string{"create", "get", "update-message-ref", "update-checkmarks", "list", "count", "delete"})
	return nil
}

// Start opens the database and applies pending migrations.
func (m *TaskModule) Start(ctx context.Context) error {
	m.logger.Info("Connecting to SQLite database", "path", m.dbPath)

	db, err := domain.Open(m.dbPath, m.debug)
	if err != nil {
		return err
	}
	m.db = db

	ran, err := domain.Migrate(ctx, m.db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if len(ran) > 0 {
		m.logger.Info("Applied schema migrations", "versions", ran)
	}

	m.repo = domain.NewRepository(m.db)

	if m.eventBus == nil {
		m.logger.Warn("EventBus not set, lifecycle events will not be published")
	}
	m.logger.Info("Module started")
	return nil
}

// Stop closes the database connection.
func (m *TaskModule) Stop(_ context.Context) error {
	if m.db == nil {
		return nil
	}

	m.logger.Info("Closing database connection")
	if err := domain.Close(m.db); err != nil {
		return err
	}
	m.logger.Info("Database connection closed")
	return nil
}
