package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	taskmod "github.com/example/slack-task-tracker/modules/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
)

// ErrNotStarted is returned by Handle before the module has started.
var ErrNotStarted = errors.New("tracker module not started")

// TrackerModule hosts the Controller. Its store is the task module, reached
// through request-reply services.
type TrackerModule struct {
	settings   Settings
	messenger  Messenger
	store      Store
	controller atomic.Pointer[Controller]
	logger     types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*TrackerModule)(nil)
var _ mono.DependentModule = (*TrackerModule)(nil)
var _ mono.HealthCheckableModule = (*TrackerModule)(nil)

// NewModule creates a TrackerModule.
func NewModule(settings Settings, messenger Messenger, logger types.Logger) *TrackerModule {
	return &TrackerModule{
		settings:  settings,
		messenger: messenger,
		logger:    logger.WithModule("tracker"),
	}
}

// Name returns the module name.
func (m *TrackerModule) Name() string {
	return "tracker"
}

// Dependencies returns the list of module dependencies.
func (m *TrackerModule) Dependencies() []string {
	return []string{"task"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *TrackerModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "task":
		m.store = taskmod.NewStoreAdapter(container)
	}
}

// Start builds the controller. It fails when the task store is not wired or
// the settings are incomplete.
func (m *TrackerModule) Start(_ context.Context) error {
	if m.store == nil {
		return fmt.Errorf("task store dependency not set")
	}
	c, err := NewController(m.store, m.messenger, m.settings, m.logger)
	if err != nil {
		return err
	}
	m.controller.Store(c)
	m.logger.Info("Module started",
		"bot_user_id", m.settings.BotUserID,
		"tasks_channel", m.settings.TasksChannel,
		"page_size", c.Settings().PageSize)
	return nil
}

// Stop stops accepting events.
func (m *TrackerModule) Stop(_ context.Context) error {
	m.controller.Store(nil)
	m.logger.Info("Module stopped")
	return nil
}

// Handle dispatches an inbound event to the controller.
func (m *TrackerModule) Handle(ctx context.Context, ev Event) (Reply, error) {
	c := m.controller.Load()
	if c == nil {
		return Reply{}, ErrNotStarted
	}
	return c.Handle(ctx, ev)
}

// Health reports whether the controller is accepting events.
func (m *TrackerModule) Health(_ context.Context) mono.HealthStatus {
	if m.controller.Load() == nil {
		return mono.HealthStatus{Healthy: false, Message: "not started"}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"tasks_channel": m.settings.TasksChannel,
			"event_kinds":   len(Kinds()),
		},
	}
}
