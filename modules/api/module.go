package api

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/slack-task-tracker/modules/notification"
	"github.com/example/slack-task-tracker/modules/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/sync/singleflight"
)

// ActivityFeed supplies recent lifecycle activity.
type ActivityFeed interface {
	Recent(limit int) []notification.Activity
}

// APIModule exposes a read-only REST view of the tasks.
type APIModule struct {
	port   int
	app    *fiber.App
	store  task.StorePort
	logger types.Logger

	// listGroup coalesces identical concurrent list queries.
	listGroup singleflight.Group

	mu   sync.RWMutex
	feed ActivityFeed
}

var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

func NewModule(port int, logger types.Logger) *APIModule {
	return &APIModule{
		port:   port,
		logger: logger.WithModule("api"),
	}
}

func (m *APIModule) Name() string {
	return "api"
}

func (m *APIModule) Dependencies() []string {
	return []string{"task"}
}

func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "task":
		m.store = task.NewStoreAdapter(container)
	}
}

// SetActivityFeed wires the activity source. Until set, /api/v1/activity
// answers 503.
func (m *APIModule) SetActivityFeed(feed ActivityFeed) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feed = feed
}

func (m *APIModule) activityFeed() ActivityFeed {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.feed
}

func (m *APIModule) Start(_ context.Context) error {
	if m.store == nil {
		return fmt.Errorf("task store dependency not set")
	}

	m.app = m.newApp()

	go func() {
		addr := fmt.Sprintf(":%d", m.port)
		if err := m.app.Listen(addr); err != nil {
			m.logger.Error("HTTP server error", "error", err)
		}
	}()

	m.logger.Info("HTTP server started", "port", m.port)
	return nil
}

func (m *APIModule) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Slack Task Tracker",
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})
	app.Use(recover.New())
	m.setupRoutes(app)
	return app
}

func (m *APIModule) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	m.logger.Info("Shutting down HTTP server")
	return m.app.Shutdown()
}

func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port":          m.port,
			"activity_feed": m.activityFeed() != nil,
		},
	}
}

// customErrorHandler handles Fiber errors.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}
