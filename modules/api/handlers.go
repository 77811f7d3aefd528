package api

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	domain "github.com/example/slack-task-tracker/domain/task"
	"github.com/gofiber/fiber/v2"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	dateLayout       = "2006-01-02"
)

func (m *APIModule) setupRoutes(app *fiber.App) {
	app.Get("/health", m.healthHandler)

	api := app.Group("/api/v1")

	tasks := api.Group("/tasks")
	tasks.Get("/", m.listTasks)
	tasks.Get("/:id", m.getTask)

	api.Get("/activity", m.listActivity)
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module": "api",
			"port":   m.port,
		},
	})
}

// listTasks handles GET /api/v1/tasks.
func (m *APIModule) listTasks(c *fiber.Ctx) error {
	f, err := filterFromQuery(c)
	if err != nil {
		return writeError(c, err)
	}

	key := fmt.Sprintf("%s|%s|%s|%d|%d", f.Status, formatBound(f.From), formatBound(f.To), f.Limit, f.Offset)
	ctx := c.UserContext()
	v, err, _ := m.listGroup.Do(key, func() (any, error) {
		tasks, err := m.store.List(ctx, f)
		if err != nil {
			return nil, err
		}
		total, err := m.store.Count(ctx, f.Unpaged())
		if err != nil {
			return nil, err
		}

		resp := ListTasksResponse{
			Tasks:  make([]TaskResponse, 0, len(tasks)),
			Total:  total,
			Limit:  f.Limit,
			Offset: f.Offset,
		}
		for _, t := range tasks {
			resp.Tasks = append(resp.Tasks, toTaskResponse(t))
		}
		return resp, nil
	})
	if err != nil {
		m.logger.Warn("List tasks failed", "error", err)
		return writeError(c, err)
	}

	return c.JSON(v.(ListTasksResponse))
}

// getTask handles GET /api/v1/tasks/:id.
func (m *APIModule) getTask(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return writeError(c, fmt.Errorf("%w: task id must be a positive integer", domain.ErrValidation))
	}

	t, err := m.store.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(toTaskResponse(*t))
}

// listActivity handles GET /api/v1/activity.
func (m *APIModule) listActivity(c *fiber.Ctx) error {
	feed := m.activityFeed()
	if feed == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error:   "unavailable",
			Message: "Activity feed is not ready",
		})
	}

	limit := c.QueryInt("limit", defaultListLimit)
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	return c.JSON(ActivityResponse{Activity: feed.Recent(limit)})
}

func filterFromQuery(c *fiber.Ctx) (domain.Filter, error) {
	status, ok := domain.ParseStatus(c.Query("status"))
	if !ok {
		return domain.Filter{}, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, c.Query("status"))
	}

	f := domain.Filter{
		Status: status,
		Limit:  c.QueryInt("limit", defaultListLimit),
		Offset: c.QueryInt("offset", 0),
	}
	if f.Limit <= 0 {
		return domain.Filter{}, fmt.Errorf("%w: limit must be positive", domain.ErrValidation)
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}

	var err error
	if f.From, err = parseBound(c.Query("from"), "from"); err != nil {
		return domain.Filter{}, err
	}
	if f.To, err = parseBound(c.Query("to"), "to"); err != nil {
		return domain.Filter{}, err
	}

	return f, f.Validate()
}

func parseBound(value, name string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a YYYY-MM-DD date", domain.ErrValidation, name)
	}
	return &t, nil
}

func formatBound(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

// writeError maps domain errors onto HTTP status codes.
func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Task not found",
		})
	case errors.Is(err, domain.ErrPermission):
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
			Error:   "forbidden",
			Message: err.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "Internal Server Error",
		})
	}
}
