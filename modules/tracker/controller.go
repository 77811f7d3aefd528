package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/example/slack-task-tracker/domain/task"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/slack-go/slack"
)

// DefaultPageSize is the number of tasks per listing page.
const DefaultPageSize = 5

const (
	usageText = "Usage: `/tasks` | `/tasks list [pending|completed]` | `/tasks show <id>` | `/tasks delete <id>`"

	mentionUsageText = "Please mention a developer when creating a task, " +
		"e.g. `@bot @developer @pm Implement feature`."

	genericFailureText = "Something went wrong while handling that request. Please try again."
)

// Settings is the immutable configuration of a Controller.
type Settings struct {
	// BotUserID is resolved by the startup handshake and excluded from mentions.
	BotUserID string
	// TasksChannel receives every new task message.
	TasksChannel string
	PageSize     int
}

type handlerFunc func(ctx context.Context, ev Event) (Reply, error)

// on adapts a typed handler to the dispatch table.
func on[E Event](fn func(ctx context.Context, ev E) (Reply, error)) handlerFunc {
	return func(ctx context.Context, ev Event) (Reply, error) {
		typed, ok := ev.(E)
		if !ok {
			return Reply{}, fmt.Errorf("%w: %T dispatched as %s", domain.ErrValidation, ev, ev.Kind())
		}
		return fn(ctx, typed)
	}
}

// Controller authorizes and applies task state transitions. It only touches
// storage through Store and only talks to the workspace through Messenger.
type Controller struct {
	store     Store
	messenger Messenger
	settings  Settings
	logger    types.Logger
	now       func() time.Time
	handlers  map[Kind]handlerFunc
}

// NewController creates a Controller. It fails when a setting is missing or
// when an event kind has no handler.
func NewController(store Store, messenger Messenger, settings Settings, logger types.Logger) (*Controller, error) {
	if store == nil || messenger == nil || logger == nil {
		return nil, errors.New("tracker: store, messenger and logger are required")
	}
	if settings.BotUserID == "" {
		return nil, errors.New("tracker: bot user id is not resolved")
	}
	if settings.TasksChannel == "" {
		return nil, errors.New("tracker: tasks channel is required")
	}
	if settings.PageSize <= 0 {
		settings.PageSize = DefaultPageSize
	}

	c := &Controller{
		store:     store,
		messenger: messenger,
		settings:  settings,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	c.handlers = map[Kind]handlerFunc{
		KindMention:            on(c.handleMention),
		KindCommand:            on(c.handleCommand),
		KindCheckbox:           on(c.handleCheckbox),
		KindShortcut:           on(c.handleShortcut),
		KindFilterRangeChanged: on(c.handleFilterRangeChanged),
		KindFilterSubmit:       on(c.handleFilterSubmit),
		KindPage:               on(c.handlePage),
	}
	for _, k := range Kinds() {
		if c.handlers[k] == nil {
			return nil, fmt.Errorf("tracker: no handler for %s events", k)
		}
	}
	return c, nil
}

// SetClock overrides the clock used to resolve date ranges.
func (c *Controller) SetClock(now func() time.Time) {
	c.now = now
}

// Settings returns the controller's settings.
func (c *Controller) Settings() Settings {
	return c.settings
}

// Handle dispatches ev. The Reply is what the transport should acknowledge
// with. A non-nil error classifies why the request was not fully applied:
// domain.ErrValidation, domain.ErrNotFound and domain.ErrPermission have
// already been explained to the actor; anything else is unexpected.
func (c *Controller) Handle(ctx context.Context, ev Event) (Reply, error) {
	if ev == nil {
		return Reply{}, fmt.Errorf("%w: nil event", domain.ErrValidation)
	}
	h, ok := c.handlers[ev.Kind()]
	if !ok {
		return Reply{}, fmt.Errorf("%w: unknown event kind %s", domain.ErrValidation, ev.Kind())
	}

	reply, err := h(ctx, ev)
	switch {
	case err == nil:
	case IsUserError(err):
		c.logger.Debug("Request rejected", "kind", ev.Kind().String(), "reason", err.Error())
	default:
		c.logger.Error("Request failed", "kind", ev.Kind().String(), "error", err)
	}
	return reply, err
}

// IsUserError reports whether err was caused by the actor's input or rights.
func IsUserError(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrPermission)
}

// transportFailed logs a messaging failure. Such failures never propagate.
func (c *Controller) transportFailed(action string, err error, args ...any) {
	c.logger.Warn("Messaging call failed", append([]any{"action", action, "error", err}, args...)...)
}

func (c *Controller) say(ctx context.Context, channelID, text string) {
	if _, _, err := c.messenger.PostMessage(ctx, channelID, text, nil); err != nil {
		c.transportFailed("post_message", err, "channel", channelID)
	}
}

func (c *Controller) whisper(ctx context.Context, channelID, userID, text string) {
	if err := c.messenger.PostEphemeral(ctx, channelID, userID, text); err != nil {
		c.transportFailed("post_ephemeral", err, "channel", channelID, "user", userID)
	}
}

// refresh re-renders a task's message in place.
func (c *Controller) refresh(ctx context.Context, t *domain.Task) {
	if !t.HasMessage() {
		return
	}
	if err := c.messenger.UpdateMessage(ctx, t.ChannelID, *t.MessageTS, TaskText(t), TaskBlocks(t)); err != nil {
		c.transportFailed("update_message", err, "task_id", t.ID)
	}
}

func (c *Controller) handleMention(ctx context.Context, ev MentionEvent) (Reply, error) {
	req := ParseTaskRequest(ev.Text, c.settings.BotUserID)
	if req.DeveloperID == "" {
		c.say(ctx, ev.ChannelID, mentionUsageText)
		return Reply{}, fmt.Errorf("%w: no developer mentioned", domain.ErrValidation)
	}
	if ev.UserID == "" {
		c.say(ctx, ev.ChannelID, "Unable to determine who created the task.")
		return Reply{}, fmt.Errorf("%w: unknown author", domain.ErrValidation)
	}

	created, err := c.store.Create(ctx, domain.NewTask{
		Title:            req.Title,
		Description:      req.Description,
		DeveloperID:      req.DeveloperID,
		ProjectManagerID: req.ProjectManagerID,
		ChannelID:        c.settings.TasksChannel,
	})
	if err != nil {
		c.say(ctx, ev.ChannelID, genericFailureText)
		return Reply{}, fmt.Errorf("create task: %w", err)
	}

	channelID, ts, err := c.messenger.PostMessage(ctx, c.settings.TasksChannel, TaskText(created), TaskBlocks(created))
	if err != nil {
		c.transportFailed("post_task_message", err, "task_id", created.ID)
		c.say(ctx, ev.ChannelID, fmt.Sprintf("Task #%d created, but its message could not be posted to <#%s>.",
			created.ID, c.settings.TasksChannel))
		return Reply{}, nil
	}
	if err := c.store.UpdateMessageReference(ctx, created.ID, channelID, ts); err != nil {
		c.logger.Error("Failed to bind task message", "task_id", created.ID, "error", err)
	}

	c.say(ctx, ev.ChannelID, fmt.Sprintf("Task #%d created in <#%s>.", created.ID, c.settings.TasksChannel))
	return Reply{}, nil
}

func (c *Controller) handleCommand(ctx context.Context, ev CommandEvent) (Reply, error) {
	cmd, ok := ParseCommand(ev.Text)
	if !ok {
		return Reply{Text: usageText}, fmt.Errorf("%w: unrecognized command %q", domain.ErrValidation, ev.Text)
	}

	switch cmd.Verb {
	case VerbShow:
		t, err := c.store.Get(ctx, cmd.TaskID)
		if err != nil {
			return c.failure(cmd.TaskID, err)
		}
		return Reply{Text: DetailText(t)}, nil
	case VerbDelete:
		return c.deleteTask(ctx, ev.UserID, cmd.TaskID)
	case VerbList:
		return c.listPage(ctx, ListQuery{Status: cmd.Status})
	default:
		return Reply{Text: usageText}, nil
	}
}

// failure turns a store error about taskID into a reply.
func (c *Controller) failure(taskID int64, err error) (Reply, error) {
	if errors.Is(err, domain.ErrNotFound) {
		return Reply{Text: fmt.Sprintf("Task #%d not found.", taskID)}, err
	}
	return Reply{Text: genericFailureText}, err
}

func (c *Controller) deleteTask(ctx context.Context, userID string, taskID int64) (Reply, error) {
	t, err := c.store.Get(ctx, taskID)
	if err != nil {
		return c.failure(taskID, err)
	}
	if !t.CanDelete(userID) {
		return Reply{Text: fmt.Sprintf("Only the developer or project manager of task #%d can delete it.", taskID)},
			fmt.Errorf("%w: %s may not delete task %d", domain.ErrPermission, userID, taskID)
	}

	if err := c.store.Delete(ctx, taskID); err != nil {
		return c.failure(taskID, err)
	}

	if t.HasMessage() {
		if err := c.messenger.DeleteMessage(ctx, t.ChannelID, *t.MessageTS); err != nil {
			c.transportFailed("delete_message", err, "task_id", taskID)
		}
	}
	c.say(ctx, t.ChannelID, fmt.Sprintf("Task #%d was deleted by <@%s>.", taskID, userID))
	return Reply{Text: fmt.Sprintf("Task #%d deleted.", taskID)}, nil
}

func (c *Controller) handleCheckbox(ctx context.Context, ev CheckboxEvent) (Reply, error) {
	before, err := c.store.Get(ctx, ev.TaskID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.whisper(ctx, ev.ChannelID, ev.UserID, fmt.Sprintf("Task #%d not found.", ev.TaskID))
		}
		return Reply{}, err
	}

	developer, manager := ev.DeveloperChecked, ev.ProjectManagerChecked
	var denied error
	if developer != before.DeveloperChecked && !before.CanToggleDeveloper(ev.UserID) {
		c.whisper(ctx, before.ChannelID, ev.UserID, "Only the assigned developer can toggle their checkbox.")
		developer = before.DeveloperChecked
		denied = fmt.Errorf("%w: %s may not toggle the developer flag of task %d", domain.ErrPermission, ev.UserID, ev.TaskID)
	}
	if manager != before.ProjectManagerChecked && !before.CanToggleProjectManager(ev.UserID) {
		c.whisper(ctx, before.ChannelID, ev.UserID, "Only the project manager can toggle their checkbox.")
		manager = before.ProjectManagerChecked
		denied = fmt.Errorf("%w: %s may not toggle the project manager flag of task %d", domain.ErrPermission, ev.UserID, ev.TaskID)
	}

	after, err := c.store.UpdateCheckmarks(ctx, ev.TaskID, developer, manager)
	if err != nil {
		return Reply{}, fmt.Errorf("update checkmarks: %w", err)
	}
	// Always re-render: it also reverts a rejected toggle in the client.
	c.refresh(ctx, after)

	if after.DeveloperChecked && !before.DeveloperChecked {
		c.say(ctx, after.ChannelID, fmt.Sprintf("Developer <@%s> marked task #%d complete.", after.DeveloperID, after.ID))
	}
	if after.ProjectManagerChecked && !before.ProjectManagerChecked {
		c.say(ctx, after.ChannelID, fmt.Sprintf("Project manager <@%s> approved task #%d.", after.ProjectManagerID, after.ID))
	}
	if after.CompletedAt != nil && before.CompletedAt == nil {
		c.say(ctx, after.ChannelID, fmt.Sprintf("Task #%d is now fully completed.", after.ID))
	}
	return Reply{}, denied
}

func (c *Controller) handleShortcut(ctx context.Context, ev ShortcutEvent) (Reply, error) {
	if err := c.messenger.OpenModal(ctx, ev.TriggerID, FilterModal(FilterForm{Range: RangeToday})); err != nil {
		c.transportFailed("open_modal", err, "user", ev.UserID)
	}
	return Reply{}, nil
}

func (c *Controller) handleFilterRangeChanged(ctx context.Context, ev FilterRangeChangedEvent) (Reply, error) {
	if err := c.messenger.UpdateModal(ctx, ev.ViewID, ev.Hash, FilterModal(ev.Form)); err != nil {
		c.transportFailed("update_modal", err, "view_id", ev.ViewID)
	}
	return Reply{}, nil
}

func (c *Controller) handleFilterSubmit(ctx context.Context, ev FilterSubmitEvent) (Reply, error) {
	q, err := ev.Form.Query(c.now())
	if err != nil {
		var fieldErr *FieldError
		if errors.As(err, &fieldErr) {
			return Reply{Errors: map[string]string{fieldErr.Field: fieldErr.Message}}, err
		}
		return Reply{}, err
	}

	text, blocks, err := c.renderPage(ctx, q)
	if err != nil {
		return Reply{}, err
	}

	channelID, err := c.messenger.OpenDirectMessage(ctx, ev.UserID)
	if err != nil {
		c.transportFailed("open_conversation", err, "user", ev.UserID)
		return Reply{}, nil
	}
	if _, _, err := c.messenger.PostMessage(ctx, channelID, text, blocks); err != nil {
		c.transportFailed("post_message", err, "channel", channelID)
	}
	return Reply{}, nil
}

func (c *Controller) handlePage(ctx context.Context, ev PageEvent) (Reply, error) {
	text, blocks, err := c.renderPage(ctx, ev.Query)
	if err != nil {
		return Reply{}, err
	}

	if ev.Ephemeral || ev.MessageTS == "" {
		if ev.ResponseURL == "" {
			return Reply{}, fmt.Errorf("%w: page request has neither message nor response url", domain.ErrValidation)
		}
		if err := c.messenger.ReplaceOriginal(ctx, ev.ResponseURL, text, blocks); err != nil {
			c.transportFailed("replace_original", err, "user", ev.UserID)
		}
		return Reply{}, nil
	}
	if err := c.messenger.UpdateMessage(ctx, ev.ChannelID, ev.MessageTS, text, blocks); err != nil {
		c.transportFailed("update_message", err, "channel", ev.ChannelID)
	}
	return Reply{}, nil
}

func (c *Controller) listPage(ctx context.Context, q ListQuery) (Reply, error) {
	text, blocks, err := c.renderPage(ctx, q)
	if err != nil {
		if IsUserError(err) {
			return Reply{Text: usageText}, err
		}
		return Reply{Text: genericFailureText}, err
	}
	return Reply{Text: text, Blocks: blocks}, nil
}

// renderPage loads and renders q. A page past the end is clamped to the last page.
func (c *Controller) renderPage(ctx context.Context, q ListQuery) (string, []slack.Block, error) {
	size := c.settings.PageSize
	filter, err := q.Filter(size)
	if err != nil {
		return "", nil, err
	}

	total, err := c.store.Count(ctx, filter.Unpaged())
	if err != nil {
		return "", nil, fmt.Errorf("count tasks: %w", err)
	}
	if total == 0 {
		return "No tasks found.", nil, nil
	}
	if last := PageCount(total, size) - 1; q.Page > last {
		q.Page = last
		filter.Offset = q.Page * size
	}

	tasks, err := c.store.List(ctx, filter)
	if err != nil {
		return "", nil, fmt.Errorf("list tasks: %w", err)
	}
	return q.Describe(), ListBlocks(tasks, q, total, size), nil
}
