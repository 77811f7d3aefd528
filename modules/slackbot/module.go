package slackbot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/example/slack-task-tracker/modules/tracker"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/redis/go-redis/v9"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
)

const (
	handlerTimeout = 10 * time.Second
	// Slack drops an envelope that is not acknowledged within 3 seconds.
	ackDeadline = 2500 * time.Millisecond
	dedupPrefix = "slack-event:"

	startingUpText = "The task tracker is starting up, please try again in a moment."
	workingText    = "Working on it, results will follow in the channel."
)

// acker acknowledges Socket Mode envelopes. *socketmode.Client implements it.
type acker interface {
	Ack(req socketmode.Request, payload ...interface{})
}

// Handler receives converted events. *tracker.TrackerModule implements it.
type Handler interface {
	Handle(ctx context.Context, ev tracker.Event) (tracker.Reply, error)
}

// Config holds the transport settings.
type Config struct {
	Debug     bool
	RedisAddr string
	DedupTTL  time.Duration
}

// SlackbotModule runs the Socket Mode connection and feeds the tracker.
type SlackbotModule struct {
	api     *slack.Client
	client  *socketmode.Client
	acks    acker
	cfg     Config
	deduper Deduper
	redis   *redis.Client
	logger  types.Logger

	mu      sync.RWMutex
	handler Handler

	ackDeadline time.Duration

	cancel    context.CancelFunc
	loops     sync.WaitGroup
	inflight  sync.WaitGroup
	connected atomic.Bool
}

// Compile-time interface checks.
var _ mono.Module = (*SlackbotModule)(nil)
var _ mono.HealthCheckableModule = (*SlackbotModule)(nil)

// NewModule creates a SlackbotModule. api must carry the app-level token.
func NewModule(api *slack.Client, cfg Config, logger types.Logger) *SlackbotModule {
	if cfg.DedupTTL <= 0 {
		cfg.DedupTTL = 10 * time.Minute
	}
	return &SlackbotModule{
		api:         api,
		cfg:         cfg,
		ackDeadline: ackDeadline,
		logger:      logger.WithModule("slackbot"),
	}
}

// Name returns the module name.
func (m *SlackbotModule) Name() string {
	return "slackbot"
}

// SetHandler wires the event handler. Events arriving before it is set are
// acknowledged and answered with a retry hint.
func (m *SlackbotModule) SetHandler(h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = h
}

func (m *SlackbotModule) currentHandler() Handler {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.handler
}

// Start connects the de-duplication store and opens the Socket Mode connection.
func (m *SlackbotModule) Start(_ context.Context) error {
	if m.api == nil {
		return errors.New("slack client not set")
	}

	if m.cfg.RedisAddr != "" {
		m.redis = redis.NewClient(&redis.Options{
			Addr:         m.cfg.RedisAddr,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		if err := m.redis.Ping(context.Background()).Err(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		m.deduper = NewRedisDeduper(m.redis, dedupPrefix, m.cfg.DedupTTL)
		m.logger.Info("Event de-duplication backed by Redis", "addr", m.cfg.RedisAddr, "ttl", m.cfg.DedupTTL.String())
	} else {
		m.deduper = NewMemoryDeduper(m.cfg.DedupTTL)
		m.logger.Info("Event de-duplication in memory", "ttl", m.cfg.DedupTTL.String())
	}

	m.client = socketmode.New(m.api, socketmode.OptionDebug(m.cfg.Debug))
	m.acks = m.client

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	m.loops.Add(2)
	go func() {
		defer m.loops.Done()
		if err := m.client.RunContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Error("Socket Mode connection ended", "error", err)
		}
	}()
	go func() {
		defer m.loops.Done()
		m.consume(ctx)
	}()

	m.logger.Info("Module started")
	return nil
}

// Stop closes the connection and waits for in-flight events.
func (m *SlackbotModule) Stop(ctx context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}

	done := make(chan struct{})
	go func() {
		m.loops.Wait()
		m.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("Timed out waiting for in-flight events")
	}

	if m.redis != nil {
		if err := m.redis.Close(); err != nil {
			return fmt.Errorf("failed to close Redis connection: %w", err)
		}
	}
	m.logger.Info("Module stopped")
	return nil
}

// Health reports the Socket Mode connection state.
func (m *SlackbotModule) Health(ctx context.Context) mono.HealthStatus {
	details := map[string]any{"dedup": "memory"}
	if rd, ok := m.deduper.(*RedisDeduper); ok {
		details["dedup"] = "redis"
		if err := rd.Ping(ctx); err != nil {
			return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("redis ping failed: %v", err), Details: details}
		}
	}
	if !m.connected.Load() {
		return mono.HealthStatus{Healthy: false, Message: "socket mode not connected", Details: details}
	}
	return mono.HealthStatus{Healthy: true, Message: "connected", Details: details}
}

func (m *SlackbotModule) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-m.client.Events:
			if !ok {
				return
			}
			m.dispatch(ctx, evt)
		}
	}
}

func (m *SlackbotModule) dispatch(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		m.logger.Info("Connecting to Slack with Socket Mode")
	case socketmode.EventTypeConnected:
		m.connected.Store(true)
		m.logger.Info("Connected to Slack with Socket Mode")
	case socketmode.EventTypeConnectionError, socketmode.EventTypeDisconnect:
		m.connected.Store(false)
		m.logger.Warn("Socket Mode connection lost", "type", string(evt.Type))
	case socketmode.EventTypeInvalidAuth:
		m.connected.Store(false)
		m.logger.Error("Socket Mode authentication rejected")
	case socketmode.EventTypeEventsAPI:
		m.onEventsAPI(ctx, evt)
	case socketmode.EventTypeSlashCommand:
		m.onSlashCommand(evt)
	case socketmode.EventTypeInteractive:
		m.onInteractive(evt)
	}
}

// spawn runs fn on its own goroutine with a bounded context.
func (m *SlackbotModule) spawn(fn func(ctx context.Context)) {
	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (m *SlackbotModule) ack(evt socketmode.Event, payload ...any) {
	if evt.Request == nil || m.acks == nil {
		return
	}
	m.acks.Ack(*evt.Request, payload...)
}

// replyInTime runs ev in the background and returns its reply if it arrives
// before the ack deadline. A late handler keeps running under its own timeout.
func (m *SlackbotModule) replyInTime(ev tracker.Event) (tracker.Reply, bool) {
	done := make(chan tracker.Reply, 1)
	m.spawn(func(ctx context.Context) {
		reply, _ := m.handle(ctx, ev)
		done <- reply
	})

	timer := time.NewTimer(m.ackDeadline)
	defer timer.Stop()
	select {
	case reply := <-done:
		return reply, true
	case <-timer.C:
		m.logger.Warn("Handler missed the ack deadline", "kind", ev.Kind().String())
		return tracker.Reply{}, false
	}
}

// handle forwards ev and logs the outcome.
func (m *SlackbotModule) handle(ctx context.Context, ev tracker.Event) (tracker.Reply, error) {
	h := m.currentHandler()
	if h == nil {
		return tracker.Reply{Text: startingUpText}, tracker.ErrNotStarted
	}
	reply, err := h.Handle(ctx, ev)
	if errors.Is(err, tracker.ErrNotStarted) {
		reply = tracker.Reply{Text: startingUpText}
	}
	if err != nil && !tracker.IsUserError(err) {
		m.logger.Warn("Event not applied", "kind", ev.Kind().String(), "error", err)
	}
	return reply, err
}

func (m *SlackbotModule) onEventsAPI(ctx context.Context, evt socketmode.Event) {
	m.ack(evt)

	payload, ok := evt.Data.(slackevents.EventsAPIEvent)
	if !ok || payload.Type != slackevents.CallbackEvent {
		return
	}
	if cb, ok := payload.Data.(*slackevents.EventsAPICallbackEvent); ok && cb.EventID != "" {
		first, err := m.deduper.FirstDelivery(ctx, cb.EventID)
		if err != nil {
			m.logger.Warn("De-duplication unavailable", "event_id", cb.EventID, "error", err)
		}
		if !first {
			m.logger.Debug("Skipping redelivered event", "event_id", cb.EventID)
			return
		}
	}

	mention, ok := payload.InnerEvent.Data.(*slackevents.AppMentionEvent)
	if !ok || mention.BotID != "" {
		return
	}
	ev := mentionEvent(mention)
	m.spawn(func(ctx context.Context) {
		_, _ = m.handle(ctx, ev)
	})
}

func (m *SlackbotModule) onSlashCommand(evt socketmode.Event) {
	cmd, ok := evt.Data.(slack.SlashCommand)
	if !ok {
		m.ack(evt)
		return
	}
	ev := commandEvent(cmd)
	m.spawn(func(context.Context) {
		reply, ok := m.replyInTime(ev)
		if !ok {
			reply = tracker.Reply{Text: workingText}
		}
		m.ack(evt, commandAck(reply))
	})
}

func (m *SlackbotModule) onInteractive(evt socketmode.Event) {
	cb, ok := evt.Data.(slack.InteractionCallback)
	if !ok {
		m.ack(evt)
		return
	}

	ev, err := interactionEvent(cb)
	if err != nil {
		if !errors.Is(err, errIgnored) {
			m.logger.Warn("Malformed interaction", "type", string(cb.Type), "error", err)
		}
		m.ack(evt)
		return
	}

	// A view submission is acknowledged with its validation result. A late
	// result closes the modal and the list arrives by DM.
	if ev.Kind() == tracker.KindFilterSubmit {
		m.spawn(func(context.Context) {
			reply, _ := m.replyInTime(ev)
			if len(reply.Errors) > 0 {
				m.ack(evt, slack.NewErrorsViewSubmissionResponse(reply.Errors))
				return
			}
			m.ack(evt)
		})
		return
	}

	m.ack(evt)
	m.spawn(func(ctx context.Context) {
		_, _ = m.handle(ctx, ev)
	})
}
