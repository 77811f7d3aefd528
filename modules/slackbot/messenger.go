package slackbot

import (
	"context"
	"fmt"

	"github.com/example/slack-task-tracker/modules/tracker"
	"github.com/slack-go/slack"
)

// Messenger implements tracker.Messenger over the Slack Web API.
type Messenger struct {
	api *slack.Client
}

var _ tracker.Messenger = (*Messenger)(nil)

// NewMessenger creates a Messenger.
func NewMessenger(api *slack.Client) *Messenger {
	return &Messenger{api: api}
}

func transportError(method string, err error) error {
	return fmt.Errorf("%w: %s: %v", tracker.ErrTransport, method, err)
}

func messageOptions(text string, blocks []slack.Block) []slack.MsgOption {
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if len(blocks) > 0 {
		opts = append(opts, slack.MsgOptionBlocks(blocks...))
	}
	return opts
}

// PostMessage posts to channelID.
func (m *Messenger) PostMessage(ctx context.Context, channelID, text string, blocks []slack.Block) (string, string, error) {
	channel, ts, err := m.api.PostMessageContext(ctx, channelID, messageOptions(text, blocks)...)
	if err != nil {
		return "", "", transportError("chat.postMessage", err)
	}
	return channel, ts, nil
}

// UpdateMessage replaces the content of a message.
func (m *Messenger) UpdateMessage(ctx context.Context, channelID, ts, text string, blocks []slack.Block) error {
	if _, _, _, err := m.api.UpdateMessageContext(ctx, channelID, ts, messageOptions(text, blocks)...); err != nil {
		return transportError("chat.update", err)
	}
	return nil
}

// DeleteMessage removes a message.
func (m *Messenger) DeleteMessage(ctx context.Context, channelID, ts string) error {
	if _, _, err := m.api.DeleteMessageContext(ctx, channelID, ts); err != nil {
		return transportError("chat.delete", err)
	}
	return nil
}

// PostEphemeral posts a message only userID can see.
func (m *Messenger) PostEphemeral(ctx context.Context, channelID, userID, text string) error {
	if _, err := m.api.PostEphemeralContext(ctx, channelID, userID, slack.MsgOptionText(text, false)); err != nil {
		return transportError("chat.postEphemeral", err)
	}
	return nil
}

// OpenDirectMessage opens or resumes the DM with userID.
func (m *Messenger) OpenDirectMessage(ctx context.Context, userID string) (string, error) {
	channel, _, _, err := m.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users:    []string{userID},
		ReturnIM: true,
	})
	if err != nil {
		return "", transportError("conversations.open", err)
	}
	return channel.ID, nil
}

// OpenModal opens a modal for the interaction behind triggerID.
func (m *Messenger) OpenModal(ctx context.Context, triggerID string, view slack.ModalViewRequest) error {
	if _, err := m.api.OpenViewContext(ctx, triggerID, view); err != nil {
		return transportError("views.open", err)
	}
	return nil
}

// UpdateModal replaces an open modal. hash guards against racing updates.
func (m *Messenger) UpdateModal(ctx context.Context, viewID, hash string, view slack.ModalViewRequest) error {
	if _, err := m.api.UpdateViewContext(ctx, view, "", hash, viewID); err != nil {
		return transportError("views.update", err)
	}
	return nil
}

// ReplaceOriginal rewrites the message an interaction came from.
func (m *Messenger) ReplaceOriginal(ctx context.Context, responseURL, text string, blocks []slack.Block) error {
	msg := &slack.WebhookMessage{
		Text:            text,
		ReplaceOriginal: true,
	}
	if len(blocks) > 0 {
		msg.Blocks = &slack.Blocks{BlockSet: blocks}
	}
	if err := slack.PostWebhookContext(ctx, responseURL, msg); err != nil {
		return transportError("response_url", err)
	}
	return nil
}
