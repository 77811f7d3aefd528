package slackbot

import (
	"errors"
	"fmt"
	"strings"

	domain "github.com/example/slack-task-tracker/domain/task"
	"github.com/example/slack-task-tracker/modules/tracker"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

// errIgnored marks payloads that carry nothing for the tracker.
var errIgnored = errors.New("payload ignored")

func mentionEvent(ev *slackevents.AppMentionEvent) tracker.MentionEvent {
	return tracker.MentionEvent{
		ChannelID: ev.Channel,
		UserID:    ev.User,
		Text:      ev.Text,
	}
}

func commandEvent(cmd slack.SlashCommand) tracker.CommandEvent {
	return tracker.CommandEvent{
		ChannelID: cmd.ChannelID,
		UserID:    cmd.UserID,
		Text:      cmd.Text,
	}
}

// interactionEvent converts an interactive payload into a tracker event.
// Payloads the tracker does not handle yield errIgnored.
func interactionEvent(cb slack.InteractionCallback) (tracker.Event, error) {
	switch cb.Type {
	case slack.InteractionTypeShortcut:
		if cb.CallbackID != tracker.ShortcutFilter {
			return nil, errIgnored
		}
		return tracker.ShortcutEvent{UserID: cb.User.ID, TriggerID: cb.TriggerID}, nil

	case slack.InteractionTypeViewSubmission:
		if cb.View.CallbackID != tracker.CallbackFilterModal {
			return nil, errIgnored
		}
		return tracker.FilterSubmitEvent{UserID: cb.User.ID, Form: formFromState(cb.View.State)}, nil

	case slack.InteractionTypeBlockActions:
		if len(cb.ActionCallback.BlockActions) == 0 {
			return nil, errIgnored
		}
		return blockActionEvent(cb, cb.ActionCallback.BlockActions[0])
	}
	return nil, errIgnored
}

func blockActionEvent(cb slack.InteractionCallback, action *slack.BlockAction) (tracker.Event, error) {
	channelID := cb.Channel.ID
	if channelID == "" {
		channelID = cb.Container.ChannelID
	}

	if taskID, ok := tracker.ParseCheckboxActionID(action.ActionID); ok {
		selected := make([]string, 0, len(action.SelectedOptions))
		for _, opt := range action.SelectedOptions {
			selected = append(selected, opt.Value)
		}
		developer, manager := tracker.CheckboxState(taskID, selected)
		return tracker.CheckboxEvent{
			TaskID:                taskID,
			ChannelID:             channelID,
			UserID:                cb.User.ID,
			DeveloperChecked:      developer,
			ProjectManagerChecked: manager,
		}, nil
	}

	if strings.HasPrefix(action.ActionID, tracker.ActionListPagePrefix) {
		q, err := tracker.DecodeListQuery(action.Value)
		if err != nil {
			return nil, fmt.Errorf("page button: %w", err)
		}
		return tracker.PageEvent{
			UserID:      cb.User.ID,
			Query:       q,
			ChannelID:   channelID,
			MessageTS:   cb.Container.MessageTs,
			ResponseURL: cb.ResponseURL,
			Ephemeral:   cb.Container.IsEphemeral,
		}, nil
	}

	if action.ActionID == tracker.ActionRangeSelect && cb.View.ID != "" {
		form := formFromState(cb.View.State)
		form.Range = tracker.Range(action.SelectedOption.Value)
		return tracker.FilterRangeChangedEvent{ViewID: cb.View.ID, Hash: cb.View.Hash, Form: form}, nil
	}

	return nil, errIgnored
}

// formFromState reads the filter modal inputs.
func formFromState(state *slack.ViewState) tracker.FilterForm {
	var form tracker.FilterForm
	if state == nil {
		return form
	}
	value := func(blockID, actionID string) (slack.BlockAction, bool) {
		v, ok := state.Values[blockID][actionID]
		return v, ok
	}

	if v, ok := value(tracker.FieldStatus, tracker.ActionStatusSelect); ok {
		status, known := domain.ParseStatus(v.SelectedOption.Value)
		if !known {
			status = domain.Status(v.SelectedOption.Value)
		}
		form.Status = status
	}
	if v, ok := value(tracker.FieldRange, tracker.ActionRangeSelect); ok {
		form.Range = tracker.Range(v.SelectedOption.Value)
	}
	if v, ok := value(tracker.FieldStart, tracker.ActionStartDate); ok {
		form.Start = v.SelectedDate
	}
	if v, ok := value(tracker.FieldEnd, tracker.ActionEndDate); ok {
		form.End = v.SelectedDate
	}
	return form
}

// commandAck is the acknowledgement payload of a slash command.
func commandAck(reply tracker.Reply) map[string]any {
	payload := map[string]any{
		"response_type": "ephemeral",
		"text":          reply.Text,
	}
	if len(reply.Blocks) > 0 {
		payload["blocks"] = reply.Blocks
	}
	return payload
}
