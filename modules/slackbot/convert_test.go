package slackbot

import (
	"testing"

	domain "github.com/example/slack-task-tracker/domain/task"
	"github.com/example/slack-task-tracker/modules/tracker"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMentionAndCommandEvents(t *testing.T) {
	m := mentionEvent(&slackevents.AppMentionEvent{Channel: "C1", User: "U1", Text: "<@UBOT> <@U2> hi"})
	assert.Equal(t, tracker.MentionEvent{ChannelID: "C1", UserID: "U1", Text: "<@UBOT> <@U2> hi"}, m)

	c := commandEvent(slack.SlashCommand{ChannelID: "C1", UserID: "U1", Command: "/tasks", Text: "show 3"})
	assert.Equal(t, tracker.CommandEvent{ChannelID: "C1", UserID: "U1", Text: "show 3"}, c)

	ack := commandAck(tracker.Reply{Text: "Task #3 not found."})
	assert.Equal(t, "ephemeral", ack["response_type"])
	assert.NotContains(t, ack, "blocks")
}

func TestInteractionEvent_Checkbox(t *testing.T) {
	cb := slack.InteractionCallback{
		Type:    slack.InteractionTypeBlockActions,
		User:    slack.User{ID: "U2"},
		Channel: slack.Channel{GroupConversation: slack.GroupConversation{Conversation: slack.Conversation{ID: "CTASKS"}}},
		ActionCallback: slack.ActionCallbacks{BlockActions: []*slack.BlockAction{{
			ActionID:        tracker.CheckboxActionID(7),
			SelectedOptions: []slack.OptionBlockObject{{Value: "7|pm"}},
		}}},
	}

	ev, err := interactionEvent(cb)
	require.NoError(t, err)
	assert.Equal(t, tracker.CheckboxEvent{
		TaskID:                7,
		ChannelID:             "CTASKS",
		UserID:                "U2",
		DeveloperChecked:      false,
		ProjectManagerChecked: true,
	}, ev)
}

func TestInteractionEvent_Page(t *testing.T) {
	q := tracker.ListQuery{Status: domain.StatusPending, Page: 2}
	cb := slack.InteractionCallback{
		Type:        slack.InteractionTypeBlockActions,
		User:        slack.User{ID: "U1"},
		ResponseURL: "https://hooks.slack.test/r",
		Container:   slack.Container{ChannelID: "D1", MessageTs: "1.1", IsEphemeral: true},
		ActionCallback: slack.ActionCallbacks{BlockActions: []*slack.BlockAction{{
			ActionID: tracker.ActionListPagePrefix + "_next",
			Value:    q.Encode(),
		}}},
	}

	ev, err := interactionEvent(cb)
	require.NoError(t, err)
	assert.Equal(t, tracker.PageEvent{
		UserID:      "U1",
		Query:       q,
		ChannelID:   "D1",
		MessageTS:   "1.1",
		ResponseURL: "https://hooks.slack.test/r",
		Ephemeral:   true,
	}, ev)

	cb.ActionCallback.BlockActions[0].Value = "{broken"
	_, err = interactionEvent(cb)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func filterState(status, rng, start, end string) *slack.ViewState {
	return &slack.ViewState{Values: map[string]map[string]slack.BlockAction{
		tracker.FieldStatus: {tracker.ActionStatusSelect: {SelectedOption: slack.OptionBlockObject{Value: status}}},
		tracker.FieldRange:  {tracker.ActionRangeSelect: {SelectedOption: slack.OptionBlockObject{Value: rng}}},
		tracker.FieldStart:  {tracker.ActionStartDate: {SelectedDate: start}},
		tracker.FieldEnd:    {tracker.ActionEndDate: {SelectedDate: end}},
	}}
}

func TestInteractionEvent_FilterModal(t *testing.T) {
	shortcut, err := interactionEvent(slack.InteractionCallback{
		Type: slack.InteractionTypeShortcut, CallbackID: tracker.ShortcutFilter, TriggerID: "T1", User: slack.User{ID: "U1"},
	})
	require.NoError(t, err)
	assert.Equal(t, tracker.ShortcutEvent{UserID: "U1", TriggerID: "T1"}, shortcut)

	changed, err := interactionEvent(slack.InteractionCallback{
		Type: slack.InteractionTypeBlockActions,
		View: slack.View{ID: "V1", Hash: "h1", State: filterState("completed", "today", "", "")},
		ActionCallback: slack.ActionCallbacks{BlockActions: []*slack.BlockAction{{
			ActionID:       tracker.ActionRangeSelect,
			SelectedOption: slack.OptionBlockObject{Value: "custom"},
		}}},
	})
	require.NoError(t, err)
	assert.Equal(t, tracker.FilterRangeChangedEvent{
		ViewID: "V1",
		Hash:   "h1",
		Form:   tracker.FilterForm{Status: domain.StatusCompleted, Range: tracker.RangeCustom},
	}, changed)

	submitted, err := interactionEvent(slack.InteractionCallback{
		Type: slack.InteractionTypeViewSubmission,
		User: slack.User{ID: "U1"},
		View: slack.View{CallbackID: tracker.CallbackFilterModal, State: filterState("any", "custom", "2024-05-01", "2024-05-03")},
	})
	require.NoError(t, err)
	assert.Equal(t, tracker.FilterSubmitEvent{
		UserID: "U1",
		Form:   tracker.FilterForm{Status: domain.StatusAny, Range: tracker.RangeCustom, Start: "2024-05-01", End: "2024-05-03"},
	}, submitted)
}

func TestInteractionEvent_Ignored(t *testing.T) {
	_, err := interactionEvent(slack.InteractionCallback{Type: slack.InteractionTypeShortcut, CallbackID: "other"})
	assert.ErrorIs(t, err, errIgnored)

	_, err = interactionEvent(slack.InteractionCallback{Type: slack.InteractionTypeBlockActions})
	assert.ErrorIs(t, err, errIgnored)

	_, err = interactionEvent(slack.InteractionCallback{
		Type:           slack.InteractionTypeBlockActions,
		ActionCallback: slack.ActionCallbacks{BlockActions: []*slack.BlockAction{{ActionID: "something_else"}}},
	})
	assert.ErrorIs(t, err, errIgnored)
}
