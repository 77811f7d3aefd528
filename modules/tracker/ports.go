package tracker

import (
	"context"
	"errors"

	domain "github.com/example/slack-task-tracker/domain/task"
	"github.com/slack-go/slack"
)

// ErrTransport indicates an outbound messaging call failed. Storage state is
// never rolled back because of it.
var ErrTransport = errors.New("messaging transport failure")

// Store is the subset of task storage the controller mutates through.
type Store interface {
	Create(ctx context.Context, req domain.NewTask) (*domain.Task, error)
	Get(ctx context.Context, id int64) (*domain.Task, error)
	UpdateMessageReference(ctx context.Context, id int64, channelID, messageTS string) error
	UpdateCheckmarks(ctx context.Context, id int64, developerChecked, projectManagerChecked bool) (*domain.Task, error)
	List(ctx context.Context, f domain.Filter) ([]domain.Task, error)
	Count(ctx context.Context, f domain.Filter) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// Messenger is the outbound chat API. Implementations wrap failures in ErrTransport.
type Messenger interface {
	// PostMessage posts to a channel and returns where the message landed.
	PostMessage(ctx context.Context, channelID, text string, blocks []slack.Block) (postedChannelID, ts string, err error)
	UpdateMessage(ctx context.Context, channelID, ts, text string, blocks []slack.Block) error
	DeleteMessage(ctx context.Context, channelID, ts string) error
	PostEphemeral(ctx context.Context, channelID, userID, text string) error
	// OpenDirectMessage returns the id of the DM channel with userID.
	OpenDirectMessage(ctx context.Context, userID string) (string, error)
	OpenModal(ctx context.Context, triggerID string, view slack.ModalViewRequest) error
	UpdateModal(ctx context.Context, viewID, hash string, view slack.ModalViewRequest) error
	// ReplaceOriginal rewrites the message behind an interaction response URL.
	ReplaceOriginal(ctx context.Context, responseURL, text string, blocks []slack.Block) error
}

// Reply answers the acknowledgement of an event. Events whose transport has
// no acknowledgement payload get an empty Reply.
type Reply struct {
	Text   string
	Blocks []slack.Block
	// Errors maps modal block ids to validation messages.
	Errors map[string]string
}

// Empty reports whether r carries nothing to send.
func (r Reply) Empty() bool {
	return r.Text == "" && len(r.Blocks) == 0 && len(r.Errors) == 0
}
