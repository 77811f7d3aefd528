package tracker

import "fmt"

// Kind identifies an inbound event variant.
type Kind int

const (
	KindMention Kind = iota + 1
	KindCommand
	KindCheckbox
	KindShortcut
	KindFilterRangeChanged
	KindFilterSubmit
	KindPage

	kindEnd
)

func (k Kind) String() string {
	switch k {
	case KindMention:
		return "mention"
	case KindCommand:
		return "command"
	case KindCheckbox:
		return "checkbox"
	case KindShortcut:
		return "shortcut"
	case KindFilterRangeChanged:
		return "filter_range_changed"
	case KindFilterSubmit:
		return "filter_submit"
	case KindPage:
		return "page"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Kinds returns every event kind the controller must handle.
func Kinds() []Kind {
	kinds := make([]Kind, 0, int(kindEnd)-1)
	for k := KindMention; k < kindEnd; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// Event is an inbound request already parsed by the transport.
// The set of variants is closed; see Kinds.
type Event interface {
	Kind() Kind
	sealed()
}

// MentionEvent asks for a task to be created from free text.
type MentionEvent struct {
	ChannelID string
	UserID    string
	Text      string
}

// CommandEvent carries the text of a /tasks slash command.
type CommandEvent struct {
	ChannelID string
	UserID    string
	Text      string
}

// CheckboxEvent carries the desired sign-off state from a task message.
type CheckboxEvent struct {
	TaskID                int64
	ChannelID             string
	UserID                string
	DeveloperChecked      bool
	ProjectManagerChecked bool
}

// ShortcutEvent asks for the filter modal to be opened.
type ShortcutEvent struct {
	UserID    string
	TriggerID string
}

// FilterRangeChangedEvent reports a new range selection inside the open filter modal.
type FilterRangeChangedEvent struct {
	ViewID string
	Hash   string
	Form   FilterForm
}

// FilterSubmitEvent is a submitted filter modal.
type FilterSubmitEvent struct {
	UserID string
	Form   FilterForm
}

// PageEvent asks for another page of a rendered task list.
type PageEvent struct {
	UserID      string
	Query       ListQuery
	ChannelID   string
	MessageTS   string
	ResponseURL string
	Ephemeral   bool
}

func (MentionEvent) Kind() Kind            { return KindMention }
func (CommandEvent) Kind() Kind            { return KindCommand }
func (CheckboxEvent) Kind() Kind           { return KindCheckbox }
func (ShortcutEvent) Kind() Kind           { return KindShortcut }
func (FilterRangeChangedEvent) Kind() Kind { return KindFilterRangeChanged }
func (FilterSubmitEvent) Kind() Kind       { return KindFilterSubmit }
func (PageEvent) Kind() Kind               { return KindPage }

func (MentionEvent) sealed()            {}
func (CommandEvent) sealed()            {}
func (CheckboxEvent) sealed()           {}
func (ShortcutEvent) sealed()           {}
func (FilterRangeChangedEvent) sealed() {}
func (FilterSubmitEvent) sealed()       {}
func (PageEvent) sealed()               {}
