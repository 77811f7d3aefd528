package task

import (
	"fmt"
	"strings"
	"time"
)

// Status selects tasks by completion.
type Status string

const (
	StatusAny       Status = ""
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// ParseStatus maps user keywords onto a Status.
func ParseStatus(s string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any", "all":
		return StatusAny, true
	case "completed", "complete", "done":
		return StatusCompleted, true
	case "pending", "open", "incomplete":
		return StatusPending, true
	default:
		return StatusAny, false
	}
}

// Label returns a human readable name.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusCompleted:
		return "completed"
	default:
		return "all"
	}
}

// Filter narrows List and Count. From is inclusive, To is exclusive.
// Limit <= 0 means no limit; Count ignores Limit and Offset.
type Filter struct {
	Status Status     `json:"status,omitempty"`
	From   *time.Time `json:"from,omitempty"`
	To     *time.Time `json:"to,omitempty"`
	Limit  int        `json:"limit,omitempty"`
	Offset int        `json:"offset,omitempty"`
}

// Validate checks the filter for malformed values.
func (f Filter) Validate() error {
	switch f.Status {
	case StatusAny, StatusPending, StatusCompleted:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrValidation, f.Status)
	}
	if f.Limit < 0 || f.Offset < 0 {
		return fmt.Errorf("%w: limit and offset must be non-negative", ErrValidation)
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return fmt.Errorf("%w: end precedes start", ErrValidation)
	}
	return nil
}

// Unpaged returns a copy of f without pagination.
func (f Filter) Unpaged() Filter {
	f.Limit = 0
	f.Offset = 0
	return f
}
