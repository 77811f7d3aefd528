package tracker

import (
	"fmt"
	"time"

	domain "github.com/example/slack-task-tracker/domain/task"
)

// DateLayout is the format of datepicker values and encoded query bounds.
const DateLayout = "2006-01-02"

// Range is a date range selection in the filter modal.
type Range string

const (
	RangeToday     Range = "today"
	RangeYesterday Range = "yesterday"
	RangeLast7Days Range = "last_7_days"
	RangeCustom    Range = "custom"
)

// Ranges lists the selectable ranges in display order.
var Ranges = []Range{RangeToday, RangeYesterday, RangeLast7Days, RangeCustom}

// Label returns the option text for r.
func (r Range) Label() string {
	switch r {
	case RangeToday:
		return "Today"
	case RangeYesterday:
		return "Yesterday"
	case RangeLast7Days:
		return "Last 7 days"
	case RangeCustom:
		return "Custom range"
	default:
		return string(r)
	}
}

// Block ids of the filter modal inputs. Field errors are keyed by them.
const (
	FieldStatus = "filter_status"
	FieldRange  = "filter_range"
	FieldStart  = "filter_start"
	FieldEnd    = "filter_end"
)

// FieldError is a validation failure tied to one modal input.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return domain.ErrValidation
}

// FilterForm is the state of the filter modal.
type FilterForm struct {
	Status domain.Status
	Range  Range
	Start  string // YYYY-MM-DD, custom range only
	End    string // YYYY-MM-DD, last included day
}

// Bounds resolves the form's range against now into [from, to) at UTC
// midnight. The custom end date is inclusive, so to is the day after it.
func (f FilterForm) Bounds(now time.Time) (from, to time.Time, err error) {
	today := startOfDay(now)
	switch f.Range {
	case RangeToday, "":
		return today, today.AddDate(0, 0, 1), nil
	case RangeYesterday:
		return today.AddDate(0, 0, -1), today, nil
	case RangeLast7Days:
		return today.AddDate(0, 0, -6), today.AddDate(0, 0, 1), nil
	case RangeCustom:
		if f.Start == "" {
			return time.Time{}, time.Time{}, &FieldError{Field: FieldStart, Message: "Pick a start date."}
		}
		if f.End == "" {
			return time.Time{}, time.Time{}, &FieldError{Field: FieldEnd, Message: "Pick an end date."}
		}
		start, err := time.Parse(DateLayout, f.Start)
		if err != nil {
			return time.Time{}, time.Time{}, &FieldError{Field: FieldStart, Message: "Start date is not a valid date."}
		}
		end, err := time.Parse(DateLayout, f.End)
		if err != nil {
			return time.Time{}, time.Time{}, &FieldError{Field: FieldEnd, Message: "End date is not a valid date."}
		}
		if end.Before(start) {
			return time.Time{}, time.Time{}, &FieldError{Field: FieldEnd, Message: "End date must not be before the start date."}
		}
		return start, end.AddDate(0, 0, 1), nil
	default:
		return time.Time{}, time.Time{}, &FieldError{Field: FieldRange, Message: fmt.Sprintf("Unknown range %q.", f.Range)}
	}
}

// Query builds the first-page list query for the form.
func (f FilterForm) Query(now time.Time) (ListQuery, error) {
	if _, known := domain.ParseStatus(string(f.Status)); !known {
		return ListQuery{}, &FieldError{Field: FieldStatus, Message: "Unknown status."}
	}
	from, to, err := f.Bounds(now)
	if err != nil {
		return ListQuery{}, err
	}
	return ListQuery{
		Status: f.Status,
		From:   from.Format(DateLayout),
		To:     to.Format(DateLayout),
	}, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
