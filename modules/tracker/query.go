package tracker

import (
	"encoding/json"
	"fmt"
	"time"

	domain "github.com/example/slack-task-tracker/domain/task"
)

// ListQuery identifies one page of a task listing. It travels in the value
// of the pagination buttons, so field names are kept short.
type ListQuery struct {
	Status domain.Status `json:"s,omitempty"`
	From   string        `json:"f,omitempty"` // inclusive, YYYY-MM-DD
	To     string        `json:"t,omitempty"` // exclusive, YYYY-MM-DD
	Page   int           `json:"p,omitempty"`
}

// Encode serializes q for a button value.
func (q ListQuery) Encode() string {
	data, _ := json.Marshal(q)
	return string(data)
}

// DecodeListQuery parses a button value produced by Encode.
func DecodeListQuery(value string) (ListQuery, error) {
	var q ListQuery
	if err := json.Unmarshal([]byte(value), &q); err != nil {
		return ListQuery{}, fmt.Errorf("%w: malformed list query: %v", domain.ErrValidation, err)
	}
	if q.Page < 0 {
		return ListQuery{}, fmt.Errorf("%w: negative page", domain.ErrValidation)
	}
	if _, err := q.Filter(1); err != nil {
		return ListQuery{}, err
	}
	return q, nil
}

// WithPage returns a copy of q pointing at page.
func (q ListQuery) WithPage(page int) ListQuery {
	q.Page = page
	return q
}

// Filter converts q into a store filter for pages of pageSize tasks.
func (q ListQuery) Filter(pageSize int) (domain.Filter, error) {
	f := domain.Filter{
		Status: q.Status,
		Limit:  pageSize,
		Offset: q.Page * pageSize,
	}
	if q.From != "" {
		from, err := time.Parse(DateLayout, q.From)
		if err != nil {
			return domain.Filter{}, fmt.Errorf("%w: bad start date %q", domain.ErrValidation, q.From)
		}
		f.From = &from
	}
	if q.To != "" {
		to, err := time.Parse(DateLayout, q.To)
		if err != nil {
			return domain.Filter{}, fmt.Errorf("%w: bad end date %q", domain.ErrValidation, q.To)
		}
		f.To = &to
	}
	if err := f.Validate(); err != nil {
		return domain.Filter{}, err
	}
	return f, nil
}

// Describe returns a short human readable summary of the query.
func (q ListQuery) Describe() string {
	label := "All tasks"
	switch q.Status {
	case domain.StatusPending:
		label = "Pending tasks"
	case domain.StatusCompleted:
		label = "Completed tasks"
	}

	switch {
	case q.From != "" && q.To != "":
		to, err := time.Parse(DateLayout, q.To)
		if err != nil {
			return label
		}
		last := to.AddDate(0, 0, -1).Format(DateLayout)
		if last == q.From {
			return fmt.Sprintf("%s created on %s", label, q.From)
		}
		return fmt.Sprintf("%s created %s to %s", label, q.From, last)
	case q.From != "":
		return fmt.Sprintf("%s created since %s", label, q.From)
	case q.To != "":
		return fmt.Sprintf("%s created before %s", label, q.To)
	}
	return label
}
