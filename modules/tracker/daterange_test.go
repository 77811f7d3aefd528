package tracker

import (
	"testing"
	"time"

	domain "github.com/example/slack-task-tracker/domain/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterForm_Bounds(t *testing.T) {
	now := time.Date(2024, 5, 10, 22, 30, 0, 0, time.UTC)
	day := func(d int) time.Time { return time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name     string
		form     FilterForm
		from, to time.Time
	}{
		{"today", FilterForm{Range: RangeToday}, day(10), day(11)},
		{"default is today", FilterForm{}, day(10), day(11)},
		{"yesterday", FilterForm{Range: RangeYesterday}, day(9), day(10)},
		{"last 7 days", FilterForm{Range: RangeLast7Days}, day(4), day(11)},
		{"custom end is inclusive", FilterForm{Range: RangeCustom, Start: "2024-05-01", End: "2024-05-03"}, day(1), day(4)},
		{"custom single day", FilterForm{Range: RangeCustom, Start: "2024-05-02", End: "2024-05-02"}, day(2), day(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := tt.form.Bounds(now)
			require.NoError(t, err)
			assert.Equal(t, tt.from, from)
			assert.Equal(t, tt.to, to)
		})
	}
}

func TestFilterForm_BoundsErrors(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		form  FilterForm
		field string
	}{
		{"missing start", FilterForm{Range: RangeCustom, End: "2024-05-03"}, FieldStart},
		{"missing end", FilterForm{Range: RangeCustom, Start: "2024-05-03"}, FieldEnd},
		{"end before start", FilterForm{Range: RangeCustom, Start: "2024-05-03", End: "2024-05-02"}, FieldEnd},
		{"malformed start", FilterForm{Range: RangeCustom, Start: "05/03/2024", End: "2024-05-04"}, FieldStart},
		{"unknown range", FilterForm{Range: "fortnight"}, FieldRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.form.Bounds(now)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)

			var fieldErr *FieldError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tt.field, fieldErr.Field)
		})
	}
}

func TestFilterForm_Query(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	q, err := FilterForm{Status: domain.StatusPending, Range: RangeLast7Days}.Query(now)
	require.NoError(t, err)
	assert.Equal(t, ListQuery{Status: domain.StatusPending, From: "2024-05-04", To: "2024-05-11"}, q)

	_, err = FilterForm{Status: "sideways"}.Query(now)
	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, FieldStatus, fieldErr.Field)
}
