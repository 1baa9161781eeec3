package workunit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeHours(t *testing.T) {
	tests := []struct {
		name string
		span TimeSpan
		want Hours
	}{
		{
			name: "full day with lunch",
			span: TimeSpan{InTime: "09:00", OutTime: "18:00", LunchOut: "13:00", LunchIn: "14:00"},
			want: Hours{Work: 8, Break: 1, Total: 9},
		},
		{
			name: "overnight shift wraps to next day",
			span: TimeSpan{InTime: "22:00", OutTime: "06:00"},
			want: Hours{Work: 8, Break: 0, Total: 8},
		},
		{
			name: "missing in time",
			span: TimeSpan{InTime: "", OutTime: "18:00", LunchOut: "13:00", LunchIn: "14:00"},
			want: Hours{},
		},
		{
			name: "missing out time",
			span: TimeSpan{InTime: "09:00"},
			want: Hours{},
		},
		{
			name: "lunch in before lunch out clamps break",
			span: TimeSpan{InTime: "09:00", OutTime: "17:00", LunchOut: "14:00", LunchIn: "13:00"},
			want: Hours{Work: 8, Break: 0, Total: 8},
		},
		{
			name: "only one lunch bound is ignored",
			span: TimeSpan{InTime: "09:00", OutTime: "17:00", LunchOut: "13:00"},
			want: Hours{Work: 8, Break: 0, Total: 8},
		},
		{
			name: "seconds are accepted",
			span: TimeSpan{InTime: "09:00:00", OutTime: "13:20:00"},
			want: Hours{Work: 4.33, Break: 0, Total: 4.33},
		},
		{
			name: "unreadable boundary counts as missing",
			span: TimeSpan{InTime: "nine", OutTime: "18:00"},
			want: Hours{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeHours(tt.span))
		})
	}
}

func TestValidateSpan(t *testing.T) {
	assert.NoError(t, ValidateSpan(ApplyPreset(FullDay)))
	assert.NoError(t, ValidateSpan(ApplyPreset(HalfDay)))
	assert.ErrorIs(t, ValidateSpan(TimeSpan{OutTime: "18:00"}), ErrMissingBoundary)
	assert.ErrorIs(t, ValidateSpan(TimeSpan{InTime: "09:00", OutTime: "18:00", LunchIn: "14:00"}), ErrIncompleteLunch)
	assert.Error(t, ValidateSpan(TimeSpan{InTime: "09:00", OutTime: "25:00"}))
}

func TestTimeEntry(t *testing.T) {
	t.Run("hours follow the span they were built from", func(t *testing.T) {
		// given
		entry := NewTimeEntry(ApplyPreset(FullDay))

		// when
		edited := entry.Span()
		edited.OutTime = "20:00"
		changed := NewTimeEntry(edited)

		// then
		assert.Equal(t, 8.0, entry.Hours().Work)
		assert.Equal(t, 10.0, changed.Hours().Work)
		assert.Equal(t, Overwork, changed.Alignment(FullDay))
		assert.Equal(t, Aligned, entry.Alignment(FullDay))
	})

	t.Run("empty entry has no times", func(t *testing.T) {
		entry := NewTimeEntry(TimeSpan{})

		assert.False(t, entry.HasTimes())
		assert.Equal(t, NoTimes, entry.Alignment(HalfDay))
	})
}
