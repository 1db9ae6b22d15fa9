package dw

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	today := time.Date(2024, time.October, 14, 15, 42, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
		want time.Time
		ok   bool
	}{
		{
			name: "today with time suffix",
			raw:  "Today, 10:03",
			want: time.Date(2024, time.October, 14, 0, 0, 0, 0, time.UTC),
			ok:   true,
		},
		{
			name: "yesterday",
			raw:  "Yesterday",
			want: time.Date(2024, time.October, 13, 0, 0, 0, 0, time.UTC),
			ok:   true,
		},
		{
			name: "uppercase yesterday",
			raw:  "YESTERDAY, 23:59",
			want: time.Date(2024, time.October, 13, 0, 0, 0, 0, time.UTC),
			ok:   true,
		},
		{
			name: "slash format",
			raw:  "10/12/2024",
			want: time.Date(2024, time.October, 12, 0, 0, 0, 0, time.UTC),
			ok:   true,
		},
		{
			name: "iso format",
			raw:  "2024-10-12",
			want: time.Date(2024, time.October, 12, 0, 0, 0, 0, time.UTC),
			ok:   true,
		},
		{
			name: "garbage",
			raw:  "not a date",
			ok:   false,
		},
		{
			name: "missing-label sentinel",
			raw:  "Date not available",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.raw, today)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseDate_RelativeBeatsAbsolute(t *testing.T) {
	// A label containing "today" must short-circuit before any format parse,
	// whatever else the string contains.
	today := time.Date(2024, time.October, 14, 0, 0, 0, 0, time.UTC)

	got, ok := ParseDate("today 2024-10-01", today)
	assert.True(t, ok)
	assert.Equal(t, today, got)
}
