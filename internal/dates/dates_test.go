package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// Wednesday.
var anchor = time.Date(2026, time.March, 4, 15, 30, 0, 0, time.UTC)

func TestParseRelativeWords(t *testing.T) {
	cases := []struct {
		phrase string
		want   string
	}{
		{"today", "2026-03-04"},
		{"Tomorrow", "2026-03-05"},
		{"yesterday", "2026-03-03"},
		{"  TODAY  ", "2026-03-04"},
	}
	for _, tc := range cases {
		got, ok := Parse(tc.phrase, anchor)
		require.True(t, ok, "phrase %q", tc.phrase)
		assert.Equal(t, tc.want, got.Format("2006-01-02"))
	}
}

func TestParseWeekdayAdvancesIntoTheFuture(t *testing.T) {
	cases := []struct {
		phrase string
		want   string
	}{
		{"thursday", "2026-03-05"},
		{"friday", "2026-03-06"},
		{"sunday", "2026-03-08"},
		{"monday", "2026-03-09"},
		// Naming today's weekday means next week, not today.
		{"wednesday", "2026-03-11"},
	}
	for _, tc := range cases {
		got, ok := Parse(tc.phrase, anchor)
		require.True(t, ok, "phrase %q", tc.phrase)
		assert.Equal(t, tc.want, got.Format("2006-01-02"))
	}
}

func TestParseISOLiteral(t *testing.T) {
	got, ok := Parse("2026-12-24", anchor)
	require.True(t, ok)
	assert.Equal(t, "2026-12-24", got.Format("2006-01-02"))
}

func TestParseUnrecognizable(t *testing.T) {
	for _, phrase := range []string{"", "next week", "someday", "2026-13-01", "24/12/2026"} {
		_, ok := Parse(phrase, anchor)
		assert.False(t, ok, "phrase %q", phrase)
	}
}

func TestParseWeekdayProperties(t *testing.T) {
	names := []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.SampledFrom(names).Draw(t, "weekday")
		days := rapid.IntRange(0, 4000).Draw(t, "offset")
		today := time.Date(2020, time.January, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, days)

		got, ok := Parse(name, today)
		if !ok {
			t.Fatalf("weekday %q did not parse", name)
		}

		diff := int(got.Sub(time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)).Hours() / 24)
		if diff < 1 || diff > 7 {
			t.Fatalf("weekday %q from %s resolved %d days ahead", name, today.Format("2006-01-02"), diff)
		}

		// Idempotent within the same day.
		again, _ := Parse(name, today)
		if !again.Equal(got) {
			t.Fatalf("re-parsing %q on the same day diverged", name)
		}
	})
}
