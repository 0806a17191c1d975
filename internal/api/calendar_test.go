package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func run(t *testing.T, start string, meters float64) Activity {
	t.Helper()
	return Activity{Type: RunType, StartDateLocal: mustTime(t, start), Distance: meters}
}

func emptyWeek() WeekBucket {
	var w WeekBucket
	for i := range w {
		w[i] = DayBucket{}
	}
	return w
}

func TestMondayOf(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		expected time.Time
	}{
		{
			name:     "Thursday",
			input:    time.Date(2026, 10, 15, 14, 30, 0, 0, time.UTC),
			expected: time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "Monday morning",
			input:    time.Date(2026, 10, 12, 8, 30, 0, 0, time.UTC),
			expected: time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "Sunday belongs to the week before",
			input:    time.Date(2026, 10, 18, 23, 59, 59, 0, time.UTC),
			expected: time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "Sunday across a month boundary",
			input:    time.Date(2026, 11, 1, 9, 0, 0, 0, time.UTC),
			expected: time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "Across a year boundary",
			input:    time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
			expected: time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MondayOf(tt.input)
			if !result.Equal(tt.expected) {
				t.Errorf("MondayOf(%v) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestMondayOf_Properties(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}

	for _, loc := range []*time.Location{time.UTC, newYork} {
		// Covers the end of daylight saving time in New York on 2026-11-01.
		start := time.Date(2026, 10, 1, 0, 0, 0, 0, loc)
		for h := 0; h < 60*24; h += 7 {
			d := start.Add(time.Duration(h) * time.Hour)
			monday := MondayOf(d)

			if !MondayOf(monday).Equal(monday) {
				t.Errorf("MondayOf not idempotent for %v", d)
			}
			if monday.After(d) || !d.Before(monday.AddDate(0, 0, 7)) {
				t.Errorf("%v not within [%v, +7d)", d, monday)
			}
			if monday.Weekday() != time.Monday {
				t.Errorf("MondayOf(%v) = %v is a %v", d, monday, monday.Weekday())
			}
			if hh, mm, ss := monday.Clock(); hh != 0 || mm != 0 || ss != 0 || monday.Nanosecond() != 0 {
				t.Errorf("MondayOf(%v) = %v is not midnight", d, monday)
			}
		}
	}
}

func TestRoundKm(t *testing.T) {
	tests := []struct {
		meters float64
		want   float64
	}{
		{0, 0},
		{10234, 10.2},
		{10250, 10.3},
		{3149, 3.1},
		{3150, 3.2},
		{5000, 5},
		{42195, 42.2},
	}
	for _, tt := range tests {
		if got := RoundKm(tt.meters); got != tt.want {
			t.Errorf("RoundKm(%v) = %v, want %v", tt.meters, got, tt.want)
		}
	}
}

func TestBuildWeeks(t *testing.T) {
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC) // Thursday

	ride := run(t, "2026-10-14T12:00:00Z", 20000)
	ride.Type = "Ride"

	activities := []Activity{
		run(t, "2026-10-12T07:00:00Z", 3000),
		run(t, "2026-10-12T18:00:00Z", 5000),
		run(t, "2026-10-13T00:00:00Z", 4000), // exactly at Monday's end
		run(t, "2026-10-14T06:15:00Z", 2000),
		ride,
		run(t, "2026-10-11T23:59:59Z", 10234), // Sunday of last week
		run(t, "2026-09-21T00:00:00Z", 6500),  // first instant of the oldest week
		run(t, "2026-09-20T23:59:59Z", 9000),  // just before the window
		run(t, "2026-10-19T00:00:00Z", 7000),  // next week
	}

	got := BuildWeeks(activities, now, 4)

	want := []WeekBucket{emptyWeek(), emptyWeek(), emptyWeek(), emptyWeek()}
	want[0][0] = DayBucket{5, 3}
	want[0][1] = DayBucket{4}
	want[0][2] = DayBucket{2}
	want[1][6] = DayBucket{10.2}
	want[3][0] = DayBucket{6.5}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildWeeks mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildWeeks_PartitionsRunsInWindow(t *testing.T) {
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	windowStart := WeeksStart(now, 4)
	windowEnd := MondayOf(now).AddDate(0, 0, 7)

	var activities []Activity
	inWindow := 0
	for ts := windowStart.AddDate(0, 0, -3); ts.Before(windowEnd.AddDate(0, 0, 3)); ts = ts.Add(5 * time.Hour) {
		activities = append(activities, Activity{Type: RunType, StartDateLocal: ts, Distance: 1000})
		if !ts.Before(windowStart) && ts.Before(windowEnd) {
			inWindow++
		}
	}

	total := 0
	for _, week := range BuildWeeks(activities, now, 4) {
		for _, day := range week {
			total += len(day)
		}
	}
	if total != inWindow {
		t.Errorf("bucketed %d runs, want %d", total, inWindow)
	}
}

func TestBuildWeeks_DaysSortedDescending(t *testing.T) {
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	activities := []Activity{
		run(t, "2026-10-15T06:00:00Z", 3100),
		run(t, "2026-10-15T07:00:00Z", 5200),
		run(t, "2026-10-15T08:00:00Z", 4000),
	}

	day := BuildWeeks(activities, now, 1)[0][3]
	if diff := cmp.Diff(DayBucket{5.2, 4, 3.1}, day); diff != "" {
		t.Errorf("Thursday bucket mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildWeeks_WallClockInLocation(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, la)

	// 02:00 on Tuesday by the athlete's clock. Converting the Z-suffixed value
	// to Los Angeles time would wrongly move it to Monday evening.
	activities := []Activity{run(t, "2026-10-13T02:00:00Z", 8000)}

	week := BuildWeeks(activities, now, 1)[0]
	if len(week[0]) != 0 {
		t.Errorf("Monday bucket = %v, want empty", week[0])
	}
	if diff := cmp.Diff(DayBucket{8}, week[1]); diff != "" {
		t.Errorf("Tuesday bucket mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildWeeks_EmptyDaysEncodeAsArrays(t *testing.T) {
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	data, err := json.Marshal(BuildWeeks(nil, now, 1))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `[[[],[],[],[],[],[],[]]]` {
		t.Errorf("json = %s", data)
	}
}

func TestMonthlyTotal(t *testing.T) {
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

	walk := run(t, "2026-10-03T09:00:00Z", 4000)
	walk.Type = "Walk"

	activities := []Activity{
		run(t, "2026-10-01T00:00:00Z", 5234),
		run(t, "2026-09-30T23:59:59Z", 8000),
		run(t, "2026-10-14T07:00:00Z", 10250),
		walk,
	}

	if got := MonthlyTotal(activities, now); got != 15.5 {
		t.Errorf("MonthlyTotal = %v, want 15.5", got)
	}
	if got := MonthlyTotal(nil, now); got != 0 {
		t.Errorf("MonthlyTotal(nil) = %v, want 0", got)
	}
}

func TestWindowStarts(t *testing.T) {
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

	if got, want := WeeksStart(now, 4), time.Date(2026, 9, 21, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("WeeksStart = %v, want %v", got, want)
	}
	if got, want := WeeksStart(now, 1), time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("WeeksStart(1) = %v, want %v", got, want)
	}
	if got, want := MonthStart(now), time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("MonthStart = %v, want %v", got, want)
	}
}
