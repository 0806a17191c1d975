package api

import (
	"math"
	"slices"
	"time"
)

// RunType is the only activity type counted in distance buckets.
const RunType = "Run"

// DayBucket lists the distance in km of each run on one day, largest first.
type DayBucket []float64

// WeekBucket holds seven days, Monday first.
type WeekBucket [7]DayBucket

// IsRun reports whether the activity counts towards running totals.
func IsRun(a Activity) bool {
	return a.Type == RunType
}

// RoundKm converts meters to kilometers rounded half-up to one decimal.
func RoundKm(meters float64) float64 {
	return math.Round(meters/100) / 10
}

// MondayOf returns midnight of the Monday starting the ISO week that contains t,
// in t's location.
func MondayOf(t time.Time) time.Time {
	year, month, day := t.Date()
	offset := 1 - int(t.Weekday())
	if t.Weekday() == time.Sunday {
		offset = -6
	}
	return time.Date(year, month, day+offset, 0, 0, 0, 0, t.Location())
}

// MonthStart returns midnight on the first day of t's month.
func MonthStart(t time.Time) time.Time {
	year, month, _ := t.Date()
	return time.Date(year, month, 1, 0, 0, 0, 0, t.Location())
}

// WeeksStart returns the Monday of the oldest of weekCount weeks ending with
// the week containing now.
func WeeksStart(now time.Time, weekCount int) time.Time {
	return MondayOf(now).AddDate(0, 0, -7*(weekCount-1))
}

// localStart reads start_date_local as a wall-clock time in loc. Strava encodes
// it with a Z suffix even though it is the athlete's local time.
func localStart(a Activity, loc *time.Location) time.Time {
	t := a.StartDateLocal
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()
	return time.Date(year, month, day, hour, minute, sec, t.Nanosecond(), loc)
}

// BuildWeeks buckets runs into weekCount calendar weeks, newest first. Each day
// covers [midnight, next midnight) in now's location.
func BuildWeeks(activities []Activity, now time.Time, weekCount int) []WeekBucket {
	loc := now.Location()
	thisMonday := MondayOf(now)

	weeks := make([]WeekBucket, weekCount)
	for w := range weeks {
		monday := thisMonday.AddDate(0, 0, -7*w)
		for d := range weeks[w] {
			dayStart := monday.AddDate(0, 0, d)
			dayEnd := dayStart.AddDate(0, 0, 1)

			bucket := DayBucket{}
			for _, a := range activities {
				if !IsRun(a) {
					continue
				}
				start := localStart(a, loc)
				if !start.Before(dayStart) && start.Before(dayEnd) {
					bucket = append(bucket, RoundKm(a.Distance))
				}
			}
			slices.Sort(bucket)
			slices.Reverse(bucket)
			weeks[w][d] = bucket
		}
	}
	return weeks
}

// MonthlyTotal sums the km of runs started in now's calendar month.
func MonthlyTotal(activities []Activity, now time.Time) float64 {
	monthStart := MonthStart(now)
	monthEnd := monthStart.AddDate(0, 1, 0)

	var total float64
	for _, a := range activities {
		if !IsRun(a) {
			continue
		}
		start := localStart(a, now.Location())
		if start.Before(monthStart) || !start.Before(monthEnd) {
			continue
		}
		total += a.Distance / 1000
	}
	return math.Round(total*10) / 10
}
