// Package aggregate turns raw visit and contact-click rows into the series
// and rankings shown on the dashboard. Every function accepts an empty input
// and returns zero buckets or an empty ranking.
package aggregate

import (
	"fmt"
	"time"
)

const (
	// DailyWindow is the number of calendar days in the daily series
	DailyWindow = 7
	// HourlyBuckets is the number of buckets covering the trailing 24 hours
	HourlyBuckets = 8
	// HoursPerBucket is the width of an hourly bucket
	HoursPerBucket = 3
)

// Bucket is one labeled point of a series
type Bucket struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Series is an ordered list of buckets, oldest first
type Series []Bucket

// Labels returns the bucket labels in order
func (s Series) Labels() []string {
	out := make([]string, len(s))
	for i, b := range s {
		out[i] = b.Label
	}
	return out
}

// Values returns the bucket counts in order
func (s Series) Values() []int {
	out := make([]int, len(s))
	for i, b := range s {
		out[i] = b.Count
	}
	return out
}

// Total sums every bucket
func (s Series) Total() int {
	n := 0
	for _, b := range s {
		n += b.Count
	}
	return n
}

// tally builds the buckets from keys first so empty buckets stay at zero,
// then counts each row whose key exists. Unknown keys are dropped.
func tally(keys, labels []string, rows []time.Time, keyOf func(time.Time) (string, bool)) Series {
	series := make(Series, len(keys))
	index := make(map[string]int, len(keys))
	for i, k := range keys {
		series[i] = Bucket{Key: k, Label: labels[i]}
		index[k] = i
	}
	for _, ts := range rows {
		k, ok := keyOf(ts)
		if !ok {
			continue
		}
		if i, found := index[k]; found {
			series[i].Count++
		}
	}
	return series
}

// Daily buckets rows into the 7 calendar days ending on now's date (in loc).
// A row belongs to the day of its timestamp in loc; rows outside the window
// are dropped.
func Daily(rows []time.Time, now time.Time, loc *time.Location, label DayLabeler) Series {
	if loc == nil {
		loc = time.UTC
	}
	if label == nil {
		label = EnglishDayLabel
	}

	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	keys := make([]string, 0, DailyWindow)
	labels := make([]string, 0, DailyWindow)
	for i := DailyWindow - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		keys = append(keys, day.Format("2006-01-02"))
		labels = append(labels, label(day))
	}

	return tally(keys, labels, rows, func(ts time.Time) (string, bool) {
		return ts.In(loc).Format("2006-01-02"), true
	})
}

// HourBucketStart maps an hour of day to the first hour of its 3-hour bucket
func HourBucketStart(hour int) int {
	return (hour / HoursPerBucket) * HoursPerBucket
}

// HourLabel renders a bucket start hour the way the dashboard shows it
func HourLabel(hour int) string {
	return fmt.Sprintf("%d:00", hour)
}

// Hourly buckets rows from the trailing 24 hours into 8 buckets of 3 hours
// labeled by their starting wall-clock hour in loc. The last bucket is the
// one containing now; earlier ones walk back across midnight. Rows older than
// 24 hours or later than now are dropped.
func Hourly(rows []time.Time, now time.Time, loc *time.Location) Series {
	if loc == nil {
		loc = time.UTC
	}

	current := HourBucketStart(now.In(loc).Hour())
	keys := make([]string, 0, HourlyBuckets)
	for i := HourlyBuckets - 1; i >= 0; i-- {
		start := ((current-i*HoursPerBucket)%24 + 24) % 24
		keys = append(keys, HourLabel(start))
	}

	from := now.Add(-24 * time.Hour)
	return tally(keys, keys, rows, func(ts time.Time) (string, bool) {
		if ts.Before(from) || ts.After(now) {
			return "", false
		}
		return HourLabel(HourBucketStart(ts.In(loc).Hour())), true
	})
}
