package timedataset

import (
	"time"
)

const secondsPerDay = 24 * 60 * 60

type TimeSlice []time.Time

func (t TimeSlice) StartTime() time.Time {
	var startTime time.Time
	if len(t) < 1 {
		return startTime
	}
	return t[0]
}

func (t TimeSlice) EndTime() time.Time {
	var lastTime time.Time
	if len(t) < 1 {
		return lastTime
	}
	return t[len(t)-1]
}

// DayNumber counts calendar days since 1970-01-01, negative before it. It does not overflow for
// any year a date parser accepts.
func DayNumber(t time.Time) int64 {
	return TruncateDay(t).Unix() / secondsPerDay
}

// DaysBetween returns the number of calendar days from start to end
func DaysBetween(start, end time.Time) int64 {
	return DayNumber(end) - DayNumber(start)
}

// DailyRange returns n consecutive calendar days beginning at start
func DailyRange(start time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	start = TruncateDay(start)
	t := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		t = append(t, start.AddDate(0, 0, i))
	}
	return t
}

// TruncateDay drops the clock portion of a time, keeping the calendar day in UTC.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
