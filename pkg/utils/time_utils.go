package utils

import (
	"time"
)

const millisPerDay = int64(24 * 60 * 60 * 1000)

// MillisToTime converts milliseconds since epoch to time.Time
func MillisToTime(millis int64) time.Time {
	return time.Unix(0, millis*int64(time.Millisecond)).UTC()
}

// TimeToMillis converts time.Time to milliseconds since epoch
func TimeToMillis(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}

// FormatTime formats time in ISO 8601 format
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// FormatMillis formats milliseconds since epoch in ISO 8601 format
func FormatMillis(millis int64) string {
	return FormatTime(MillisToTime(millis))
}

// AddDays returns the time in milliseconds a given number of days after from
func AddDays(from int64, days int) int64 {
	return from + int64(days)*millisPerDay
}
