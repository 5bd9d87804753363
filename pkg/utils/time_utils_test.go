package utils

import (
	"testing"
	"time"
)

func TestMillisToTime(t *testing.T) {
	millis := int64(1729756800000) // 2024-10-24 00:00:00 UTC
	result := MillisToTime(millis)

	expected := time.Date(2024, 10, 24, 0, 0, 0, 0, time.UTC)
	if !result.Equal(expected) {
		t.Errorf("MillisToTime(%d) = %v, want %v", millis, result, expected)
	}
}

func TestTimeToMillis(t *testing.T) {
	testTime := time.Date(2024, 10, 24, 0, 0, 0, 0, time.UTC)
	if got := TimeToMillis(testTime); got != 1729756800000 {
		t.Errorf("TimeToMillis(%v) = %d, want %d", testTime, got, int64(1729756800000))
	}
}

func TestAddDays(t *testing.T) {
	from := int64(1729756800000)
	got := AddDays(from, 30)
	expected := TimeToMillis(MillisToTime(from).AddDate(0, 0, 30))
	if got != expected {
		t.Errorf("AddDays(%d, 30) = %d, want %d", from, got, expected)
	}
}

func TestFormatMillis(t *testing.T) {
	if got := FormatMillis(1729756800000); got != "2024-10-24T00:00:00Z" {
		t.Errorf("FormatMillis() = %s, want 2024-10-24T00:00:00Z", got)
	}
}
