// Package timerange contains helpers to handle wall-clock time ranges at minute
// granularity and to normalize stored instants to local calendar days.
package timerange

import (
	"clinic-booking/internal/apierrors"
	"fmt"
	"time"
)

const (
	// DayLayout is the layout used for bare calendar days.
	DayLayout = "2006-01-02"

	// MinutesPerDay bounds every minute-of-day range; no range crosses midnight.
	MinutesPerDay = 24 * 60
)

// ToMinutes converts a wall-clock time in the HH:MM format to its minute of day.
// Every character is checked; a malformed value is never coerced.
func ToMinutes(value string) (int, error) {
	if len(value) != 5 || value[2] != ':' {
		return 0, apierrors.NewValidationError("time", "invalid format - e.g. 09:30")
	}
	for _, i := range [4]int{0, 1, 3, 4} {
		if value[i] < '0' || value[i] > '9' {
			return 0, apierrors.NewValidationError("time", "invalid format - e.g. 09:30")
		}
	}
	hour := int(value[0]-'0')*10 + int(value[1]-'0')
	minute := int(value[3]-'0')*10 + int(value[4]-'0')
	if hour > 23 || minute > 59 {
		return 0, apierrors.NewValidationError("time", "out of range")
	}
	return hour*60 + minute, nil
}

// FormatMinutes converts a minute of day back to the HH:MM format.
func FormatMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Overlaps checks if two half-open ranges [aStart, aEnd) and [bStart, bEnd)
// overlap. Ranges that only touch at a boundary do not overlap, so back-to-back
// appointments are legal.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// LocalDay extracts the local calendar day of the given instant, at midnight in
// the local time zone. Stored values mix bare dates and full timestamps, so the
// day must always be rebuilt from the local wall clock; truncating in UTC can
// shift the apparent day.
func LocalDay(t time.Time) time.Time {
	local := t.In(time.Local)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
}

// SameDay checks if two instants fall on the same local calendar day.
func SameDay(a, b time.Time) bool {
	return LocalDay(a).Equal(LocalDay(b))
}

// ParseDay parses a bare calendar day in the YYYY-MM-DD format into local midnight.
func ParseDay(value string) (time.Time, error) {
	day, err := time.ParseInLocation(DayLayout, value, time.Local)
	if err != nil {
		return time.Time{}, apierrors.NewValidationError("date", "invalid format - e.g. 2024-06-10")
	}
	return day, nil
}

// FormatDay formats the given instant's local calendar day as YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return LocalDay(t).Format(DayLayout)
}

// CombineDayTime combines a calendar day and a minute of day into a single
// local instant.
func CombineDayTime(day time.Time, minutes int) time.Time {
	if minutes < 0 {
		minutes = 0
	}
	if minutes > MinutesPerDay {
		minutes = MinutesPerDay
	}
	local := LocalDay(day)
	return local.Add(time.Duration(minutes) * time.Minute)
}
