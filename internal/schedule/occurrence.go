package schedule

import (
	"clinic-booking/internal/timerange"
	"time"
)

// MonthlyOverflowPolicy determines what happens to a monthly recurrence whose
// anchor day does not exist in a shorter month, e.g. an anchor on the 31st.
type MonthlyOverflowPolicy string

const (
	// MonthlyOverflowSkip drops the occurrence in months without the anchor day.
	MonthlyOverflowSkip MonthlyOverflowPolicy = "SKIP"

	// MonthlyOverflowClamp moves the occurrence to the last day of the month.
	MonthlyOverflowClamp MonthlyOverflowPolicy = "CLAMP"
)

// Valid checks if the policy is a known one.
func (p MonthlyOverflowPolicy) Valid() bool {
	return p == MonthlyOverflowSkip || p == MonthlyOverflowClamp
}

// daysInMonth returns the number of days of the month the given day falls in.
func daysInMonth(day time.Time) int {
	local := timerange.LocalDay(day)
	firstOfNext := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, time.Local).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1).Day()
}

// IsActiveOn checks if the blocked slot applies on the given calendar day.
// Exception dates always win over the recurrence pattern.
func (b BlockedSlot) IsActiveOn(day time.Time, policy MonthlyOverflowPolicy) bool {
	key := timerange.FormatDay(day)
	for _, exception := range b.Exceptions {
		if exception == key {
			return false
		}
	}
	switch b.Recurrence {
	case RecurrenceWeekly:
		return timerange.LocalDay(day).Weekday() == timerange.LocalDay(b.Date).Weekday()
	case RecurrenceMonthly:
		anchorDay := timerange.LocalDay(b.Date).Day()
		if anchorDay > daysInMonth(day) {
			if policy == MonthlyOverflowClamp {
				return timerange.LocalDay(day).Day() == daysInMonth(day)
			}
			return false
		}
		return timerange.LocalDay(day).Day() == anchorDay
	default:
		return timerange.SameDay(day, b.Date)
	}
}
