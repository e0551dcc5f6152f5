package schedule

import (
	"clinic-booking/internal/timerange"
	"fmt"
	"time"
)

// MaxOccurrences is the hard safety cap on expanded series, two years of
// weekly occurrences.
const MaxOccurrences = 104

// Expansion holds the concrete occurrences generated from a recurring
// appointment template. Truncated flags a series cut short by the safety cap;
// it is a warning for the caller to surface, not an error.
type Expansion struct {
	Occurrences []*Appointment `json:"occurrences"`
	Truncated   bool           `json:"truncated"`
}

// occurrenceDay computes the calendar day of the k-th occurrence, the anchor
// advanced by k*interval frequency units. The second return reports a monthly
// step landing on a month without the anchor day under the skip policy.
func occurrenceDay(anchor time.Time, rule RecurrenceRule, k int, policy MonthlyOverflowPolicy) (time.Time, bool) {
	base := timerange.LocalDay(anchor)
	switch rule.Frequency {
	case FrequencyDaily:
		return base.AddDate(0, 0, k*rule.Interval), true
	case FrequencyWeekly:
		return base.AddDate(0, 0, 7*k*rule.Interval), true
	case FrequencyBiweekly:
		return base.AddDate(0, 0, 14*k*rule.Interval), true
	default:
		firstOfMonth := time.Date(base.Year(), base.Month(), 1, 0, 0, 0, 0, time.Local).AddDate(0, k*rule.Interval, 0)
		limit := daysInMonth(firstOfMonth)
		if base.Day() <= limit {
			return firstOfMonth.AddDate(0, 0, base.Day()-1), true
		}
		if policy == MonthlyOverflowClamp {
			return firstOfMonth.AddDate(0, 0, limit-1), true
		}
		return time.Time{}, false
	}
}

// Expand generates the concrete occurrences of the given template. Generation
// stops when the rule's count is reached, when an occurrence would fall after
// the rule's end date, or at the safety cap, whichever comes first. Each
// occurrence is an independent copy of the template carrying a derived series
// key; occurrences are candidates only and must still be validated before
// being committed.
func Expand(template Appointment, rule RecurrenceRule, maxOccurrences int, policy MonthlyOverflowPolicy) (Expansion, error) {
	if err := rule.Validate(); err != nil {
		return Expansion{}, err
	}
	if err := template.Validate(); err != nil {
		return Expansion{}, err
	}
	if maxOccurrences <= 0 || maxOccurrences > MaxOccurrences {
		maxOccurrences = MaxOccurrences
	}
	expansion := Expansion{Occurrences: make([]*Appointment, 0)}
	for k := 0; ; k++ {
		if rule.Count > 0 && len(expansion.Occurrences) == rule.Count {
			break
		}
		if len(expansion.Occurrences) == maxOccurrences {
			expansion.Truncated = true
			break
		}
		day, ok := occurrenceDay(template.Date, rule, k, policy)
		if !ok {
			continue
		}
		if !rule.EndDate.IsZero() && day.After(timerange.LocalDay(rule.EndDate)) {
			break
		}
		occurrence := template
		occurrence.Date = day
		occurrence.SeriesKey = fmt.Sprintf("%s-%d", template.UUID, k)
		expansion.Occurrences = append(expansion.Occurrences, &occurrence)
	}
	return expansion, nil
}
