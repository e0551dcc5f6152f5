package schedule

import (
	"clinic-booking/internal/timerange"
	"time"

	"github.com/google/uuid"
)

// FindConflicts returns every appointment of the snapshot that overlaps the
// half-open range [start, end) on the given calendar day. Cancelled
// appointments never conflict. The appointment identified by exclude is
// skipped, so an appointment being moved does not conflict with itself; an
// exclude that matches nothing is a benign no-op. All conflicts are returned,
// not just the first, so callers can present a complete report.
func FindConflicts(appointments []*Appointment, day time.Time, start, end int, exclude uuid.UUID) ([]*Appointment, error) {
	conflicts := make([]*Appointment, 0)
	for _, appointment := range appointments {
		if exclude != uuid.Nil && appointment.UUID == exclude {
			continue
		}
		if appointment.Status == StatusCancelled {
			continue
		}
		if !timerange.SameDay(appointment.Date, day) {
			continue
		}
		otherStart, err := timerange.ToMinutes(appointment.StartTime)
		if err != nil {
			return nil, err
		}
		otherEnd, err := timerange.ToMinutes(appointment.EndTime)
		if err != nil {
			return nil, err
		}
		if timerange.Overlaps(start, end, otherStart, otherEnd) {
			conflicts = append(conflicts, appointment)
		}
	}
	return conflicts, nil
}

// FindBlockedConflicts returns every blocked slot active on the given calendar
// day that overlaps the half-open range [start, end).
func FindBlockedConflicts(slots []*BlockedSlot, day time.Time, start, end int, policy MonthlyOverflowPolicy) ([]*BlockedSlot, error) {
	conflicts := make([]*BlockedSlot, 0)
	for _, slot := range slots {
		if !slot.IsActiveOn(day, policy) {
			continue
		}
		slotStart, err := timerange.ToMinutes(slot.StartTime)
		if err != nil {
			return nil, err
		}
		slotEnd, err := timerange.ToMinutes(slot.EndTime)
		if err != nil {
			return nil, err
		}
		if timerange.Overlaps(start, end, slotStart, slotEnd) {
			conflicts = append(conflicts, slot)
		}
	}
	return conflicts, nil
}
