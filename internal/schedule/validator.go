package schedule

import (
	"clinic-booking/internal/apierrors"
	"clinic-booking/internal/timerange"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ConflictSource identifies what a conflict report entry was raised against.
type ConflictSource string

const (
	SourcePolicy      ConflictSource = "POLICY"
	SourceBlockedSlot ConflictSource = "BLOCKED_SLOT"
	SourceAppointment ConflictSource = "APPOINTMENT"
)

// Conflict is one entry of a rejection report: the conflicting range and where
// it came from, a blocked slot's reason or a competing appointment's subject.
type Conflict struct {
	Source    ConflictSource `json:"source"`
	StartTime string         `json:"start_time,omitempty"`
	EndTime   string         `json:"end_time,omitempty"`
	Reason    string         `json:"reason"`
}

// ConflictReport is the structured result of a rejected booking attempt. It is
// a first-class value to be rendered by the caller, not an error.
type ConflictReport struct {
	Conflicts []Conflict `json:"conflicts"`
}

// String renders the merged report as a human-readable summary.
func (r ConflictReport) String() string {
	parts := make([]string, 0, len(r.Conflicts))
	for _, conflict := range r.Conflicts {
		if conflict.StartTime == "" {
			parts = append(parts, conflict.Reason)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s-%s (%s)", conflict.StartTime, conflict.EndTime, conflict.Reason))
	}
	return strings.Join(parts, "; ")
}

// Candidate is a proposed create, edit or drag-reschedule built by the caller.
// EndTime may be left empty, in which case it is derived from the duration.
// ExcludeUUID identifies the appointment being moved, so it does not conflict
// with itself.
type Candidate struct {
	ProfessionalID  int64     `json:"-"`
	Date            time.Time `json:"date"`
	StartTime       string    `json:"start_time"`
	EndTime         string    `json:"end_time,omitempty"`
	DurationMinutes int       `json:"duration_minutes,omitempty"`
	ExcludeUUID     uuid.UUID `json:"-"`
}

// Outcome is the terminal state of a checked candidate: accepted, or rejected
// with the merged conflict report.
type Outcome struct {
	Accepted bool            `json:"accepted"`
	Start    string          `json:"start_time"`
	End      string          `json:"end_time"`
	Report   *ConflictReport `json:"report,omitempty"`
}

// DayPolicy is a caller-supplied business-day rule, e.g. rejecting weekend
// moves. A nil policy allows every day.
type DayPolicy func(day time.Time) error

// Validator decides whether a candidate range is legal for a professional's
// calendar, given a snapshot of appointments and blocked slots. It is pure: it
// performs no I/O and mutates nothing.
type Validator struct {
	Policy          DayPolicy
	MonthlyOverflow MonthlyOverflowPolicy
}

// resolveRange derives the candidate's minute range, computing the end from the
// duration when no explicit end time was given.
func (v Validator) resolveRange(candidate Candidate) (int, int, error) {
	start, err := timerange.ToMinutes(candidate.StartTime)
	if err != nil {
		return 0, 0, err
	}
	if candidate.EndTime == "" {
		if candidate.DurationMinutes <= 0 {
			return 0, 0, apierrors.NewValidationError("duration_minutes", "required when end_time is not given")
		}
		end := start + candidate.DurationMinutes
		if end > timerange.MinutesPerDay {
			return 0, 0, apierrors.NewValidationError("duration_minutes", "range must not cross midnight")
		}
		return start, end, nil
	}
	end, err := timerange.ToMinutes(candidate.EndTime)
	if err != nil {
		return 0, 0, err
	}
	if start >= end {
		return 0, 0, apierrors.NewValidationError("end_time", "must be after start_time")
	}
	return start, end, nil
}

// Check runs the candidate through the business-day policy, the blocked slots
// and the stored appointments, in that order. Blocked-slot conflicts come first
// in the merged report so the administrative rejection reason surfaces first
// when both apply. Malformed times fail with a validation error instead of an
// outcome.
func (v Validator) Check(candidate Candidate, appointments []*Appointment, slots []*BlockedSlot) (Outcome, error) {
	start, end, err := v.resolveRange(candidate)
	if err != nil {
		return Outcome{}, err
	}
	if candidate.Date.IsZero() {
		return Outcome{}, apierrors.NewValidationError("date", "required")
	}
	outcome := Outcome{
		Start: timerange.FormatMinutes(start),
		End:   timerange.FormatMinutes(end),
	}
	report := &ConflictReport{Conflicts: make([]Conflict, 0)}
	if v.Policy != nil {
		if policyErr := v.Policy(timerange.LocalDay(candidate.Date)); policyErr != nil {
			report.Conflicts = append(report.Conflicts, Conflict{
				Source: SourcePolicy,
				Reason: policyErr.Error(),
			})
			outcome.Report = report
			return outcome, nil
		}
	}
	blocked, err := FindBlockedConflicts(slots, candidate.Date, start, end, v.MonthlyOverflow)
	if err != nil {
		return Outcome{}, err
	}
	for _, slot := range blocked {
		report.Conflicts = append(report.Conflicts, Conflict{
			Source:    SourceBlockedSlot,
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
			Reason:    slot.Reason,
		})
	}
	conflicting, err := FindConflicts(appointments, candidate.Date, start, end, candidate.ExcludeUUID)
	if err != nil {
		return Outcome{}, err
	}
	for _, appointment := range conflicting {
		report.Conflicts = append(report.Conflicts, Conflict{
			Source:    SourceAppointment,
			StartTime: appointment.StartTime,
			EndTime:   appointment.EndTime,
			Reason:    appointment.SubjectRef,
		})
	}
	if len(report.Conflicts) > 0 {
		outcome.Report = report
		return outcome, nil
	}
	outcome.Accepted = true
	return outcome, nil
}
