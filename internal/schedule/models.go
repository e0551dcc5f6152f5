package schedule

import (
	"clinic-booking/internal/apierrors"
	"clinic-booking/internal/timerange"
	"time"

	"github.com/google/uuid"
)

// Status determines the appointment lifecycle state.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusConfirmed Status = "CONFIRMED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusNoShow    Status = "NO_SHOW"
)

// Terminal checks if the status cannot transition back to an active one without
// an explicit override.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// Kind determines what an appointment holds on the calendar.
type Kind string

const (
	KindPatient  Kind = "PATIENT"
	KindPersonal Kind = "PERSONAL"
)

// Recurrence determines how a blocked slot repeats.
type Recurrence string

const (
	RecurrenceNone    Recurrence = "NONE"
	RecurrenceWeekly  Recurrence = "WEEKLY"
	RecurrenceMonthly Recurrence = "MONTHLY"
)

// Frequency determines the step unit of a recurrence rule attached to an
// appointment template.
type Frequency string

const (
	FrequencyDaily    Frequency = "DAILY"
	FrequencyWeekly   Frequency = "WEEKLY"
	FrequencyBiweekly Frequency = "BIWEEKLY"
	FrequencyMonthly  Frequency = "MONTHLY"
)

type Appointment struct {
	ID              int64     `json:"-" dbfield:"id"`
	UUID            uuid.UUID `json:"uuid" dbfield:"uuid"`
	ProfessionalID  int64     `json:"-" dbfield:"professional_id"`
	Date            time.Time `json:"date" dbfield:"date"`
	StartTime       string    `json:"start_time" dbfield:"start_time"`
	EndTime         string    `json:"end_time" dbfield:"end_time"`
	DurationMinutes int       `json:"duration_minutes" dbfield:"duration_minutes"`
	Status          Status    `json:"status" dbfield:"status"`
	Kind            Kind      `json:"kind" dbfield:"kind"`
	SubjectRef      string    `json:"subject" dbfield:"subject_ref"`

	// SeriesKey identifies an occurrence derived from a recurring template. It
	// is set only on candidates produced by Expand and is never persisted.
	SeriesKey string `json:"series_key,omitempty" dbfield:""`
}

// Validate validates if the appointment is valid.
func (a Appointment) Validate() error {
	start, err := timerange.ToMinutes(a.StartTime)
	if err != nil {
		return apierrors.NewValidationError("start_time", "invalid format - e.g. 09:30")
	}
	end, err := timerange.ToMinutes(a.EndTime)
	if err != nil {
		return apierrors.NewValidationError("end_time", "invalid format - e.g. 10:30")
	}
	if start >= end {
		return apierrors.NewValidationError("end_time", "must be after start_time")
	}
	if a.Date.IsZero() {
		return apierrors.NewValidationError("date", "required")
	}
	switch a.Kind {
	case KindPatient, KindPersonal:
	default:
		return apierrors.NewValidationError("kind", "invalid")
	}
	if a.Kind == KindPatient && a.SubjectRef == "" {
		return apierrors.NewValidationError("subject", "required")
	}
	return nil
}

type BlockedSlot struct {
	ID             int64      `json:"-" dbfield:"id"`
	UUID           uuid.UUID  `json:"uuid" dbfield:"uuid"`
	ProfessionalID int64      `json:"-" dbfield:"professional_id"`
	Date           time.Time  `json:"date" dbfield:"date"`
	StartTime      string     `json:"start_time" dbfield:"start_time"`
	EndTime        string     `json:"end_time" dbfield:"end_time"`
	Reason         string     `json:"reason" dbfield:"reason"`
	Recurrence     Recurrence `json:"recurrence" dbfield:"recurrence"`

	// Exceptions holds the calendar days (YYYY-MM-DD) on which this slot,
	// despite matching its recurrence pattern, does not apply.
	Exceptions []string `json:"exceptions,omitempty" dbfield:"exceptions"`
}

// Validate validates if the blocked slot is valid.
func (b BlockedSlot) Validate() error {
	start, err := timerange.ToMinutes(b.StartTime)
	if err != nil {
		return apierrors.NewValidationError("start_time", "invalid format - e.g. 09:30")
	}
	end, err := timerange.ToMinutes(b.EndTime)
	if err != nil {
		return apierrors.NewValidationError("end_time", "invalid format - e.g. 10:30")
	}
	if start >= end {
		return apierrors.NewValidationError("end_time", "must be after start_time")
	}
	if b.Date.IsZero() {
		return apierrors.NewValidationError("date", "required")
	}
	switch b.Recurrence {
	case RecurrenceNone, RecurrenceWeekly, RecurrenceMonthly:
	default:
		return apierrors.NewValidationError("recurrence", "invalid")
	}
	if b.Recurrence == RecurrenceNone && len(b.Exceptions) > 0 {
		return apierrors.NewValidationError("exceptions", "only allowed on recurring slots")
	}
	for _, exception := range b.Exceptions {
		if _, err = timerange.ParseDay(exception); err != nil {
			return apierrors.NewValidationError("exceptions", "invalid date - e.g. 2024-06-10")
		}
	}
	return nil
}

// RecurrenceRule determines how an appointment template expands into concrete
// occurrences. EndDate and Count are optional bounds; zero values mean unbounded.
type RecurrenceRule struct {
	Frequency Frequency `json:"frequency"`
	Interval  int       `json:"interval"`
	EndDate   time.Time `json:"end_date,omitempty"`
	Count     int       `json:"count,omitempty"`
}

// Validate validates if the recurrence rule is valid.
func (r RecurrenceRule) Validate() error {
	switch r.Frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
	default:
		return apierrors.NewValidationError("frequency", "invalid")
	}
	if r.Interval < 1 {
		return apierrors.NewValidationError("interval", "must be positive")
	}
	if r.Count < 0 {
		return apierrors.NewValidationError("count", "must not be negative")
	}
	return nil
}
