// Package schedule contains the conflict-resolution engine and the services
// used to manage a professional's calendar.
package schedule

import (
	"clinic-booking/internal/apierrors"
	"clinic-booking/internal/auth"
	"clinic-booking/internal/configs"
	"clinic-booking/internal/database"
	"clinic-booking/internal/directory"
	"clinic-booking/internal/locker"
	"clinic-booking/internal/logging"
	"clinic-booking/internal/metrics"
	"clinic-booking/internal/timerange"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// SyncOp identifies the operation reported to the external calendar collaborator.
type SyncOp string

const (
	SyncCreate SyncOp = "CREATE"
	SyncUpdate SyncOp = "UPDATE"
	SyncDelete SyncOp = "DELETE"
)

// Syncer mirrors accepted changes to an external calendar. It is invoked only
// after a booking was committed and its failures never roll the booking back.
type Syncer interface {
	Sync(ctx context.Context, appointment Appointment, op SyncOp) (string, error)
}

// BookingRequest is the payload used to create an appointment. EndTime may be
// omitted when DurationMinutes is given.
type BookingRequest struct {
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	Kind            Kind   `json:"kind"`
	Subject         string `json:"subject"`
}

// RescheduleRequest is the payload used to move an appointment, from an edit
// form or a drag gesture.
type RescheduleRequest struct {
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
}

// SeriesRequest books a recurring series: the template plus its recurrence rule.
type SeriesRequest struct {
	Template BookingRequest `json:"template"`
	Rule     RecurrenceRule `json:"rule"`
}

// BookingResult is the outcome of a booking attempt. A rejected attempt carries
// the conflict report and no appointment.
type BookingResult struct {
	Outcome     Outcome      `json:"outcome"`
	Appointment *Appointment `json:"appointment,omitempty"`
}

// SeriesOccurrenceResult is the outcome of one occurrence of a series booking.
type SeriesOccurrenceResult struct {
	Date    string       `json:"date"`
	Outcome Outcome      `json:"outcome"`
	Booked  *Appointment `json:"booked,omitempty"`
}

// SeriesResult is the outcome of a series booking attempt.
type SeriesResult struct {
	Occurrences []SeriesOccurrenceResult `json:"occurrences"`
	Truncated   bool                     `json:"truncated"`
}

// DayView is a professional's calendar for one day: the appointments of the day
// and the blocked slots active on it.
type DayView struct {
	Date         string         `json:"date"`
	Appointments []*Appointment `json:"appointments"`
	BlockedSlots []*BlockedSlot `json:"blocked_slots"`
}

// Booker determines the methods available to create and move appointments.
type Booker interface {

	// BookAppointment validates and creates an appointment on the professional's calendar.
	BookAppointment(ctx context.Context, user auth.User, professionalUUID uuid.UUID, request BookingRequest) (*BookingResult, error)

	// BookSeries expands a recurring template and validates and books each occurrence.
	BookSeries(ctx context.Context, user auth.User, professionalUUID uuid.UUID, request SeriesRequest) (*SeriesResult, error)

	// Reschedule validates and moves an existing appointment.
	Reschedule(ctx context.Context, user auth.User, appointmentUUID uuid.UUID, request RescheduleRequest) (*BookingResult, error)

	// Confirm marks a scheduled appointment as confirmed.
	Confirm(ctx context.Context, user auth.User, appointmentUUID uuid.UUID) error

	// Cancel cancels an appointment. Cancelled appointments never conflict.
	Cancel(ctx context.Context, user auth.User, appointmentUUID uuid.UUID) error
}

// Blocker determines the methods available to manage blocked time windows.
type Blocker interface {

	// CreateBlockedSlot creates a new blocked slot on the owner's calendar.
	CreateBlockedSlot(ctx context.Context, user auth.User, slot BlockedSlot) (*BlockedSlot, error)

	// DeleteBlockedSlot deletes a blocked slot owned by the user.
	DeleteBlockedSlot(ctx context.Context, user auth.User, slotUUID uuid.UUID) error

	// AddException suppresses a recurring slot on one calendar day.
	AddException(ctx context.Context, user auth.User, slotUUID uuid.UUID, day string) error
}

// Reader determines the methods available to read a calendar.
type Reader interface {

	// GetDayView returns the professional's calendar for the given day.
	GetDayView(ctx context.Context, user auth.User, professionalUUID uuid.UUID, date time.Time) (*DayView, error)
}

// Sweeper determines the method used to reconcile past appointments.
type Sweeper interface {

	// SweepStatuses flips past, still-active appointments to completed and
	// returns how many were flipped.
	SweepStatuses(ctx context.Context) (int, error)
}

// Service determines the methods used to manage calendars.
type Service interface {
	Booker
	Blocker
	Reader
	Sweeper
}

type defaultService struct {
	repository Repository
	directory  directory.Directory
	locker     locker.Locker
	syncer     Syncer
	config     configs.Config
	logger     *log.Logger
}

// NewService creates a new schedule service.
func NewService(config configs.Config, dbConn database.Connection, calendarLocker locker.Locker, syncer Syncer, logger *log.Logger) Service {
	return &defaultService{
		repository: NewRepository(dbConn),
		directory:  directory.NewDirectory(dbConn),
		locker:     calendarLocker,
		syncer:     syncer,
		config:     config,
		logger:     logger,
	}
}

// overflowPolicy resolves the configured monthly overflow policy, defaulting
// to skip.
func (d defaultService) overflowPolicy() MonthlyOverflowPolicy {
	policy := MonthlyOverflowPolicy(d.config.MonthlyOverflow())
	if !policy.Valid() {
		return MonthlyOverflowSkip
	}
	return policy
}

// validator builds the engine validator for one operation. The weekend policy
// only applies to moves, matching the drag-reschedule rule of the calendar UI.
func (d defaultService) validator(move bool) Validator {
	v := Validator{MonthlyOverflow: d.overflowPolicy()}
	if move && d.config.RejectWeekendMoves() {
		v.Policy = func(day time.Time) error {
			if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
				return Error("weekends are not open for booking")
			}
			return nil
		}
	}
	return v
}

// dispatchSync mirrors the accepted change to the external calendar without
// blocking the caller. Sync failures are logged and retried a few times; they
// never affect the committed booking.
func (d defaultService) dispatchSync(appointment Appointment, op SyncOp) {
	if d.syncer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		for attempt := 0; attempt < 3; attempt++ {
			if _, err := d.syncer.Sync(ctx, appointment, op); err == nil {
				return
			} else {
				logging.PrintlnWarn(d.logger, fmt.Sprintf("calendar sync %s for %s failed: %v", op, appointment.UUID, err))
			}
			time.Sleep(time.Duration(attempt+1) * time.Second)
		}
	}()
}

func (d defaultService) resolveProfessional(ctx context.Context, professionalUUID uuid.UUID) (*directory.Professional, error) {
	professional, err := d.directory.FindProfessionalByUUID(ctx, professionalUUID)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if professional == nil {
		return nil, apierrors.NewAPIError(apierrors.WithDetail(ErrProfessionalNotFound), apierrors.WithHTTPStatusCode(http.StatusNotFound))
	}
	return professional, nil
}

// resolveOwner resolves the professional owning the authenticated user, for
// operations restricted to the calendar owner.
func (d defaultService) resolveOwner(ctx context.Context, user auth.User) (*directory.Professional, error) {
	professional, err := d.directory.FindProfessionalByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if professional == nil {
		return nil, apierrors.NewAPIError(apierrors.WithDetail(ErrOnlyOwnerCanManageSlots), apierrors.WithHTTPStatusCode(http.StatusForbidden))
	}
	return professional, nil
}

// candidateFromBooking builds the engine candidate from a booking payload.
func candidateFromBooking(professionalID int64, request BookingRequest) (Candidate, error) {
	day, err := timerange.ParseDay(request.Date)
	if err != nil {
		return Candidate{}, err
	}
	return Candidate{
		ProfessionalID:  professionalID,
		Date:            day,
		StartTime:       request.StartTime,
		EndTime:         request.EndTime,
		DurationMinutes: request.DurationMinutes,
	}, nil
}

func (d defaultService) BookAppointment(ctx context.Context, user auth.User, professionalUUID uuid.UUID, request BookingRequest) (*BookingResult, error) {
	professional, err := d.resolveProfessional(ctx, professionalUUID)
	if err != nil {
		return nil, err
	}
	candidate, err := candidateFromBooking(professional.ID, request)
	if err != nil {
		return nil, err
	}
	var result *BookingResult
	err = d.locker.WithCalendarLock(ctx, professional.ID, func(ctx context.Context) error {
		outcome, checkErr := d.check(ctx, professional.ID, candidate, false)
		if checkErr != nil {
			return checkErr
		}
		if !outcome.Accepted {
			result = &BookingResult{Outcome: outcome}
			return nil
		}
		appointment := Appointment{
			UUID:            uuid.New(),
			ProfessionalID:  professional.ID,
			Date:            candidate.Date,
			StartTime:       outcome.Start,
			EndTime:         outcome.End,
			DurationMinutes: request.DurationMinutes,
			Status:          StatusScheduled,
			Kind:            request.Kind,
			SubjectRef:      request.Subject,
		}
		if validationErr := appointment.Validate(); validationErr != nil {
			return validationErr
		}
		if insertErr := d.repository.InsertAppointment(ctx, appointment); insertErr != nil {
			return fmt.Errorf("an unexpected error occurred: %w", insertErr)
		}
		result = &BookingResult{Outcome: outcome, Appointment: &appointment}
		return nil
	})
	if err != nil {
		if errors.Is(err, locker.ErrLockNotAcquired) {
			return nil, apierrors.NewAPIError(apierrors.WithDetail(ErrCalendarBusy), apierrors.WithHTTPStatusCode(http.StatusConflict))
		}
		return nil, err
	}
	if result.Appointment != nil {
		d.dispatchSync(*result.Appointment, SyncCreate)
	}
	return result, nil
}

// check loads the calendar snapshot and runs the engine validator over it.
func (d defaultService) check(ctx context.Context, professionalID int64, candidate Candidate, move bool) (Outcome, error) {
	appointments, err := d.repository.ListAppointments(ctx, professionalID)
	if err != nil {
		return Outcome{}, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	slots, err := d.repository.ListBlockedSlots(ctx, professionalID)
	if err != nil {
		return Outcome{}, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	outcome, err := d.validator(move).Check(candidate, appointments, slots)
	if err != nil {
		return Outcome{}, err
	}
	metrics.RecordValidation(outcome.Accepted)
	if outcome.Report != nil {
		metrics.RecordConflicts(len(outcome.Report.Conflicts))
	}
	return outcome, nil
}

func (d defaultService) BookSeries(ctx context.Context, user auth.User, professionalUUID uuid.UUID, request SeriesRequest) (*SeriesResult, error) {
	professional, err := d.resolveProfessional(ctx, professionalUUID)
	if err != nil {
		return nil, err
	}
	day, err := timerange.ParseDay(request.Template.Date)
	if err != nil {
		return nil, err
	}
	template := Appointment{
		UUID:            uuid.New(),
		ProfessionalID:  professional.ID,
		Date:            day,
		StartTime:       request.Template.StartTime,
		EndTime:         request.Template.EndTime,
		DurationMinutes: request.Template.DurationMinutes,
		Status:          StatusScheduled,
		Kind:            request.Template.Kind,
		SubjectRef:      request.Template.Subject,
	}
	if template.EndTime == "" && template.DurationMinutes > 0 {
		start, minutesErr := timerange.ToMinutes(template.StartTime)
		if minutesErr != nil {
			return nil, minutesErr
		}
		template.EndTime = timerange.FormatMinutes(start + template.DurationMinutes)
	}
	expansion, err := Expand(template, request.Rule, MaxOccurrences, d.overflowPolicy())
	if err != nil {
		return nil, err
	}
	result := &SeriesResult{
		Occurrences: make([]SeriesOccurrenceResult, 0, len(expansion.Occurrences)),
		Truncated:   expansion.Truncated,
	}
	err = d.locker.WithCalendarLock(ctx, professional.ID, func(ctx context.Context) error {
		for _, occurrence := range expansion.Occurrences {
			candidate := Candidate{
				ProfessionalID:  professional.ID,
				Date:            occurrence.Date,
				StartTime:       occurrence.StartTime,
				EndTime:         occurrence.EndTime,
				DurationMinutes: occurrence.DurationMinutes,
			}
			outcome, checkErr := d.check(ctx, professional.ID, candidate, false)
			if checkErr != nil {
				return checkErr
			}
			occurrenceResult := SeriesOccurrenceResult{
				Date:    timerange.FormatDay(occurrence.Date),
				Outcome: outcome,
			}
			if outcome.Accepted {
				booked := *occurrence
				booked.UUID = uuid.New()
				booked.SeriesKey = ""
				if insertErr := d.repository.InsertAppointment(ctx, booked); insertErr != nil {
					return fmt.Errorf("an unexpected error occurred: %w", insertErr)
				}
				occurrenceResult.Booked = &booked
			}
			result.Occurrences = append(result.Occurrences, occurrenceResult)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, locker.ErrLockNotAcquired) {
			return nil, apierrors.NewAPIError(apierrors.WithDetail(ErrCalendarBusy), apierrors.WithHTTPStatusCode(http.StatusConflict))
		}
		return nil, err
	}
	for _, occurrence := range result.Occurrences {
		if occurrence.Booked != nil {
			d.dispatchSync(*occurrence.Booked, SyncCreate)
		}
	}
	return result, nil
}

func (d defaultService) Reschedule(ctx context.Context, user auth.User, appointmentUUID uuid.UUID, request RescheduleRequest) (*BookingResult, error) {
	appointment, err := d.repository.FindAppointmentByUUID(ctx, appointmentUUID)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if appointment == nil {
		return nil, apierrors.NewAPIError(apierrors.WithDetail(ErrAppointmentNotFound), apierrors.WithHTTPStatusCode(http.StatusNotFound))
	}
	if appointment.Status.Terminal() {
		return nil, apierrors.NewAPIError(apierrors.WithDetail(ErrTerminalStatus), apierrors.WithHTTPStatusCode(http.StatusConflict))
	}
	day, err := timerange.ParseDay(request.Date)
	if err != nil {
		return nil, err
	}
	candidate := Candidate{
		ProfessionalID:  appointment.ProfessionalID,
		Date:            day,
		StartTime:       request.StartTime,
		EndTime:         request.EndTime,
		DurationMinutes: request.DurationMinutes,
		ExcludeUUID:     appointment.UUID,
	}
	var result *BookingResult
	err = d.locker.WithCalendarLock(ctx, appointment.ProfessionalID, func(ctx context.Context) error {
		outcome, checkErr := d.check(ctx, appointment.ProfessionalID, candidate, true)
		if checkErr != nil {
			return checkErr
		}
		if !outcome.Accepted {
			result = &BookingResult{Outcome: outcome}
			return nil
		}
		moved := *appointment
		moved.Date = candidate.Date
		moved.StartTime = outcome.Start
		moved.EndTime = outcome.End
		if request.DurationMinutes > 0 {
			moved.DurationMinutes = request.DurationMinutes
		}
		if updateErr := d.repository.UpdateAppointmentTimes(ctx, moved); updateErr != nil {
			return fmt.Errorf("an unexpected error occurred: %w", updateErr)
		}
		result = &BookingResult{Outcome: outcome, Appointment: &moved}
		return nil
	})
	if err != nil {
		if errors.Is(err, locker.ErrLockNotAcquired) {
			return nil, apierrors.NewAPIError(apierrors.WithDetail(ErrCalendarBusy), apierrors.WithHTTPStatusCode(http.StatusConflict))
		}
		return nil, err
	}
	if result.Appointment != nil {
		d.dispatchSync(*result.Appointment, SyncUpdate)
	}
	return result, nil
}

// changeStatus applies a monotonic status transition: once terminal, an
// appointment stays terminal.
func (d defaultService) changeStatus(ctx context.Context, appointmentUUID uuid.UUID, status Status) (*Appointment, error) {
	appointment, err := d.repository.FindAppointmentByUUID(ctx, appointmentUUID)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if appointment == nil {
		return nil, apierrors.NewAPIError(apierrors.WithDetail(ErrAppointmentNotFound), apierrors.WithHTTPStatusCode(http.StatusNotFound))
	}
	if appointment.Status.Terminal() {
		return nil, apierrors.NewAPIError(apierrors.WithDetail(ErrTerminalStatus), apierrors.WithHTTPStatusCode(http.StatusConflict))
	}
	if err = d.repository.UpdateAppointmentStatus(ctx, appointmentUUID, status); err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	appointment.Status = status
	return appointment, nil
}

func (d defaultService) Confirm(ctx context.Context, user auth.User, appointmentUUID uuid.UUID) error {
	_, err := d.changeStatus(ctx, appointmentUUID, StatusConfirmed)
	return err
}

func (d defaultService) Cancel(ctx context.Context, user auth.User, appointmentUUID uuid.UUID) error {
	appointment, err := d.changeStatus(ctx, appointmentUUID, StatusCancelled)
	if err != nil {
		return err
	}
	d.dispatchSync(*appointment, SyncDelete)
	return nil
}

func (d defaultService) CreateBlockedSlot(ctx context.Context, user auth.User, slot BlockedSlot) (*BlockedSlot, error) {
	owner, err := d.resolveOwner(ctx, user)
	if err != nil {
		return nil, err
	}
	if err = slot.Validate(); err != nil {
		return nil, err
	}
	created := slot
	created.UUID = uuid.New()
	created.ProfessionalID = owner.ID
	if created.Exceptions == nil {
		created.Exceptions = make([]string, 0)
	}
	if err = d.repository.InsertBlockedSlot(ctx, created); err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	return &created, nil
}

func (d defaultService) DeleteBlockedSlot(ctx context.Context, user auth.User, slotUUID uuid.UUID) error {
	owner, err := d.resolveOwner(ctx, user)
	if err != nil {
		return err
	}
	slot, err := d.repository.FindBlockedSlotByUUID(ctx, slotUUID)
	if err != nil {
		return fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if slot == nil || slot.ProfessionalID != owner.ID {
		return apierrors.NewAPIError(apierrors.WithDetail(ErrBlockedSlotNotFound), apierrors.WithHTTPStatusCode(http.StatusNotFound))
	}
	if err = d.repository.DeleteBlockedSlot(ctx, slotUUID); err != nil {
		return fmt.Errorf("an unexpected error occurred: %w", err)
	}
	return nil
}

func (d defaultService) AddException(ctx context.Context, user auth.User, slotUUID uuid.UUID, day string) error {
	owner, err := d.resolveOwner(ctx, user)
	if err != nil {
		return err
	}
	if _, err = timerange.ParseDay(day); err != nil {
		return err
	}
	slot, err := d.repository.FindBlockedSlotByUUID(ctx, slotUUID)
	if err != nil {
		return fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if slot == nil || slot.ProfessionalID != owner.ID {
		return apierrors.NewAPIError(apierrors.WithDetail(ErrBlockedSlotNotFound), apierrors.WithHTTPStatusCode(http.StatusNotFound))
	}
	if slot.Recurrence == RecurrenceNone {
		return apierrors.NewValidationError("date", "exceptions are only allowed on recurring slots")
	}
	if err = d.repository.AddBlockedSlotException(ctx, slotUUID, day); err != nil {
		return fmt.Errorf("an unexpected error occurred: %w", err)
	}
	return nil
}

func (d defaultService) GetDayView(ctx context.Context, user auth.User, professionalUUID uuid.UUID, date time.Time) (*DayView, error) {
	professional, err := d.resolveProfessional(ctx, professionalUUID)
	if err != nil {
		return nil, err
	}
	appointments, err := d.repository.ListAppointments(ctx, professional.ID)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	// Opportunistic sweep on view load, the way the calendar screen has always
	// reconciled stale statuses. The periodic sweeper job covers the gaps.
	swept, err := Sweep(time.Now(), appointments)
	if err != nil {
		return nil, err
	}
	if len(swept) > 0 {
		if err = d.repository.UpdateAppointmentStatuses(ctx, swept, StatusCompleted); err != nil {
			return nil, fmt.Errorf("an unexpected error occurred: %w", err)
		}
		metrics.RecordSwept(len(swept))
	}
	slots, err := d.repository.ListBlockedSlots(ctx, professional.ID)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	view := &DayView{
		Date:         timerange.FormatDay(date),
		Appointments: make([]*Appointment, 0),
		BlockedSlots: make([]*BlockedSlot, 0),
	}
	for _, appointment := range appointments {
		if timerange.SameDay(appointment.Date, date) {
			view.Appointments = append(view.Appointments, appointment)
		}
	}
	for _, slot := range slots {
		if slot.IsActiveOn(date, d.overflowPolicy()) {
			view.BlockedSlots = append(view.BlockedSlots, slot)
		}
	}
	return view, nil
}

func (d defaultService) SweepStatuses(ctx context.Context) (int, error) {
	appointments, err := d.repository.ListActiveAppointments(ctx)
	if err != nil {
		return 0, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	swept, err := Sweep(time.Now(), appointments)
	if err != nil {
		return 0, err
	}
	if len(swept) == 0 {
		return 0, nil
	}
	if err = d.repository.UpdateAppointmentStatuses(ctx, swept, StatusCompleted); err != nil {
		return 0, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	metrics.RecordSwept(len(swept))
	return len(swept), nil
}
