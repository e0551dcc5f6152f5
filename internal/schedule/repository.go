package schedule

import (
	"clinic-booking/internal/database"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	listAppointmentsQuery        = "SELECT id, uuid, professional_id, date, start_time, end_time, duration_minutes, status, kind, subject_ref FROM tb_appointment WHERE professional_id = $1"
	listActiveAppointmentsQuery  = "SELECT id, uuid, professional_id, date, start_time, end_time, duration_minutes, status, kind, subject_ref FROM tb_appointment WHERE status NOT IN ('COMPLETED', 'CANCELLED', 'NO_SHOW')"
	findAppointmentByUUIDQuery   = "SELECT id, uuid, professional_id, date, start_time, end_time, duration_minutes, status, kind, subject_ref FROM tb_appointment WHERE uuid = $1"
	insertAppointmentQuery       = "INSERT INTO tb_appointment (uuid, professional_id, date, start_time, end_time, duration_minutes, status, kind, subject_ref) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)"
	updateAppointmentTimesQuery  = "UPDATE tb_appointment SET date = $2, start_time = $3, end_time = $4, duration_minutes = $5 WHERE uuid = $1"
	updateAppointmentStatusQuery = "UPDATE tb_appointment SET status = $2 WHERE uuid = $1"
	updateStatusesQuery          = "UPDATE tb_appointment SET status = $1 WHERE uuid = ANY($2)"
	listBlockedSlotsQuery        = "SELECT id, uuid, professional_id, date, start_time, end_time, reason, recurrence, exceptions FROM tb_blocked_slot WHERE professional_id = $1"
	findBlockedSlotByUUIDQuery   = "SELECT id, uuid, professional_id, date, start_time, end_time, reason, recurrence, exceptions FROM tb_blocked_slot WHERE uuid = $1"
	insertBlockedSlotQuery       = "INSERT INTO tb_blocked_slot (uuid, professional_id, date, start_time, end_time, reason, recurrence, exceptions) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)"
	deleteBlockedSlotQuery       = "DELETE FROM tb_blocked_slot WHERE uuid = $1"
	addExceptionQuery            = "UPDATE tb_blocked_slot SET exceptions = array_append(exceptions, $2) WHERE uuid = $1 AND NOT ($2 = ANY(exceptions))"
)

// Repository provides access to scheduling data.
type Repository interface {

	// ListAppointments lists every appointment of the given professional.
	ListAppointments(ctx context.Context, professionalID int64) ([]*Appointment, error)

	// ListActiveAppointments lists every appointment still in an active status,
	// across professionals, for the status sweeper.
	ListActiveAppointments(ctx context.Context) ([]*Appointment, error)

	// FindAppointmentByUUID finds an appointment by its UUID.
	FindAppointmentByUUID(ctx context.Context, uuid uuid.UUID) (*Appointment, error)

	// InsertAppointment inserts a new appointment.
	InsertAppointment(ctx context.Context, appointment Appointment) error

	// UpdateAppointmentTimes updates the date and time range of an appointment.
	UpdateAppointmentTimes(ctx context.Context, appointment Appointment) error

	// UpdateAppointmentStatus updates the status of a single appointment.
	UpdateAppointmentStatus(ctx context.Context, uuid uuid.UUID, status Status) error

	// UpdateAppointmentStatuses updates the status of every given appointment.
	UpdateAppointmentStatuses(ctx context.Context, uuids []uuid.UUID, status Status) error

	// ListBlockedSlots lists the professional's blocked slots.
	ListBlockedSlots(ctx context.Context, professionalID int64) ([]*BlockedSlot, error)

	// FindBlockedSlotByUUID finds a blocked slot by its UUID.
	FindBlockedSlotByUUID(ctx context.Context, uuid uuid.UUID) (*BlockedSlot, error)

	// InsertBlockedSlot inserts a new blocked slot.
	InsertBlockedSlot(ctx context.Context, slot BlockedSlot) error

	// DeleteBlockedSlot deletes a blocked slot.
	DeleteBlockedSlot(ctx context.Context, uuid uuid.UUID) error

	// AddBlockedSlotException appends an exception date to a recurring slot.
	// Exceptions are only ever appended, never removed.
	AddBlockedSlotException(ctx context.Context, uuid uuid.UUID, day string) error
}

type defaultRepository struct {
	dbConn database.Connection
}

// NewRepository creates a new Repository.
func NewRepository(dbConn database.Connection) Repository {
	return &defaultRepository{dbConn: dbConn}
}

func (d defaultRepository) listAppointments(ctx context.Context, query string, params ...interface{}) ([]*Appointment, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	rows, err := d.dbConn.DB().QueryContext(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	appointments := make([]*Appointment, 0)
	for rows.Next() {
		appointment := new(Appointment)
		if err = database.TransformRow(rows, appointment); err != nil {
			return nil, err
		}
		appointments = append(appointments, appointment)
	}
	return appointments, nil
}

func (d defaultRepository) ListAppointments(ctx context.Context, professionalID int64) ([]*Appointment, error) {
	return d.listAppointments(ctx, listAppointmentsQuery, professionalID)
}

func (d defaultRepository) ListActiveAppointments(ctx context.Context) ([]*Appointment, error) {
	return d.listAppointments(ctx, listActiveAppointmentsQuery)
}

func (d defaultRepository) FindAppointmentByUUID(ctx context.Context, uuid uuid.UUID) (*Appointment, error) {
	appointments, err := d.listAppointments(ctx, findAppointmentByUUIDQuery, uuid)
	if err != nil {
		return nil, err
	}
	for _, appointment := range appointments {
		if appointment.ID > 0 {
			return appointment, nil
		}
	}
	return nil, nil
}

func (d defaultRepository) InsertAppointment(ctx context.Context, appointment Appointment) error {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	params := make([]interface{}, 9)
	params[0] = appointment.UUID
	params[1] = appointment.ProfessionalID
	params[2] = appointment.Date
	params[3] = appointment.StartTime
	params[4] = appointment.EndTime
	params[5] = appointment.DurationMinutes
	params[6] = appointment.Status
	params[7] = appointment.Kind
	params[8] = appointment.SubjectRef
	result, err := d.dbConn.DB().ExecContext(ctx, insertAppointmentQuery, params...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("appointment not inserted")
	}
	return nil
}

func (d defaultRepository) UpdateAppointmentTimes(ctx context.Context, appointment Appointment) error {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	params := make([]interface{}, 5)
	params[0] = appointment.UUID
	params[1] = appointment.Date
	params[2] = appointment.StartTime
	params[3] = appointment.EndTime
	params[4] = appointment.DurationMinutes
	result, err := d.dbConn.DB().ExecContext(ctx, updateAppointmentTimesQuery, params...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("appointment not updated")
	}
	return nil
}

func (d defaultRepository) UpdateAppointmentStatus(ctx context.Context, uuid uuid.UUID, status Status) error {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	result, err := d.dbConn.DB().ExecContext(ctx, updateAppointmentStatusQuery, uuid, status)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("appointment not updated")
	}
	return nil
}

func (d defaultRepository) UpdateAppointmentStatuses(ctx context.Context, uuids []uuid.UUID, status Status) error {
	if len(uuids) == 0 {
		return nil
	}
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	keys := make([]string, 0, len(uuids))
	for _, id := range uuids {
		keys = append(keys, id.String())
	}
	_, err := d.dbConn.DB().ExecContext(ctx, updateStatusesQuery, status, pq.Array(keys))
	return err
}

func (d defaultRepository) listBlockedSlots(ctx context.Context, query string, params ...interface{}) ([]*BlockedSlot, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	rows, err := d.dbConn.DB().QueryContext(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	slots := make([]*BlockedSlot, 0)
	for rows.Next() {
		slot := new(BlockedSlot)
		// The exceptions array column needs a pq wrapper, so this row is
		// scanned by hand instead of through TransformRow.
		err = rows.Scan(&slot.ID, &slot.UUID, &slot.ProfessionalID, &slot.Date, &slot.StartTime, &slot.EndTime, &slot.Reason, &slot.Recurrence, pq.Array(&slot.Exceptions))
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func (d defaultRepository) ListBlockedSlots(ctx context.Context, professionalID int64) ([]*BlockedSlot, error) {
	return d.listBlockedSlots(ctx, listBlockedSlotsQuery, professionalID)
}

func (d defaultRepository) FindBlockedSlotByUUID(ctx context.Context, uuid uuid.UUID) (*BlockedSlot, error) {
	slots, err := d.listBlockedSlots(ctx, findBlockedSlotByUUIDQuery, uuid)
	if err != nil {
		return nil, err
	}
	for _, slot := range slots {
		if slot.ID > 0 {
			return slot, nil
		}
	}
	return nil, nil
}

func (d defaultRepository) InsertBlockedSlot(ctx context.Context, slot BlockedSlot) error {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	params := make([]interface{}, 8)
	params[0] = slot.UUID
	params[1] = slot.ProfessionalID
	params[2] = slot.Date
	params[3] = slot.StartTime
	params[4] = slot.EndTime
	params[5] = slot.Reason
	params[6] = slot.Recurrence
	params[7] = pq.Array(slot.Exceptions)
	result, err := d.dbConn.DB().ExecContext(ctx, insertBlockedSlotQuery, params...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("blocked slot not inserted")
	}
	return nil
}

func (d defaultRepository) DeleteBlockedSlot(ctx context.Context, uuid uuid.UUID) error {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	result, err := d.dbConn.DB().ExecContext(ctx, deleteBlockedSlotQuery, uuid)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("blocked slot not deleted")
	}
	return nil
}

func (d defaultRepository) AddBlockedSlotException(ctx context.Context, uuid uuid.UUID, day string) error {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	_, err := d.dbConn.DB().ExecContext(ctx, addExceptionQuery, uuid, day)
	return err
}
