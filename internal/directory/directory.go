// Package directory resolves professionals and patients to their display
// metadata. It is read-only and has no effect on validation logic.
package directory

import (
	"clinic-booking/internal/database"
	"context"

	"github.com/google/uuid"
)

const (
	findProfessionalByUUIDQuery   = "SELECT id, uuid, user_id, name, email, mobile_phone, specialty FROM tb_professional WHERE uuid = $1"
	findProfessionalByUserIDQuery = "SELECT id, uuid, user_id, name, email, mobile_phone, specialty FROM tb_professional WHERE user_id = $1"
	findPatientByIDQuery          = "SELECT id, uuid, name, email, mobile_phone FROM tb_patient WHERE id = $1"
	findPatientByUUIDQuery        = "SELECT id, uuid, name, email, mobile_phone FROM tb_patient WHERE uuid = $1"
)

type Professional struct {
	ID          int64     `json:"-" dbfield:"id"`
	UserID      int64     `json:"-" dbfield:"user_id"`
	UUID        uuid.UUID `json:"uuid" dbfield:"uuid"`
	Name        string    `json:"name" dbfield:"name"`
	Email       string    `json:"email" dbfield:"email"`
	MobilePhone string    `json:"mobile_phone" dbfield:"mobile_phone"`
	Specialty   string    `json:"specialty" dbfield:"specialty"`
}

type Patient struct {
	ID          int64     `json:"-" dbfield:"id"`
	UUID        uuid.UUID `json:"uuid" dbfield:"uuid"`
	Name        string    `json:"name" dbfield:"name"`
	Email       string    `json:"email" dbfield:"email"`
	MobilePhone string    `json:"mobile_phone" dbfield:"mobile_phone"`
}

// Directory determines the lookups available to resolve display metadata.
type Directory interface {

	// FindProfessionalByUUID finds a professional by its UUID.
	FindProfessionalByUUID(ctx context.Context, uuid uuid.UUID) (*Professional, error)

	// FindProfessionalByUserID finds a professional by its user ID.
	FindProfessionalByUserID(ctx context.Context, userID int64) (*Professional, error)

	// FindPatientByID finds a patient by its ID.
	FindPatientByID(ctx context.Context, id int64) (*Patient, error)

	// FindPatientByUUID finds a patient by its UUID.
	FindPatientByUUID(ctx context.Context, uuid uuid.UUID) (*Patient, error)
}

type defaultDirectory struct {
	dbConn database.Connection
}

// NewDirectory creates a new Directory backed by the given connection.
func NewDirectory(dbConn database.Connection) Directory {
	return &defaultDirectory{dbConn: dbConn}
}

func (d defaultDirectory) findProfessional(ctx context.Context, query string, param interface{}) (*Professional, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	rows, err := d.dbConn.DB().QueryContext(ctx, query, param)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	professional := new(Professional)
	for rows.Next() {
		if err = database.TransformRow(rows, professional); err != nil {
			return nil, err
		}
		if professional.ID > 0 {
			return professional, nil
		}
	}
	return nil, nil
}

func (d defaultDirectory) FindProfessionalByUUID(ctx context.Context, uuid uuid.UUID) (*Professional, error) {
	return d.findProfessional(ctx, findProfessionalByUUIDQuery, uuid)
}

func (d defaultDirectory) FindProfessionalByUserID(ctx context.Context, userID int64) (*Professional, error) {
	return d.findProfessional(ctx, findProfessionalByUserIDQuery, userID)
}

func (d defaultDirectory) findPatient(ctx context.Context, query string, param interface{}) (*Patient, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	rows, err := d.dbConn.DB().QueryContext(ctx, query, param)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	patient := new(Patient)
	for rows.Next() {
		if err = database.TransformRow(rows, patient); err != nil {
			return nil, err
		}
		if patient.ID > 0 {
			return patient, nil
		}
	}
	return nil, nil
}

func (d defaultDirectory) FindPatientByID(ctx context.Context, id int64) (*Patient, error) {
	return d.findPatient(ctx, findPatientByIDQuery, id)
}

func (d defaultDirectory) FindPatientByUUID(ctx context.Context, uuid uuid.UUID) (*Patient, error) {
	return d.findPatient(ctx, findPatientByUUIDQuery, uuid)
}
