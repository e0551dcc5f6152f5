// The seed command fills the database with fake users, professionals, patients,
// appointments and blocked slots for local development.
package main

import (
	"clinic-booking/internal/auth"
	"clinic-booking/internal/configs"
	"clinic-booking/internal/database"
	"clinic-booking/internal/schedule"
	"clinic-booking/internal/timerange"
	"context"
	"database/sql"
	"flag"
	"log"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var configPath = flag.String("config", "", "Config file path")

var specialties = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Pediatrics",
	"Psychiatry",
}

func main() {
	flag.Parse()
	if *configPath == "" {
		log.Fatal("no config file path was given")
	}
	config := configs.MustLoad(*configPath)
	dbConn, err := database.NewConnection(config)
	if err != nil {
		log.Fatal(err)
	}
	defer dbConn.Close()

	gofakeit.Seed(time.Now().UnixNano())
	ctx := context.Background()

	professionalIDs, err := seedProfessionals(ctx, dbConn.DB(), 5)
	if err != nil {
		log.Fatalf("could not seed professionals: %v", err)
	}
	patientIDs, err := seedPatients(ctx, dbConn.DB(), 40)
	if err != nil {
		log.Fatalf("could not seed patients: %v", err)
	}
	if err := seedAppointments(ctx, dbConn.DB(), professionalIDs, patientIDs); err != nil {
		log.Fatalf("could not seed appointments: %v", err)
	}
	if err := seedBlockedSlots(ctx, dbConn.DB(), professionalIDs); err != nil {
		log.Fatalf("could not seed blocked slots: %v", err)
	}
	log.Println("seed complete")
}

func seedProfessionals(ctx context.Context, db *sql.DB, count int) ([]int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	ids := make([]int64, 0, count)
	for i := 0; i < count; i++ {
		email := gofakeit.Email()
		password, err := auth.EncryptPassword("changeme")
		if err != nil {
			return nil, err
		}
		var userID int64
		err = tx.QueryRowContext(ctx,
			"INSERT INTO tb_user (uuid, email, password, role) VALUES ($1, $2, $3, $4) RETURNING id",
			uuid.New(), email, password, auth.ProfessionalRole).Scan(&userID)
		if err != nil {
			return nil, err
		}
		var professionalID int64
		err = tx.QueryRowContext(ctx,
			"INSERT INTO tb_professional (uuid, user_id, name, email, mobile_phone, specialty) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id",
			uuid.New(), userID, gofakeit.Name(), email, gofakeit.Phone(),
			specialties[gofakeit.Number(0, len(specialties)-1)]).Scan(&professionalID)
		if err != nil {
			return nil, err
		}
		ids = append(ids, professionalID)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	log.Printf("%d professionals seeded", count)
	return ids, nil
}

func seedPatients(ctx context.Context, db *sql.DB, count int) ([]int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	ids := make([]int64, 0, count)
	for i := 0; i < count; i++ {
		var patientID int64
		err := tx.QueryRowContext(ctx,
			"INSERT INTO tb_patient (uuid, name, email, mobile_phone) VALUES ($1, $2, $3, $4) RETURNING id",
			uuid.New(), gofakeit.Name(), gofakeit.Email(), gofakeit.Phone()).Scan(&patientID)
		if err != nil {
			return nil, err
		}
		ids = append(ids, patientID)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	log.Printf("%d patients seeded", count)
	return ids, nil
}

// seedAppointments books a non-overlapping hourly agenda per professional over
// the next two weeks, so the seeded data never violates the booking invariants.
func seedAppointments(ctx context.Context, db *sql.DB, professionalIDs, patientIDs []int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	total := 0
	today := timerange.LocalDay(time.Now())
	for _, professionalID := range professionalIDs {
		for day := 1; day <= 14; day++ {
			date := today.AddDate(0, 0, day)
			if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
				continue
			}
			for _, hour := range []int{9, 10, 11, 14, 15} {
				if gofakeit.Bool() {
					continue
				}
				patientID := patientIDs[gofakeit.Number(0, len(patientIDs)-1)]
				_, err := tx.ExecContext(ctx,
					"INSERT INTO tb_appointment (uuid, professional_id, date, start_time, end_time, duration_minutes, status, kind, subject_ref) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)",
					uuid.New(), professionalID, timerange.FormatDay(date),
					timerange.FormatMinutes(hour*60), timerange.FormatMinutes(hour*60+60), 60,
					schedule.StatusScheduled, schedule.KindPatient, strconv.FormatInt(patientID, 10))
				if err != nil {
					return err
				}
				total++
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	log.Printf("%d appointments seeded", total)
	return nil
}

func seedBlockedSlots(ctx context.Context, db *sql.DB, professionalIDs []int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	today := timerange.LocalDay(time.Now())
	for _, professionalID := range professionalIDs {
		// Weekly lunch break anchored on the next Monday.
		anchor := today
		for anchor.Weekday() != time.Monday {
			anchor = anchor.AddDate(0, 0, 1)
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO tb_blocked_slot (uuid, professional_id, date, start_time, end_time, reason, recurrence, exceptions) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
			uuid.New(), professionalID, timerange.FormatDay(anchor),
			"12:00", "13:00", "Lunch break", schedule.RecurrenceWeekly, pq.Array([]string{}))
		if err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	log.Printf("%d blocked slots seeded", len(professionalIDs))
	return nil
}
