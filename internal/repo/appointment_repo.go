// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Appointment model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They follow the "thin repository"
// approach: no business rules, only persistence and query composition.
//
// Error semantics:
//   - When an appointment is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound).
//   - Unique violations on the slot index surface as raw driver errors (or
//     gorm.ErrDuplicatedKey when the dialect translates them); the service
//     layer maps them to a scheduling conflict.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-scheduler-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// summaryColumns limits preloaded users to their display fields.
func summaryColumns(tx *gorm.DB) *gorm.DB {
	return tx.Select("id", "email", "first_name", "last_name", "role")
}

// ListAppointments returns the appointments p participates in, ordered by
// appointment date ascending. Doctors get the patient preloaded and patients
// get the doctor.
func ListAppointments(ctx context.Context, db *gorm.DB, p domain.Principal) ([]domain.Appointment, error) {
	q := db.WithContext(ctx).Model(&domain.Appointment{})
	switch p.Role {
	case domain.RoleDoctor:
		q = q.Where("doctor_id = ?", p.ID).Preload("Patient", summaryColumns)
	case domain.RolePatient:
		q = q.Where("patient_id = ?", p.ID).Preload("Doctor", summaryColumns)
	default:
		return []domain.Appointment{}, nil
	}
	out := []domain.Appointment{}
	err := q.Order("appointment_date asc").Order("id asc").Find(&out).Error
	return out, err
}

// GetAppointment fetches one appointment with both participants preloaded.
func GetAppointment(ctx context.Context, db *gorm.DB, id uint) (*domain.Appointment, error) {
	var a domain.Appointment
	err := db.WithContext(ctx).
		Preload("Doctor", summaryColumns).
		Preload("Patient", summaryColumns).
		First(&a, id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// LockAppointment reads an appointment under an exclusive row lock. Call it
// inside a transaction.
func LockAppointment(ctx context.Context, tx *gorm.DB, id uint) (*domain.Appointment, error) {
	var a domain.Appointment
	if err := forUpdate(tx.WithContext(ctx)).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// SlotTaken reports whether a scheduled appointment other than excludeID
// already occupies the doctor's slot at the given instant. Pass 0 to exclude
// nothing.
func SlotTaken(ctx context.Context, db *gorm.DB, doctorID uint, at time.Time, excludeID uint) (bool, error) {
	q := db.WithContext(ctx).
		Model(&domain.Appointment{}).
		Where("slot_key = ?", domain.SlotKey(doctorID, at))
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateAppointment inserts a new appointment row. The caller sets every
// field except ID and timestamps.
func CreateAppointment(ctx context.Context, db *gorm.DB, a *domain.Appointment) error {
	return db.WithContext(ctx).Omit("Doctor", "Patient").Create(a).Error
}

// UpdateAppointmentVersioned applies fields to the appointment only if its
// version still equals expected, incrementing the version by one in the same
// statement. It returns the number of rows affected: 0 means the version moved
// (or the row vanished).
func UpdateAppointmentVersioned(ctx context.Context, db *gorm.DB, id uint, expected int, fields map[string]any) (int64, error) {
	set := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		set[k] = v
	}
	set["version"] = gorm.Expr("version + ?", 1)
	set["updated_at"] = time.Now().UTC()

	res := db.WithContext(ctx).
		Model(&domain.Appointment{}).
		Where("id = ? AND version = ?", id, expected).
		Updates(set)
	return res.RowsAffected, res.Error
}

// AppointmentVersion returns the stored version of an appointment.
func AppointmentVersion(ctx context.Context, db *gorm.DB, id uint) (int, error) {
	var row struct{ Version int }
	res := db.WithContext(ctx).
		Model(&domain.Appointment{}).
		Select("version").
		Where("id = ?", id).
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return row.Version, nil
}

// DeleteAppointment removes an appointment row. It returns ErrNotFound when
// nothing was deleted.
func DeleteAppointment(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(&domain.Appointment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
