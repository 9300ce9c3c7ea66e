// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-scheduler-backend/internal/domain"
)

// AppointmentsStats returns aggregate metadata for the appointments p
// participates in: the row count and the greatest UpdatedAt across those rows
// and the counterpart users whose summaries the list embeds.
//
// When there are no rows, count is 0 and maxUpdatedAt is nil.
func AppointmentsStats(ctx context.Context, db *gorm.DB, p domain.Principal) (count int64, maxUpdatedAt *time.Time, err error) {
	var column, counterpart string
	switch p.Role {
	case domain.RoleDoctor:
		column, counterpart = "doctor_id", "patient_id"
	case domain.RolePatient:
		column, counterpart = "patient_id", "doctor_id"
	default:
		return 0, nil, nil
	}
	// Fresh statement per query; a shared chain would carry Count's state.
	scoped := func() *gorm.DB {
		return db.WithContext(ctx).Model(&domain.Appointment{}).Where(column+" = ?", p.ID)
	}

	if err = scoped().Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = scoped().Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}

	var user struct {
		UpdatedAt time.Time
	}
	err = db.WithContext(ctx).Model(&domain.User{}).
		Select("updated_at").
		Where("id IN (?)", scoped().Select(counterpart)).
		Order("updated_at DESC").Limit(1).
		Scan(&user).Error
	if err != nil {
		return 0, nil, err
	}
	if user.UpdatedAt.After(row.UpdatedAt) {
		row.UpdatedAt = user.UpdatedAt
	}
	return count, &row.UpdatedAt, nil
}
