// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for patient reports
// and the appointment report query.
//
// The appointment report is composed from two statements over the same
// filtered set: the row listing and the aggregate statistics. Callers run
// both inside one repeatable-read transaction so they observe one snapshot.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-scheduler-backend/internal/domain"
)

// FindParticipantAppointment locks the appointment identified by id when its
// doctor and patient match. Returns ErrNotFound otherwise.
func FindParticipantAppointment(ctx context.Context, tx *gorm.DB, id, doctorID, patientID uint) (*domain.Appointment, error) {
	var a domain.Appointment
	err := forUpdate(tx.WithContext(ctx)).
		Where("id = ? AND doctor_id = ? AND patient_id = ?", id, doctorID, patientID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ReportExists reports whether a patient report is already attached to the
// appointment.
func ReportExists(ctx context.Context, db *gorm.DB, appointmentID uint) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.PatientReport{}).
		Where("appointment_id = ?", appointmentID).
		Count(&n).Error
	return n > 0, err
}

// CreatePatientReport inserts a report row. A second report for the same
// appointment fails on the unique index.
func CreatePatientReport(ctx context.Context, db *gorm.DB, r *domain.PatientReport) error {
	return db.WithContext(ctx).Omit("Appointment", "Patient", "Doctor").Create(r).Error
}

// GetPatientReportDetail returns the report for appointmentID joined with its
// appointment and both users, visible only to the report's doctor (as doctor)
// or patient (as patient). Absent and not visible are both ErrNotFound.
func GetPatientReportDetail(ctx context.Context, db *gorm.DB, appointmentID uint, p domain.Principal) (*domain.PatientReportDetail, error) {
	q := db.WithContext(ctx).
		Table("patient_reports AS pr").
		Select(`pr.id, pr.patient_id, pr.doctor_id, pr.appointment_id, pr.report_text, pr.created_at,
			a.appointment_date, a.duration_minutes, a.status, a.notes,
			dp.first_name AS doctor_first_name, dp.last_name AS doctor_last_name,
			pt.first_name AS patient_first_name, pt.last_name AS patient_last_name`).
		Joins("JOIN appointments a ON pr.appointment_id = a.id").
		Joins("JOIN users dp ON pr.doctor_id = dp.id").
		Joins("JOIN users pt ON pr.patient_id = pt.id").
		Where("pr.appointment_id = ?", appointmentID)
	switch p.Role {
	case domain.RoleDoctor:
		q = q.Where("pr.doctor_id = ?", p.ID)
	case domain.RolePatient:
		q = q.Where("pr.patient_id = ?", p.ID)
	default:
		return nil, gorm.ErrRecordNotFound
	}

	var out domain.PatientReportDetail
	res := q.Limit(1).Scan(&out)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &out, nil
}

// scopeReport restricts the aliased appointments table "a" to p's rows and
// applies the optional filters.
func scopeReport(q *gorm.DB, p domain.Principal, f domain.ReportFilter) *gorm.DB {
	switch p.Role {
	case domain.RoleDoctor:
		q = q.Where("a.doctor_id = ?", p.ID)
	case domain.RolePatient:
		q = q.Where("a.patient_id = ?", p.ID)
	default:
		q = q.Where("1 = 0")
	}
	if f.StartDate != nil {
		q = q.Where("a.appointment_date >= ?", f.StartDate.UTC())
	}
	if f.EndDate != nil {
		q = q.Where("a.appointment_date <= ?", f.EndDate.UTC())
	}
	if f.Status != nil {
		q = q.Where("a.status = ?", string(*f.Status))
	}
	return q
}

// ListReportRows returns the filtered appointments of p with participant
// names, newest first.
func ListReportRows(ctx context.Context, db *gorm.DB, p domain.Principal, f domain.ReportFilter) ([]domain.AppointmentReportRow, error) {
	q := db.WithContext(ctx).
		Table("appointments AS a").
		Select(`a.id, a.doctor_id, a.patient_id, a.appointment_date, a.duration_minutes, a.status, a.notes,
			dp.first_name AS doctor_first_name, dp.last_name AS doctor_last_name,
			pt.first_name AS patient_first_name, pt.last_name AS patient_last_name`).
		Joins("JOIN users dp ON a.doctor_id = dp.id").
		Joins("JOIN users pt ON a.patient_id = pt.id")
	q = scopeReport(q, p, f)

	out := []domain.AppointmentReportRow{}
	err := q.Order("a.appointment_date DESC").Order("a.id DESC").Scan(&out).Error
	return out, err
}

// reportAggregate is the raw statistics row.
type reportAggregate struct {
	Total          int64
	AvgDuration    *float64
	CompletedCount int64
	ScheduledCount int64
	CancelledCount int64
}

// ReportStatistics aggregates the same filtered set ListReportRows returns.
// CompletionRate is derived by the caller.
func ReportStatistics(ctx context.Context, db *gorm.DB, p domain.Principal, f domain.ReportFilter) (domain.AppointmentStatistics, error) {
	q := db.WithContext(ctx).
		Table("appointments AS a").
		Select(`COUNT(*) AS total,
			AVG(a.duration_minutes) AS avg_duration,
			COUNT(CASE WHEN a.status = 'completed' THEN 1 END) AS completed_count,
			COUNT(CASE WHEN a.status = 'scheduled' THEN 1 END) AS scheduled_count,
			COUNT(CASE WHEN a.status = 'cancelled' THEN 1 END) AS cancelled_count`)
	q = scopeReport(q, p, f)

	var row reportAggregate
	if err := q.Scan(&row).Error; err != nil {
		return domain.AppointmentStatistics{}, err
	}
	st := domain.AppointmentStatistics{
		TotalAppointments: row.Total,
		CompletedCount:    row.CompletedCount,
		ScheduledCount:    row.ScheduledCount,
		CancelledCount:    row.CancelledCount,
	}
	if row.AvgDuration != nil {
		st.AverageDuration = *row.AvgDuration
	}
	return st, nil
}
