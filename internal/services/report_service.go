// Package services – ReportService
//
// This file implements ReportService: doctors write one medical report per
// appointment, participants read them back, and both roles can request an
// aggregated appointment report with statistics.
//
// Writing a report completes the appointment in the same transaction, so a
// report never exists next to a scheduled appointment.
package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/tbourn/go-scheduler-backend/internal/authz"
	"github.com/tbourn/go-scheduler-backend/internal/domain"
	"github.com/tbourn/go-scheduler-backend/internal/repo"
)

// CreateReportInput carries the fields of a new patient report.
type CreateReportInput struct {
	PatientID     uint
	AppointmentID uint
	ReportText    string
}

// ReportService implements the report use-cases.
type ReportService struct {
	DB     *gorm.DB
	Policy *authz.Policy
}

// NewReportService constructs a ReportService.
func NewReportService(db *gorm.DB, pol *authz.Policy) *ReportService {
	return &ReportService{DB: db, Policy: pol}
}

// CreatePatientReport attaches a report to one of the calling doctor's
// appointments and marks the appointment completed.
//
// Errors: ErrForbidden for non-doctors, ErrEmptyReport for blank text,
// ErrNotFound when the appointment does not belong to this doctor and
// patient, ErrDuplicateReport when a report already exists.
func (s *ReportService) CreatePatientReport(ctx context.Context, p domain.Principal, in CreateReportInput) (*domain.PatientReport, error) {
	ctx, span := startSpan(ctx, "ReportService", "CreatePatientReport", p,
		attribute.Int64("appointment.id", int64(in.AppointmentID)))
	defer span.End()

	if err := s.Policy.Require(p, authz.ResourceReport, authz.ActionCreate); err != nil {
		return nil, ErrForbidden
	}
	text := normalizeText(in.ReportText)
	if text == "" {
		return nil, ErrEmptyReport
	}

	r := &domain.PatientReport{
		PatientID:     in.PatientID,
		DoctorID:      p.ID,
		AppointmentID: in.AppointmentID,
		ReportText:    text,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := repo.FindParticipantAppointment(ctx, tx, in.AppointmentID, p.ID, in.PatientID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		exists, err := repo.ReportExists(ctx, tx, a.ID)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateReport
		}
		if err := repo.CreatePatientReport(ctx, tx, r); err != nil {
			if repo.IsUniqueViolation(err) {
				return ErrDuplicateReport
			}
			return err
		}
		n, err := repo.UpdateAppointmentVersioned(ctx, tx, a.ID, a.Version, map[string]any{
			"status":   domain.StatusCompleted,
			"slot_key": nil,
		})
		if err != nil {
			return err
		}
		if n == 0 {
			return &VersionConflictError{Current: a.Version}
		}
		return nil
	}, repo.RepeatableRead(s.DB, false))
	if err != nil {
		return nil, err
	}

	reportsCreated.Inc()
	return r, nil
}

// GetPatientReport returns the report of an appointment joined with its
// appointment and participants. Absent and not visible are both
// ErrNotFound.
func (s *ReportService) GetPatientReport(ctx context.Context, p domain.Principal, appointmentID uint) (*domain.PatientReportDetail, error) {
	ctx, span := startSpan(ctx, "ReportService", "GetPatientReport", p,
		attribute.Int64("appointment.id", int64(appointmentID)))
	defer span.End()

	if !s.Policy.Allowed(p, authz.ResourceReport, authz.ActionRead) {
		return nil, ErrNotFound
	}
	d, err := repo.GetPatientReportDetail(ctx, s.DB, appointmentID, p)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// AppointmentReport lists p's appointments matching f, newest first, with
// statistics over the same set. Both queries read one snapshot.
func (s *ReportService) AppointmentReport(ctx context.Context, p domain.Principal, f domain.ReportFilter) (*domain.AppointmentReport, error) {
	ctx, span := startSpan(ctx, "ReportService", "AppointmentReport", p)
	defer span.End()

	if err := s.Policy.Require(p, authz.ResourceAppointment, authz.ActionRead); err != nil {
		return nil, ErrForbidden
	}

	out := &domain.AppointmentReport{}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := repo.ListReportRows(ctx, tx, p, f)
		if err != nil {
			return err
		}
		st, err := repo.ReportStatistics(ctx, tx, p, f)
		if err != nil {
			return err
		}
		out.Appointments = rows
		out.Statistics = withCompletionRate(st)
		return nil
	}, repo.RepeatableRead(s.DB, true))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// withCompletionRate fills CompletionRate as a percentage; 0 for an empty set.
func withCompletionRate(st domain.AppointmentStatistics) domain.AppointmentStatistics {
	if st.TotalAppointments > 0 {
		st.CompletionRate = float64(st.CompletedCount) / float64(st.TotalAppointments) * 100
	} else {
		st.CompletionRate = 0
	}
	return st
}
