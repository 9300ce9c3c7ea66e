// Package services – AppointmentService
//
// This file implements AppointmentService, which owns the appointment
// lifecycle: listing, reading, booking, rescheduling, cancelling and deleting.
// It enforces role permissions and participant ownership through the
// authorization policy and guarantees that a doctor never has two scheduled
// appointments at the same instant.
//
// Writes run in one transaction each. Updates lock the row, compare the
// caller's version and increment it in a single conditional UPDATE, so of
// two concurrent writers holding the same version exactly one succeeds and
// the other receives a VersionConflictError.
//
// Observability: all public methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-scheduler-backend/internal/authz"
	"github.com/tbourn/go-scheduler-backend/internal/domain"
	"github.com/tbourn/go-scheduler-backend/internal/repo"
)

// CreateAppointmentInput carries the fields of a new booking.
type CreateAppointmentInput struct {
	PatientID       uint
	AppointmentDate time.Time
	DurationMinutes int
	Notes           *string
}

// UpdateAppointmentInput carries a partial update. Nil fields are left
// unchanged; Version is the caller's optimistic concurrency token.
type UpdateAppointmentInput struct {
	Version         int
	AppointmentDate *time.Time
	DurationMinutes *int
	Notes           *string
	Status          *domain.AppointmentStatus
}

// cancelOnly reports whether the update does nothing but cancel.
func (in UpdateAppointmentInput) cancelOnly() bool {
	return in.Status != nil && *in.Status == domain.StatusCancelled &&
		in.AppointmentDate == nil && in.DurationMinutes == nil && in.Notes == nil
}

// AppointmentService implements the appointment use-cases.
type AppointmentService struct {
	DB     *gorm.DB
	Policy *authz.Policy
}

// NewAppointmentService constructs an AppointmentService.
func NewAppointmentService(db *gorm.DB, pol *authz.Policy) *AppointmentService {
	return &AppointmentService{DB: db, Policy: pol}
}

func startSpan(ctx context.Context, component, name string, p domain.Principal, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.Int64("principal.id", int64(p.ID)),
		attribute.String("principal.role", string(p.Role)),
	)
	return otel.Tracer("services/"+component).Start(ctx, name, trace.WithAttributes(attrs...))
}

// List returns the appointments p participates in, oldest first.
func (s *AppointmentService) List(ctx context.Context, p domain.Principal) ([]domain.Appointment, error) {
	ctx, span := startSpan(ctx, "AppointmentService", "List", p)
	defer span.End()

	if err := s.Policy.Require(p, authz.ResourceAppointment, authz.ActionRead); err != nil {
		return nil, ErrForbidden
	}
	return repo.ListAppointments(ctx, s.DB, p)
}

// Stats returns the row count and latest update time of p's appointments,
// used for conditional GETs.
func (s *AppointmentService) Stats(ctx context.Context, p domain.Principal) (int64, *time.Time, error) {
	return repo.AppointmentsStats(ctx, s.DB, p)
}

// Get returns one appointment. Absent and not-a-participant are both
// ErrNotFound.
func (s *AppointmentService) Get(ctx context.Context, p domain.Principal, id uint) (*domain.Appointment, error) {
	ctx, span := startSpan(ctx, "AppointmentService", "Get", p, attribute.Int64("appointment.id", int64(id)))
	defer span.End()

	if !s.Policy.Allowed(p, authz.ResourceAppointment, authz.ActionRead) {
		return nil, ErrNotFound
	}
	a, err := repo.GetAppointment(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !authz.CanAccess(p, a.DoctorID, a.PatientID) {
		return nil, ErrNotFound
	}
	return a, nil
}

// Create books a new appointment for the calling doctor.
//
// Semantics:
//   - only doctors may book (ErrForbidden);
//   - duration must be positive (ErrInvalidInput);
//   - PatientID must name a patient account (ErrInvalidPatient);
//   - a scheduled appointment of this doctor at the same instant yields
//     ErrConflict, including when a concurrent booking wins the race.
func (s *AppointmentService) Create(ctx context.Context, p domain.Principal, in CreateAppointmentInput) (*domain.Appointment, error) {
	ctx, span := startSpan(ctx, "AppointmentService", "Create", p,
		attribute.Int64("patient.id", int64(in.PatientID)))
	defer span.End()

	if err := s.Policy.Require(p, authz.ResourceAppointment, authz.ActionCreate); err != nil {
		return nil, ErrForbidden
	}
	if in.DurationMinutes <= 0 {
		return nil, ErrInvalidInput
	}
	if in.PatientID == 0 {
		return nil, ErrInvalidPatient
	}
	patient, err := repo.GetUser(ctx, s.DB, in.PatientID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidPatient
		}
		return nil, err
	}
	if patient.Role != domain.RolePatient {
		return nil, ErrInvalidPatient
	}

	at := domain.NormalizeDate(in.AppointmentDate)
	a := &domain.Appointment{
		DoctorID:        p.ID,
		PatientID:       in.PatientID,
		AppointmentDate: at,
		DurationMinutes: in.DurationMinutes,
		Status:          domain.StatusScheduled,
		Notes:           normalizeNotes(in.Notes),
		Version:         1,
		SlotKey:         domain.SlotKeyFor(p.ID, at, domain.StatusScheduled),
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := repo.SlotTaken(ctx, tx, p.ID, at, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrConflict
		}
		if err := repo.CreateAppointment(ctx, tx, a); err != nil {
			if repo.IsUniqueViolation(err) {
				return ErrConflict
			}
			return err
		}
		return nil
	}, repo.RepeatableRead(s.DB, false))
	if err != nil {
		if errors.Is(err, ErrConflict) {
			slotConflicts.Inc()
		}
		return nil, err
	}

	return repo.GetAppointment(ctx, s.DB, a.ID)
}

// Update applies a partial update guarded by the caller's version.
//
// Semantics:
//   - absent or not-a-participant yields ErrNotFound;
//   - a patient may only set status to cancelled (ErrForbidden otherwise);
//   - a stale version yields *VersionConflictError carrying the stored one;
//   - moving a scheduled appointment onto an occupied slot, or re-scheduling
//     a cancelled one onto an occupied slot, yields ErrConflict;
//   - on success the version is incremented by exactly one.
func (s *AppointmentService) Update(ctx context.Context, p domain.Principal, id uint, in UpdateAppointmentInput) (*domain.Appointment, error) {
	ctx, span := startSpan(ctx, "AppointmentService", "Update", p,
		attribute.Int64("appointment.id", int64(id)),
		attribute.Int("appointment.version", in.Version))
	defer span.End()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := repo.LockAppointment(ctx, tx, id)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !authz.CanAccess(p, cur.DoctorID, cur.PatientID) {
			return ErrNotFound
		}
		action := authz.ActionUpdate
		if in.cancelOnly() {
			action = authz.ActionCancel
		}
		if err := s.Policy.Require(p, authz.ResourceAppointment, action); err != nil {
			return ErrForbidden
		}
		if in.Version != cur.Version {
			return &VersionConflictError{Current: cur.Version}
		}

		fields, err := s.changes(cur, in)
		if err != nil {
			return err
		}

		newDate, _ := fields["appointment_date"].(time.Time)
		if newDate.IsZero() {
			newDate = cur.AppointmentDate
		}
		newStatus := cur.Status
		if st, ok := fields["status"].(domain.AppointmentStatus); ok {
			newStatus = st
		}
		if newStatus == domain.StatusScheduled {
			if _, moved := fields["appointment_date"]; moved || cur.Status != domain.StatusScheduled {
				taken, err := repo.SlotTaken(ctx, tx, cur.DoctorID, newDate, cur.ID)
				if err != nil {
					return err
				}
				if taken {
					return ErrConflict
				}
			}
		}
		if key := domain.SlotKeyFor(cur.DoctorID, newDate, newStatus); key != nil {
			fields["slot_key"] = *key
		} else {
			fields["slot_key"] = nil
		}

		n, err := repo.UpdateAppointmentVersioned(ctx, tx, cur.ID, in.Version, fields)
		if err != nil {
			if repo.IsUniqueViolation(err) {
				return ErrConflict
			}
			return err
		}
		if n == 0 {
			v, err := repo.AppointmentVersion(ctx, tx, cur.ID)
			if err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return ErrNotFound
				}
				return err
			}
			return &VersionConflictError{Current: v}
		}
		return nil
	}, repo.RepeatableRead(s.DB, false))
	if err != nil {
		switch {
		case errors.Is(err, ErrConflict):
			slotConflicts.Inc()
		case errors.Is(err, ErrVersionConflict):
			versionConflicts.Inc()
		}
		return nil, err
	}

	return repo.GetAppointment(ctx, s.DB, id)
}

// changes converts the supplied fields to column updates, validating them
// against cur.
func (s *AppointmentService) changes(cur *domain.Appointment, in UpdateAppointmentInput) (map[string]any, error) {
	fields := map[string]any{}
	if in.AppointmentDate != nil {
		d := domain.NormalizeDate(*in.AppointmentDate)
		if !d.Equal(cur.AppointmentDate) {
			fields["appointment_date"] = d
		}
	}
	if in.DurationMinutes != nil {
		if *in.DurationMinutes <= 0 {
			return nil, ErrInvalidInput
		}
		fields["duration_minutes"] = *in.DurationMinutes
	}
	if in.Notes != nil {
		if n := normalizeNotes(in.Notes); n != nil {
			fields["notes"] = *n
		} else {
			fields["notes"] = nil
		}
	}
	if in.Status != nil {
		st := domain.AppointmentStatus(strings.ToLower(string(*in.Status)))
		if !st.Valid() {
			return nil, ErrInvalidInput
		}
		if st != cur.Status {
			fields["status"] = st
		}
	}
	return fields, nil
}

// Delete removes an appointment. Only its doctor may delete it; a patient
// participant gets ErrForbidden. An appointment with a report cannot be
// deleted (ErrHasReport).
func (s *AppointmentService) Delete(ctx context.Context, p domain.Principal, id uint) error {
	ctx, span := startSpan(ctx, "AppointmentService", "Delete", p, attribute.Int64("appointment.id", int64(id)))
	defer span.End()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := repo.LockAppointment(ctx, tx, id)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !authz.CanAccess(p, cur.DoctorID, cur.PatientID) {
			return ErrNotFound
		}
		if err := s.Policy.Require(p, authz.ResourceAppointment, authz.ActionDelete); err != nil {
			return ErrForbidden
		}
		has, err := repo.ReportExists(ctx, tx, cur.ID)
		if err != nil {
			return err
		}
		if has {
			return ErrHasReport
		}
		if err := repo.DeleteAppointment(ctx, tx, cur.ID); err != nil {
			switch {
			case errors.Is(err, repo.ErrNotFound):
				return ErrNotFound
			case isForeignKeyViolation(err):
				return ErrHasReport
			}
			return err
		}
		return nil
	}, repo.RepeatableRead(s.DB, false))
}

// isForeignKeyViolation detects a restricted delete across drivers.
func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "foreign key")
}
