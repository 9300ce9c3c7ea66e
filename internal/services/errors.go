// Package services defines the business logic for appointments, patient
// reports, and the user directory. This file centralizes service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that the record does not exist or that the
	// principal does not participate in it. The two are indistinguishable to
	// callers.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the principal's role may not perform the
	// operation.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is returned when the doctor already has a scheduled
	// appointment at the requested time.
	ErrConflict = errors.New("time slot not available")

	// ErrVersionConflict is matched by every VersionConflictError.
	ErrVersionConflict = errors.New("version conflict")

	// ErrDuplicateReport is returned when the appointment already has a
	// patient report.
	ErrDuplicateReport = errors.New("report already exists for this appointment")

	// ErrInvalidPatient is returned when the patient id does not name a
	// patient account.
	ErrInvalidPatient = errors.New("invalid patient")

	// ErrEmptyReport is returned when the report text is blank.
	ErrEmptyReport = errors.New("report text is required")

	// ErrHasReport is returned when deleting an appointment that has a report.
	ErrHasReport = errors.New("appointment has a patient report")

	// ErrInvalidCredentials is returned by Authenticate for an unknown email
	// or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidInput is returned for field values outside their domain
	// (non-positive duration, unknown status).
	ErrInvalidInput = errors.New("invalid input")
)

// VersionConflictError reports a stale optimistic-concurrency token. Current
// is the version stored at the time of the check.
type VersionConflictError struct {
	Current int
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict: current version is %d", e.Current)
}

// Is makes errors.Is(err, ErrVersionConflict) match.
func (e *VersionConflictError) Is(target error) bool { return target == ErrVersionConflict }
