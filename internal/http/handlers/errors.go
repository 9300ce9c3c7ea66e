// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable; clients branch on them rather
// than on messages. Generic codes mirror HTTP status semantics, domain codes
// name scheduling outcomes that status alone cannot convey (a 400 may be a
// validation failure or a taken time slot).
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "slot_unavailable",
//	  "message": "time slot not available"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeValidation         = "validation_failed"
	ErrCodeSlotUnavailable    = "slot_unavailable"
	ErrCodeVersionConflict    = "version_conflict"
	ErrCodeInvalidPatient     = "invalid_patient"
	ErrCodeDuplicateReport    = "duplicate_report"
	ErrCodeEmptyReport        = "empty_report"
	ErrCodeHasReport          = "has_report"
	ErrCodeInvalidCredentials = "invalid_credentials"
)
