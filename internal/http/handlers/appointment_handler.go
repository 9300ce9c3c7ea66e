// Appointment HTTP handlers.
//
// This file exposes REST endpoints for appointments:
//   - GET    /appointments        (list, weak ETag support)
//   - GET    /appointments/{id}   (read one)
//   - POST   /appointments        (book; doctors only; Idempotency-Key replay)
//   - PUT    /appointments/{id}   (partial update with optimistic version)
//   - DELETE /appointments/{id}   (doctors only)
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-scheduler-backend/internal/domain"
	"github.com/tbourn/go-scheduler-backend/internal/services"
	"github.com/tbourn/go-scheduler-backend/internal/utils"
)

//
// DTOs
//

// CreateAppointmentRequest is the JSON payload for booking an appointment.
// The calling doctor becomes the appointment's doctor.
type CreateAppointmentRequest struct {
	PatientID       uint      `json:"patient_id"       binding:"required,gt=0"             example:"2"`
	AppointmentDate time.Time `json:"appointment_date" binding:"required"                  example:"2030-04-01T09:00:00Z"`
	DurationMinutes int       `json:"duration_minutes" binding:"required,gt=0,lte=1440"    example:"30"`
	Notes           *string   `json:"notes"            binding:"omitempty,max=4000"        example:"Annual check-up"`
}

// UpdateAppointmentRequest is a partial update. Omitted fields keep their
// value; Version must equal the stored version.
type UpdateAppointmentRequest struct {
	Version         int                       `json:"version"          binding:"required,gte=1"                                example:"1"`
	AppointmentDate *time.Time                `json:"appointment_date" binding:"omitempty"                                     example:"2030-04-01T10:00:00Z"`
	DurationMinutes *int                      `json:"duration_minutes" binding:"omitempty,gt=0,lte=1440"                       example:"45"`
	Notes           *string                   `json:"notes"            binding:"omitempty,max=4000"`
	Status          *domain.AppointmentStatus `json:"status"           binding:"omitempty,oneof=scheduled completed cancelled" example:"cancelled"`
}

//
// Handlers
//

// ListAppointments godoc
// @ID          listAppointments
// @Summary     List my appointments
// @Description Returns the caller's appointments (as doctor or patient), oldest first.
// @Description Supports conditional requests via a weak ETag.
// @Tags        Appointments
// @Produce     json
// @Security    BearerAuth
// @Param       If-None-Match  header  string  false  "ETag from a previous response"
// @Success     200  {array}   domain.Appointment
// @Success     304  "Not modified"
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /appointments [get]
func (h *Handlers) ListAppointments(c *gin.Context) {
	p, authed := principal(c)
	if !authed {
		return
	}
	ctx := c.Request.Context()

	// ETag pre-check (best effort).
	if count, maxTS, err := h.appts.Stats(ctx, p); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.UnixNano()
		}
		etag := fmt.Sprintf(`W/"appointments:%s:%d:%d:%d"`, p.Role, p.ID, count, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, err := h.appts.List(ctx, p)
	if err != nil {
		if errors.Is(err, services.ErrForbidden) {
			fail(c, http.StatusForbidden, ErrCodeForbidden, "not authorized")
			return
		}
		internalError(c, err)
		return
	}
	if items == nil {
		items = []domain.Appointment{}
	}
	ok(c, http.StatusOK, items)
}

// GetAppointment godoc
// @ID          getAppointment
// @Summary     Get an appointment
// @Description Returns one appointment the caller participates in.
// @Tags        Appointments
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      int  true  "Appointment ID"
// @Success     200  {object}  domain.Appointment
// @Failure     400  {object}  handlers.ErrorResponse  "Bad id"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found or not a participant"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /appointments/{id} [get]
func (h *Handlers) GetAppointment(c *gin.Context) {
	p, authed := principal(c)
	if !authed {
		return
	}
	id, err := utils.ParseID(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	a, err := h.appts.Get(c.Request.Context(), p, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "appointment not found")
			return
		}
		internalError(c, err)
		return
	}
	ok(c, http.StatusOK, a)
}

// CreateAppointment godoc
// @ID          createAppointment
// @Summary     Book an appointment
// @Description Books an appointment for the calling doctor. A doctor cannot hold two
// @Description scheduled appointments at the same start time.
// @Description Supports idempotency via the Idempotency-Key header (same key → same result).
// @Tags        Appointments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.CreateAppointmentRequest  true  "Appointment"
// @Success     201  {object}  domain.Appointment
// @Failure     400  {object}  handlers.ErrorResponse  "Validation error, invalid patient or slot unavailable"
// @Failure     403  {object}  handlers.ErrorResponse  "Only doctors can create appointments"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /appointments [post]
func (h *Handlers) CreateAppointment(c *gin.Context) {
	p, authed := principal(c)
	if !authed {
		return
	}
	ctx := c.Request.Context()

	// Idempotency (replay path).
	if id, found := h.replayedID(c, p, ScopeAppointmentCreate); found {
		if prev, err := h.appts.Get(ctx, p, id); err == nil {
			c.Header(HeaderIdempotencyReplayed, "true")
			ok(c, http.StatusCreated, prev)
			return
		}
	}

	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeValidation, bindMessage(err))
		return
	}

	a, err := h.appts.Create(ctx, p, services.CreateAppointmentInput{
		PatientID:       req.PatientID,
		AppointmentDate: req.AppointmentDate,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "only doctors can create appointments")
		case errors.Is(err, services.ErrConflict):
			fail(c, http.StatusBadRequest, ErrCodeSlotUnavailable, "time slot not available")
		case errors.Is(err, services.ErrInvalidPatient):
			fail(c, http.StatusBadRequest, ErrCodeInvalidPatient, "patient_id must reference a patient")
		case errors.Is(err, services.ErrInvalidInput):
			fail(c, http.StatusBadRequest, ErrCodeValidation, "duration_minutes must be greater than 0")
		default:
			internalError(c, err)
		}
		return
	}

	// Idempotency (store path), best effort.
	h.remember(c, p, ScopeAppointmentCreate, a.ID, http.StatusCreated)

	ok(c, http.StatusCreated, a)
}

// UpdateAppointment godoc
// @ID          updateAppointment
// @Summary     Update an appointment
// @Description Partially updates an appointment using optimistic concurrency: `version`
// @Description must match the stored version, otherwise 409 carries `currentVersion`.
// @Description Patients may only cancel.
// @Tags        Appointments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  int                                 true  "Appointment ID"
// @Param       body  body  handlers.UpdateAppointmentRequest  true  "Changes"
// @Success     200  {object}  domain.Appointment
// @Failure     400  {object}  handlers.ErrorResponse            "Validation error or slot unavailable"
// @Failure     403  {object}  handlers.ErrorResponse            "Change not permitted for role"
// @Failure     404  {object}  handlers.ErrorResponse            "Not found or not a participant"
// @Failure     409  {object}  handlers.VersionConflictResponse  "Stale version"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /appointments/{id} [put]
func (h *Handlers) UpdateAppointment(c *gin.Context) {
	p, authed := principal(c)
	if !authed {
		return
	}
	id, err := utils.ParseID(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	var req UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeValidation, bindMessage(err))
		return
	}

	a, err := h.appts.Update(c.Request.Context(), p, id, services.UpdateAppointmentInput{
		Version:         req.Version,
		AppointmentDate: req.AppointmentDate,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
		Status:          req.Status,
	})
	if err != nil {
		var vc *services.VersionConflictError
		switch {
		case errors.As(err, &vc):
			versionConflict(c, vc.Current)
		case errors.Is(err, services.ErrVersionConflict):
			versionConflict(c, 0)
		case errors.Is(err, services.ErrNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "appointment not found")
		case errors.Is(err, services.ErrForbidden):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "not authorized to make this change")
		case errors.Is(err, services.ErrConflict):
			fail(c, http.StatusBadRequest, ErrCodeSlotUnavailable, "time slot not available")
		case errors.Is(err, services.ErrInvalidInput):
			fail(c, http.StatusBadRequest, ErrCodeValidation, "invalid field value")
		default:
			internalError(c, err)
		}
		return
	}
	ok(c, http.StatusOK, a)
}

// DeleteAppointment godoc
// @ID          deleteAppointment
// @Summary     Delete an appointment
// @Description Deletes an appointment of the calling doctor. Appointments with a patient
// @Description report cannot be deleted.
// @Tags        Appointments
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      int  true  "Appointment ID"
// @Success     200  {object}  handlers.MessageResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad id"
// @Failure     403  {object}  handlers.ErrorResponse  "Patients cannot delete"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found or not a participant"
// @Failure     409  {object}  handlers.ErrorResponse  "Appointment has a report"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /appointments/{id} [delete]
func (h *Handlers) DeleteAppointment(c *gin.Context) {
	p, authed := principal(c)
	if !authed {
		return
	}
	id, err := utils.ParseID(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	if err := h.appts.Delete(c.Request.Context(), p, id); err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "appointment not found")
		case errors.Is(err, services.ErrForbidden):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "not authorized")
		case errors.Is(err, services.ErrHasReport):
			fail(c, http.StatusConflict, ErrCodeHasReport, "appointment has a patient report")
		default:
			internalError(c, err)
		}
		return
	}
	ok(c, http.StatusOK, MessageResponse{Message: "Appointment deleted successfully"})
}
