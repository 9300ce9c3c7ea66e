// Report HTTP handlers.
//
//   - POST /reports/patient        (doctor writes the report; completes the appointment)
//   - GET  /reports/patient/{id}   (report of appointment {id}, participants only)
//   - GET  /reports/appointments   (filtered appointment list with statistics)
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-scheduler-backend/internal/domain"
	"github.com/tbourn/go-scheduler-backend/internal/services"
	"github.com/tbourn/go-scheduler-backend/internal/utils"
)

// CreateReportRequest is the JSON payload for a patient report.
type CreateReportRequest struct {
	PatientID     uint   `json:"patient_id"     binding:"required,gt=0"       example:"2"`
	AppointmentID uint   `json:"appointment_id" binding:"required,gt=0"       example:"15"`
	ReportText    string `json:"report_text"    binding:"required,max=20000"  example:"Blood pressure normal. Follow up in 6 months."`
}

// CreatePatientReport godoc
// @ID          createPatientReport
// @Summary     Write a patient report
// @Description Creates the single report of an appointment owned by the calling doctor and
// @Description marks the appointment completed, atomically.
// @Description Supports idempotency via the Idempotency-Key header.
// @Tags        Reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string                        false  "Idempotency key for safe retries"
// @Param       body             body    handlers.CreateReportRequest  true   "Report"
// @Success     201  {object}  domain.PatientReport
// @Failure     400  {object}  handlers.ErrorResponse  "Validation error or report already exists"
// @Failure     403  {object}  handlers.ErrorResponse  "Only doctors can create patient reports"
// @Failure     404  {object}  handlers.ErrorResponse  "Appointment not found or not authorized"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /reports/patient [post]
func (h *Handlers) CreatePatientReport(c *gin.Context) {
	p, authed := principal(c)
	if !authed {
		return
	}
	ctx := c.Request.Context()

	// Replays store the appointment id; the report is read back through it.
	if apptID, found := h.replayedID(c, p, ScopeReportCreate); found {
		if d, err := h.reports.GetPatientReport(ctx, p, apptID); err == nil {
			c.Header(HeaderIdempotencyReplayed, "true")
			ok(c, http.StatusCreated, &domain.PatientReport{
				ID:            d.ID,
				PatientID:     d.PatientID,
				DoctorID:      d.DoctorID,
				AppointmentID: d.AppointmentID,
				ReportText:    d.ReportText,
				CreatedAt:     d.CreatedAt,
			})
			return
		}
	}

	var req CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeValidation, bindMessage(err))
		return
	}

	r, err := h.reports.CreatePatientReport(ctx, p, services.CreateReportInput{
		PatientID:     req.PatientID,
		AppointmentID: req.AppointmentID,
		ReportText:    req.ReportText,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "only doctors can create patient reports")
		case errors.Is(err, services.ErrEmptyReport):
			fail(c, http.StatusBadRequest, ErrCodeEmptyReport, "report_text is required")
		case errors.Is(err, services.ErrNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "appointment not found or not authorized")
		case errors.Is(err, services.ErrDuplicateReport):
			fail(c, http.StatusBadRequest, ErrCodeDuplicateReport, "report already exists for this appointment")
		default:
			internalError(c, err)
		}
		return
	}

	h.remember(c, p, ScopeReportCreate, r.AppointmentID, http.StatusCreated)

	ok(c, http.StatusCreated, r)
}

// GetPatientReport godoc
// @ID          getPatientReport
// @Summary     Get the report of an appointment
// @Description Returns the report with its appointment and participant names. Visible to the
// @Description report's doctor and patient only.
// @Tags        Reports
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      int  true  "Appointment ID"
// @Success     200  {object}  domain.PatientReportDetail
// @Failure     400  {object}  handlers.ErrorResponse  "Bad id"
// @Failure     404  {object}  handlers.ErrorResponse  "Report not found or not authorized"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /reports/patient/{id} [get]
func (h *Handlers) GetPatientReport(c *gin.Context) {
	p, authed := principal(c)
	if !authed {
		return
	}
	id, err := utils.ParseID(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	d, err := h.reports.GetPatientReport(c.Request.Context(), p, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "report not found or not authorized")
			return
		}
		internalError(c, err)
		return
	}
	ok(c, http.StatusOK, d)
}

// GetAppointmentReport godoc
// @ID          getAppointmentReport
// @Summary     Appointment report with statistics
// @Description Lists the caller's appointments, newest first, with totals, average duration
// @Description and completion rate over the same filtered set. A date-only end_date covers
// @Description that whole day.
// @Tags        Reports
// @Produce     json
// @Security    BearerAuth
// @Param       start_date  query  string  false  "RFC3339 or YYYY-MM-DD"  example(2030-04-01)
// @Param       end_date    query  string  false  "RFC3339 or YYYY-MM-DD"  example(2030-04-30)
// @Param       status      query  string  false  "Appointment status"     Enums(scheduled, completed, cancelled)
// @Success     200  {object}  domain.AppointmentReport
// @Failure     400  {object}  handlers.ErrorResponse  "Bad filter"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /reports/appointments [get]
func (h *Handlers) GetAppointmentReport(c *gin.Context) {
	p, authed := principal(c)
	if !authed {
		return
	}
	f, msg := reportFilter(c)
	if msg != "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msg)
		return
	}

	rep, err := h.reports.AppointmentReport(c.Request.Context(), p, f)
	if err != nil {
		if errors.Is(err, services.ErrForbidden) {
			fail(c, http.StatusForbidden, ErrCodeForbidden, "not authorized")
			return
		}
		internalError(c, err)
		return
	}
	ok(c, http.StatusOK, rep)
}

// reportFilter reads start_date, end_date and status. Empty parameters do
// not filter. A non-empty msg describes the first invalid parameter.
func reportFilter(c *gin.Context) (f domain.ReportFilter, msg string) {
	if s := strings.TrimSpace(c.Query("start_date")); s != "" {
		t, _, err := utils.ParseDate(s)
		if err != nil {
			return f, "start_date must be RFC3339 or YYYY-MM-DD"
		}
		f.StartDate = &t
	}
	if s := strings.TrimSpace(c.Query("end_date")); s != "" {
		t, dateOnly, err := utils.ParseDate(s)
		if err != nil {
			return f, "end_date must be RFC3339 or YYYY-MM-DD"
		}
		if dateOnly {
			t = utils.EndOfDay(t)
		}
		f.EndDate = &t
	}
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return f, "end_date must not be before start_date"
	}
	if s := strings.TrimSpace(c.Query("status")); s != "" {
		st := domain.AppointmentStatus(strings.ToLower(s))
		if !st.Valid() {
			return f, "status must be one of: scheduled, completed, cancelled"
		}
		f.Status = &st
	}
	return f, ""
}
