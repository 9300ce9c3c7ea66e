// Package handlers exposes the scheduler's REST endpoints.
//
// Handlers are transport-thin: they bind and validate input, read the
// authenticated principal, delegate to application services, and translate
// results and domain errors into HTTP responses. They depend on the service
// contracts below, not on concrete types.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-scheduler-backend/internal/domain"
	"github.com/tbourn/go-scheduler-backend/internal/http/middleware"
	"github.com/tbourn/go-scheduler-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// AppointmentService is the appointment lifecycle consumed by the handlers.
type AppointmentService interface {
	List(ctx context.Context, p domain.Principal) ([]domain.Appointment, error)
	// Stats returns the count and newest update time of p's appointments.
	Stats(ctx context.Context, p domain.Principal) (int64, *time.Time, error)
	Get(ctx context.Context, p domain.Principal, id uint) (*domain.Appointment, error)
	Create(ctx context.Context, p domain.Principal, in services.CreateAppointmentInput) (*domain.Appointment, error)
	Update(ctx context.Context, p domain.Principal, id uint, in services.UpdateAppointmentInput) (*domain.Appointment, error)
	Delete(ctx context.Context, p domain.Principal, id uint) error
}

// ReportService covers patient reports and the appointment report.
type ReportService interface {
	CreatePatientReport(ctx context.Context, p domain.Principal, in services.CreateReportInput) (*domain.PatientReport, error)
	GetPatientReport(ctx context.Context, p domain.Principal, appointmentID uint) (*domain.PatientReportDetail, error)
	AppointmentReport(ctx context.Context, p domain.Principal, f domain.ReportFilter) (*domain.AppointmentReport, error)
}

// UserService covers the user directory and login.
type UserService interface {
	ListDoctors(ctx context.Context, p domain.Principal) ([]domain.UserSummary, error)
	ListPatients(ctx context.Context, p domain.Principal) ([]domain.UserSummary, error)
	Authenticate(ctx context.Context, email, password string) (*services.LoginResult, error)
}

// IdempotencyStore records which resource a (user, scope, key) triple
// created, so a retried POST can be answered without repeating the write.
type IdempotencyStore interface {
	// Lookup returns the stored resource id, if a live record exists.
	Lookup(ctx context.Context, userID uint, scope, key string) (resourceID uint, found bool)
	// Remember stores the outcome. Failures are swallowed; the write itself
	// already succeeded.
	Remember(ctx context.Context, userID uint, scope, key string, resourceID uint, status int)
}

// Idempotency scopes, one per replayable operation.
const (
	ScopeAppointmentCreate = "appointments.create"
	ScopeReportCreate      = "reports.create"
)

// HeaderIdempotencyReplayed is set to "true" on replayed responses.
const HeaderIdempotencyReplayed = "Idempotency-Replayed"

//
// Handler wiring
//

// Handlers groups the HTTP endpoints.
type Handlers struct {
	appts   AppointmentService
	reports ReportService
	users   UserService
	idem    IdempotencyStore
}

// New constructs a Handlers bound to the given services. idem may be nil,
// which disables replays.
func New(appts AppointmentService, reports ReportService, users UserService, idem IdempotencyStore) *Handlers {
	return &Handlers{appts: appts, reports: reports, users: users, idem: idem}
}

// principal returns the authenticated caller or writes a 401. Routes are
// mounted behind middleware.Authenticate, so the 401 branch only triggers
// on wiring mistakes.
func principal(c *gin.Context) (domain.Principal, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
	}
	return p, ok
}

// replayedID returns the resource recorded for this request's idempotency
// key, when the validator flagged it as a replay.
func (h *Handlers) replayedID(c *gin.Context, p domain.Principal, scope string) (uint, bool) {
	if h.idem == nil || !middleware.IsReplay(c) {
		return 0, false
	}
	key, ok := middleware.GetIdempotencyKey(c)
	if !ok {
		return 0, false
	}
	return h.idem.Lookup(c.Request.Context(), p.ID, scope, key)
}

func (h *Handlers) remember(c *gin.Context, p domain.Principal, scope string, resourceID uint, status int) {
	if h.idem == nil {
		return
	}
	if key, ok := middleware.GetIdempotencyKey(c); ok {
		h.idem.Remember(c.Request.Context(), p.ID, scope, key, resourceID, status)
	}
}
