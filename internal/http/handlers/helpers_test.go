package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-scheduler-backend/internal/domain"
	"github.com/tbourn/go-scheduler-backend/internal/http/middleware"
	"github.com/tbourn/go-scheduler-backend/internal/services"
)

// ---------- stub services ----------

type stubAppts struct {
	list   func(domain.Principal) ([]domain.Appointment, error)
	stats  func(domain.Principal) (int64, *time.Time, error)
	get    func(domain.Principal, uint) (*domain.Appointment, error)
	create func(domain.Principal, services.CreateAppointmentInput) (*domain.Appointment, error)
	update func(domain.Principal, uint, services.UpdateAppointmentInput) (*domain.Appointment, error)
	del    func(domain.Principal, uint) error
}

func (s *stubAppts) List(_ context.Context, p domain.Principal) ([]domain.Appointment, error) {
	return s.list(p)
}

func (s *stubAppts) Stats(_ context.Context, p domain.Principal) (int64, *time.Time, error) {
	if s.stats == nil {
		return 0, nil, context.Canceled
	}
	return s.stats(p)
}

func (s *stubAppts) Get(_ context.Context, p domain.Principal, id uint) (*domain.Appointment, error) {
	return s.get(p, id)
}

func (s *stubAppts) Create(_ context.Context, p domain.Principal, in services.CreateAppointmentInput) (*domain.Appointment, error) {
	return s.create(p, in)
}

func (s *stubAppts) Update(_ context.Context, p domain.Principal, id uint, in services.UpdateAppointmentInput) (*domain.Appointment, error) {
	return s.update(p, id, in)
}

func (s *stubAppts) Delete(_ context.Context, p domain.Principal, id uint) error {
	return s.del(p, id)
}

type stubReports struct {
	create func(domain.Principal, services.CreateReportInput) (*domain.PatientReport, error)
	get    func(domain.Principal, uint) (*domain.PatientReportDetail, error)
	report func(domain.Principal, domain.ReportFilter) (*domain.AppointmentReport, error)
}

func (s *stubReports) CreatePatientReport(_ context.Context, p domain.Principal, in services.CreateReportInput) (*domain.PatientReport, error) {
	return s.create(p, in)
}

func (s *stubReports) GetPatientReport(_ context.Context, p domain.Principal, id uint) (*domain.PatientReportDetail, error) {
	return s.get(p, id)
}

func (s *stubReports) AppointmentReport(_ context.Context, p domain.Principal, f domain.ReportFilter) (*domain.AppointmentReport, error) {
	return s.report(p, f)
}

type stubUsers struct {
	doctors  func(domain.Principal) ([]domain.UserSummary, error)
	patients func(domain.Principal) ([]domain.UserSummary, error)
	login    func(email, password string) (*services.LoginResult, error)
}

func (s *stubUsers) ListDoctors(_ context.Context, p domain.Principal) ([]domain.UserSummary, error) {
	return s.doctors(p)
}

func (s *stubUsers) ListPatients(_ context.Context, p domain.Principal) ([]domain.UserSummary, error) {
	return s.patients(p)
}

func (s *stubUsers) Authenticate(_ context.Context, email, password string) (*services.LoginResult, error) {
	return s.login(email, password)
}

// memIdem is an in-memory IdempotencyStore.
type memIdem struct {
	rec map[string]uint
}

func newMemIdem() *memIdem { return &memIdem{rec: map[string]uint{}} }

func idemKey(userID uint, scope, key string) string {
	return fmt.Sprintf("%d|%s|%s", userID, scope, key)
}

func (m *memIdem) Lookup(_ context.Context, userID uint, scope, key string) (uint, bool) {
	id, ok := m.rec[idemKey(userID, scope, key)]
	return id, ok
}

func (m *memIdem) Remember(_ context.Context, userID uint, scope, key string, resourceID uint, _ int) {
	m.rec[idemKey(userID, scope, key)] = resourceID
}

// ---------- routing helpers ----------

var (
	doctor  = domain.Principal{ID: 1, Role: domain.RoleDoctor}
	patient = domain.Principal{ID: 2, Role: domain.RolePatient}
)

// newRouter mounts every endpoint behind a fake authentication step acting
// as p, plus the idempotency validator backed by idem.
func newRouter(h *Handlers, p domain.Principal, idem *memIdem) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	r.POST("/auth/login", h.Login)

	api := r.Group("")
	api.Use(func(c *gin.Context) {
		if p.ID != 0 {
			middleware.SetPrincipal(c, p)
		}
		c.Next()
	})
	var lookup middleware.IdempotencyLookup
	if idem != nil {
		lookup = func(ctx context.Context, userID uint, scope, key string, _ time.Time) (bool, error) {
			_, found := idem.Lookup(ctx, userID, scope, key)
			return found, nil
		}
	}
	api.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{Scopes: map[string]string{
		"POST /appointments":   ScopeAppointmentCreate,
		"POST /reports/patient": ScopeReportCreate,
	}}, lookup))

	api.GET("/users/doctors", h.ListDoctors)
	api.GET("/users/patients", h.ListPatients)
	api.GET("/appointments", h.ListAppointments)
	api.GET("/appointments/:id", h.GetAppointment)
	api.POST("/appointments", h.CreateAppointment)
	api.PUT("/appointments/:id", h.UpdateAppointment)
	api.DELETE("/appointments/:id", h.DeleteAppointment)
	api.POST("/reports/patient", h.CreatePatientReport)
	api.GET("/reports/patient/:id", h.GetPatientReport)
	api.GET("/reports/appointments", h.GetAppointmentReport)
	return r
}

func do(r http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeErr(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("invalid error body %q: %v", w.Body.String(), err)
	}
	return er
}

func ptr[T any](v T) *T { return &v }
