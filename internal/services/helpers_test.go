package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-scheduler-backend/internal/authz"
	"github.com/tbourn/go-scheduler-backend/internal/domain"
	"github.com/tbourn/go-scheduler-backend/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	// One connection: SQLite serializes writers and the in-memory database
	// lives as long as a connection is open.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

type fixture struct {
	db       *gorm.DB
	pol      *authz.Policy
	doctor   *domain.User
	doctor2  *domain.User
	patient  *domain.User
	patient2 *domain.User
	slot     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	f := &fixture{
		db:   db,
		pol:  authz.MustNewPolicy(),
		slot: time.Date(2030, 4, 1, 9, 0, 0, 0, time.UTC),
	}
	f.doctor = f.user(t, domain.RoleDoctor, "Gregory", "House")
	f.doctor2 = f.user(t, domain.RoleDoctor, "James", "Wilson")
	f.patient = f.user(t, domain.RolePatient, "Ada", "Lovelace")
	f.patient2 = f.user(t, domain.RolePatient, "Alan", "Turing")
	return f
}

func (f *fixture) user(t *testing.T, role domain.Role, first, last string) *domain.User {
	t.Helper()
	u := &domain.User{
		Email:        fmt.Sprintf("%s.%s@clinic.test", first, last),
		PasswordHash: "x",
		FirstName:    first,
		LastName:     last,
		Role:         role,
	}
	if err := repo.CreateUser(context.Background(), f.db, u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func principal(u *domain.User) domain.Principal {
	return domain.Principal{ID: u.ID, Role: u.Role}
}

func (f *fixture) appointments() *AppointmentService {
	return NewAppointmentService(f.db, f.pol)
}

func (f *fixture) reports() *ReportService {
	return NewReportService(f.db, f.pol)
}

// book creates a scheduled appointment through the service.
func (f *fixture) book(t *testing.T, doctor, patient *domain.User, at time.Time) *domain.Appointment {
	t.Helper()
	a, err := f.appointments().Create(context.Background(), principal(doctor), CreateAppointmentInput{
		PatientID:       patient.ID,
		AppointmentDate: at,
		DurationMinutes: 30,
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	return a
}

func ptr[T any](v T) *T { return &v }
