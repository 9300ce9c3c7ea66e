package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-scheduler-backend/internal/domain"
)

// newTestDB opens a private in-memory database. Pass migrate=false to get an
// empty schema.
func newTestDB(t *testing.T, migrate bool) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString())
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
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db.Exec("PRAGMA foreign_keys=ON;")
	if migrate {
		if err := AutoMigrate(db); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, role domain.Role, first, last string) *domain.User {
	t.Helper()
	u := &domain.User{
		Email:        fmt.Sprintf("%s.%s@clinic.test", first, uuid.NewString()[:8]),
		PasswordHash: "x",
		FirstName:    first,
		LastName:     last,
		Role:         role,
	}
	if err := CreateUser(context.Background(), db, u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedAppointment(t *testing.T, db *gorm.DB, doctorID, patientID uint, at time.Time, status domain.AppointmentStatus, minutes int) *domain.Appointment {
	t.Helper()
	at = domain.NormalizeDate(at)
	a := &domain.Appointment{
		DoctorID:        doctorID,
		PatientID:       patientID,
		AppointmentDate: at,
		DurationMinutes: minutes,
		Status:          status,
		Version:         1,
		SlotKey:         domain.SlotKeyFor(doctorID, at, status),
	}
	if err := CreateAppointment(context.Background(), db, a); err != nil {
		t.Fatalf("seed appointment: %v", err)
	}
	return a
}
