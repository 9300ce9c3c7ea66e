// Package domain defines the persistence models for users, appointments, and
// patient reports. These types are mapped with GORM and form the core data
// layer of the scheduler.
package domain

import (
	"fmt"
	"time"
)

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// User is a doctor or patient account.
//
// Fields:
//   - ID: auto-increment primary key.
//   - Email: unique login name.
//   - PasswordHash: bcrypt hash; never serialized.
//   - Role: "doctor" or "patient" (enforced by DB constraint).
type User struct {
	ID           uint      `json:"id"         gorm:"primaryKey"`
	Email        string    `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	PasswordHash string    `json:"-"          gorm:"type:varchar(255);not null"`
	FirstName    string    `json:"first_name" gorm:"type:varchar(100);not null"`
	LastName     string    `json:"last_name"  gorm:"type:varchar(100);not null;index:idx_users_role_last,priority:2"`
	Role         Role      `json:"role"       gorm:"type:varchar(16);not null;index:idx_users_role_last,priority:1;check:chk_users_role,role IN ('doctor','patient')"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// UserSummary is the public display shape of a user.
type UserSummary struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// Appointment is a scheduled visit between a doctor and a patient.
//
// Fields:
//   - DoctorID / PatientID: participants; immutable after creation.
//   - AppointmentDate: start time, stored in UTC at second precision.
//   - DurationMinutes: strictly positive.
//   - Status: scheduled, completed or cancelled.
//   - Version: optimistic concurrency counter, starts at 1.
//   - SlotKey: set to SlotKey(DoctorID, AppointmentDate) while the row is
//     scheduled and NULL otherwise. Its unique index guarantees at most one
//     scheduled appointment per doctor and start time.
//   - Doctor / Patient: display associations, preloaded on reads.
type Appointment struct {
	ID              uint              `json:"id"               gorm:"primaryKey"`
	DoctorID        uint              `json:"doctor_id"        gorm:"not null;index:idx_appointments_doctor_date,priority:1"`
	PatientID       uint              `json:"patient_id"       gorm:"not null;index:idx_appointments_patient_date,priority:1"`
	AppointmentDate time.Time         `json:"appointment_date" gorm:"not null;index:idx_appointments_doctor_date,priority:2;index:idx_appointments_patient_date,priority:2"`
	DurationMinutes int               `json:"duration_minutes" gorm:"not null;check:chk_appointments_duration,duration_minutes > 0"`
	Status          AppointmentStatus `json:"status"           gorm:"type:varchar(16);not null;default:'scheduled';check:chk_appointments_status,status IN ('scheduled','completed','cancelled')"`
	Notes           *string           `json:"notes"            gorm:"type:text"`
	Version         int               `json:"version"          gorm:"not null;default:1"`
	SlotKey         *string           `json:"-"                gorm:"type:varchar(64);uniqueIndex:ux_appointments_scheduled_slot"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`

	Doctor  *User `json:"doctor,omitempty"  gorm:"foreignKey:DoctorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Patient *User `json:"patient,omitempty" gorm:"foreignKey:PatientID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for Appointment.
func (Appointment) TableName() string { return "appointments" }

// NormalizeDate converts t to the canonical stored form: UTC, whole seconds.
// Conflict detection compares normalized instants.
func NormalizeDate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// SlotKey returns the occupancy key of a scheduled appointment.
func SlotKey(doctorID uint, at time.Time) string {
	return fmt.Sprintf("%d@%s", doctorID, NormalizeDate(at).Format(time.RFC3339))
}

// SlotKeyFor returns the slot key pointer matching status: non-nil only while
// scheduled.
func SlotKeyFor(doctorID uint, at time.Time, status AppointmentStatus) *string {
	if status != StatusScheduled {
		return nil
	}
	k := SlotKey(doctorID, at)
	return &k
}

// PatientReport is the medical note a doctor writes for one appointment.
// Reports are append-only; the unique index on AppointmentID allows at most
// one report per appointment.
type PatientReport struct {
	ID            uint      `json:"id"             gorm:"primaryKey"`
	PatientID     uint      `json:"patient_id"     gorm:"not null;index"`
	DoctorID      uint      `json:"doctor_id"      gorm:"not null;index"`
	AppointmentID uint      `json:"appointment_id" gorm:"not null;uniqueIndex:ux_patient_reports_appointment"`
	ReportText    string    `json:"report_text"    gorm:"type:text;not null"`
	CreatedAt     time.Time `json:"created_at"`

	Appointment *Appointment `json:"-" gorm:"foreignKey:AppointmentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Patient     *User        `json:"-" gorm:"foreignKey:PatientID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Doctor      *User        `json:"-" gorm:"foreignKey:DoctorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for PatientReport.
func (PatientReport) TableName() string { return "patient_reports" }
