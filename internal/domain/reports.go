package domain

import "time"

// ReportFilter narrows an appointment report. Nil fields do not filter.
type ReportFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Status    *AppointmentStatus
}

// AppointmentReportRow is one appointment in a report, flattened with the
// participants' names.
type AppointmentReportRow struct {
	ID               uint              `json:"id"`
	DoctorID         uint              `json:"doctor_id"`
	PatientID        uint              `json:"patient_id"`
	AppointmentDate  time.Time         `json:"appointment_date"`
	DurationMinutes  int               `json:"duration_minutes"`
	Status           AppointmentStatus `json:"status"`
	Notes            *string           `json:"notes"`
	DoctorFirstName  string            `json:"doctor_first_name"`
	DoctorLastName   string            `json:"doctor_last_name"`
	PatientFirstName string            `json:"patient_first_name"`
	PatientLastName  string            `json:"patient_last_name"`
}

// AppointmentStatistics summarizes the rows of a report. CompletionRate is a
// percentage in [0,100] and is 0 for an empty set.
type AppointmentStatistics struct {
	TotalAppointments int64   `json:"totalAppointments"`
	AverageDuration   float64 `json:"averageDuration"`
	CompletedCount    int64   `json:"completedCount"`
	ScheduledCount    int64   `json:"scheduledCount"`
	CancelledCount    int64   `json:"cancelledCount"`
	CompletionRate    float64 `json:"completionRate"`
}

// AppointmentReport is the result of an appointment report query. Rows are
// ordered by appointment date, newest first.
type AppointmentReport struct {
	Appointments []AppointmentReportRow `json:"appointments"`
	Statistics   AppointmentStatistics  `json:"statistics"`
}

// PatientReportDetail is a patient report joined with its appointment and
// both participants.
type PatientReportDetail struct {
	ID               uint              `json:"id"`
	PatientID        uint              `json:"patient_id"`
	DoctorID         uint              `json:"doctor_id"`
	AppointmentID    uint              `json:"appointment_id"`
	ReportText       string            `json:"report_text"`
	CreatedAt        time.Time         `json:"created_at"`
	AppointmentDate  time.Time         `json:"appointment_date"`
	DurationMinutes  int               `json:"duration_minutes"`
	Status           AppointmentStatus `json:"status"`
	Notes            *string           `json:"notes"`
	DoctorFirstName  string            `json:"doctor_first_name"`
	DoctorLastName   string            `json:"doctor_last_name"`
	PatientFirstName string            `json:"patient_first_name"`
	PatientLastName  string            `json:"patient_last_name"`
}
