package services

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tbourn/go-scheduler-backend/internal/domain"
)

func TestCreatePatientReport_CompletesAppointment_ThenDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, f.doctor, f.patient, f.slot)
	before := testutil.ToFloat64(reportsCreated)

	r, err := f.reports().CreatePatientReport(ctx, principal(f.doctor), CreateReportInput{
		PatientID: f.patient.ID, AppointmentID: a.ID, ReportText: "  Blood pressure normal.\r\n",
	})
	if err != nil {
		t.Fatalf("CreatePatientReport: %v", err)
	}
	if r.ID == 0 || r.DoctorID != f.doctor.ID || r.ReportText != "Blood pressure normal." {
		t.Fatalf("unexpected report: %+v", r)
	}
	if got := testutil.ToFloat64(reportsCreated) - before; got != 1 {
		t.Fatalf("reports counter delta = %v, want 1", got)
	}

	stored, err := f.appointments().Get(ctx, principal(f.doctor), a.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Status != domain.StatusCompleted || stored.Version != 2 {
		t.Fatalf("appointment after report: %+v", stored)
	}

	_, err = f.reports().CreatePatientReport(ctx, principal(f.doctor), CreateReportInput{
		PatientID: f.patient.ID, AppointmentID: a.ID, ReportText: "again",
	})
	if !errors.Is(err, ErrDuplicateReport) {
		t.Fatalf("expected ErrDuplicateReport, got %v", err)
	}
	stored, _ = f.appointments().Get(ctx, principal(f.doctor), a.ID)
	if stored.Status != domain.StatusCompleted || stored.Version != 2 {
		t.Fatalf("rejected report must leave the appointment untouched: %+v", stored)
	}

	// The completed appointment no longer holds the slot.
	f.book(t, f.doctor, f.patient2, f.slot)
}

func TestCreatePatientReport_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, f.doctor, f.patient, f.slot)

	cases := []struct {
		name string
		p    domain.Principal
		in   CreateReportInput
		want error
	}{
		{"patient cannot write", principal(f.patient), CreateReportInput{PatientID: f.patient.ID, AppointmentID: a.ID, ReportText: "x"}, ErrForbidden},
		{"blank text", principal(f.doctor), CreateReportInput{PatientID: f.patient.ID, AppointmentID: a.ID, ReportText: " \n\t "}, ErrEmptyReport},
		{"other doctor", principal(f.doctor2), CreateReportInput{PatientID: f.patient.ID, AppointmentID: a.ID, ReportText: "x"}, ErrNotFound},
		{"wrong patient", principal(f.doctor), CreateReportInput{PatientID: f.patient2.ID, AppointmentID: a.ID, ReportText: "x"}, ErrNotFound},
		{"missing appointment", principal(f.doctor), CreateReportInput{PatientID: f.patient.ID, AppointmentID: 9999, ReportText: "x"}, ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.reports().CreatePatientReport(ctx, tc.p, tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	stored, _ := f.appointments().Get(ctx, principal(f.doctor), a.ID)
	if stored.Status != domain.StatusScheduled {
		t.Fatalf("rejections must not complete the appointment: %+v", stored)
	}
}

func TestCreatePatientReport_ConcurrentDuplicates_OneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, f.doctor, f.patient, f.slot)

	const n = 5
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   int
		dups int
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.reports().CreatePatientReport(ctx, principal(f.doctor), CreateReportInput{
				PatientID: f.patient.ID, AppointmentID: a.ID, ReportText: "note",
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if errors.Is(err, ErrDuplicateReport) {
				dups++
			} else {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if ok != 1 || dups != n-1 {
		t.Fatalf("ok=%d dups=%d, want 1 and %d", ok, dups, n-1)
	}
}

func TestGetPatientReport_NotFoundAndUnauthorizedIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, f.doctor, f.patient, f.slot)
	if _, err := f.reports().CreatePatientReport(ctx, principal(f.doctor), CreateReportInput{
		PatientID: f.patient.ID, AppointmentID: a.ID, ReportText: "Rest and fluids.",
	}); err != nil {
		t.Fatalf("CreatePatientReport: %v", err)
	}

	for _, p := range []domain.Principal{principal(f.doctor), principal(f.patient)} {
		d, err := f.reports().GetPatientReport(ctx, p, a.ID)
		if err != nil {
			t.Fatalf("participant %s: %v", p.Role, err)
		}
		if d.ReportText != "Rest and fluids." || d.Status != domain.StatusCompleted || d.PatientFirstName != "Ada" {
			t.Fatalf("unexpected detail: %+v", d)
		}
	}

	_, errMissing := f.reports().GetPatientReport(ctx, principal(f.doctor), 9999)
	_, errOther := f.reports().GetPatientReport(ctx, principal(f.doctor2), a.ID)
	_, errOtherPatient := f.reports().GetPatientReport(ctx, principal(f.patient2), a.ID)
	for _, err := range []error{errMissing, errOther, errOtherPatient} {
		if err != ErrNotFound {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}
}

func TestAppointmentReport_StatisticsAndFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.appointments()

	a1 := f.book(t, f.doctor, f.patient, f.slot)
	a2 := f.book(t, f.doctor, f.patient2, f.slot.AddDate(0, 0, 1))
	a3 := f.book(t, f.doctor, f.patient, f.slot.AddDate(0, 0, 2))
	f.book(t, f.doctor2, f.patient, f.slot)

	if _, err := f.reports().CreatePatientReport(ctx, principal(f.doctor), CreateReportInput{
		PatientID: f.patient.ID, AppointmentID: a1.ID, ReportText: "done",
	}); err != nil {
		t.Fatalf("report: %v", err)
	}
	if _, err := svc.Update(ctx, principal(f.patient2), a2.ID, UpdateAppointmentInput{
		Version: 1, Status: ptr(domain.StatusCancelled),
	}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := svc.Update(ctx, principal(f.doctor), a3.ID, UpdateAppointmentInput{
		Version: 1, DurationMinutes: ptr(60),
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	rep, err := f.reports().AppointmentReport(ctx, principal(f.doctor), domain.ReportFilter{})
	if err != nil {
		t.Fatalf("AppointmentReport: %v", err)
	}
	st := rep.Statistics
	if st.TotalAppointments != 3 || st.CompletedCount != 1 || st.CancelledCount != 1 || st.ScheduledCount != 1 {
		t.Fatalf("unexpected counts: %+v", st)
	}
	if math.Abs(st.AverageDuration-40) > 1e-9 {
		t.Fatalf("AverageDuration = %v, want 40", st.AverageDuration)
	}
	if math.Abs(st.CompletionRate-100.0/3) > 1e-9 {
		t.Fatalf("CompletionRate = %v, want 33.33", st.CompletionRate)
	}
	if len(rep.Appointments) != 3 || rep.Appointments[0].ID != a3.ID || rep.Appointments[2].ID != a1.ID {
		t.Fatalf("rows must be newest first: %+v", rep.Appointments)
	}

	status := domain.StatusCompleted
	rep, err = f.reports().AppointmentReport(ctx, principal(f.doctor), domain.ReportFilter{Status: &status})
	if err != nil || len(rep.Appointments) != 1 || rep.Statistics.CompletionRate != 100 {
		t.Fatalf("status filter: %v %+v", err, rep)
	}

	// Patient sees appointments with both doctors.
	rep, err = f.reports().AppointmentReport(ctx, principal(f.patient), domain.ReportFilter{})
	if err != nil || rep.Statistics.TotalAppointments != 3 {
		t.Fatalf("patient scope: %v %+v", err, rep)
	}
}

func TestAppointmentReport_EmptySetHasZeroCompletionRate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.book(t, f.doctor, f.patient, f.slot)

	from := f.slot.Add(24 * time.Hour * 365)
	rep, err := f.reports().AppointmentReport(ctx, principal(f.doctor), domain.ReportFilter{StartDate: &from})
	if err != nil {
		t.Fatalf("AppointmentReport: %v", err)
	}
	st := rep.Statistics
	if st.TotalAppointments != 0 || st.CompletionRate != 0 || math.IsNaN(st.CompletionRate) || st.AverageDuration != 0 {
		t.Fatalf("expected zero statistics, got %+v", st)
	}
	if rep.Appointments == nil || len(rep.Appointments) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", rep.Appointments)
	}
}

func TestWithCompletionRate(t *testing.T) {
	if got := withCompletionRate(domain.AppointmentStatistics{}).CompletionRate; got != 0 {
		t.Fatalf("empty = %v, want 0", got)
	}
	got := withCompletionRate(domain.AppointmentStatistics{TotalAppointments: 4, CompletedCount: 1}).CompletionRate
	if got != 25 {
		t.Fatalf("1/4 = %v, want 25", got)
	}
}
