package services

import "github.com/prometheus/client_golang/prometheus"

var (
	slotConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_slot_conflicts_total",
		Help: "Appointment writes rejected because the doctor's slot was taken.",
	})

	versionConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_version_conflicts_total",
		Help: "Appointment updates rejected for a stale version.",
	})

	reportsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_patient_reports_created_total",
		Help: "Patient reports successfully created.",
	})
)

func init() {
	prometheus.MustRegister(slotConflicts, versionConflicts, reportsCreated)
}
