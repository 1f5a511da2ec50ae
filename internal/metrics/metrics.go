package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Flips = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flip_flips_total",
			Help: "Total flips by outcome",
		},
		[]string{"currency", "outcome", "forced"},
	)

	SessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flip_sessions_started_total",
			Help: "Total started sessions",
		},
		[]string{"currency", "holiday_boost"},
	)

	SessionsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flip_sessions_finished_total",
			Help: "Total finished sessions by terminal status",
		},
		[]string{"currency", "status"},
	)

	PayoutAnomalies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flip_payout_anomalies_total",
			Help: "Awards clamped by the remaining budget or max cashout",
		},
		[]string{"kind"},
	)

	LockContention = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flip_lock_contention_total",
			Help: "Operations rejected because the session or wallet was locked",
		},
		[]string{"op"},
	)

	IntegrityErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flip_integrity_errors_total",
			Help: "Integrity defects detected by the engine",
		},
		[]string{"kind"},
	)
)

// Init регистрирует метрики в глобальном реестре
func Init() {
	prometheus.MustRegister(Flips)
	prometheus.MustRegister(SessionsStarted)
	prometheus.MustRegister(SessionsFinished)
	prometheus.MustRegister(PayoutAnomalies)
	prometheus.MustRegister(LockContention)
	prometheus.MustRegister(IntegrityErrors)
}
