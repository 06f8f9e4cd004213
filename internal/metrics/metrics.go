package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ============================================
	// Risk scoring
	// ============================================
	RiskAssessments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_risk_assessments_total",
			Help: "Total number of risk assessments performed",
		},
		[]string{"risk"},
	)

	// ============================================
	// Attestation (execution authority)
	// ============================================
	AttestationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_attestation_requests_total",
			Help: "Total number of attestation requests sent to the execution authority",
		},
		[]string{"result"},
	)

	AttestationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "backend_attestation_duration_seconds",
		Help:    "Attestation request duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// ============================================
	// Listing submission (ledger)
	// ============================================
	ListingSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_listing_submissions_total",
			Help: "Total number of listing transactions submitted",
		},
		[]string{"result"},
	)

	ConfirmationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "backend_listing_confirmation_duration_seconds",
		Help:    "Time from broadcast to receipt in seconds",
		Buckets: []float64{1, 2.5, 5, 10, 30, 60, 120, 300},
	})

	// ============================================
	// Event bus
	// ============================================
	NATSConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "backend_nats_connection_status",
		Help: "NATS connection status (1=connected, 0=disconnected)",
	})

	NATSEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_nats_events_published_total",
			Help: "Total number of NATS events published",
		},
		[]string{"subject"},
	)

	// ============================================
	// Database
	// ============================================
	DBConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "backend_db_connection_status",
		Help: "Database connection status (1=healthy, 0=unhealthy)",
	})
)
