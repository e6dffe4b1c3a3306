package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	DriversRegistered prometheus.Counter
	QRScans           prometheus.Counter
	IncidentsReported prometheus.Counter
	Logins            *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
}

// New registers all metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers all metrics on the given registerer. Tests pass a fresh
// registry so parallel constructions do not collide.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DriversRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "roadguard_drivers_registered_total",
			Help: "Total number of drivers registered",
		}),
		QRScans: factory.NewCounter(prometheus.CounterOpts{
			Name: "roadguard_qr_scans_total",
			Help: "Total number of public emergency resolutions",
		}),
		IncidentsReported: factory.NewCounter(prometheus.CounterOpts{
			Name: "roadguard_incidents_total",
			Help: "Total number of public incident reports",
		}),
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "roadguard_logins_total",
			Help: "Login attempts by role and outcome",
		}, []string{"role", "outcome"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "roadguard_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}
