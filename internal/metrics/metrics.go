// Package metrics exposes the controller's operational counters. The
// listener is optional; on a cabinet without a metrics address configured
// the collectors still run, they just aren't scraped.
package metrics

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	mu  sync.Mutex
	srv *http.Server

	// ScansTotal counts badge scans by classification outcome
	// (admin, student, denied).
	ScansTotal *prometheus.CounterVec

	// TransactionsTotal counts logged inventory movements by action
	// (borrowed, returned, added).
	TransactionsTotal *prometheus.CounterVec

	// OfflineQueueDepth tracks the number of log entries awaiting upload.
	OfflineQueueDepth prometheus.Gauge

	// EnrollmentSessions counts admin enrollment sessions by how they ended
	// (done, fault, timeout).
	EnrollmentSessions *prometheus.CounterVec
}

func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ScansTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cabinet_badge_scans_total",
			Help: "Badge scans by classification outcome.",
		}, []string{"outcome"}),
		TransactionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cabinet_transactions_total",
			Help: "Logged inventory movements by action.",
		}, []string{"action"}),
		OfflineQueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cabinet_offline_queue_depth",
			Help: "Log entries queued locally awaiting upload.",
		}),
		EnrollmentSessions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cabinet_enrollment_sessions_total",
			Help: "Admin enrollment sessions by terminal state.",
		}, []string{"result"}),
	}
}

// Handler returns the scrape handler for the registry backing m.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts a scrape listener on addr. Errors are returned from the
// underlying ListenAndServe; callers run this in a goroutine and stop it
// with Shutdown.
func (m *Metrics) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	m.mu.Lock()
	m.srv = srv
	m.mu.Unlock()

	return srv.ListenAndServe()
}

// Shutdown stops the scrape listener, if Serve ever started one.
func (m *Metrics) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	srv := m.srv
	m.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
