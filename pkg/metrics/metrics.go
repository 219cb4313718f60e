// Package metrics exposes Prometheus collectors for the ripper.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"tumblrripper/pkg/logger"
)

// Job outcomes recorded by ObserveJob
const (
	JobDownloaded = "downloaded"
	JobSkipped    = "skipped"
	JobDenied     = "denied"
	JobFailed     = "failed"
	JobUnresolved = "unresolved"
	JobPanicked   = "panicked"
)

var (
	pagesTotal     *prometheus.CounterVec
	jobsTotal      *prometheus.CounterVec
	bytesTotal     prometheus.Counter
	fetchAttempts  prometheus.Counter
	queuedJobs     prometheus.Gauge
	activeWorkers  prometheus.Gauge
	passDurSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		pagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tumblr_ripper_pages_total",
				Help: "Total number of read API pages requested, labeled by media type and status.",
			},
			[]string{"media_type", "status"},
		)

		jobsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tumblr_ripper_media_total",
				Help: "Total number of media URLs processed, labeled by outcome.",
			},
			[]string{"status"},
		)

		bytesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "tumblr_ripper_bytes_total",
				Help: "Total number of media bytes written to disk.",
			},
		)

		fetchAttempts = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "tumblr_ripper_fetch_attempts_total",
				Help: "Total number of media fetch attempts, retries included.",
			},
		)

		queuedJobs = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "tumblr_ripper_unfinished_jobs",
				Help: "Number of jobs enqueued and not yet marked done.",
			},
		)

		activeWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "tumblr_ripper_active_workers",
				Help: "Number of workers currently processing a job.",
			},
		)

		passDurSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tumblr_ripper_pass_duration_seconds",
				Help:    "Histogram of (source, media type) pass durations including the drain.",
				Buckets: []float64{1, 5, 15, 60, 300, 900, 3600},
			},
			[]string{"media_type"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePage counts one page request.
func ObservePage(mediaType, status string) {
	Init()
	pagesTotal.WithLabelValues(mediaType, status).Inc()
}

// ObserveJob counts one media URL outcome.
func ObserveJob(status string) {
	Init()
	jobsTotal.WithLabelValues(status).Inc()
}

// ObserveBytes adds written bytes.
func ObserveBytes(n int64) {
	Init()
	if n > 0 {
		bytesTotal.Add(float64(n))
	}
}

// ObserveFetchAttempt counts one media fetch attempt.
func ObserveFetchAttempt() {
	Init()
	fetchAttempts.Inc()
}

// SetUnfinishedJobs sets the unfinished job gauge.
func SetUnfinishedJobs(n int) {
	Init()
	queuedJobs.Set(float64(n))
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	Init()
	activeWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	Init()
	activeWorkers.Dec()
}

// ObservePass records how long a pass took.
func ObservePass(mediaType string, d time.Duration) {
	Init()
	passDurSeconds.WithLabelValues(mediaType).Observe(d.Seconds())
}

// Serve exposes /metrics on addr until ctx is done. An empty addr is a no-op.
func Serve(ctx context.Context, addr string, log logger.Logger) error {
	if addr == "" {
		return nil
	}
	Init()
	log = logger.OrDefault(log)

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.InfoWithFields("metrics listener started", map[string]interface{}{"address": addr})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
