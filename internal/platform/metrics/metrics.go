package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// HTTP request counter
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTP request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Purchase request lifecycle transitions
	PurchaseRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchase_requests_total",
			Help: "Total number of purchase requests by outcome",
		},
		[]string{"outcome"},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "purchase_queue_depth",
			Help: "Number of admitted purchase requests awaiting fulfillment",
		},
	)

	TicketsSold = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_sold_total",
			Help: "Total number of tickets granted at fulfillment",
		},
	)

	TicketsRefunded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_refunded_total",
			Help: "Total number of tickets returned to inventory",
		},
	)

	NoncesStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nonces_stored",
			Help: "Number of nonces held by the in-memory nonce store",
		},
	)

	NonceRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nonce_rejections_total",
			Help: "Total number of missing or replayed nonces",
		},
	)
)

const (
	OutcomeCreated   = "created"
	OutcomeAdmitted  = "admitted"
	OutcomeFulfilled = "fulfilled"
	OutcomePartial   = "partial"
	OutcomeCancelled = "cancelled"
)

// Serve exposes the default registry on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", addr).Msg("metrics listener starting")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
