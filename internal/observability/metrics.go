package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tikker_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "code", "method"},
	)

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tikker_bookings_total",
			Help: "Reservation outcomes by result",
		},
		[]string{"result"},
	)

	TicketsSold = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tikker_tickets_sold_total",
			Help: "Total tickets sold across confirmed bookings",
		},
	)

	DBTxDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tikker_db_tx_seconds",
			Help:    "Duration of DB transactions",
			Buckets: prometheus.DefBuckets,
		},
	)

	OutboxLag = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tikker_outbox_lag_seconds",
			Help: "Age of the oldest unpublished outbox message",
		},
	)

	RateLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tikker_rate_limit_exceeded_total",
			Help: "Total rate limited requests",
		},
	)
)
