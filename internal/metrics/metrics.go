package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "patio_http_requests_total",
		Help: "Total HTTP requests by method, path and status code",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "patio_http_request_duration_seconds",
		Help:    "HTTP request latency by method and path",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	QueueMovesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "patio_fila_moves_total",
		Help: "Stage moves applied, by destination stage",
	}, []string{"estagio"})

	QueueItemsArchivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "patio_fila_items_archived_total",
		Help: "Queue items archived (individually or by stage)",
	})

	StagesAutoRegisteredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "patio_fila_stages_autoregistered_total",
		Help: "Custom stages registered implicitly by a move",
	})
)
