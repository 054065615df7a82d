// Package obs holds the prometheus collectors shared across the service.
package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashgo_http_requests_total",
		Help: "HTTP requests by method, route pattern and status class.",
	}, []string{"method", "path", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dashgo_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	RowsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashgo_sheet_rows_ingested_total",
		Help: "Campaign rows successfully mapped from sheet fetches.",
	})

	LeadsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashgo_leads_created_total",
		Help: "Leads created, by creation path.",
	}, []string{"source"})

	StageMoves = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashgo_stage_moves_total",
		Help: "Lead stage transitions recorded.",
	})
)
