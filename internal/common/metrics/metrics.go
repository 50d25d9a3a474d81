// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_http_requests_total",
			Help: "Total number of backend requests by method and outcome",
		},
		[]string{"method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stock_http_request_duration_seconds",
			Help:    "Duration of backend requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	HTTPDedupJoins = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stock_http_dedup_joins_total",
			Help: "Requests served by joining an identical in-flight request",
		},
	)

	HTTPAborted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stock_http_aborted_total",
			Help: "In-flight requests cancelled before completion",
		},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stock_http_in_flight",
			Help: "Entries currently held in the in-flight request map",
		},
	)

	SearchCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_search_cache_total",
			Help: "Search cache lookups by result",
		},
		[]string{"result"},
	)

	ListingFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_listing_fetch_total",
			Help: "Listing fetches by status group and result",
		},
		[]string{"group", "result"},
	)

	FeedUnread = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stock_feed_unread",
			Help: "Unread activity feed items as last polled",
		},
	)
)
