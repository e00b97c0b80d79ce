// Package metrics exposes the server's Prometheus counters and gauges,
// registered once and served at /v1/metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BlobsTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "csync_blobs_total",
		Help: "Total number of blobs currently stored",
	})

	BlobPutTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "csync_blob_put_total",
		Help: "Total number of successful blob puts",
	})

	BlobUpdateTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "csync_blob_update_total",
		Help: "Total number of successful blob patches",
	})

	BlobDeleteTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "csync_blob_delete_total",
		Help: "Total number of successful blob deletes",
	})

	RecycledTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "csync_recycled_total",
		Help: "Total number of blobs deleted by the recycler",
	})

	EventSubscribersActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "csync_event_subscribers_active",
		Help: "Number of live events-server subscribers",
	})

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csync_http_requests_total",
			Help: "Total HTTP requests by route and status class",
		},
		[]string{"route", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		BlobsTotal,
		BlobPutTotal,
		BlobUpdateTotal,
		BlobDeleteTotal,
		RecycledTotal,
		EventSubscribersActive,
		HTTPRequestsTotal,
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
