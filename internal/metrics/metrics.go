// Package metrics registers the Prometheus counters exposed on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// DatasetsIngested counts datasets accepted through the upload endpoint
	// or the CLI.
	DatasetsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lessonpulse_datasets_ingested_total",
		Help: "Total number of lesson datasets ingested.",
	})

	// ReportsGenerated counts report builds, labelled by report name.
	ReportsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lessonpulse_reports_generated_total",
		Help: "Total number of reports generated, by report.",
	}, []string{"report"})

	// IngestRowsSkipped counts extract rows dropped during parsing.
	IngestRowsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lessonpulse_ingest_rows_skipped_total",
		Help: "Total number of extract rows skipped during ingestion.",
	})
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
