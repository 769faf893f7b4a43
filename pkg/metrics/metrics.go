package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	cataloger = "cataloger"

	jobsProcessedTotal      = "jobs_processed_total"
	documentsProcessedTotal = "documents_processed_total"
	catalogItemsCount       = "catalog_items_count"
	crossReferencesCount    = "cross_references_count"

	queueLabel  = "queue"
	resultLabel = "result"
)

var jobsProcessedLabels = []string{
	queueLabel,
	resultLabel,
}

/**
* Metrics definition
**/
var jobsProcessedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: cataloger,
		Name:      jobsProcessedTotal,
		Help:      "number of pipeline jobs processed, partitioned by queue and result",
	},
	jobsProcessedLabels,
)

var documentsProcessedTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: cataloger,
		Name:      documentsProcessedTotal,
		Help:      "number of documents that completed text extraction",
	},
)

var catalogItemsCountMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: cataloger,
		Name:      catalogItemsCount,
		Help:      "current number of catalog items",
	},
)

var crossReferencesCountMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: cataloger,
		Name:      crossReferencesCount,
		Help:      "current number of cross-reference edges",
	},
)

func IncreaseJobsProcessedMetric(queue string, result string) {
	labels := prometheus.Labels{
		queueLabel:  queue,
		resultLabel: result,
	}
	jobsProcessedTotalMetric.With(labels).Inc()
}

func IncreaseDocumentsProcessedMetric() {
	documentsProcessedTotalMetric.Inc()
}

func UpdateCatalogItemsCountMetric(count int) {
	catalogItemsCountMetric.Set(float64(count))
}

func UpdateCrossReferencesCountMetric(count int) {
	crossReferencesCountMetric.Set(float64(count))
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(jobsProcessedTotalMetric)
	prometheus.MustRegister(documentsProcessedTotalMetric)
	prometheus.MustRegister(catalogItemsCountMetric)
	prometheus.MustRegister(crossReferencesCountMetric)
}
