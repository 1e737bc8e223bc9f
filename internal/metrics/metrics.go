// Package metrics exposes pipeline instrumentation via Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	translationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_translations_total",
			Help: "Translation attempts by outcome (accepted, rejected, provider_error).",
		},
		[]string{"outcome"},
	)

	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_queries_total",
			Help: "Executed statements by status (ok, failed).",
		},
		[]string{"status"},
	)

	queryDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "askdb_query_duration_seconds",
			Help:    "Database execution latency.",
			Buckets: prometheus.DefBuckets,
		},
	)

	providerDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "askdb_provider_duration_seconds",
			Help:    "Completion provider call latency.",
			Buckets: prometheus.DefBuckets,
		},
	)

	schemaRefreshesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_schema_refreshes_total",
			Help: "Schema reflection passes by status (ok, failed).",
		},
		[]string{"status"},
	)

	schemaTables = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "askdb_schema_tables",
			Help: "Tables in the current schema snapshot.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		translationsTotal,
		queriesTotal,
		queryDurationSeconds,
		providerDurationSeconds,
		schemaRefreshesTotal,
		schemaTables,
	)
}

func ObserveTranslation(outcome string, elapsed time.Duration) {
	translationsTotal.WithLabelValues(outcome).Inc()
	providerDurationSeconds.Observe(elapsed.Seconds())
}

func ObserveQuery(failed bool, elapsed time.Duration) {
	status := "ok"
	if failed {
		status = "failed"
	}
	queriesTotal.WithLabelValues(status).Inc()
	queryDurationSeconds.Observe(elapsed.Seconds())
}

func ObserveSchemaRefresh(err error, tables int) {
	if err != nil {
		schemaRefreshesTotal.WithLabelValues("failed").Inc()
		return
	}
	schemaRefreshesTotal.WithLabelValues("ok").Inc()
	schemaTables.Set(float64(tables))
}
