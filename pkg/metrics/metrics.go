// Package metrics defines the Prometheus metric collectors used across the
// lab and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the lab.
type Metrics struct {
	DocumentsInsertedTotal *prometheus.CounterVec
	LoadDuration           *prometheus.HistogramVec
	QueryDuration          *prometheus.HistogramVec
	DocumentsUpdatedTotal  *prometheus.CounterVec
	OperationErrorsTotal   *prometheus.CounterVec
	DatasetCompanies       prometheus.Gauge
	DatasetPersons         prometheus.Gauge
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		DocumentsInsertedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lab_documents_inserted_total",
				Help: "Total documents inserted by model and collection.",
			},
			[]string{"model", "collection"},
		),
		LoadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lab_load_duration_seconds",
				Help:    "Data load duration in seconds per model.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"model"},
		),
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lab_query_duration_seconds",
				Help:    "Query and update latency in seconds by model and operation.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"model", "operation"},
		),
		DocumentsUpdatedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lab_documents_updated_total",
				Help: "Documents touched by update operations, split into matched and modified.",
			},
			[]string{"model", "operation", "result"},
		),
		OperationErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lab_operation_errors_total",
				Help: "Failed operations by model, operation, and error class.",
			},
			[]string{"model", "operation", "class"},
		),
		DatasetCompanies: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lab_dataset_companies",
				Help: "Number of companies in the generated dataset.",
			},
		),
		DatasetPersons: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lab_dataset_persons",
				Help: "Number of persons in the generated dataset.",
			},
		),
	}

	prometheus.MustRegister(
		m.DocumentsInsertedTotal,
		m.LoadDuration,
		m.QueryDuration,
		m.DocumentsUpdatedTotal,
		m.OperationErrorsTotal,
		m.DatasetCompanies,
		m.DatasetPersons,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
