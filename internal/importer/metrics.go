package importer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// importRuns counts finished import runs by pricing mode and outcome.
	importRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricelist_import_runs_total",
		Help: "Total number of price list import runs by pricing mode and outcome",
	}, []string{"mode", "outcome"}) // outcome: success, failed, structural, aborted

	// importRows counts processed rows by outcome.
	importRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricelist_import_rows_total",
		Help: "Total number of processed price list rows by outcome",
	}, []string{"outcome"}) // outcome: accepted, rejected

	// importDiagnostics counts diagnostics by severity and code.
	importDiagnostics = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricelist_import_diagnostics_total",
		Help: "Total number of import diagnostics by severity and code",
	}, []string{"severity", "code"})

	// importDuration tracks the time taken by a full import.
	importDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pricelist_import_duration_seconds",
		Help:    "Time taken to import a price list by pricing mode",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"mode"})

	// previewDuration tracks the time taken to preview a file.
	previewDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pricelist_preview_duration_seconds",
		Help:    "Time taken to preview a price list file",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})
)
