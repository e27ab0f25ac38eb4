package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lessscan_parsing_seconds",
		Help:    "Time spent parsing a single stylesheet.",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend"})

	FilesScannedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lessscan_files_scanned_total",
		Help: "Total number of stylesheets processed, by result.",
	}, []string{"result"})

	FilesDispatchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lessscan_files_dispatched_total",
		Help: "Total number of scan requests sent to workers.",
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lessscan_active_workers",
		Help: "Number of scan workers currently running.",
	})

	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lessscan_scan_seconds",
		Help:    "Wall time of a complete scan-and-merge run.",
		Buckets: prometheus.DefBuckets,
	})

	CounterKeys = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "lessscan_counter_keys",
		Help: "Distinct keys per counter section after the last merge.",
	}, []string{"section"})

	WorkerFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lessscan_worker_failures_total",
		Help: "Total number of workers that reported a transport failure.",
	})
)
