package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "budgetify_worker_syncs_total",
			Help: "Total number of expense sync attempts by result",
		},
		[]string{"result"}, // synced, error, skipped
	)

	syncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "budgetify_worker_sync_duration_seconds",
			Help:    "Time to write one expense to the spreadsheet",
			Buckets: prometheus.DefBuckets,
		},
	)

	uploadsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "budgetify_worker_disk_uploads_total",
			Help: "Total number of workbook uploads to Yandex.Disk by result",
		},
		[]string{"result"}, // ok, error, no_token
	)
)
