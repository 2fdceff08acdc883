package telegram

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commandsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "budgetify_telegram_commands_processed_total",
			Help: "Total number of processed commands by type",
		},
		[]string{"command"}, // start, help, login, code, stats, unknown
	)

	messagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "budgetify_telegram_messages_processed_total",
			Help: "Total number of processed messages by type",
		},
		[]string{"type"}, // text, voice, other
	)

	parseResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "budgetify_parse_results_total",
			Help: "Parse outcomes by cascade rule or failure kind",
		},
		[]string{"result"},
	)

	expensesRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "budgetify_expenses_recorded_total",
			Help: "Total number of recorded expenses by source",
		},
		[]string{"source"},
	)

	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "budgetify_telegram_errors_total",
			Help: "Total number of errors by type",
		},
		[]string{"type"}, // download_file, recognition, storage, oauth, rate_limited, send
	)

	recognitionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "budgetify_speech_recognition_duration_seconds",
			Help:    "Duration of SpeechKit recognition in seconds",
			Buckets: []float64{0.25, 0.5, 1, 1.5, 2.5, 5},
		},
	)
)
