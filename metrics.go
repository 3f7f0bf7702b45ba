package taskstore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	appendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskstore_appends_total",
		Help: "Log lines appended, including tombstones.",
	}, []string{"collection"})

	appendBytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskstore_append_bytes_total",
		Help: "Bytes appended to logs, including newlines.",
	}, []string{"collection"})

	syncsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskstore_syncs_total",
		Help: "Completed cache rebuilds.",
	})

	syncRecords = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "taskstore_sync_records",
		Help: "Live records per collection as of the last sync.",
	}, []string{"collection"})

	compactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskstore_compactions_total",
		Help: "Completed log compactions.",
	}, []string{"collection"})

	skippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskstore_records_skipped_total",
		Help: "Cached records skipped because their bodies failed to decode.",
	}, []string{"collection"})
)
