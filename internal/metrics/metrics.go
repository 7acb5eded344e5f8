package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace is the metric namespace of the indexer
const Namespace = "chain_indexer"

var (
	IndexedHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "indexed_height",
		Help:      "The sync cursor: highest height below which every block is committed",
	})

	ChainHead = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "chain_head",
		Help:      "The latest block number reported by the node",
	})

	ProcessingLag = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "processing_lag_blocks",
		Help:      "Difference between chain head and the sync cursor",
	})

	Syncing = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "syncing",
		Help:      "1 while a catch-up range is in progress",
	})

	SourceMode = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "source_mode",
		Help:      "Active block source (subscription or poll)",
	}, []string{"mode"})

	BlocksProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "blocks_processed_total",
		Help:      "Blocks handled by the processor, by result",
	}, []string{"result"})

	BlockProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "block_processing_duration_seconds",
		Help:      "Time to fetch and commit one block",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	})

	TransactionsIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "transactions_indexed_total",
		Help:      "Transactions written to the store",
	})

	ReorgsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "reorgs_total",
		Help:      "Chain reorganizations recovered from",
	})

	ReorgDepth = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "reorg_depth_blocks",
		Help:      "Number of blocks replaced by a reorganization",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
	})

	RowsInvalidated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "rows_invalidated_total",
		Help:      "Rows deleted by reorg invalidation, by table",
	}, []string{"table"})

	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "notification_failures_total",
		Help:      "Notifications that could not be published",
	})
)

// SetSourceMode marks mode as the active block source
func SetSourceMode(mode string) {
	SourceMode.Reset()
	SourceMode.WithLabelValues(mode).Set(1)
}
