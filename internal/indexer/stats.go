package indexer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/ff-chain-indexer/internal/adapter"
	"github.com/feral-file/ff-chain-indexer/internal/logger"
	"github.com/feral-file/ff-chain-indexer/internal/metrics"
	"github.com/feral-file/ff-chain-indexer/internal/store"
)

// statsRefreshInterval limits how often the stats row is recounted
const statsRefreshInterval = 30 * time.Second

// statsRecorder keeps the chain_stats row and the reorg metrics up to date.
// Stats are best effort and never block ingestion. Not safe for concurrent use.
type statsRecorder struct {
	store store.Store
	clock adapter.Clock

	pendingReorgs int64
	lastRefresh   time.Time
}

func newStatsRecorder(store store.Store, clock adapter.Clock) *statsRecorder {
	return &statsRecorder{store: store, clock: clock}
}

// RecordReorg counts a recovered reorg
func (s *statsRecorder) RecordReorg(outcome *ReorgOutcome) {
	s.pendingReorgs++

	metrics.ReorgsTotal.Inc()
	metrics.ReorgDepth.Observe(float64(outcome.Depth))
	if r := outcome.Invalidated; r != nil {
		metrics.RowsInvalidated.WithLabelValues("blocks").Add(float64(r.Blocks))
		metrics.RowsInvalidated.WithLabelValues("transactions").Add(float64(r.Transactions))
		metrics.RowsInvalidated.WithLabelValues("logs").Add(float64(r.Logs))
		metrics.RowsInvalidated.WithLabelValues("token_transfers").Add(float64(r.TokenTransfers))
	}
}

// Refresh recounts the stats row when the refresh interval has passed or a reorg is pending
func (s *statsRecorder) Refresh(ctx context.Context, head uint64) {
	now := s.clock.Now()
	if s.pendingReorgs == 0 && !s.lastRefresh.IsZero() && now.Sub(s.lastRefresh) < statsRefreshInterval {
		return
	}

	err := s.store.UpdateChainStats(ctx, store.UpdateChainStatsInput{
		ChainHead: head,
		NewReorgs: s.pendingReorgs,
	})
	if err != nil {
		logger.WarnCtx(ctx, "Failed to update chain stats", zap.Error(err))
		return
	}

	s.pendingReorgs = 0
	s.lastRefresh = now
}
