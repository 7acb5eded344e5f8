package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/ff-chain-indexer/internal/store/schema"
)

// GetChainStats retrieves the singleton chain stats row
func (s *pgStore) GetChainStats(ctx context.Context) (*schema.ChainStats, error) {
	var stats schema.ChainStats
	err := s.db.WithContext(ctx).Where("id = ?", schema.ChainStatsID).First(&stats).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get chain stats: %w", err)
	}
	return &stats, nil
}

// UpdateChainStats recounts the indexed tables and upserts the stats row.
// The reorg counter is cumulative.
func (s *pgStore) UpdateChainStats(ctx context.Context, input UpdateChainStatsInput) error {
	db := s.db.WithContext(ctx)
	stats := schema.ChainStats{
		ID:          schema.ChainStatsID,
		ChainHead:   input.ChainHead,
		TotalReorgs: input.NewReorgs,
		UpdatedAt:   time.Now().UTC(),
	}

	latest, err := s.GetLatestBlock(ctx)
	if err != nil {
		return err
	}
	if latest != nil {
		stats.LatestBlockNumber = latest.Number
		stats.LatestBlockHash = latest.Hash
	}

	counts := []struct {
		model interface{}
		dest  *int64
	}{
		{&schema.Block{}, &stats.TotalBlocks},
		{&schema.Transaction{}, &stats.TotalTransactions},
		{&schema.TokenTransfer{}, &stats.TotalTokenTransfers},
		{&schema.Address{}, &stats.TotalAddresses},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dest).Error; err != nil {
			return fmt.Errorf("failed to count rows: %w", err)
		}
	}

	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"latest_block_number":   stats.LatestBlockNumber,
			"latest_block_hash":     stats.LatestBlockHash,
			"chain_head":            stats.ChainHead,
			"total_blocks":          stats.TotalBlocks,
			"total_transactions":    stats.TotalTransactions,
			"total_token_transfers": stats.TotalTokenTransfers,
			"total_addresses":       stats.TotalAddresses,
			"total_reorgs":          gorm.Expr("chain_stats.total_reorgs + ?", input.NewReorgs),
			"updated_at":            stats.UpdatedAt,
		}),
	}).Create(&stats).Error
	if err != nil {
		return fmt.Errorf("failed to upsert chain stats: %w", err)
	}

	return nil
}
