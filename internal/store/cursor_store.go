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

// GetSyncCursor retrieves the singleton sync cursor
func (s *pgStore) GetSyncCursor(ctx context.Context) (*schema.SyncState, error) {
	var state schema.SyncState
	err := s.db.WithContext(ctx).Where("id = ?", schema.SyncStateID).First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get sync cursor: %w", err)
	}
	return &state, nil
}

// InitSyncCursor creates the cursor at block on first run. An existing cursor is left untouched.
func (s *pgStore) InitSyncCursor(ctx context.Context, block uint64) (*schema.SyncState, error) {
	state := schema.SyncState{
		ID:           schema.SyncStateID,
		CurrentBlock: block,
		LastSyncTime: time.Now().UTC(),
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&state).Error
	if err != nil {
		return nil, fmt.Errorf("failed to init sync cursor: %w", err)
	}

	return s.GetSyncCursor(ctx)
}

// AdvanceSyncCursor moves the cursor forward; the WHERE clause keeps it monotonic
func (s *pgStore) AdvanceSyncCursor(ctx context.Context, block uint64) (bool, error) {
	now := time.Now().UTC()
	result := s.db.WithContext(ctx).
		Model(&schema.SyncState{}).
		Where("id = ? AND current_block < ?", schema.SyncStateID, block).
		Updates(map[string]interface{}{
			"current_block":  block,
			"last_sync_time": now,
			"updated_at":     now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to advance sync cursor: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// SetSyncing records whether a catch-up is in progress
func (s *pgStore) SetSyncing(ctx context.Context, syncing bool) error {
	err := s.db.WithContext(ctx).
		Model(&schema.SyncState{}).
		Where("id = ?", schema.SyncStateID).
		Updates(map[string]interface{}{
			"is_syncing": syncing,
			"updated_at": time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to set syncing flag: %w", err)
	}

	return nil
}
