package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/ff-chain-indexer/internal/logger"
	"github.com/feral-file/ff-chain-indexer/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// PoolSettings holds database/sql connection pool settings
type PoolSettings struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// ConfigureConnectionPool applies pool settings to the sql.DB underneath a gorm connection.
// Zero values fall back to the defaults of Normalize.
func ConfigureConnectionPool(db *gorm.DB, settings PoolSettings) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	settings = settings.Normalize()
	sqlDB.SetMaxOpenConns(settings.MaxOpenConns)
	sqlDB.SetMaxIdleConns(settings.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(settings.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(settings.ConnMaxIdleTime)

	return nil
}

// Normalize applies defaults and keeps idle connections within the open connection limit.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func (p PoolSettings) Normalize() PoolSettings {
	if p.MaxOpenConns <= 0 {
		p.MaxOpenConns = 20
	}
	if p.MaxIdleConns <= 0 {
		p.MaxIdleConns = 5
	}
	if p.ConnMaxLifetime <= 0 {
		p.ConnMaxLifetime = 5 * time.Minute
	}
	if p.ConnMaxIdleTime <= 0 {
		p.ConnMaxIdleTime = 10 * time.Minute
	}
	if p.MaxIdleConns > p.MaxOpenConns {
		p.MaxIdleConns = p.MaxOpenConns
	}
	return p
}

// calculateSafeBatchSize computes the batch size for bulk inserts that stays under
// PostgreSQL's limit of 65535 parameters per statement, keeping headroom for
// ON CONFLICT parameters and gorm-managed timestamp columns.
func calculateSafeBatchSize(totalRecords int, fieldsPerRecord int) int {
	const maxParams = 65535
	const totalHeadroom = 1000

	availableParams := maxParams - totalHeadroom
	safeBatchSize := max(availableParams/fieldsPerRecord, 1)

	if safeBatchSize > totalRecords {
		return totalRecords
	}

	return safeBatchSize
}

// IngestBlock writes a block and everything derived from it in a single transaction
func (s *pgStore) IngestBlock(ctx context.Context, input IngestBlockInput) error {
	if input.Block == nil {
		return errors.New("block is required")
	}

	block := toBlockRow(input.Block)
	transactions := toTransactionRows(input.Transactions)
	logs, err := toLogRows(input.Logs)
	if err != nil {
		return err
	}
	transfers := toTokenTransferRows(input.TokenTransfers)
	addresses := toAddressRows(input.Addresses)

	return withTxRetry(ctx, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			// 1. A block already stored with the same hash is left untouched
			var stored schema.Block
			err := tx.Select("hash").Where("number = ?", block.Number).Take(&stored).Error
			if err == nil && stored.Hash == block.Hash {
				return nil
			}
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to get stored block: %w", err)
			}

			// Remove whatever a previous ingest left at this height, children first
			if _, err := deleteBlockRange(tx, "block_number = ?", "number = ?", block.Number); err != nil {
				return err
			}

			// 2. Upsert the block
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "number"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"hash", "parent_hash", "timestamp", "gas_used", "gas_limit",
					"base_fee_per_gas", "miner", "size", "tx_count", "updated_at",
				}),
			}).Create(&block).Error; err != nil {
				return fmt.Errorf("failed to upsert block: %w", err)
			}

			// 3. Upsert transactions; a hash seen at another height moves to this block
			if len(transactions) > 0 {
				batchSize := calculateSafeBatchSize(len(transactions), 18)
				if err := tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "hash"}},
					UpdateAll: true,
				}).CreateInBatches(transactions, batchSize).Error; err != nil {
					return fmt.Errorf("failed to upsert transactions: %w", err)
				}
			}

			// 4. Upsert logs
			if len(logs) > 0 {
				batchSize := calculateSafeBatchSize(len(logs), 7)
				if err := tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "transaction_hash"}, {Name: "log_index"}},
					UpdateAll: true,
				}).CreateInBatches(logs, batchSize).Error; err != nil {
					return fmt.Errorf("failed to upsert logs: %w", err)
				}
			}

			// 5. Upsert token transfers
			if len(transfers) > 0 {
				batchSize := calculateSafeBatchSize(len(transfers), 10)
				if err := tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "transaction_hash"}, {Name: "log_index"}},
					UpdateAll: true,
				}).CreateInBatches(transfers, batchSize).Error; err != nil {
					return fmt.Errorf("failed to upsert token transfers: %w", err)
				}
			}

			// 6. Upsert addresses: first_seen is kept, last_seen only moves forward
			if len(addresses) > 0 {
				batchSize := calculateSafeBatchSize(len(addresses), 3)
				if err := tx.Clauses(clause.OnConflict{
					Columns: []clause.Column{{Name: "address"}},
					DoUpdates: clause.Assignments(map[string]interface{}{
						"last_seen": gorm.Expr("GREATEST(addresses.last_seen, excluded.last_seen)"),
					}),
				}).CreateInBatches(addresses, batchSize).Error; err != nil {
					return fmt.Errorf("failed to upsert addresses: %w", err)
				}
			}

			return nil
		})
	})
}

// deleteBlockRange deletes token transfers, logs, transactions and blocks matching the
// conditions in dependency order. childCond applies to the child tables, blockCond to blocks.
func deleteBlockRange(tx *gorm.DB, childCond string, blockCond string, arg uint64) (*InvalidationResult, error) {
	result := &InvalidationResult{}

	res := tx.Where(childCond, arg).Delete(&schema.TokenTransfer{})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to delete token transfers: %w", res.Error)
	}
	result.TokenTransfers = res.RowsAffected

	res = tx.Where(childCond, arg).Delete(&schema.Log{})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to delete logs: %w", res.Error)
	}
	result.Logs = res.RowsAffected

	res = tx.Where(childCond, arg).Delete(&schema.Transaction{})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to delete transactions: %w", res.Error)
	}
	result.Transactions = res.RowsAffected

	res = tx.Where(blockCond, arg).Delete(&schema.Block{})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to delete blocks: %w", res.Error)
	}
	result.Blocks = res.RowsAffected

	return result, nil
}

// InvalidateFrom removes all block data at or above fromBlock and rewinds the cursor to fromBlock-1
func (s *pgStore) InvalidateFrom(ctx context.Context, fromBlock uint64) (*InvalidationResult, error) {
	if fromBlock == 0 {
		return nil, errors.New("cannot invalidate from genesis")
	}

	var result *InvalidationResult
	err := withTxRetry(ctx, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			result, err = deleteBlockRange(tx, "block_number >= ?", "number >= ?", fromBlock)
			if err != nil {
				return err
			}
			result.FromBlock = fromBlock

			// The only place the cursor moves backward
			cursor := schema.SyncState{
				ID:           schema.SyncStateID,
				CurrentBlock: fromBlock - 1,
				LastSyncTime: time.Now().UTC(),
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"current_block", "last_sync_time", "updated_at"}),
			}).Create(&cursor).Error; err != nil {
				return fmt.Errorf("failed to rewind sync cursor: %w", err)
			}

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "Invalidated blocks",
		zap.Uint64("fromBlock", fromBlock),
		zap.Int64("blocks", result.Blocks),
		zap.Int64("transactions", result.Transactions),
		zap.Int64("logs", result.Logs),
		zap.Int64("tokenTransfers", result.TokenTransfers))

	return result, nil
}

// GetBlockByNumber retrieves the stored block at a height
func (s *pgStore) GetBlockByNumber(ctx context.Context, number uint64) (*schema.Block, error) {
	var block schema.Block
	err := s.db.WithContext(ctx).Where("number = ?", number).First(&block).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get block: %w", err)
	}
	return &block, nil
}

// GetLatestBlock retrieves the highest stored block
func (s *pgStore) GetLatestBlock(ctx context.Context) (*schema.Block, error) {
	var block schema.Block
	err := s.db.WithContext(ctx).Order("number DESC").First(&block).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest block: %w", err)
	}
	return &block, nil
}

// GetTransactionByHash retrieves a transaction by hash
func (s *pgStore) GetTransactionByHash(ctx context.Context, hash string) (*schema.Transaction, error) {
	var tx schema.Transaction
	err := s.db.WithContext(ctx).Where("hash = ?", hash).First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &tx, nil
}

// GetTransactionsByBlock retrieves the transactions of a block ordered by index
func (s *pgStore) GetTransactionsByBlock(ctx context.Context, number uint64) ([]schema.Transaction, error) {
	var txs []schema.Transaction
	err := s.db.WithContext(ctx).
		Where("block_number = ?", number).
		Order("transaction_index ASC").
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions by block: %w", err)
	}
	return txs, nil
}

// GetLogsByTransaction retrieves the logs of a transaction ordered by index
func (s *pgStore) GetLogsByTransaction(ctx context.Context, txHash string) ([]schema.Log, error) {
	var logs []schema.Log
	err := s.db.WithContext(ctx).
		Where("transaction_hash = ?", txHash).
		Order("log_index ASC").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get logs by transaction: %w", err)
	}
	return logs, nil
}

// GetTokenTransfersByTransaction retrieves the token transfers of a transaction ordered by log index
func (s *pgStore) GetTokenTransfersByTransaction(ctx context.Context, txHash string) ([]schema.TokenTransfer, error) {
	var transfers []schema.TokenTransfer
	err := s.db.WithContext(ctx).
		Where("transaction_hash = ?", txHash).
		Order("log_index ASC").
		Find(&transfers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get token transfers by transaction: %w", err)
	}
	return transfers, nil
}

// GetAddress retrieves an observed address
func (s *pgStore) GetAddress(ctx context.Context, address string) (*schema.Address, error) {
	var row schema.Address
	err := s.db.WithContext(ctx).Where("address = ?", address).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get address: %w", err)
	}
	return &row, nil
}
