package store

import (
	"context"

	"github.com/feral-file/ff-chain-indexer/internal/domain"
	"github.com/feral-file/ff-chain-indexer/internal/store/schema"
)

// IngestBlockInput is everything derived from one block. It is written as a single atomic unit.
type IngestBlockInput struct {
	Block          *domain.Block
	Transactions   []domain.IndexedTransaction
	Logs           []domain.Log
	TokenTransfers []domain.TokenTransfer
	Addresses      []domain.AddressObservation
}

// InvalidationResult reports the rows removed by a reorg invalidation
type InvalidationResult struct {
	FromBlock      uint64
	Blocks         int64
	Transactions   int64
	Logs           int64
	TokenTransfers int64
}

// UpdateChainStatsInput holds the values the indexer knows when refreshing chain stats
type UpdateChainStatsInput struct {
	ChainHead uint64
	NewReorgs int64
}

// Store defines the interface for database operations
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// IngestBlock writes a block with its transactions, logs, token transfers and addresses in one transaction.
	// Any previously stored data at the block's height is replaced.
	IngestBlock(ctx context.Context, input IngestBlockInput) error
	// GetBlockByNumber retrieves the stored block at a height, nil if none
	GetBlockByNumber(ctx context.Context, number uint64) (*schema.Block, error)
	// GetLatestBlock retrieves the highest stored block, nil if the table is empty
	GetLatestBlock(ctx context.Context) (*schema.Block, error)
	// GetTransactionByHash retrieves a transaction by hash, nil if none
	GetTransactionByHash(ctx context.Context, hash string) (*schema.Transaction, error)
	// GetTransactionsByBlock retrieves the transactions of a block ordered by index
	GetTransactionsByBlock(ctx context.Context, number uint64) ([]schema.Transaction, error)
	// GetLogsByTransaction retrieves the logs of a transaction ordered by index
	GetLogsByTransaction(ctx context.Context, txHash string) ([]schema.Log, error)
	// GetTokenTransfersByTransaction retrieves the token transfers of a transaction ordered by log index
	GetTokenTransfersByTransaction(ctx context.Context, txHash string) ([]schema.TokenTransfer, error)
	// GetAddress retrieves an observed address, nil if none
	GetAddress(ctx context.Context, address string) (*schema.Address, error)

	// InvalidateFrom deletes every token transfer, log, transaction and block at or above fromBlock
	// and rewinds the sync cursor to fromBlock-1, all in one transaction
	InvalidateFrom(ctx context.Context, fromBlock uint64) (*InvalidationResult, error)

	// GetSyncCursor retrieves the sync cursor, nil if it was never initialized
	GetSyncCursor(ctx context.Context) (*schema.SyncState, error)
	// InitSyncCursor creates the sync cursor at block if it does not exist and returns the stored row
	InitSyncCursor(ctx context.Context, block uint64) (*schema.SyncState, error)
	// AdvanceSyncCursor moves the cursor forward to block; it never moves it backward.
	// Returns whether the cursor moved.
	AdvanceSyncCursor(ctx context.Context, block uint64) (bool, error)
	// SetSyncing records whether a catch-up range is in progress
	SetSyncing(ctx context.Context, syncing bool) error

	// GetChainStats retrieves the chain stats, nil if never written
	GetChainStats(ctx context.Context) (*schema.ChainStats, error)
	// UpdateChainStats recomputes the chain stats from the stored tables
	UpdateChainStats(ctx context.Context, input UpdateChainStatsInput) error
}
