package domain

import "errors"

var (
	// ErrSubscriptionFailed is returned when subscription to new heads fails
	ErrSubscriptionFailed = errors.New("subscription failed")

	// ErrBlockNotFound is returned when the chain has no block at the requested height or hash
	ErrBlockNotFound = errors.New("block not found")

	// ErrTransactionNotFound is returned when a transaction cannot be found on chain or in the store
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrReceiptNotFound is returned when a transaction receipt is not yet available
	ErrReceiptNotFound = errors.New("receipt not found")

	// ErrBlockChanged is returned when data fetched for a block belongs to a different block hash,
	// which means the block was replaced while it was being processed
	ErrBlockChanged = errors.New("block changed during processing")

	// ErrReorgDetected is returned when an incoming block conflicts with stored blocks
	ErrReorgDetected = errors.New("chain reorganization detected")

	// ErrReorgTooDeep is returned when no common ancestor exists within the configured maximum depth.
	// It is not recoverable without operator intervention.
	ErrReorgTooDeep = errors.New("reorganization exceeds maximum depth")
)
