package domain

import "time"

// NotificationType is the kind of notification published for read-side consumers
type NotificationType string

const (
	NotificationBlockIndexed     NotificationType = "block_indexed"
	NotificationChainReorganized NotificationType = "reorg"
)

// Notification is published after the indexer has committed a change to the store.
// Consumers use it to invalidate caches; it is never the source of truth.
type Notification struct {
	Chain     Chain            `json:"chain"`
	Type      NotificationType `json:"type"`
	Timestamp time.Time        `json:"timestamp"`

	// For block_indexed: the range committed in this pass
	FromBlock uint64 `json:"from_block,omitempty"`
	ToBlock   uint64 `json:"to_block,omitempty"`
	BlockHash string `json:"block_hash,omitempty"` // hash of ToBlock

	// For reorg
	Ancestor      uint64 `json:"ancestor,omitempty"`
	Depth         uint64 `json:"depth,omitempty"`
	InvalidatedAt uint64 `json:"invalidated_at,omitempty"` // first height removed
}
