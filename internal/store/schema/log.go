package schema

import (
	"time"

	"gorm.io/datatypes"
)

// Log represents the logs table - event logs keyed by (transaction_hash, log_index)
type Log struct {
	// TransactionHash references the transaction that emitted the log
	TransactionHash string `gorm:"column:transaction_hash;primaryKey;type:text"`
	// LogIndex is the position of the log within the block
	LogIndex uint `gorm:"column:log_index;primaryKey;type:integer"`
	// BlockNumber is denormalized for range deletes on reorg
	BlockNumber uint64 `gorm:"column:block_number;not null;type:bigint;index:idx_logs_block_number"`
	// Address is the emitting contract
	Address string `gorm:"column:address;not null;type:text;index:idx_logs_address"`
	// Topics is the JSON array of indexed topics
	Topics datatypes.JSON `gorm:"column:topics;not null;type:jsonb"`
	// Data is the non-indexed payload (hex)
	Data string `gorm:"column:data;not null;type:text"`
	// CreatedAt is the timestamp when this record was indexed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Log model
func (Log) TableName() string {
	return "logs"
}
