package schema

import "time"

// Block represents the blocks table - one row per canonical block height
type Block struct {
	// Number is the block height and primary key; a reorg replaces the row at a height
	Number uint64 `gorm:"column:number;primaryKey;autoIncrement:false;type:bigint"`
	// Hash is the block hash (lowercase hex)
	Hash string `gorm:"column:hash;not null;type:text;uniqueIndex:idx_blocks_hash"`
	// ParentHash is the hash of the previous block
	ParentHash string `gorm:"column:parent_hash;not null;type:text"`
	// Timestamp is the block timestamp
	Timestamp time.Time `gorm:"column:timestamp;not null;type:timestamptz"`
	// GasUsed is the total gas used by all transactions in the block
	GasUsed uint64 `gorm:"column:gas_used;not null;type:bigint"`
	// GasLimit is the block gas limit
	GasLimit uint64 `gorm:"column:gas_limit;not null;type:bigint"`
	// BaseFeePerGas is the EIP-1559 base fee (stored as string to support up to 78 digits, nil before London)
	BaseFeePerGas *string `gorm:"column:base_fee_per_gas;type:numeric(78,0)"`
	// Miner is the fee recipient
	Miner string `gorm:"column:miner;not null;type:text"`
	// Size is the encoded block size in bytes
	Size uint64 `gorm:"column:size;not null;type:bigint"`
	// TxCount is the number of transactions in the block
	TxCount int `gorm:"column:tx_count;not null"`
	// CreatedAt is the timestamp when this record was indexed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Block model
func (Block) TableName() string {
	return "blocks"
}
