package schema

import (
	"time"

	"github.com/feral-file/ff-chain-indexer/internal/domain"
)

// Transaction represents the transactions table
type Transaction struct {
	// Hash is the transaction hash and primary key
	Hash string `gorm:"column:hash;primaryKey;type:text"`
	// BlockNumber references the block containing this transaction
	BlockNumber uint64 `gorm:"column:block_number;not null;type:bigint;uniqueIndex:idx_transactions_block_index"`
	// TransactionIndex is the position within the block
	TransactionIndex uint `gorm:"column:transaction_index;not null;type:integer;uniqueIndex:idx_transactions_block_index"`
	// FromAddress is the sender
	FromAddress string `gorm:"column:from_address;not null;type:text;index:idx_transactions_from"`
	// ToAddress is the recipient (nil for contract creation)
	ToAddress *string `gorm:"column:to_address;type:text;index:idx_transactions_to"`
	// Value is the amount of wei transferred (stored as string to support up to 78 digits)
	Value string `gorm:"column:value;not null;type:numeric(78,0)"`
	// Gas is the gas limit of the transaction
	Gas uint64 `gorm:"column:gas;not null;type:bigint"`
	// GasPrice is the gas price offered by the sender
	GasPrice string `gorm:"column:gas_price;not null;type:numeric(78,0)"`
	// GasUsed is the gas consumed as reported by the receipt
	GasUsed uint64 `gorm:"column:gas_used;not null;type:bigint"`
	// Fee is gas used multiplied by the effective gas price
	Fee string `gorm:"column:fee;not null;type:numeric(78,0)"`
	// Nonce is the sender nonce
	Nonce uint64 `gorm:"column:nonce;not null;type:bigint"`
	// Input is the call data (hex)
	Input string `gorm:"column:input;not null;type:text"`
	// Method is the decoded method name or raw selector, informational only
	Method string `gorm:"column:method;not null;type:text"`
	// Status is the execution outcome
	Status domain.TransactionStatus `gorm:"column:status;not null;type:text"`
	// ContractAddress is the address of the created contract, if any
	ContractAddress *string `gorm:"column:contract_address;type:text"`
	// Timestamp is the block timestamp
	Timestamp time.Time `gorm:"column:timestamp;not null;type:timestamptz"`
	// CreatedAt is the timestamp when this record was indexed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Transaction model
func (Transaction) TableName() string {
	return "transactions"
}
