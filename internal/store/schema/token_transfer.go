package schema

import (
	"time"

	"github.com/feral-file/ff-chain-indexer/internal/domain"
)

// TokenTransfer represents the token_transfers table.
// Every row shares its key with exactly one row in logs.
type TokenTransfer struct {
	// TransactionHash references the log's transaction
	TransactionHash string `gorm:"column:transaction_hash;primaryKey;type:text"`
	// LogIndex references the log the transfer was decoded from
	LogIndex uint `gorm:"column:log_index;primaryKey;type:integer"`
	// BlockNumber is denormalized for range deletes on reorg
	BlockNumber uint64 `gorm:"column:block_number;not null;type:bigint;index:idx_token_transfers_block_number"`
	// TokenAddress is the token contract
	TokenAddress string `gorm:"column:token_address;not null;type:text;index:idx_token_transfers_token"`
	// TokenStandard identifies the decoded event shape (erc20, erc721, erc1155)
	TokenStandard domain.TokenStandard `gorm:"column:token_standard;not null;type:text"`
	// FromAddress is the sender (zero address for mints)
	FromAddress string `gorm:"column:from_address;not null;type:text;index:idx_token_transfers_from"`
	// ToAddress is the recipient (zero address for burns)
	ToAddress string `gorm:"column:to_address;not null;type:text;index:idx_token_transfers_to"`
	// Value is the amount transferred (stored as string to support up to 78 digits)
	Value string `gorm:"column:value;not null;type:numeric(78,0)"`
	// TokenID is the token identifier for ERC-721 and ERC-1155 transfers
	TokenID *string `gorm:"column:token_id;type:numeric(78,0)"`
	// CreatedAt is the timestamp when this record was indexed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the TokenTransfer model
func (TokenTransfer) TableName() string {
	return "token_transfers"
}
