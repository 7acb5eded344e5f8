package schema

import "time"

// ChainStatsID is the primary key of the single chain_stats row
const ChainStatsID = 1

// ChainStats represents the chain_stats table - best-effort aggregate counters
type ChainStats struct {
	ID                  int       `gorm:"column:id;primaryKey;autoIncrement:false"`
	LatestBlockNumber   uint64    `gorm:"column:latest_block_number;not null;type:bigint"`
	LatestBlockHash     string    `gorm:"column:latest_block_hash;not null;type:text"`
	ChainHead           uint64    `gorm:"column:chain_head;not null;type:bigint"`
	TotalBlocks         int64     `gorm:"column:total_blocks;not null"`
	TotalTransactions   int64     `gorm:"column:total_transactions;not null"`
	TotalTokenTransfers int64     `gorm:"column:total_token_transfers;not null"`
	TotalAddresses      int64     `gorm:"column:total_addresses;not null"`
	TotalReorgs         int64     `gorm:"column:total_reorgs;not null"`
	UpdatedAt           time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the ChainStats model
func (ChainStats) TableName() string {
	return "chain_stats"
}
