package schema

import "time"

// SyncStateID is the primary key of the single sync_state row
const SyncStateID = 1

// SyncState represents the sync_state table - a singleton holding the sync cursor
type SyncState struct {
	// ID is always SyncStateID
	ID int `gorm:"column:id;primaryKey;autoIncrement:false"`
	// CurrentBlock is the highest height whose data, and the data of every height below it, is committed
	CurrentBlock uint64 `gorm:"column:current_block;not null;type:bigint"`
	// IsSyncing is true while a catch-up range is being ingested
	IsSyncing bool `gorm:"column:is_syncing;not null;default:false"`
	// LastSyncTime is when the cursor last moved
	LastSyncTime time.Time `gorm:"column:last_sync_time;not null;type:timestamptz"`
	// UpdatedAt is the timestamp when this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the SyncState model
func (SyncState) TableName() string {
	return "sync_state"
}
