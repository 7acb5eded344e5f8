package schema

import "time"

// Address represents the addresses table - every address observed in an indexed block
type Address struct {
	// Address is the lowercase hex address and primary key
	Address string `gorm:"column:address;primaryKey;type:text"`
	// FirstSeen is the block time the address was first recorded; never rewritten
	FirstSeen time.Time `gorm:"column:first_seen;not null;type:timestamptz"`
	// LastSeen is the latest block time the address was observed; only moves forward
	LastSeen time.Time `gorm:"column:last_seen;not null;type:timestamptz"`
}

// TableName specifies the table name for the Address model
func (Address) TableName() string {
	return "addresses"
}
