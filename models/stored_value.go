package models

import (
	"time"
)

// StoredValue is one entry of the durable key/value table.
// "key" is reserved in MySQL, so the column is store_key.
type StoredValue struct {
	Key       string    `gorm:"column:store_key;primaryKey;type:varchar(191)"`
	Value     string    `gorm:"column:store_value;type:text;not null"`
	UpdatedAt time.Time `gorm:"not null;index:idx_updated_at"`
}

func (StoredValue) TableName() string {
	return "stored_values"
}
