// models/gorm_models.go
package models

import (
	"time"
)

// GormKVEntry 有序键值存储的一行
// Key holds the encoded store key; byte order of Key is store order.
type GormKVEntry struct {
	Collection string `gorm:"primaryKey;size:64"`
	Key        []byte `gorm:"primaryKey;column:entry_key"`
	Value      []byte `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (GormKVEntry) TableName() string {
	return "kv_entries"
}
