package model

import "time"

// KVEntry 本地键值存储表，一行保存一个 JSON 序列化的值
type KVEntry struct {
	Key       string `gorm:"primaryKey;size:191"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (KVEntry) TableName() string {
	return "kv_entries"
}
