package models

import "time"

// Entity is the GORM model for a source author/channel/group/user
// (spec.md §3 "Entity"). ID is externally assigned by the chat transport;
// 0 is the reserved "hidden user" row.
type Entity struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"type:text;not null"`
	Username  string    `gorm:"type:varchar(255)"`
	Type      string    `gorm:"type:varchar(16);not null"`
	AvatarURL *string   `gorm:"type:text"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;index"`
}

func (Entity) TableName() string { return "entities" }
