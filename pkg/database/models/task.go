package models

import (
	"time"

	"gorm.io/datatypes"
)

// Task is the GORM model for the durable submission queue row
// (spec.md §3 "Task", §4.1 TQ).
type Task struct {
	ID              int64          `gorm:"primaryKey;autoIncrement"`
	BotChatID       int64          `gorm:"not null;uniqueIndex:idx_tasks_bot_coords"`
	BotMessageID    int64          `gorm:"not null;uniqueIndex:idx_tasks_bot_coords"`
	SourceChatID    int64          `gorm:"not null"`
	SourceMessageID int64          `gorm:"not null"`
	SourceUserID    *int64
	Status          string         `gorm:"type:varchar(16);not null;index;default:pending"`
	Payload         datatypes.JSON `gorm:"type:jsonb;not null"`
	ItemID          *int64         `gorm:"index"`
	ErrorMessage    *string        `gorm:"type:text"`
	ErrorReplyID    *int64
	CreatedAt       time.Time      `gorm:"autoCreateTime;index"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime"`
}

func (Task) TableName() string { return "tasks" }
