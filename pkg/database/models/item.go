package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// Item is the GORM model for the canonical stored-content row
// (spec.md §3 "Item"). The dimension of the vector columns is fixed by the
// configured embedding/CLIP models at migration time.
type Item struct {
	ID              int64          `gorm:"primaryKey;autoIncrement"`
	ItemType        string         `gorm:"type:varchar(16);not null;index"`
	ContentHash     string         `gorm:"type:varchar(32);not null;index"`
	S3Key           *string        `gorm:"type:text"`
	ThumbnailKey    *string        `gorm:"type:text"`
	ContentText     string         `gorm:"type:text"`
	SearchableText  string         `gorm:"type:text"`
	TextEmbedding   pgvector.Vector `gorm:"type:vector(1536)"`
	VisualEmbedding pgvector.Vector `gorm:"type:vector(512)"`
	Meta            datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	TgChatID        int64          `gorm:"not null;index"`
	TgUserID        *int64
	TgMessageID     int64          `gorm:"not null"`
	TgGroupID       *string        `gorm:"type:varchar(64);index"`
	TagIDs          pq.Int32Array  `gorm:"type:integer[]"`
	CreatedAt       time.Time      `gorm:"autoCreateTime;index"`
	ProcessedAt     *time.Time
}

func (Item) TableName() string { return "items" }
