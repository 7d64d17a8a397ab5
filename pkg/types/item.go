// Package types holds the storage-agnostic domain structs for the
// ingestion-and-retrieval engine: Item, Task, Entity, Tag.
package types

import "time"

// ItemType identifies the kind of content an Item carries.
type ItemType string

const (
	ItemTypeImage ItemType = "image"
	ItemTypeVideo ItemType = "video"
	ItemTypeText  ItemType = "text"
)

// ItemMeta is the free-form JSON metadata attached to an Item: decoded
// dimensions, duration, file size, and forward-sender bookkeeping.
type ItemMeta struct {
	Width             int    `json:"width,omitempty"`
	Height            int    `json:"height,omitempty"`
	DurationSeconds   float64 `json:"duration_seconds,omitempty"`
	FileSize          int64  `json:"file_size,omitempty"`
	ForwardSenderName string `json:"forward_sender_name,omitempty"`
}

// Item is the canonical unit of stored content (spec.md §3 "Item").
type Item struct {
	ID               int64
	ItemType         ItemType
	ContentHash      string
	S3Key            *string
	ThumbnailKey     *string
	ContentText      string
	SearchableText   string
	TextEmbedding    []float32
	VisualEmbedding  []float32
	Meta             ItemMeta
	TgChatID         int64
	TgUserID         *int64
	TgMessageID      int64
	TgGroupID        *string
	TagIDs           []int32
	CreatedAt        time.Time
	ProcessedAt      *time.Time
}
