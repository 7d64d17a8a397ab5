// Package dto holds the read API's wire-shaped request and response
// structs, kept separate from the domain types in pkg/types so storage
// representation changes never leak into the HTTP contract (RAP, spec.md
// §4.7, §6).
package dto

import "time"

// ItemSummary is one row of a list response: enough to render a feed
// without a per-item detail fetch.
type ItemSummary struct {
	ID           int64      `json:"id"`
	ItemType     string     `json:"item_type"`
	ContentText  string     `json:"content_text,omitempty"`
	ThumbnailURL string     `json:"thumbnail_url,omitempty"`
	TgGroupID    *string    `json:"tg_group_id,omitempty"`
	TagIDs       []int32    `json:"tag_ids"`
	CreatedAt    time.Time  `json:"created_at"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
}

// ItemListResponse is GET /api/v1/items's body.
type ItemListResponse struct {
	Items      []ItemSummary `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// ItemDetail is GET /api/v1/items/:id's body: the full row plus the
// presigned asset URLs and resolved tag objects spec.md §6 requires.
type ItemDetail struct {
	ID              int64         `json:"id"`
	ItemType        string        `json:"item_type"`
	ContentText     string        `json:"content_text,omitempty"`
	MediaURL        string        `json:"media_url,omitempty"`
	ThumbnailURL    string        `json:"thumbnail_url,omitempty"`
	Width           int           `json:"width,omitempty"`
	Height          int           `json:"height,omitempty"`
	DurationSeconds float64       `json:"duration_seconds,omitempty"`
	TgChatID        int64         `json:"tg_chat_id"`
	TgUserID        *int64        `json:"tg_user_id,omitempty"`
	TgLink          string        `json:"tg_link,omitempty"`
	TgGroupID       *string       `json:"tg_group_id,omitempty"`
	Tags            []TagObject   `json:"tag_objects"`
	CreatedAt       time.Time     `json:"created_at"`
	ProcessedAt     *time.Time    `json:"processed_at,omitempty"`
}

// TagObject is a resolved tag attached to an item or search result.
type TagObject struct {
	ID        int32  `json:"id"`
	IconType  string `json:"icon_type"`
	IconValue string `json:"icon_value"`
	Label     string `json:"label,omitempty"`
	AssetURL  string `json:"asset_url,omitempty"`
	AssetMime string `json:"asset_mime,omitempty"`
}

// SearchResult is one row of GET /api/v1/search's body.
type SearchResult struct {
	Item ItemSummary `json:"item"`
	Tags []TagObject `json:"tags"`
}

// SearchResponse is GET /api/v1/search's body.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// EntitySummary is one row of GET /api/v1/entities's body.
type EntitySummary struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username,omitempty"`
	Type      string    `json:"type"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntityListResponse is GET /api/v1/entities's body.
type EntityListResponse struct {
	Entities   []EntitySummary `json:"entities"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// CreateTagRequest is POST /api/v1/tags's body.
type CreateTagRequest struct {
	IconType  string `json:"icon_type" validate:"required,oneof=emoji tmoji"`
	IconValue string `json:"icon_value" validate:"required"`
	Label     string `json:"label,omitempty"`
}

// UpdateTagRequest is PATCH /api/v1/tags/:id's body.
type UpdateTagRequest struct {
	Label string `json:"label" validate:"required"`
}
