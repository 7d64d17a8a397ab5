// Package handlers implements the Read API Projection's HTTP handlers
// (RAP, spec.md §4.7-§4.8, §6).
package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SkyAerope/Brainpile/pkg/database/repository"

	"github.com/gofiber/fiber/v2"
)

// Presigner grants time-limited GET access to an object-store key.
type Presigner interface {
	Presign(ctx context.Context, key string) (string, error)
}

const proxyPrefix = "PROXY:"

// resolveURL turns a possibly-nil, possibly-PROXY-sentinel column value into
// a URL safe to hand to a client. A PROXY:<key> value is presigned at read
// time; a plain URL passes through unchanged (spec.md §9 "Avatar and
// custom-emoji sideloading": avatar_url and asset_url are URL-typed columns
// that may hold either a real URL or a deferred PROXY sentinel).
func resolveURL(ctx context.Context, presigner Presigner, raw *string) string {
	if raw == nil || *raw == "" {
		return ""
	}
	if key, ok := strings.CutPrefix(*raw, proxyPrefix); ok {
		url, err := presigner.Presign(ctx, key)
		if err != nil {
			return ""
		}
		return url
	}
	return *raw
}

// presignKey presigns a plain object-store key. Unlike avatar_url/asset_url,
// an item's s3_key/thumbnail_key columns are never URL-typed: they always
// hold a bare key and always need presigning at read time.
func presignKey(ctx context.Context, presigner Presigner, key *string) string {
	if key == nil || *key == "" {
		return ""
	}
	url, err := presigner.Presign(ctx, *key)
	if err != nil {
		return ""
	}
	return url
}

// telegramBase1e12 is the offset Telegram applies to supergroup/channel
// chat ids when mapping them onto the public "t.me/c/<id>/<msg>" link
// scheme (spec.md §6 "Source link synthesis").
const telegramBase1e12 = 1_000_000_000_000

// sourceLink synthesizes the best-effort deep link to a submission's
// origin message, per spec.md §6.
func sourceLink(chatID int64, msgID int64) string {
	switch {
	case chatID <= -telegramBase1e12:
		if msgID == 0 {
			return fmt.Sprintf("https://t.me/c/%d", chatID+telegramBase1e12)
		}
		return fmt.Sprintf("https://t.me/c/%d/%d", chatID+telegramBase1e12, msgID)
	case chatID > 0:
		return fmt.Sprintf("tg://user?id=%d", chatID)
	default:
		return ""
	}
}

// encodeEntityCursor renders an EntityCursor as the "<rfc3339>|<id>" token
// the entity listing endpoint hands back as next_cursor (spec.md §4.7).
func encodeEntityCursor(c repository.EntityCursor) string {
	return c.UpdatedAt.UTC().Format(time.RFC3339Nano) + "|" + strconv.FormatInt(c.ID, 10)
}

// decodeEntityCursor parses a next_cursor token back into an EntityCursor.
func decodeEntityCursor(token string) (*repository.EntityCursor, error) {
	if token == "" {
		return nil, nil
	}
	parts := strings.SplitN(token, "|", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("malformed cursor %q", token)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, fmt.Errorf("malformed cursor timestamp: %w", err)
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed cursor id: %w", err)
	}
	return &repository.EntityCursor{UpdatedAt: updatedAt, ID: id}, nil
}

// queryInt parses a query-string integer parameter, falling back to def
// when absent or malformed.
func queryInt(c *fiber.Ctx, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// clampLimit enforces the RAP's [1, max] listing-size bound (spec.md §4.7:
// "limit capped at 100, default 20").
func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
