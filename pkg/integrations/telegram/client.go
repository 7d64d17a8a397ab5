// Package telegram models the chat-transport collaborator spec.md §1
// treats as external, describing only its observable interface: submission
// ingestion, reaction feedback, and sticker/avatar retrieval.
package telegram

import "context"

// Client is the chat-transport surface the rest of the engine depends on.
// spec.md deliberately leaves the transport external; this interface is the
// seam a test double substitutes for the concrete Bot API implementation.
type Client interface {
	// GetFile resolves a file id to its transport-reported path and raw
	// bytes (EP stage 1).
	GetFile(ctx context.Context, fileID string) (path string, data []byte, err error)

	// SendMessage posts a new message and returns its id, for the feedback
	// emitter's first error reply (FE, spec.md §4.3).
	SendMessage(ctx context.Context, chatID int64, text string) (messageID int, err error)

	// EditMessage rewrites an existing message's text, for idempotent
	// error-reply updates on retry.
	EditMessage(ctx context.Context, chatID int64, messageID int, text string) error

	// DeleteMessage removes a message, used to clear a stale error reply on
	// eventual success.
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error

	// SetReaction sets the bot's own reaction on a message (FE, AC).
	SetReaction(ctx context.Context, chatID int64, messageID int, emoji string) error

	// GetStickerFile resolves a tmoji's sticker file id to raw bytes and a
	// mime type, for ETR's custom-emoji asset sideload (spec.md §4.5).
	GetStickerFile(ctx context.Context, fileID string) (data []byte, mime string, err error)

	// GetChatAvatarFileID resolves a chat/user id's current profile photo to
	// a file id, for the avatar sideload sweep (spec.md §E.2). Returns an
	// empty file id, no error, when the chat has no photo set.
	GetChatAvatarFileID(ctx context.Context, chatID int64) (fileID string, err error)

	// Updates starts long-polling and returns a channel of submissions and
	// reaction events. The channel closes when ctx is done or polling
	// fails unrecoverably.
	Updates(ctx context.Context) (<-chan Update, error)
}
