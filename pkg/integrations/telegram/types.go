package telegram

import "github.com/SkyAerope/Brainpile/pkg/types"

// MessageOrigin is the resolved forward origin of an incoming message,
// mapped from the chat transport's polymorphic forward-origin variants
// (spec.md §9 "Polymorphic message origins").
type MessageOrigin struct {
	// Kind is one of "user", "chat", "channel", "hidden_user".
	Kind              string
	ID                *int64
	Name              string
	Username          *string
	EntityType        types.EntityType
	ForwardSenderName string
}

// IncomingMessage is a chat-transport submission ready for task enqueueing.
type IncomingMessage struct {
	ChatID       int64
	MessageID    int
	FromUserID   *int64
	FromName     string
	FromUsername *string
	FileID       string
	ItemType     types.ItemType
	ContentText  string
	MediaGroupID *string // tg_group_id, set for album members
	Forward      *MessageOrigin
}

// ReactionKey identifies one reaction by transport-level identity: a plain
// emoji string, or a tmoji's opaque custom-emoji id.
type ReactionKey struct {
	IconType  types.IconType
	IconValue string
}

// ReactionUpdate is a message_reaction webhook/poll event.
type ReactionUpdate struct {
	ChatID    int64
	MessageID int
	Old       []ReactionKey
	New       []ReactionKey
}

// Update is one item off the long-poll stream: exactly one of Message or
// Reaction is set.
type Update struct {
	Message  *IncomingMessage
	Reaction *ReactionUpdate
}
