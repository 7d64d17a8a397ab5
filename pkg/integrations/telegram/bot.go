package telegram

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/SkyAerope/Brainpile/pkg/core"
	"github.com/SkyAerope/Brainpile/pkg/types"
)

const apiBase = "https://api.telegram.org"

// Bot is a direct net/http long-polling implementation of Client against the
// Bot API, grounded on the pack's telebot-shaped wire types (the single
// telebot sighting in the corpus is a leaf reference file, not a teacher
// repo, so this talks to the HTTP surface directly rather than depending on
// a client library; see DESIGN.md).
type Bot struct {
	token  string
	http   *http.Client
	offset int64
}

// NewBot builds a Bot against the configured bot token.
func NewBot(token string) *Bot {
	return &Bot{
		token: token,
		http:  &http.Client{Timeout: 65 * time.Second},
	}
}

func (b *Bot) call(ctx context.Context, method string, params url.Values, out interface{}) error {
	endpoint := fmt.Sprintf("%s/bot%s/%s", apiBase, b.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return &core.TransportError{Op: "telegram." + method, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.http.Do(req)
	if err != nil {
		return &core.TransportError{Op: "telegram." + method, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &core.TransportError{Op: "telegram." + method, Err: err}
	}

	var envelope struct {
		OK          bool            `json:"ok"`
		Description string          `json:"description"`
		Result      json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return &core.TransportError{Op: "telegram." + method, Err: err}
	}
	if !envelope.OK {
		return &core.TransportError{Op: "telegram." + method, Err: fmt.Errorf("%s", envelope.Description)}
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return &core.TransportError{Op: "telegram." + method, Err: err}
		}
	}
	return nil
}

type tgFile struct {
	FileID   string `json:"file_id"`
	FilePath string `json:"file_path"`
}

// GetFile resolves a file id to its transport path and downloads its bytes.
func (b *Bot) GetFile(ctx context.Context, fileID string) (string, []byte, error) {
	var file tgFile
	if err := b.call(ctx, "getFile", url.Values{"file_id": {fileID}}, &file); err != nil {
		return "", nil, err
	}

	downloadURL := fmt.Sprintf("%s/file/bot%s/%s", apiBase, b.token, file.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return "", nil, &core.TransportError{Op: "telegram.GetFile", Err: err}
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return "", nil, &core.TransportError{Op: "telegram.GetFile", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, &core.TransportError{Op: "telegram.GetFile", Err: err}
	}
	return file.FilePath, data, nil
}

// SendMessage posts a new message, returning its id.
func (b *Bot) SendMessage(ctx context.Context, chatID int64, text string) (int, error) {
	var sent struct {
		MessageID int `json:"message_id"`
	}
	params := url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"text":    {text},
	}
	if err := b.call(ctx, "sendMessage", params, &sent); err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

// EditMessage rewrites a message's text.
func (b *Bot) EditMessage(ctx context.Context, chatID int64, messageID int, text string) error {
	params := url.Values{
		"chat_id":    {strconv.FormatInt(chatID, 10)},
		"message_id": {strconv.Itoa(messageID)},
		"text":       {text},
	}
	return b.call(ctx, "editMessageText", params, nil)
}

// DeleteMessage removes a message.
func (b *Bot) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	params := url.Values{
		"chat_id":    {strconv.FormatInt(chatID, 10)},
		"message_id": {strconv.Itoa(messageID)},
	}
	return b.call(ctx, "deleteMessage", params, nil)
}

// SetReaction sets the bot's own reaction on a message, replacing whatever
// it had set previously.
func (b *Bot) SetReaction(ctx context.Context, chatID int64, messageID int, emoji string) error {
	reaction, err := json.Marshal([]map[string]string{{"type": "emoji", "emoji": emoji}})
	if err != nil {
		return &core.TransportError{Op: "telegram.SetReaction", Err: err}
	}
	params := url.Values{
		"chat_id":    {strconv.FormatInt(chatID, 10)},
		"message_id": {strconv.Itoa(messageID)},
		"reaction":   {string(reaction)},
	}
	return b.call(ctx, "setMessageReaction", params, nil)
}

// GetStickerFile resolves a sticker file id to raw asset bytes and a mime
// type, decompressing gzip-wrapped Lottie (".tgs") payloads into raw JSON
// and passing ".webp"/".webm" stickers through unchanged (ETR, spec.md
// §4.5 step 3).
func (b *Bot) GetStickerFile(ctx context.Context, fileID string) ([]byte, string, error) {
	filePath, data, err := b.GetFile(ctx, fileID)
	if err != nil {
		return nil, "", err
	}

	switch strings.ToLower(path.Ext(filePath)) {
	case ".tgs":
		reader, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, "", &core.MediaDecodeError{Op: "telegram.GetStickerFile", Err: err}
		}
		defer reader.Close()
		raw, err := io.ReadAll(reader)
		if err != nil {
			return nil, "", &core.MediaDecodeError{Op: "telegram.GetStickerFile", Err: err}
		}
		return raw, "application/json", nil
	case ".webm":
		return data, "video/webm", nil
	default:
		return data, "image/webp", nil
	}
}

type tgChatFull struct {
	Photo *tgChatPhoto `json:"photo"`
}

type tgChatPhoto struct {
	SmallFileID string `json:"small_file_id"`
}

// GetChatAvatarFileID looks up a chat's current profile photo, grounded on
// original_source/core/src/bot.rs's update_entity_avatar (bot.get_chat ->
// photo.small_file_id).
func (b *Bot) GetChatAvatarFileID(ctx context.Context, chatID int64) (string, error) {
	var chat tgChatFull
	if err := b.call(ctx, "getChat", url.Values{"chat_id": {strconv.FormatInt(chatID, 10)}}, &chat); err != nil {
		return "", err
	}
	if chat.Photo == nil {
		return "", nil
	}
	return chat.Photo.SmallFileID, nil
}

// tgUpdate mirrors the slice of Bot API fields this engine consumes from
// getUpdates; every other field on the wire is ignored.
type tgUpdate struct {
	UpdateID        int64            `json:"update_id"`
	Message         *tgMessage       `json:"message"`
	MessageReaction *tgMessageReact  `json:"message_reaction"`
}

type tgUser struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

type tgChat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Username string `json:"username"`
}

type tgPhotoSize struct {
	FileID string `json:"file_id"`
}

type tgVideo struct {
	FileID string `json:"file_id"`
}

type tgForwardOrigin struct {
	Type             string  `json:"type"`
	SenderUser       *tgUser `json:"sender_user"`
	SenderChat       *tgChat `json:"sender_chat"`
	Chat             *tgChat `json:"chat"`
	MessageID        int     `json:"message_id"`
	SenderUserName   string  `json:"sender_user_name"`
}

type tgMessage struct {
	MessageID     int              `json:"message_id"`
	From          *tgUser          `json:"from"`
	Chat          tgChat           `json:"chat"`
	Text          string           `json:"text"`
	Caption       string           `json:"caption"`
	Photo         []tgPhotoSize    `json:"photo"`
	Video         *tgVideo         `json:"video"`
	MediaGroupID  string           `json:"media_group_id"`
	ForwardOrigin *tgForwardOrigin `json:"forward_origin"`
}

type tgReactionType struct {
	Type          string `json:"type"`
	Emoji         string `json:"emoji"`
	CustomEmojiID string `json:"custom_emoji_id"`
}

type tgMessageReact struct {
	Chat        tgChat           `json:"chat"`
	MessageID   int              `json:"message_id"`
	OldReaction []tgReactionType `json:"old_reaction"`
	NewReaction []tgReactionType `json:"new_reaction"`
}

// Updates starts the getUpdates long-poll loop and translates raw Bot API
// updates into the engine's submission/reaction event types.
func (b *Bot) Updates(ctx context.Context) (<-chan Update, error) {
	out := make(chan Update)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			var batch []tgUpdate
			params := url.Values{
				"timeout":         {"55"},
				"offset":          {strconv.FormatInt(b.offset, 10)},
				"allowed_updates": {`["message","message_reaction"]`},
			}
			if err := b.call(ctx, "getUpdates", params, &batch); err != nil {
				select {
				case <-ctx.Done():
					return
				case <-time.After(5 * time.Second):
				}
				continue
			}

			for _, u := range batch {
				if u.UpdateID >= b.offset {
					b.offset = u.UpdateID + 1
				}
				if translated, ok := translateUpdate(u); ok {
					select {
					case out <- translated:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return out, nil
}

func translateUpdate(u tgUpdate) (Update, bool) {
	switch {
	case u.Message != nil:
		msg, ok := translateMessage(u.Message)
		if !ok {
			return Update{}, false
		}
		return Update{Message: msg}, true
	case u.MessageReaction != nil:
		return Update{Reaction: translateReaction(u.MessageReaction)}, true
	default:
		return Update{}, false
	}
}

func translateMessage(m *tgMessage) (*IncomingMessage, bool) {
	out := &IncomingMessage{
		ChatID:    m.Chat.ID,
		MessageID: m.MessageID,
	}
	if m.MediaGroupID != "" {
		groupID := m.MediaGroupID
		out.MediaGroupID = &groupID
	}

	switch {
	case len(m.Photo) > 0:
		out.ItemType = types.ItemTypeImage
		out.FileID = m.Photo[len(m.Photo)-1].FileID
		out.ContentText = m.Caption
	case m.Video != nil:
		out.ItemType = types.ItemTypeVideo
		out.FileID = m.Video.FileID
		out.ContentText = m.Caption
	case m.Text != "":
		out.ItemType = types.ItemTypeText
		out.ContentText = m.Text
	default:
		return nil, false
	}

	if m.ForwardOrigin != nil {
		out.Forward = translateForwardOrigin(m.ForwardOrigin)
	} else if m.From != nil {
		out.FromUserID = &m.From.ID
		out.FromName = strings.TrimSpace(m.From.FirstName + " " + m.From.LastName)
		if m.From.Username != "" {
			username := m.From.Username
			out.FromUsername = &username
		}
	}

	return out, true
}

func translateForwardOrigin(f *tgForwardOrigin) *MessageOrigin {
	switch f.Type {
	case "user":
		name := strings.TrimSpace(f.SenderUser.FirstName + " " + f.SenderUser.LastName)
		entityType := types.EntityUser
		if f.SenderUser.IsBot {
			entityType = types.EntityBot
		}
		origin := &MessageOrigin{Kind: "user", ID: &f.SenderUser.ID, Name: name, EntityType: entityType}
		if f.SenderUser.Username != "" {
			username := f.SenderUser.Username
			origin.Username = &username
		}
		return origin
	case "chat":
		entityType := chatEntityType(f.SenderChat.Type)
		origin := &MessageOrigin{Kind: "chat", ID: &f.SenderChat.ID, Name: f.SenderChat.Title, EntityType: entityType}
		if f.SenderChat.Username != "" {
			username := f.SenderChat.Username
			origin.Username = &username
		}
		return origin
	case "channel":
		origin := &MessageOrigin{Kind: "channel", ID: &f.Chat.ID, Name: f.Chat.Title, EntityType: types.EntityChannel}
		if f.Chat.Username != "" {
			username := f.Chat.Username
			origin.Username = &username
		}
		return origin
	default: // "hidden_user"
		return &MessageOrigin{Kind: "hidden_user", ForwardSenderName: f.SenderUserName, EntityType: types.EntityHidden}
	}
}

func chatEntityType(tgType string) types.EntityType {
	switch tgType {
	case "group":
		return types.EntityGroup
	case "supergroup":
		return types.EntitySupergroup
	case "channel":
		return types.EntityChannel
	case "private":
		return types.EntityPrivate
	default:
		return types.EntityGroup
	}
}

func translateReaction(r *tgMessageReact) *ReactionUpdate {
	return &ReactionUpdate{
		ChatID:    r.Chat.ID,
		MessageID: r.MessageID,
		Old:       translateReactionKeys(r.OldReaction),
		New:       translateReactionKeys(r.NewReaction),
	}
}

func translateReactionKeys(in []tgReactionType) []ReactionKey {
	out := make([]ReactionKey, 0, len(in))
	for _, r := range in {
		if r.Type == "custom_emoji" {
			out = append(out, ReactionKey{IconType: types.IconTmoji, IconValue: r.CustomEmojiID})
		} else {
			out = append(out, ReactionKey{IconType: types.IconEmoji, IconValue: r.Emoji})
		}
	}
	return out
}
