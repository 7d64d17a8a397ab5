package worker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/SkyAerope/Brainpile/pkg/album"
	"github.com/SkyAerope/Brainpile/pkg/core"
	"github.com/SkyAerope/Brainpile/pkg/database/repository"
	"github.com/SkyAerope/Brainpile/pkg/integrations/telegram"

	"github.com/PuerkitoBio/goquery"
)

// ObjectStore is the narrow blob-put surface the sweeps need to sideload
// avatar and custom-emoji assets.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// AvatarSweep periodically retries avatar and custom-emoji asset sideload
// for entities/tags that previously had nothing to sideload from or failed
// partway through, grounded on original_source/core/src/bot.rs's
// update_entity_avatar retry-on-next-message behavior (spec.md §E.2).
type AvatarSweep struct {
	entities  repository.EntityRepository
	tags      repository.TagRepository
	transport telegram.Client
	store     ObjectStore
	web       *http.Client
	logger    *slog.Logger
}

// NewAvatarSweep builds an AvatarSweep.
func NewAvatarSweep(entities repository.EntityRepository, tags repository.TagRepository, transport telegram.Client, store ObjectStore, logger *slog.Logger) *AvatarSweep {
	if logger == nil {
		logger = slog.Default()
	}
	return &AvatarSweep{
		entities:  entities,
		tags:      tags,
		transport: transport,
		store:     store,
		web:       &http.Client{Timeout: 15 * time.Second},
		logger:    logger,
	}
}

// Name identifies this worker to the Manager.
func (s *AvatarSweep) Name() string { return "avatar_sweep" }

// Run performs one pass: every entity missing an avatar and every
// custom-emoji tag missing its asset gets one sideload attempt. Individual
// failures are logged and skipped, not propagated, so one bad lookup never
// stops the rest of the sweep.
func (s *AvatarSweep) Run(ctx context.Context) error {
	entities, err := s.entities.ListMissingAvatar(ctx)
	if err != nil {
		return err
	}
	for _, entity := range entities {
		if err := s.sideloadAvatar(ctx, entity.ID); err != nil {
			s.logger.Warn("avatar sideload failed", "entity_id", entity.ID, "error", err)
		}
	}

	tags, err := s.tags.ListMissingAsset(ctx)
	if err != nil {
		return err
	}
	for _, tag := range tags {
		if err := s.sideloadEmoji(ctx, tag.ID, tag.IconValue); err != nil {
			s.logger.Warn("custom emoji sideload failed", "tag_id", tag.ID, "error", err)
		}
	}

	return nil
}

func (s *AvatarSweep) sideloadAvatar(ctx context.Context, entityID int64) error {
	fileID, err := s.transport.GetChatAvatarFileID(ctx, entityID)
	if err != nil {
		return err
	}
	if fileID == "" {
		return nil
	}

	transportPath, data, err := s.transport.GetFile(ctx, fileID)
	if err != nil {
		return err
	}

	ext := strings.TrimPrefix(path.Ext(transportPath), ".")
	if ext == "" {
		ext = "jpg"
	}
	key := fmt.Sprintf("avatars/%d.%s", entityID, ext)
	if err := s.store.Put(ctx, key, data, "image/"+ext); err != nil {
		return err
	}
	return s.entities.SetAvatarURL(ctx, entityID, "PROXY:"+key)
}

// sideloadEmoji resolves a custom-emoji tag's asset. Most icon values are
// Telegram sticker file ids; some packs published outside Telegram carry a
// webpage link instead (the vendor's sticker-pack landing page), in which
// case the asset is the page's og:image rather than a direct file.
func (s *AvatarSweep) sideloadEmoji(ctx context.Context, tagID int32, iconValue string) error {
	var data []byte
	var mime string

	if strings.HasPrefix(iconValue, "http://") || strings.HasPrefix(iconValue, "https://") {
		imageURL, err := s.ogImageURL(ctx, iconValue)
		if err != nil {
			return err
		}
		data, mime, err = s.downloadAsset(ctx, imageURL)
		if err != nil {
			return err
		}
	} else {
		var err error
		data, mime, err = s.transport.GetStickerFile(ctx, iconValue)
		if err != nil {
			return err
		}
	}

	key := fmt.Sprintf("tags/custom_emoji/%d.%s", tagID, extFromMime(mime))
	if err := s.store.Put(ctx, key, data, mime); err != nil {
		return err
	}
	return s.tags.SetAsset(ctx, tagID, "PROXY:"+key, mime)
}

// ogImageURL scrapes pageURL's og:image meta tag.
func (s *AvatarSweep) ogImageURL(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", &core.TransportError{Op: "og_image(" + pageURL + ")", Err: err}
	}
	resp, err := s.web.Do(req)
	if err != nil {
		return "", &core.TransportError{Op: "og_image(" + pageURL + ")", Err: err}
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", &core.TransportError{Op: "og_image(" + pageURL + ")", Err: err}
	}
	content, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content")
	if !ok || content == "" {
		return "", &core.TransportError{Op: "og_image(" + pageURL + ")", Err: fmt.Errorf("no og:image tag found")}
	}
	return content, nil
}

func (s *AvatarSweep) downloadAsset(ctx context.Context, assetURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return nil, "", &core.TransportError{Op: "download(" + assetURL + ")", Err: err}
	}
	resp, err := s.web.Do(req)
	if err != nil {
		return nil, "", &core.TransportError{Op: "download(" + assetURL + ")", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &core.TransportError{Op: "download(" + assetURL + ")", Err: err}
	}
	mime := resp.Header.Get("Content-Type")
	if mime == "" {
		mime = "image/jpeg"
	}
	return data, mime, nil
}

func extFromMime(mime string) string {
	switch mime {
	case "application/json":
		return "json"
	case "video/webm":
		return "webm"
	case "image/webp":
		return "webp"
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpg"
	default:
		return "bin"
	}
}

// AlbumSweep periodically re-runs the album reaction policy over every
// still in-flight media-group album, supplementing the inline recompute
// that already happens on every task completion/failure with a catch-all
// pass for albums whose last sibling arrived without ever triggering a
// terminal state change (spec.md §E.1).
type AlbumSweep struct {
	tasks       repository.TaskRepository
	coordinator *album.Coordinator
	logger      *slog.Logger
}

// NewAlbumSweep builds an AlbumSweep.
func NewAlbumSweep(tasks repository.TaskRepository, coordinator *album.Coordinator, logger *slog.Logger) *AlbumSweep {
	if logger == nil {
		logger = slog.Default()
	}
	return &AlbumSweep{tasks: tasks, coordinator: coordinator, logger: logger}
}

// Name identifies this worker to the Manager.
func (s *AlbumSweep) Name() string { return "album_sweep" }

// Run recomputes the reaction for every album with a pending or processing
// sibling.
func (s *AlbumSweep) Run(ctx context.Context) error {
	groups, err := s.tasks.ActiveAlbumGroups(ctx)
	if err != nil {
		return err
	}
	for _, group := range groups {
		if err := s.coordinator.UpdateReaction(ctx, group.BotChatID, group.GroupID); err != nil {
			s.logger.Warn("album reconciliation failed", "bot_chat_id", group.BotChatID, "group_id", group.GroupID, "error", err)
		}
	}
	return nil
}
