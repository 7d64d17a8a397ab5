// Package pipeline implements the Enrichment Pipeline (EP, spec.md §4.2):
// the fixed nine-stage transformation a leased task runs through to become
// a persisted Item.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/SkyAerope/Brainpile/pkg/core"
	"github.com/SkyAerope/Brainpile/pkg/database/repository"
	"github.com/SkyAerope/Brainpile/pkg/integrations/telegram"
	"github.com/SkyAerope/Brainpile/pkg/media"
	"github.com/SkyAerope/Brainpile/pkg/telemetry"
	"github.com/SkyAerope/Brainpile/pkg/types"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
)

var ocrConverter = md.NewConverter("", true, nil)

// ObjectStore is the narrow blob-put surface the pipeline needs.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// TextEmbedder encodes searchable text into a dense vector (EP stage 6).
type TextEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VisualEmbedder encodes image bytes into CLIP's joint embedding space
// (EP stage 5).
type VisualEmbedder interface {
	EmbedImage(ctx context.Context, data []byte) ([]float32, error)
}

// OCR recognizes text in an image frame (EP stage 4).
type OCR interface {
	Recognize(ctx context.Context, jpegData []byte) (string, error)
}

// ImageProcessor decodes image metadata and produces thumbnails (EP stage
// 2). The default implementation wraps pkg/media.
type ImageProcessor interface {
	Decode(data []byte) (media.ImageMeta, error)
	Thumbnail(data []byte) ([]byte, error)
}

// VideoProcessor probes video metadata and extracts cover frames (EP stage
// 3). The default implementation wraps pkg/media.
type VideoProcessor interface {
	Probe(ctx context.Context, data []byte) (media.VideoMeta, error)
	ExtractCoverFrame(ctx context.Context, data []byte) ([]byte, error)
}

type defaultImageProcessor struct{}

func (defaultImageProcessor) Decode(data []byte) (media.ImageMeta, error) { return media.DecodeImage(data) }
func (defaultImageProcessor) Thumbnail(data []byte) ([]byte, error)       { return media.Thumbnail(data) }

type defaultVideoProcessor struct{}

func (defaultVideoProcessor) Probe(ctx context.Context, data []byte) (media.VideoMeta, error) {
	return media.Probe(ctx, data)
}
func (defaultVideoProcessor) ExtractCoverFrame(ctx context.Context, data []byte) ([]byte, error) {
	return media.ExtractCoverFrame(ctx, data)
}

// Pipeline runs the Enrichment Pipeline's nine stages against a leased
// task, grounded on original_source/core/src/worker.rs's perform_task.
type Pipeline struct {
	transport telegram.Client
	store     ObjectStore
	text      TextEmbedder
	visual    VisualEmbedder
	ocr       OCR
	images    ImageProcessor
	videos    VideoProcessor
	items     repository.ItemRepository
	logger    *slog.Logger
}

// Dependencies collects the Pipeline's collaborators. Images and Videos
// default to pkg/media wrappers when left nil.
type Dependencies struct {
	Transport telegram.Client
	Store     ObjectStore
	Text      TextEmbedder
	Visual    VisualEmbedder
	OCR       OCR
	Images    ImageProcessor
	Videos    VideoProcessor
	Items     repository.ItemRepository
	Logger    *slog.Logger
}

// New builds a Pipeline from its dependencies.
func New(deps Dependencies) *Pipeline {
	if deps.Images == nil {
		deps.Images = defaultImageProcessor{}
	}
	if deps.Videos == nil {
		deps.Videos = defaultVideoProcessor{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Pipeline{
		transport: deps.Transport,
		store:     deps.Store,
		text:      deps.Text,
		visual:    deps.Visual,
		ocr:       deps.OCR,
		images:    deps.Images,
		videos:    deps.Videos,
		items:     deps.Items,
		logger:    deps.Logger,
	}
}

// Run executes every stage for a leased task and persists the resulting
// Item, returning its id. Callers are responsible for wrapping Run in panic
// recovery (pkg/worker does this at the loop level).
func (p *Pipeline) Run(ctx context.Context, task *types.Task) (int64, error) {
	ctx, span := telemetry.Tracer("pipeline").Start(ctx, "pipeline.Run")
	defer span.End()

	payload := task.Payload

	item := &types.Item{
		ItemType:    payload.ItemType,
		ContentText: payload.ContentText,
		TgChatID:    task.SourceChatID,
		TgUserID:    task.SourceUserID,
		TgMessageID: task.SourceMessageID,
		CreatedAt:   time.Now(),
	}
	if payload.TgGroupID != "" {
		groupID := payload.TgGroupID
		item.TgGroupID = &groupID
	}
	if forwardName, ok := payload.Meta["forward_sender_name"].(string); ok {
		item.Meta.ForwardSenderName = forwardName
	}

	var fileBytes []byte
	var coverFrame []byte

	// Stage 1: download.
	if payload.FileID != "" {
		data, key, err := p.downloadAndStore(ctx, payload.FileID)
		if err != nil {
			return 0, err
		}
		fileBytes = data
		item.S3Key = &key

		if item.ItemType == types.ItemTypeText && strings.EqualFold(filepath.Ext(key), ".pdf") {
			text, err := extractPDFText(fileBytes)
			if err != nil {
				p.logger.Warn("pdf text extraction failed, continuing with caption only", "error", err)
			} else {
				item.ContentText = joinSearchableText(item.ContentText, text)
			}
		}
	}

	// Stage 2: image metadata & thumbnail.
	if item.ItemType == types.ItemTypeImage && len(fileBytes) > 0 {
		meta, err := p.images.Decode(fileBytes)
		if err != nil {
			return 0, err
		}
		item.Meta.Width, item.Meta.Height, item.Meta.FileSize = meta.Width, meta.Height, meta.FileSize

		thumb, err := p.images.Thumbnail(fileBytes)
		if err != nil {
			return 0, err
		}
		thumbKey := thumbKeyFor(*item.S3Key)
		if err := p.store.Put(ctx, thumbKey, thumb, "image/jpeg"); err != nil {
			return 0, err
		}
		item.ThumbnailKey = &thumbKey
	}

	// Stage 3: video metadata & cover.
	if item.ItemType == types.ItemTypeVideo && len(fileBytes) > 0 {
		meta, err := p.videos.Probe(ctx, fileBytes)
		if err != nil {
			return 0, err
		}
		item.Meta.Width, item.Meta.Height = meta.Width, meta.Height
		item.Meta.DurationSeconds, item.Meta.FileSize = meta.DurationSeconds, meta.FileSize

		frame, err := p.videos.ExtractCoverFrame(ctx, fileBytes)
		if err != nil {
			return 0, err
		}
		coverFrame = frame
		thumbKey := thumbKeyFor(*item.S3Key)
		if err := p.store.Put(ctx, thumbKey, frame, "image/jpeg"); err != nil {
			return 0, err
		}
		item.ThumbnailKey = &thumbKey
	}

	item.SearchableText = item.ContentText

	// Stage 4: OCR (images only).
	if item.ItemType == types.ItemTypeImage && len(fileBytes) > 0 {
		recognized, err := p.ocr.Recognize(ctx, fileBytes)
		if err != nil {
			p.logger.Warn("ocr failed, continuing without recognized text", "error", err)
		} else if recognized != "" {
			item.SearchableText = joinSearchableText(item.SearchableText, normalizeOCRText(recognized))
		}
	}

	// Stage 5: visual embedding.
	visualSource := fileBytes
	if item.ItemType == types.ItemTypeVideo {
		visualSource = coverFrame
	}
	if len(visualSource) > 0 {
		vector, err := p.visual.EmbedImage(ctx, visualSource)
		if err != nil {
			p.logger.Warn("visual embedding failed, continuing without it", "error", err)
		} else {
			item.VisualEmbedding = vector
		}
	}

	// Stage 6: text embedding.
	if item.SearchableText != "" {
		vector, err := p.text.Embed(ctx, item.SearchableText)
		if err != nil {
			p.logger.Warn("text embedding failed, continuing without it", "error", err)
		} else {
			item.TextEmbedding = vector
		}
	}

	// Stage 7: content hash.
	item.ContentHash = ContentHash(fileBytes, item.ContentText)

	// Stage 8: persist.
	itemID, err := p.items.Create(ctx, item)
	if err != nil {
		return 0, &core.StoreError{Op: "pipeline.Run", Err: err}
	}

	// Stage 9: tag inheritance.
	if len(payload.TagIDs) > 0 {
		if err := p.items.AttachTags(ctx, itemID, payload.TagIDs); err != nil {
			return 0, &core.StoreError{Op: "pipeline.Run.AttachTags", Err: err}
		}
	}

	return itemID, nil
}

func (p *Pipeline) downloadAndStore(ctx context.Context, fileID string) ([]byte, string, error) {
	path, data, err := p.transport.GetFile(ctx, fileID)
	if err != nil {
		return nil, "", err
	}

	key := objectKey(path)
	if err := p.store.Put(ctx, key, data, contentTypeFor(path)); err != nil {
		return nil, "", err
	}
	return data, key, nil
}

// objectKey derives the YYYY/MM/DD/<uuid>.<ext> storage key for a freshly
// downloaded blob (spec.md §6 "Object-store key layout").
func objectKey(transportPath string) string {
	ext := strings.TrimPrefix(filepath.Ext(transportPath), ".")
	if ext == "" {
		ext = "bin"
	}
	now := time.Now().UTC()
	return fmt.Sprintf("%04d/%02d/%02d/%s.%s", now.Year(), now.Month(), now.Day(), uuid.NewString(), ext)
}

func thumbKeyFor(mediaKey string) string {
	ext := filepath.Ext(mediaKey)
	base := strings.TrimSuffix(mediaKey, ext)
	return base + "_thumb.jpg"
}

func joinSearchableText(base, addition string) string {
	if base == "" {
		return addition
	}
	return base + "\n" + addition
}

// extractPDFText reads every page of a PDF submission into plain text, for
// item_type=text submissions whose file_id resolves to a document rather
// than inline chat text.
func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var text strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text.WriteString(pageText)
		text.WriteString("\n\n")
	}
	return strings.TrimSpace(text.String()), nil
}

// normalizeOCRText strips the HTML markup and entities the VLM occasionally
// echoes back (some models wrap recognized text in <b>/<i> runs or leave
// &amp;-style escapes) before it is folded into searchable_text.
func normalizeOCRText(recognized string) string {
	plain, err := ocrConverter.ConvertString(recognized)
	if err != nil {
		return recognized
	}
	return strings.TrimSpace(plain)
}

func contentTypeFor(transportPath string) string {
	switch strings.ToLower(filepath.Ext(transportPath)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	default:
		return "application/octet-stream"
	}
}
