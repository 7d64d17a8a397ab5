// Package retrieval implements the Retrieval Engine (RE, spec.md §4.6):
// four parallel recall channels fused by Reciprocal Rank Fusion, followed
// by ordered hydration and tag resolution.
package retrieval

import (
	"context"
	"sort"

	"github.com/SkyAerope/Brainpile/pkg/database/repository"
	"github.com/SkyAerope/Brainpile/pkg/telemetry"
	"github.com/SkyAerope/Brainpile/pkg/types"
)

// rrfK is the RRF smoothing constant, grounded on
// original_source/core/src/db.rs's rrf_merge (k=60 in practice).
const rrfK = 60.0

// perChannelLimit caps each recall channel's hit count (spec.md §4.6).
const perChannelLimit = 100

const (
	defaultLimit = 50
	maxLimit     = 100
)

// TextEmbedder encodes query text for channel C1.
type TextEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VisualTextEmbedder encodes query text into CLIP's joint space for
// channel C2.
type VisualTextEmbedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// VisualImageEmbedder encodes image bytes into CLIP's joint space for
// channel C4.
type VisualImageEmbedder interface {
	EmbedImage(ctx context.Context, data []byte) ([]float32, error)
}

// ImageDownloader fetches the bytes behind a query image URL for channel
// C4.
type ImageDownloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Query is a search request (spec.md §4.6).
type Query struct {
	Text     string
	ImageURL string
	Type     *types.ItemType
	Limit    int
}

// Result is one hydrated, fused search hit.
type Result struct {
	Item types.Item
	Tags []types.Tag
}

// Engine runs the four recall channels and fuses their output.
type Engine struct {
	items      repository.ItemRepository
	tags       repository.TagRepository
	text       TextEmbedder
	visualText VisualTextEmbedder
	visualImg  VisualImageEmbedder
	downloader ImageDownloader
}

// New builds an Engine. Any collaborator left nil simply disables the
// channel(s) that depend on it.
func New(items repository.ItemRepository, tags repository.TagRepository, text TextEmbedder, visualText VisualTextEmbedder, visualImg VisualImageEmbedder, downloader ImageDownloader) *Engine {
	return &Engine{items: items, tags: tags, text: text, visualText: visualText, visualImg: visualImg, downloader: downloader}
}

// Search runs every applicable channel, fuses results with RRF, hydrates
// the fused ids in order, and resolves each row's tags. Returns an empty
// result, not an error, when every channel is empty or omitted.
func (e *Engine) Search(ctx context.Context, q Query) ([]Result, error) {
	ctx, span := telemetry.Tracer("retrieval").Start(ctx, "Engine.Search")
	defer span.End()

	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	var channels [][]repository.RankedHit

	if q.Text != "" {
		if e.text != nil {
			if vector, err := e.text.Embed(ctx, q.Text); err == nil {
				if hits, err := e.items.SearchTextVector(ctx, vector, perChannelLimit); err == nil {
					channels = append(channels, hits)
				}
			}
		}
		if e.visualText != nil {
			if vector, err := e.visualText.EmbedText(ctx, q.Text); err == nil {
				if hits, err := e.items.SearchVisualVector(ctx, vector, perChannelLimit); err == nil {
					channels = append(channels, hits)
				}
			}
		}
		if hits, err := e.items.SearchLexical(ctx, q.Text, perChannelLimit); err == nil {
			channels = append(channels, hits)
		}
	}

	if q.ImageURL != "" && e.downloader != nil && e.visualImg != nil {
		if data, err := e.downloader.Download(ctx, q.ImageURL); err == nil {
			if vector, err := e.visualImg.EmbedImage(ctx, data); err == nil {
				if hits, err := e.items.SearchVisualVector(ctx, vector, perChannelLimit); err == nil {
					channels = append(channels, hits)
				}
			}
		}
	}

	fusedIDs := fuse(channels, limit)
	if len(fusedIDs) == 0 {
		return nil, nil
	}

	items, err := e.items.HydrateByIDs(ctx, fusedIDs)
	if err != nil {
		return nil, err
	}

	if q.Type != nil {
		filtered := items[:0]
		for _, item := range items {
			if item.ItemType == *q.Type {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}

	return e.hydrateTags(ctx, items)
}

// fuse applies Reciprocal Rank Fusion: each hit contributes 1/(k+rank) to
// its id's aggregate score, summed across channels. Ids are then sorted by
// descending score and truncated to limit.
func fuse(channels [][]repository.RankedHit, limit int) []int64 {
	scores := make(map[int64]float64)
	order := make([]int64, 0)
	seen := make(map[int64]bool)

	for _, hits := range channels {
		for _, hit := range hits {
			if !seen[hit.ItemID] {
				seen[hit.ItemID] = true
				order = append(order, hit.ItemID)
			}
			scores[hit.ItemID] += 1.0 / (rrfK + float64(hit.Rank))
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})

	if len(order) > limit {
		order = order[:limit]
	}
	return order
}

func (e *Engine) hydrateTags(ctx context.Context, items []types.Item) ([]Result, error) {
	tagIDSet := make(map[int32]bool)
	for _, item := range items {
		for _, id := range item.TagIDs {
			tagIDSet[id] = true
		}
	}
	tagIDs := make([]int32, 0, len(tagIDSet))
	for id := range tagIDSet {
		tagIDs = append(tagIDs, id)
	}

	tagByID := make(map[int32]types.Tag)
	if len(tagIDs) > 0 {
		tags, err := e.tags.FindByIDs(ctx, tagIDs)
		if err != nil {
			return nil, err
		}
		for _, tag := range tags {
			tagByID[tag.ID] = tag
		}
	}

	results := make([]Result, len(items))
	for i, item := range items {
		tags := make([]types.Tag, 0, len(item.TagIDs))
		for _, id := range item.TagIDs {
			if tag, ok := tagByID[id]; ok {
				tags = append(tags, tag)
			}
		}
		results[i] = Result{Item: item, Tags: tags}
	}
	return results, nil
}
