package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SkyAerope/Brainpile/pkg/core"
	"github.com/SkyAerope/Brainpile/pkg/database/models"
	"github.com/SkyAerope/Brainpile/pkg/types"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ItemListOptions configures ItemRepository.List (RAP, spec.md §4.7).
type ItemListOptions struct {
	Cursor   *int64 // timeline mode: return items with id < Cursor
	Limit    int
	Mode     string // "timeline" | "random"
	EntityID *int64
	TagID    *int32
}

// RankedHit is a single recall channel's ranked result, 1-indexed (RE,
// spec.md §4.6).
type RankedHit struct {
	ItemID int64
	Rank   int
}

// ItemRepository defines data access for Items.
type ItemRepository interface {
	FindByID(ctx context.Context, id int64) (*types.Item, error)
	List(ctx context.Context, opts ItemListOptions) ([]types.Item, error)
	Create(ctx context.Context, item *types.Item) (int64, error)
	AttachTags(ctx context.Context, itemID int64, tagIDs []int32) error
	DetachTag(ctx context.Context, tagID int32) error
	DetachTagFromItem(ctx context.Context, itemID int64, tagID int32) error
	Delete(ctx context.Context, id int64) (*DeletedItemKeys, error)
	CountByEntity(ctx context.Context, entityID int64) (int64, error)
	HydrateByIDs(ctx context.Context, orderedIDs []int64) ([]types.Item, error)
	AlbumSiblingIDs(ctx context.Context, tgChatID int64, tgGroupID string) ([]int64, error)
	SearchTextVector(ctx context.Context, vector []float32, limit int) ([]RankedHit, error)
	SearchVisualVector(ctx context.Context, vector []float32, limit int) ([]RankedHit, error)
	SearchLexical(ctx context.Context, query string, limit int) ([]RankedHit, error)
}

type itemRepository struct {
	db *gorm.DB
}

// NewItemRepository creates a new ItemRepository.
func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

func itemModelToType(m *models.Item) (*types.Item, error) {
	var meta types.ItemMeta
	if len(m.Meta) > 0 {
		if err := json.Unmarshal(m.Meta, &meta); err != nil {
			return nil, fmt.Errorf("unmarshal item meta: %w", err)
		}
	}

	tagIDs := make([]int32, len(m.TagIDs))
	copy(tagIDs, m.TagIDs)

	return &types.Item{
		ID:              m.ID,
		ItemType:        types.ItemType(m.ItemType),
		ContentHash:     m.ContentHash,
		S3Key:           m.S3Key,
		ThumbnailKey:    m.ThumbnailKey,
		ContentText:     m.ContentText,
		SearchableText:  m.SearchableText,
		TextEmbedding:   m.TextEmbedding.Slice(),
		VisualEmbedding: m.VisualEmbedding.Slice(),
		Meta:            meta,
		TgChatID:        m.TgChatID,
		TgUserID:        m.TgUserID,
		TgMessageID:     m.TgMessageID,
		TgGroupID:       m.TgGroupID,
		TagIDs:          tagIDs,
		CreatedAt:       m.CreatedAt,
		ProcessedAt:     m.ProcessedAt,
	}, nil
}

func itemTypeToModel(i *types.Item) (*models.Item, error) {
	metaJSON, err := json.Marshal(i.Meta)
	if err != nil {
		return nil, fmt.Errorf("marshal item meta: %w", err)
	}

	var textEmbedding pgvector.Vector
	if len(i.TextEmbedding) > 0 {
		textEmbedding = pgvector.NewVector(i.TextEmbedding)
	}
	var visualEmbedding pgvector.Vector
	if len(i.VisualEmbedding) > 0 {
		visualEmbedding = pgvector.NewVector(i.VisualEmbedding)
	}

	return &models.Item{
		ID:              i.ID,
		ItemType:        string(i.ItemType),
		ContentHash:     i.ContentHash,
		S3Key:           i.S3Key,
		ThumbnailKey:    i.ThumbnailKey,
		ContentText:     i.ContentText,
		SearchableText:  i.SearchableText,
		TextEmbedding:   textEmbedding,
		VisualEmbedding: visualEmbedding,
		Meta:            datatypes.JSON(metaJSON),
		TgChatID:        i.TgChatID,
		TgUserID:        i.TgUserID,
		TgMessageID:     i.TgMessageID,
		TgGroupID:       i.TgGroupID,
		TagIDs:          pq.Int32Array(i.TagIDs),
		CreatedAt:       i.CreatedAt,
		ProcessedAt:     i.ProcessedAt,
	}, nil
}

// FindByID retrieves an item by its id.
func (r *itemRepository) FindByID(ctx context.Context, id int64) (*types.Item, error) {
	var m models.Item
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return itemModelToType(&m)
}

// List implements the timeline/random listing modes with tag/entity filters
// and album expansion (spec.md §4.7).
func (r *itemRepository) List(ctx context.Context, opts ItemListOptions) ([]types.Item, error) {
	query := r.db.WithContext(ctx).Model(&models.Item{})

	if opts.EntityID != nil {
		query = query.Where("tg_chat_id = ? OR tg_user_id = ?", *opts.EntityID, *opts.EntityID)
	}
	if opts.TagID != nil {
		query = query.Where(`
			? = ANY(tag_ids)
			OR tg_group_id IN (
				SELECT tg_group_id FROM items
				WHERE tg_group_id IS NOT NULL AND ? = ANY(tag_ids)
			)
		`, *opts.TagID, *opts.TagID)
	}

	var models_ []models.Item
	switch opts.Mode {
	case "random":
		if err := query.Order("RANDOM()").Limit(opts.Limit).Find(&models_).Error; err != nil {
			return nil, err
		}
		if err := r.expandAlbums(ctx, &models_); err != nil {
			return nil, err
		}
	default:
		if opts.Cursor != nil {
			query = query.Where("id < ?", *opts.Cursor)
		}
		if err := query.Order("id DESC").Limit(opts.Limit).Find(&models_).Error; err != nil {
			return nil, err
		}
	}

	items := make([]types.Item, 0, len(models_))
	for i := range models_ {
		it, err := itemModelToType(&models_[i])
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, nil
}

// expandAlbums adds, for every sampled item with a tg_group_id, every sibling
// of that album (de-duplicated by id) — spec.md §4.7 random-mode requirement.
func (r *itemRepository) expandAlbums(ctx context.Context, sampled *[]models.Item) error {
	groupIDs := make([]string, 0)
	seen := make(map[int64]bool)
	for _, m := range *sampled {
		seen[m.ID] = true
		if m.TgGroupID != nil {
			groupIDs = append(groupIDs, *m.TgGroupID)
		}
	}
	if len(groupIDs) == 0 {
		return nil
	}

	var siblings []models.Item
	if err := r.db.WithContext(ctx).
		Where("tg_group_id IN ?", groupIDs).
		Find(&siblings).Error; err != nil {
		return err
	}
	for _, s := range siblings {
		if !seen[s.ID] {
			seen[s.ID] = true
			*sampled = append(*sampled, s)
		}
	}
	return nil
}

// Create persists a new Item row (EP stage 8, spec.md §4.2).
func (r *itemRepository) Create(ctx context.Context, item *types.Item) (int64, error) {
	m, err := itemTypeToModel(item)
	if err != nil {
		return 0, err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return 0, err
	}
	return m.ID, nil
}

// AttachTags merges tag ids into an item's tag set (set-union).
func (r *itemRepository) AttachTags(ctx context.Context, itemID int64, tagIDs []int32) error {
	if len(tagIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Exec(`
		UPDATE items SET tag_ids = (
			SELECT array_agg(DISTINCT t) FROM unnest(tag_ids || ?::integer[]) AS t
		) WHERE id = ?
	`, pq.Int32Array(tagIDs), itemID).Error
}

// DetachTag removes a tag id from every item's tag set (tag-delete integrity,
// spec.md §8).
func (r *itemRepository) DetachTag(ctx context.Context, tagID int32) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE items SET tag_ids = array_remove(tag_ids, ?) WHERE ? = ANY(tag_ids)
	`, tagID, tagID).Error
}

// DetachTagFromItem removes a tag id from a single item's tag set (reaction
// removal, spec.md §4.5 step 4), leaving every other item's tag set alone.
func (r *itemRepository) DetachTagFromItem(ctx context.Context, itemID int64, tagID int32) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE items SET tag_ids = array_remove(tag_ids, ?) WHERE id = ?
	`, tagID, itemID).Error
}

// DeletedItemKeys carries the blob keys of a deleted item, for the caller's
// best-effort object-store cleanup (spec.md §4.8 step 3).
type DeletedItemKeys struct {
	S3Key        *string
	ThumbnailKey *string
}

// Delete removes an item and cascades task/entity cleanup per spec.md §4.8
// steps 1-2, returning the blob keys step 3's best-effort cleanup needs.
func (r *itemRepository) Delete(ctx context.Context, id int64) (*DeletedItemKeys, error) {
	var keys DeletedItemKeys
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Item
		if err := tx.First(&m, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return core.ErrNotFound
			}
			return err
		}
		keys.S3Key = m.S3Key
		keys.ThumbnailKey = m.ThumbnailKey

		if err := tx.Where("item_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		if err := tx.Delete(&models.Item{}, id).Error; err != nil {
			return err
		}

		candidateIDs := []int64{m.TgChatID}
		if m.TgUserID != nil {
			candidateIDs = append(candidateIDs, *m.TgUserID)
		}
		for _, entityID := range candidateIDs {
			var count int64
			if err := tx.Model(&models.Item{}).
				Where("tg_chat_id = ? OR tg_user_id = ?", entityID, entityID).
				Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				if err := tx.Delete(&models.Entity{}, entityID).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &keys, nil
}

// CountByEntity counts items referencing an entity id as chat or user.
func (r *itemRepository) CountByEntity(ctx context.Context, entityID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Item{}).
		Where("tg_chat_id = ? OR tg_user_id = ?", entityID, entityID).
		Count(&count).Error
	return count, err
}

// HydrateByIDs loads items in exactly the caller-supplied order, using a join
// against an ordinal unnest of the id array (spec.md §4.6 "Hydration").
func (r *itemRepository) HydrateByIDs(ctx context.Context, orderedIDs []int64) ([]types.Item, error) {
	if len(orderedIDs) == 0 {
		return nil, nil
	}

	var models_ []models.Item
	err := r.db.WithContext(ctx).Raw(`
		SELECT items.* FROM items
		JOIN unnest(?::bigint[]) WITH ORDINALITY AS ord(id, rank) ON items.id = ord.id
		ORDER BY ord.rank
	`, pq.Int64Array(orderedIDs)).Scan(&models_).Error
	if err != nil {
		return nil, err
	}

	items := make([]types.Item, 0, len(models_))
	for i := range models_ {
		it, err := itemModelToType(&models_[i])
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, nil
}

// AlbumSiblingIDs returns every item id sharing tgChatID and tgGroupID.
func (r *itemRepository) AlbumSiblingIDs(ctx context.Context, tgChatID int64, tgGroupID string) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&models.Item{}).
		Where("tg_chat_id = ? AND tg_group_id = ?", tgChatID, tgGroupID).
		Pluck("id", &ids).Error
	return ids, err
}

// SearchTextVector is recall channel C1: KNN on text_embedding by cosine
// distance, excluding rows with no embedding (spec.md §4.6).
func (r *itemRepository) SearchTextVector(ctx context.Context, vector []float32, limit int) ([]RankedHit, error) {
	return r.knnSearch(ctx, "text_embedding", vector, limit)
}

// SearchVisualVector backs recall channels C2 and C4: KNN on
// visual_embedding by cosine distance (spec.md §4.6).
func (r *itemRepository) SearchVisualVector(ctx context.Context, vector []float32, limit int) ([]RankedHit, error) {
	return r.knnSearch(ctx, "visual_embedding", vector, limit)
}

func (r *itemRepository) knnSearch(ctx context.Context, column string, vector []float32, limit int) ([]RankedHit, error) {
	var rows []struct {
		ID int64
	}
	query := fmt.Sprintf(`
		SELECT id FROM items
		WHERE %s IS NOT NULL
		ORDER BY %s <=> ?
		LIMIT ?
	`, column, column)
	if err := r.db.WithContext(ctx).Raw(query, pgvector.NewVector(vector), limit).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toRankedHits(rows), nil
}

// SearchLexical is recall channel C3: full-text search over searchable_text
// using the "simple" configuration, ordered by ts_rank descending (spec.md
// §4.6).
func (r *itemRepository) SearchLexical(ctx context.Context, query string, limit int) ([]RankedHit, error) {
	var rows []struct {
		ID int64
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT id FROM items
		WHERE searchable_text IS NOT NULL
		  AND searchable_tsv @@ websearch_to_tsquery('simple', ?)
		ORDER BY ts_rank(searchable_tsv, websearch_to_tsquery('simple', ?)) DESC
		LIMIT ?
	`, query, query, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toRankedHits(rows), nil
}

func toRankedHits(rows []struct{ ID int64 }) []RankedHit {
	hits := make([]RankedHit, len(rows))
	for i, row := range rows {
		hits[i] = RankedHit{ItemID: row.ID, Rank: i + 1}
	}
	return hits
}
