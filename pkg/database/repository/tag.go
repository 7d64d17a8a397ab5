package repository

import (
	"context"

	"github.com/SkyAerope/Brainpile/pkg/core"
	"github.com/SkyAerope/Brainpile/pkg/database/models"
	"github.com/SkyAerope/Brainpile/pkg/types"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TagRepository defines data access for reaction-derived tags (ETR, spec.md §4.5).
type TagRepository interface {
	UpsertByIcon(ctx context.Context, iconType types.IconType, iconValue string) (*types.Tag, error)
	FindByID(ctx context.Context, id int32) (*types.Tag, error)
	FindByIDs(ctx context.Context, ids []int32) ([]types.Tag, error)
	List(ctx context.Context) ([]types.Tag, error)
	ListMissingAsset(ctx context.Context) ([]types.Tag, error)
	Update(ctx context.Context, id int32, label *string) (*types.Tag, error)
	SetAsset(ctx context.Context, id int32, assetURL, assetMime string) error
	Delete(ctx context.Context, id int32) error
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new TagRepository.
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func tagModelToType(m *models.Tag) *types.Tag {
	return &types.Tag{
		ID:        m.ID,
		IconType:  types.IconType(m.IconType),
		IconValue: m.IconValue,
		Label:     m.Label,
		AssetURL:  m.AssetURL,
		AssetMime: m.AssetMime,
	}
}

// UpsertByIcon upserts a tag row keyed on (icon_type, icon_value), returning
// its id (spec.md §4.5 step 3).
func (r *tagRepository) UpsertByIcon(ctx context.Context, iconType types.IconType, iconValue string) (*types.Tag, error) {
	m := &models.Tag{
		IconType:  string(iconType),
		IconValue: iconValue,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "icon_type"}, {Name: "icon_value"}},
		DoNothing: true,
	}).Create(m).Error
	if err != nil {
		return nil, err
	}
	if m.ID == 0 {
		// Row already existed; DoNothing skips populating m.ID, so fetch it.
		if err := r.db.WithContext(ctx).
			Where("icon_type = ? AND icon_value = ?", string(iconType), iconValue).
			First(m).Error; err != nil {
			return nil, err
		}
	}
	return tagModelToType(m), nil
}

// FindByID retrieves a tag by its id.
func (r *tagRepository) FindByID(ctx context.Context, id int32) (*types.Tag, error) {
	var m models.Tag
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return tagModelToType(&m), nil
}

// FindByIDs performs a batched tag-row lookup for result hydration (spec.md
// §4.6 "Resolve each row's tag ids to a batched tag-row lookup").
func (r *tagRepository) FindByIDs(ctx context.Context, ids []int32) ([]types.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models_ []models.Tag
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models_).Error; err != nil {
		return nil, err
	}
	tags := make([]types.Tag, len(models_))
	for i, m := range models_ {
		tags[i] = *tagModelToType(&m)
	}
	return tags, nil
}

// List returns every tag row.
func (r *tagRepository) List(ctx context.Context) ([]types.Tag, error) {
	var models_ []models.Tag
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&models_).Error; err != nil {
		return nil, err
	}
	tags := make([]types.Tag, len(models_))
	for i, m := range models_ {
		tags[i] = *tagModelToType(&m)
	}
	return tags, nil
}

// ListMissingAsset returns custom-emoji tags awaiting sideload (spec.md
// §4.5 step 3, re-attempted by the sweep in pkg/worker/sweep.go).
func (r *tagRepository) ListMissingAsset(ctx context.Context) ([]types.Tag, error) {
	var models_ []models.Tag
	if err := r.db.WithContext(ctx).
		Where("icon_type = ? AND asset_url IS NULL", string(types.IconTmoji)).
		Find(&models_).Error; err != nil {
		return nil, err
	}
	tags := make([]types.Tag, len(models_))
	for i, m := range models_ {
		tags[i] = *tagModelToType(&m)
	}
	return tags, nil
}

// Update changes a tag's display label.
func (r *tagRepository) Update(ctx context.Context, id int32, label *string) (*types.Tag, error) {
	if err := r.db.WithContext(ctx).Model(&models.Tag{}).Where("id = ?", id).
		Update("label", label).Error; err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// SetAsset records a sideloaded custom-emoji asset (spec.md §4.5 step 3).
func (r *tagRepository) SetAsset(ctx context.Context, id int32, assetURL, assetMime string) error {
	return r.db.WithContext(ctx).Model(&models.Tag{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"asset_url":  assetURL,
			"asset_mime": assetMime,
		}).Error
}

// Delete removes a tag row. Callers must first detach it from every Item
// (ItemRepository.DetachTag) to preserve tag-delete integrity (spec.md §8).
func (r *tagRepository) Delete(ctx context.Context, id int32) error {
	result := r.db.WithContext(ctx).Delete(&models.Tag{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return core.ErrNotFound
	}
	return nil
}
