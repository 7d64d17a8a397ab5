package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/SkyAerope/Brainpile/pkg/core"
	"github.com/SkyAerope/Brainpile/pkg/database/models"
	"github.com/SkyAerope/Brainpile/pkg/types"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EntityCursor encodes the (updated_at, id) descending pagination cursor for
// entity listing (spec.md §4.7).
type EntityCursor struct {
	UpdatedAt time.Time
	ID        int64
}

// EntityRepository defines data access for source entities (ETR, spec.md §4.5).
type EntityRepository interface {
	Upsert(ctx context.Context, e *types.Entity) error
	FindByID(ctx context.Context, id int64) (*types.Entity, error)
	List(ctx context.Context, cursor *EntityCursor, limit int) ([]types.Entity, error)
	ListMissingAvatar(ctx context.Context) ([]types.Entity, error)
	SetAvatarURL(ctx context.Context, id int64, avatarURL string) error
	Delete(ctx context.Context, id int64) error
}

type entityRepository struct {
	db *gorm.DB
}

// NewEntityRepository creates a new EntityRepository.
func NewEntityRepository(db *gorm.DB) EntityRepository {
	return &entityRepository{db: db}
}

func entityModelToType(m *models.Entity) *types.Entity {
	return &types.Entity{
		ID:        m.ID,
		Name:      m.Name,
		Username:  m.Username,
		Type:      types.EntityType(m.Type),
		AvatarURL: m.AvatarURL,
		UpdatedAt: m.UpdatedAt,
	}
}

// Upsert inserts or refreshes an entity row on every submission referencing
// it (spec.md §4.5 "Entity upserts").
func (r *entityRepository) Upsert(ctx context.Context, e *types.Entity) error {
	m := &models.Entity{
		ID:        e.ID,
		Name:      e.Name,
		Username:  e.Username,
		Type:      string(e.Type),
		AvatarURL: e.AvatarURL,
		UpdatedAt: time.Now(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "username", "type", "updated_at"}),
	}).Create(m).Error
}

// FindByID retrieves an entity by its id.
func (r *entityRepository) FindByID(ctx context.Context, id int64) (*types.Entity, error) {
	var m models.Entity
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return entityModelToType(&m), nil
}

// List paginates entities by (updated_at, id) descending.
func (r *entityRepository) List(ctx context.Context, cursor *EntityCursor, limit int) ([]types.Entity, error) {
	query := r.db.WithContext(ctx).Model(&models.Entity{}).Order("updated_at DESC, id DESC")
	if cursor != nil {
		query = query.Where(
			"(updated_at, id) < (?, ?)",
			cursor.UpdatedAt, cursor.ID,
		)
	}

	var models_ []models.Entity
	if err := query.Limit(limit).Find(&models_).Error; err != nil {
		return nil, err
	}
	entities := make([]types.Entity, len(models_))
	for i, m := range models_ {
		entities[i] = *entityModelToType(&m)
	}
	return entities, nil
}

// ListMissingAvatar returns entities awaiting avatar sideload (spec.md §4.5:
// "Asynchronously fetch and sideload avatars for entities whose
// avatar_url IS NULL").
func (r *entityRepository) ListMissingAvatar(ctx context.Context) ([]types.Entity, error) {
	var models_ []models.Entity
	if err := r.db.WithContext(ctx).Where("avatar_url IS NULL AND type != ?", string(types.EntityHidden)).
		Find(&models_).Error; err != nil {
		return nil, err
	}
	entities := make([]types.Entity, len(models_))
	for i, m := range models_ {
		entities[i] = *entityModelToType(&m)
	}
	return entities, nil
}

// SetAvatarURL records a sideloaded avatar (possibly a PROXY:<key> sentinel).
func (r *entityRepository) SetAvatarURL(ctx context.Context, id int64, avatarURL string) error {
	if err := r.db.WithContext(ctx).Model(&models.Entity{}).Where("id = ?", id).
		Update("avatar_url", avatarURL).Error; err != nil {
		return fmt.Errorf("set avatar url for entity %d: %w", id, err)
	}
	return nil
}

// Delete removes an entity row (called once no Item references it, spec.md
// §3 "Entity" lifecycle).
func (r *entityRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Entity{}, id).Error
}
