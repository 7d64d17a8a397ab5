package mocks

import (
	"context"

	"github.com/SkyAerope/Brainpile/pkg/database/repository"
	"github.com/SkyAerope/Brainpile/pkg/types"

	"github.com/stretchr/testify/mock"
)

// MockItemRepository is a mock implementation of repository.ItemRepository.
type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) FindByID(ctx context.Context, id int64) (*types.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Item), args.Error(1)
}

func (m *MockItemRepository) List(ctx context.Context, opts repository.ItemListOptions) ([]types.Item, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Item), args.Error(1)
}

func (m *MockItemRepository) Create(ctx context.Context, item *types.Item) (int64, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockItemRepository) AttachTags(ctx context.Context, itemID int64, tagIDs []int32) error {
	args := m.Called(ctx, itemID, tagIDs)
	return args.Error(0)
}

func (m *MockItemRepository) DetachTag(ctx context.Context, tagID int32) error {
	args := m.Called(ctx, tagID)
	return args.Error(0)
}

func (m *MockItemRepository) DetachTagFromItem(ctx context.Context, itemID int64, tagID int32) error {
	args := m.Called(ctx, itemID, tagID)
	return args.Error(0)
}

func (m *MockItemRepository) Delete(ctx context.Context, id int64) (*repository.DeletedItemKeys, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.DeletedItemKeys), args.Error(1)
}

func (m *MockItemRepository) CountByEntity(ctx context.Context, entityID int64) (int64, error) {
	args := m.Called(ctx, entityID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockItemRepository) HydrateByIDs(ctx context.Context, orderedIDs []int64) ([]types.Item, error) {
	args := m.Called(ctx, orderedIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Item), args.Error(1)
}

func (m *MockItemRepository) AlbumSiblingIDs(ctx context.Context, tgChatID int64, tgGroupID string) ([]int64, error) {
	args := m.Called(ctx, tgChatID, tgGroupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockItemRepository) SearchTextVector(ctx context.Context, vector []float32, limit int) ([]repository.RankedHit, error) {
	args := m.Called(ctx, vector, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.RankedHit), args.Error(1)
}

func (m *MockItemRepository) SearchVisualVector(ctx context.Context, vector []float32, limit int) ([]repository.RankedHit, error) {
	args := m.Called(ctx, vector, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.RankedHit), args.Error(1)
}

func (m *MockItemRepository) SearchLexical(ctx context.Context, query string, limit int) ([]repository.RankedHit, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.RankedHit), args.Error(1)
}
