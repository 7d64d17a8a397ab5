package mocks

import (
	"context"

	"github.com/SkyAerope/Brainpile/pkg/database/repository"
	"github.com/SkyAerope/Brainpile/pkg/types"

	"github.com/stretchr/testify/mock"
)

// MockEntityRepository is a mock implementation of repository.EntityRepository.
type MockEntityRepository struct {
	mock.Mock
}

func (m *MockEntityRepository) Upsert(ctx context.Context, e *types.Entity) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEntityRepository) FindByID(ctx context.Context, id int64) (*types.Entity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Entity), args.Error(1)
}

func (m *MockEntityRepository) List(ctx context.Context, cursor *repository.EntityCursor, limit int) ([]types.Entity, error) {
	args := m.Called(ctx, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Entity), args.Error(1)
}

func (m *MockEntityRepository) ListMissingAvatar(ctx context.Context) ([]types.Entity, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Entity), args.Error(1)
}

func (m *MockEntityRepository) SetAvatarURL(ctx context.Context, id int64, avatarURL string) error {
	args := m.Called(ctx, id, avatarURL)
	return args.Error(0)
}

func (m *MockEntityRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockTagRepository is a mock implementation of repository.TagRepository.
type MockTagRepository struct {
	mock.Mock
}

func (m *MockTagRepository) UpsertByIcon(ctx context.Context, iconType types.IconType, iconValue string) (*types.Tag, error) {
	args := m.Called(ctx, iconType, iconValue)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Tag), args.Error(1)
}

func (m *MockTagRepository) FindByID(ctx context.Context, id int32) (*types.Tag, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Tag), args.Error(1)
}

func (m *MockTagRepository) FindByIDs(ctx context.Context, ids []int32) ([]types.Tag, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Tag), args.Error(1)
}

func (m *MockTagRepository) List(ctx context.Context) ([]types.Tag, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Tag), args.Error(1)
}

func (m *MockTagRepository) ListMissingAsset(ctx context.Context) ([]types.Tag, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Tag), args.Error(1)
}

func (m *MockTagRepository) Update(ctx context.Context, id int32, label *string) (*types.Tag, error) {
	args := m.Called(ctx, id, label)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Tag), args.Error(1)
}

func (m *MockTagRepository) SetAsset(ctx context.Context, id int32, assetURL, assetMime string) error {
	args := m.Called(ctx, id, assetURL, assetMime)
	return args.Error(0)
}

func (m *MockTagRepository) Delete(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
