// Package mocks provides testify mock implementations of the repository and
// integration client interfaces for service-level tests.
package mocks

import (
	"context"

	"github.com/SkyAerope/Brainpile/pkg/database/repository"
	"github.com/SkyAerope/Brainpile/pkg/types"

	"github.com/stretchr/testify/mock"
)

// MockTaskRepository is a mock implementation of repository.TaskRepository.
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Enqueue(ctx context.Context, task *types.Task) (*repository.EnqueueResult, error) {
	args := m.Called(ctx, task)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.EnqueueResult), args.Error(1)
}

func (m *MockTaskRepository) LeaseNext(ctx context.Context) (*types.Task, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Task), args.Error(1)
}

func (m *MockTaskRepository) Complete(ctx context.Context, taskID, itemID int64) error {
	args := m.Called(ctx, taskID, itemID)
	return args.Error(0)
}

func (m *MockTaskRepository) Fail(ctx context.Context, taskID int64, errMsg string, replyID *int64) error {
	args := m.Called(ctx, taskID, errMsg, replyID)
	return args.Error(0)
}

func (m *MockTaskRepository) SetErrorReplyID(ctx context.Context, taskID int64, replyID *int64) error {
	args := m.Called(ctx, taskID, replyID)
	return args.Error(0)
}

func (m *MockTaskRepository) FindByID(ctx context.Context, id int64) (*types.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Task), args.Error(1)
}

func (m *MockTaskRepository) LatestBySubmission(ctx context.Context, botChatID, botMessageID int64) (*types.Task, error) {
	args := m.Called(ctx, botChatID, botMessageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Task), args.Error(1)
}

func (m *MockTaskRepository) SiblingsByGroup(ctx context.Context, botChatID int64, tgGroupID string) ([]types.Task, error) {
	args := m.Called(ctx, botChatID, tgGroupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Task), args.Error(1)
}

func (m *MockTaskRepository) ActiveAlbumGroups(ctx context.Context) ([]repository.AlbumGroup, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.AlbumGroup), args.Error(1)
}

func (m *MockTaskRepository) DeleteByItemID(ctx context.Context, itemID int64) error {
	args := m.Called(ctx, itemID)
	return args.Error(0)
}
