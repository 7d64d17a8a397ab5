package mocks

import (
	"context"

	"github.com/SkyAerope/Brainpile/pkg/integrations/telegram"

	"github.com/stretchr/testify/mock"
)

// MockTelegramClient is a mock implementation of telegram.Client.
type MockTelegramClient struct {
	mock.Mock
}

func (m *MockTelegramClient) GetFile(ctx context.Context, fileID string) (string, []byte, error) {
	args := m.Called(ctx, fileID)
	var data []byte
	if args.Get(1) != nil {
		data = args.Get(1).([]byte)
	}
	return args.String(0), data, args.Error(2)
}

func (m *MockTelegramClient) SendMessage(ctx context.Context, chatID int64, text string) (int, error) {
	args := m.Called(ctx, chatID, text)
	return args.Int(0), args.Error(1)
}

func (m *MockTelegramClient) EditMessage(ctx context.Context, chatID int64, messageID int, text string) error {
	args := m.Called(ctx, chatID, messageID, text)
	return args.Error(0)
}

func (m *MockTelegramClient) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	args := m.Called(ctx, chatID, messageID)
	return args.Error(0)
}

func (m *MockTelegramClient) SetReaction(ctx context.Context, chatID int64, messageID int, emoji string) error {
	args := m.Called(ctx, chatID, messageID, emoji)
	return args.Error(0)
}

func (m *MockTelegramClient) GetStickerFile(ctx context.Context, fileID string) ([]byte, string, error) {
	args := m.Called(ctx, fileID)
	var data []byte
	if args.Get(0) != nil {
		data = args.Get(0).([]byte)
	}
	return data, args.String(1), args.Error(2)
}

func (m *MockTelegramClient) GetChatAvatarFileID(ctx context.Context, chatID int64) (string, error) {
	args := m.Called(ctx, chatID)
	return args.String(0), args.Error(1)
}

func (m *MockTelegramClient) Updates(ctx context.Context) (<-chan telegram.Update, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan telegram.Update), args.Error(1)
}
