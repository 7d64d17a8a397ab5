package worker_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SkyAerope/Brainpile/pkg/album"
	"github.com/SkyAerope/Brainpile/pkg/database/repository"
	"github.com/SkyAerope/Brainpile/pkg/types"
	"github.com/SkyAerope/Brainpile/pkg/worker"
	"github.com/SkyAerope/Brainpile/testutil/mocks"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockObjectStore struct{ mock.Mock }

func (m *mockObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	args := m.Called(ctx, key, data, contentType)
	return args.Error(0)
}

func TestAvatarSweep_Run_SideloadsMissingAvatarAndAsset(t *testing.T) {
	entities := &mocks.MockEntityRepository{}
	tags := &mocks.MockTagRepository{}
	transport := &mocks.MockTelegramClient{}
	store := &mockObjectStore{}

	entities.On("ListMissingAvatar", mock.Anything).Return([]types.Entity{{ID: 55}}, nil)
	transport.On("GetChatAvatarFileID", mock.Anything, int64(55)).Return("avatar-file", nil)
	transport.On("GetFile", mock.Anything, "avatar-file").Return("photos/avatar.jpg", []byte("avatar-bytes"), nil)
	store.On("Put", mock.Anything, "avatars/55.jpg", []byte("avatar-bytes"), "image/jpg").Return(nil)
	entities.On("SetAvatarURL", mock.Anything, int64(55), "PROXY:avatars/55.jpg").Return(nil)

	tags.On("ListMissingAsset", mock.Anything).Return([]types.Tag{{ID: 9, IconValue: "custom-1"}}, nil)
	transport.On("GetStickerFile", mock.Anything, "custom-1").Return([]byte("emoji-bytes"), "image/webp", nil)
	store.On("Put", mock.Anything, "tags/custom_emoji/9.webp", []byte("emoji-bytes"), "image/webp").Return(nil)
	tags.On("SetAsset", mock.Anything, int32(9), "PROXY:tags/custom_emoji/9.webp", "image/webp").Return(nil)

	sweep := worker.NewAvatarSweep(entities, tags, transport, store, nil)
	require.NoError(t, sweep.Run(context.Background()))

	entities.AssertExpectations(t)
	tags.AssertExpectations(t)
	transport.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestAvatarSweep_Run_SkipsEntityWithNoPhoto(t *testing.T) {
	entities := &mocks.MockEntityRepository{}
	tags := &mocks.MockTagRepository{}
	transport := &mocks.MockTelegramClient{}
	store := &mockObjectStore{}

	entities.On("ListMissingAvatar", mock.Anything).Return([]types.Entity{{ID: 55}}, nil)
	transport.On("GetChatAvatarFileID", mock.Anything, int64(55)).Return("", nil)
	tags.On("ListMissingAsset", mock.Anything).Return([]types.Tag{}, nil)

	sweep := worker.NewAvatarSweep(entities, tags, transport, store, nil)
	require.NoError(t, sweep.Run(context.Background()))

	store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	entities.AssertNotCalled(t, "SetAvatarURL", mock.Anything, mock.Anything, mock.Anything)
}

func TestAvatarSweep_Run_SideloadsEmojiFromWebpageOGImage(t *testing.T) {
	var imageServerURL string
	imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer imageServer.Close()
	imageServerURL = imageServer.URL + "/sticker.png"

	pageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><meta property="og:image" content="` + imageServerURL + `"></head></html>`))
	}))
	defer pageServer.Close()

	entities := &mocks.MockEntityRepository{}
	tags := &mocks.MockTagRepository{}
	transport := &mocks.MockTelegramClient{}
	store := &mockObjectStore{}

	entities.On("ListMissingAvatar", mock.Anything).Return([]types.Entity{}, nil)
	tags.On("ListMissingAsset", mock.Anything).Return([]types.Tag{{ID: 9, IconValue: pageServer.URL}}, nil)
	store.On("Put", mock.Anything, "tags/custom_emoji/9.png", []byte("png-bytes"), "image/png").Return(nil)
	tags.On("SetAsset", mock.Anything, int32(9), "PROXY:tags/custom_emoji/9.png", "image/png").Return(nil)

	sweep := worker.NewAvatarSweep(entities, tags, transport, store, nil)
	require.NoError(t, sweep.Run(context.Background()))

	store.AssertExpectations(t)
	tags.AssertExpectations(t)
	transport.AssertNotCalled(t, "GetStickerFile", mock.Anything, mock.Anything)
}

func TestAlbumSweep_Run_ReconcilesEveryActiveGroup(t *testing.T) {
	tasks := &mocks.MockTaskRepository{}
	transport := &mocks.MockTelegramClient{}

	tasks.On("ActiveAlbumGroups", mock.Anything).Return([]repository.AlbumGroup{
		{BotChatID: 1, GroupID: "g1"},
	}, nil)
	tasks.On("SiblingsByGroup", mock.Anything, int64(1), "g1").Return([]types.Task{
		{BotMessageID: 10, Status: types.TaskCompleted},
		{BotMessageID: 11, Status: types.TaskCompleted},
	}, nil)
	transport.On("SetReaction", mock.Anything, int64(1), 10, "❤️").Return(nil)

	coordinator := album.New(tasks, transport)
	sweep := worker.NewAlbumSweep(tasks, coordinator, nil)
	require.NoError(t, sweep.Run(context.Background()))

	tasks.AssertExpectations(t)
	transport.AssertExpectations(t)
}
