package registry_test

import (
	"context"
	"testing"

	"github.com/SkyAerope/Brainpile/pkg/integrations/telegram"
	"github.com/SkyAerope/Brainpile/pkg/registry"
	"github.com/SkyAerope/Brainpile/pkg/types"
	"github.com/SkyAerope/Brainpile/testutil/mocks"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	args := m.Called(ctx, key, data, contentType)
	return args.Error(0)
}

func TestRegistry_HandleReaction_IgnoresIncompleteTask(t *testing.T) {
	tasks := &mocks.MockTaskRepository{}
	tasks.On("LatestBySubmission", context.Background(), int64(1), int64(2)).
		Return(&types.Task{Status: types.TaskProcessing}, nil)

	r := registry.New(tasks, &mocks.MockTagRepository{}, &mocks.MockEntityRepository{}, &mocks.MockItemRepository{}, &mocks.MockTelegramClient{}, &mockStore{})
	err := r.HandleReaction(context.Background(), 1, 2, nil, []telegram.ReactionKey{{IconType: types.IconEmoji, IconValue: "👍"}})

	require.NoError(t, err)
	tasks.AssertExpectations(t)
}

func TestRegistry_HandleReaction_AttachesAddedEmojiTag(t *testing.T) {
	itemID := int64(42)
	tasks := &mocks.MockTaskRepository{}
	tags := &mocks.MockTagRepository{}
	items := &mocks.MockItemRepository{}

	tasks.On("LatestBySubmission", context.Background(), int64(1), int64(2)).
		Return(&types.Task{Status: types.TaskCompleted, ItemID: &itemID}, nil)
	tags.On("UpsertByIcon", context.Background(), types.IconEmoji, "👍").
		Return(&types.Tag{ID: 7, IconType: types.IconEmoji, IconValue: "👍"}, nil)
	items.On("AttachTags", context.Background(), int64(42), []int32{7}).Return(nil)

	r := registry.New(tasks, tags, &mocks.MockEntityRepository{}, items, &mocks.MockTelegramClient{}, &mockStore{})
	err := r.HandleReaction(context.Background(), 1, 2, nil, []telegram.ReactionKey{{IconType: types.IconEmoji, IconValue: "👍"}})

	require.NoError(t, err)
	tags.AssertExpectations(t)
	items.AssertExpectations(t)
}

func TestRegistry_HandleReaction_SideloadsCustomEmojiAsset(t *testing.T) {
	itemID := int64(42)
	tasks := &mocks.MockTaskRepository{}
	tags := &mocks.MockTagRepository{}
	items := &mocks.MockItemRepository{}
	transport := &mocks.MockTelegramClient{}
	store := &mockStore{}

	tasks.On("LatestBySubmission", context.Background(), int64(1), int64(2)).
		Return(&types.Task{Status: types.TaskCompleted, ItemID: &itemID}, nil)
	tags.On("UpsertByIcon", context.Background(), types.IconTmoji, "custom-1").
		Return(&types.Tag{ID: 9, IconType: types.IconTmoji, IconValue: "custom-1"}, nil)
	transport.On("GetStickerFile", context.Background(), "custom-1").Return([]byte("raw-json"), "application/json", nil)
	store.On("Put", context.Background(), "tags/custom_emoji/9.json", []byte("raw-json"), "application/json").Return(nil)
	tags.On("SetAsset", context.Background(), int32(9), "PROXY:tags/custom_emoji/9.json", "application/json").Return(nil)
	items.On("AttachTags", context.Background(), int64(42), []int32{9}).Return(nil)

	r := registry.New(tasks, tags, &mocks.MockEntityRepository{}, items, transport, store)
	err := r.HandleReaction(context.Background(), 1, 2, nil, []telegram.ReactionKey{{IconType: types.IconTmoji, IconValue: "custom-1"}})

	require.NoError(t, err)
	tags.AssertExpectations(t)
	transport.AssertExpectations(t)
	store.AssertExpectations(t)
	items.AssertExpectations(t)
}

func TestRegistry_HandleReaction_DetachesRemovedTag(t *testing.T) {
	itemID := int64(42)
	tasks := &mocks.MockTaskRepository{}
	tags := &mocks.MockTagRepository{}
	items := &mocks.MockItemRepository{}

	tasks.On("LatestBySubmission", context.Background(), int64(1), int64(2)).
		Return(&types.Task{Status: types.TaskCompleted, ItemID: &itemID}, nil)
	tags.On("UpsertByIcon", context.Background(), types.IconEmoji, "👍").
		Return(&types.Tag{ID: 7, IconType: types.IconEmoji, IconValue: "👍"}, nil)
	items.On("DetachTagFromItem", context.Background(), int64(42), int32(7)).Return(nil)

	r := registry.New(tasks, tags, &mocks.MockEntityRepository{}, items, &mocks.MockTelegramClient{}, &mockStore{})
	err := r.HandleReaction(context.Background(), 1, 2, []telegram.ReactionKey{{IconType: types.IconEmoji, IconValue: "👍"}}, nil)

	require.NoError(t, err)
	tags.AssertExpectations(t)
	items.AssertExpectations(t)
}

func TestRegistry_UpsertSubmissionEntity_HiddenForward(t *testing.T) {
	entities := &mocks.MockEntityRepository{}
	entities.On("Upsert", context.Background(), mock.MatchedBy(func(e *types.Entity) bool {
		return e.ID == types.HiddenEntityID && e.Type == types.EntityHidden
	})).Return(nil)

	r := registry.New(&mocks.MockTaskRepository{}, &mocks.MockTagRepository{}, entities, &mocks.MockItemRepository{}, &mocks.MockTelegramClient{}, &mockStore{})
	msg := &telegram.IncomingMessage{Forward: &telegram.MessageOrigin{Kind: "hidden_user", ForwardSenderName: "Anonymous"}}

	entity, err := r.UpsertSubmissionEntity(context.Background(), msg)

	require.NoError(t, err)
	require.Equal(t, types.HiddenEntityID, entity.ID)
	entities.AssertExpectations(t)
}

func TestRegistry_UpsertSubmissionEntity_DirectSender(t *testing.T) {
	entities := &mocks.MockEntityRepository{}
	entities.On("Upsert", context.Background(), mock.MatchedBy(func(e *types.Entity) bool {
		return e.ID == int64(123) && e.Type == types.EntityUser && e.Name == "Alice"
	})).Return(nil)

	r := registry.New(&mocks.MockTaskRepository{}, &mocks.MockTagRepository{}, entities, &mocks.MockItemRepository{}, &mocks.MockTelegramClient{}, &mockStore{})
	userID := int64(123)
	msg := &telegram.IncomingMessage{FromUserID: &userID, FromName: "Alice"}

	entity, err := r.UpsertSubmissionEntity(context.Background(), msg)

	require.NoError(t, err)
	require.Equal(t, int64(123), entity.ID)
	entities.AssertExpectations(t)
}
