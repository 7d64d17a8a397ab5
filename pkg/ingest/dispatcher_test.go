package ingest_test

import (
	"context"
	"testing"
	"time"

	"github.com/SkyAerope/Brainpile/pkg/core"
	"github.com/SkyAerope/Brainpile/pkg/database/repository"
	"github.com/SkyAerope/Brainpile/pkg/ingest"
	"github.com/SkyAerope/Brainpile/pkg/integrations/telegram"
	"github.com/SkyAerope/Brainpile/pkg/queue"
	"github.com/SkyAerope/Brainpile/pkg/registry"
	"github.com/SkyAerope/Brainpile/pkg/types"
	"github.com/SkyAerope/Brainpile/testutil/mocks"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_Run_EnqueuesSubmissionAndUpsertsEntity(t *testing.T) {
	tasks := &mocks.MockTaskRepository{}
	tags := &mocks.MockTagRepository{}
	entities := &mocks.MockEntityRepository{}
	items := &mocks.MockItemRepository{}
	transport := &mocks.MockTelegramClient{}

	userID := int64(77)
	updates := make(chan telegram.Update, 1)
	updates <- telegram.Update{Message: &telegram.IncomingMessage{
		ChatID:      100,
		MessageID:   5,
		FromUserID:  &userID,
		FromName:    "Ada",
		FileID:      "file-1",
		ItemType:    types.ItemTypeImage,
		ContentText: "",
	}}
	close(updates)

	transport.On("Updates", mock.Anything).Return((<-chan telegram.Update)(updates), nil)
	entities.On("Upsert", mock.Anything, mock.MatchedBy(func(e *types.Entity) bool {
		return e.ID == userID && e.Name == "Ada"
	})).Return(nil)
	tasks.On("Enqueue", mock.Anything, mock.MatchedBy(func(task *types.Task) bool {
		return task.BotChatID == 100 && task.BotMessageID == 5 && task.Payload.FileID == "file-1"
	})).Return(&repository.EnqueueResult{TaskID: 1}, nil)

	q := queue.New(tasks)
	reg := registry.New(tasks, tags, entities, items, transport, nil)
	d := ingest.New(transport, q, reg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Run(ctx))

	entities.AssertExpectations(t)
	tasks.AssertExpectations(t)
}

func TestDispatcher_Run_DelegatesReactionsToRegistry(t *testing.T) {
	tasks := &mocks.MockTaskRepository{}
	tags := &mocks.MockTagRepository{}
	entities := &mocks.MockEntityRepository{}
	items := &mocks.MockItemRepository{}
	transport := &mocks.MockTelegramClient{}

	updates := make(chan telegram.Update, 1)
	updates <- telegram.Update{Reaction: &telegram.ReactionUpdate{
		ChatID:    1,
		MessageID: 20,
		New:       []telegram.ReactionKey{{IconType: types.IconEmoji, IconValue: "👍"}},
	}}
	close(updates)

	transport.On("Updates", mock.Anything).Return((<-chan telegram.Update)(updates), nil)
	tasks.On("LatestBySubmission", mock.Anything, int64(1), int64(20)).Return(nil, core.ErrNotFound).Once()

	q := queue.New(tasks)
	reg := registry.New(tasks, tags, entities, items, transport, nil)
	d := ingest.New(transport, q, reg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Run(ctx))

	tasks.AssertExpectations(t)
}
