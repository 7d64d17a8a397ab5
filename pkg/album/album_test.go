package album_test

import (
	"context"
	"testing"

	"github.com/SkyAerope/Brainpile/pkg/album"
	"github.com/SkyAerope/Brainpile/pkg/types"
	"github.com/SkyAerope/Brainpile/testutil/mocks"

	"github.com/stretchr/testify/require"
)

func TestCoordinator_UpdateReaction_AnyFailedReactsThumbsDown(t *testing.T) {
	tasks := &mocks.MockTaskRepository{}
	transport := &mocks.MockTelegramClient{}

	siblings := []types.Task{
		{BotMessageID: 5, Status: types.TaskCompleted},
		{BotMessageID: 4, Status: types.TaskFailed},
		{BotMessageID: 6, Status: types.TaskProcessing},
	}
	tasks.On("SiblingsByGroup", context.Background(), int64(1), "g1").Return(siblings, nil)
	transport.On("SetReaction", context.Background(), int64(1), 4, "👎").Return(nil)

	c := album.New(tasks, transport)
	err := c.UpdateReaction(context.Background(), 1, "g1")

	require.NoError(t, err)
	tasks.AssertExpectations(t)
	transport.AssertExpectations(t)
}

func TestCoordinator_UpdateReaction_AllCompletedReactsHeart(t *testing.T) {
	tasks := &mocks.MockTaskRepository{}
	transport := &mocks.MockTelegramClient{}

	siblings := []types.Task{
		{BotMessageID: 5, Status: types.TaskCompleted},
		{BotMessageID: 4, Status: types.TaskCompleted},
	}
	tasks.On("SiblingsByGroup", context.Background(), int64(1), "g1").Return(siblings, nil)
	transport.On("SetReaction", context.Background(), int64(1), 4, "❤️").Return(nil)

	c := album.New(tasks, transport)
	err := c.UpdateReaction(context.Background(), 1, "g1")

	require.NoError(t, err)
	tasks.AssertExpectations(t)
	transport.AssertExpectations(t)
}

func TestCoordinator_UpdateReaction_StillPendingDoesNothing(t *testing.T) {
	tasks := &mocks.MockTaskRepository{}
	transport := &mocks.MockTelegramClient{}

	siblings := []types.Task{
		{BotMessageID: 5, Status: types.TaskCompleted},
		{BotMessageID: 4, Status: types.TaskProcessing},
	}
	tasks.On("SiblingsByGroup", context.Background(), int64(1), "g1").Return(siblings, nil)

	c := album.New(tasks, transport)
	err := c.UpdateReaction(context.Background(), 1, "g1")

	require.NoError(t, err)
	tasks.AssertExpectations(t)
	transport.AssertNotCalled(t, "SetReaction")
}

func TestCoordinator_UpdateReaction_NoSiblingsDoesNothing(t *testing.T) {
	tasks := &mocks.MockTaskRepository{}
	transport := &mocks.MockTelegramClient{}

	tasks.On("SiblingsByGroup", context.Background(), int64(1), "g1").Return([]types.Task{}, nil)

	c := album.New(tasks, transport)
	err := c.UpdateReaction(context.Background(), 1, "g1")

	require.NoError(t, err)
	transport.AssertNotCalled(t, "SetReaction")
}
