package queue_test

import (
	"context"
	"testing"

	"github.com/SkyAerope/Brainpile/pkg/database/repository"
	"github.com/SkyAerope/Brainpile/pkg/queue"
	"github.com/SkyAerope/Brainpile/pkg/types"
	"github.com/SkyAerope/Brainpile/testutil/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_Enqueue(t *testing.T) {
	repo := &mocks.MockTaskRepository{}
	task := &types.Task{BotChatID: 1, BotMessageID: 2}
	want := &repository.EnqueueResult{TaskID: 5, Status: types.TaskPending}
	repo.On("Enqueue", context.Background(), task).Return(want, nil)

	q := queue.New(repo)
	got, err := q.Enqueue(context.Background(), task)

	require.NoError(t, err)
	assert.Equal(t, want, got)
	repo.AssertExpectations(t)
}

func TestQueue_LeaseNext_NoPendingTask(t *testing.T) {
	repo := &mocks.MockTaskRepository{}
	repo.On("LeaseNext", context.Background()).Return(nil, nil)

	q := queue.New(repo)
	task, err := q.LeaseNext(context.Background())

	require.NoError(t, err)
	assert.Nil(t, task)
	repo.AssertExpectations(t)
}

func TestQueue_Complete(t *testing.T) {
	repo := &mocks.MockTaskRepository{}
	repo.On("Complete", context.Background(), int64(1), int64(2)).Return(nil)

	q := queue.New(repo)
	err := q.Complete(context.Background(), 1, 2)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestQueue_Fail(t *testing.T) {
	repo := &mocks.MockTaskRepository{}
	replyID := int64(9)
	repo.On("Fail", context.Background(), int64(1), "boom", &replyID).Return(nil)

	q := queue.New(repo)
	err := q.Fail(context.Background(), 1, "boom", &replyID)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}
