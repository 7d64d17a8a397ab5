package feedback_test

import (
	"context"
	"errors"
	"testing"

	"github.com/SkyAerope/Brainpile/pkg/feedback"
	"github.com/SkyAerope/Brainpile/pkg/types"
	"github.com/SkyAerope/Brainpile/testutil/mocks"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEmitter_OnLeased(t *testing.T) {
	transport := &mocks.MockTelegramClient{}
	transport.On("SetReaction", context.Background(), int64(1), 2, "👀").Return(nil)

	e := feedback.New(&mocks.MockTaskRepository{}, transport)
	e.OnLeased(context.Background(), &types.Task{BotChatID: 1, BotMessageID: 2})

	transport.AssertExpectations(t)
}

func TestEmitter_OnSuccess_Single_ClearsStaleErrorReply(t *testing.T) {
	tasks := &mocks.MockTaskRepository{}
	transport := &mocks.MockTelegramClient{}

	replyID := int64(99)
	task := &types.Task{ID: 5, BotChatID: 1, BotMessageID: 2, ErrorReplyID: &replyID}

	tasks.On("Complete", context.Background(), int64(5), int64(42)).Return(nil)
	transport.On("SetReaction", context.Background(), int64(1), 2, "❤️").Return(nil)
	transport.On("DeleteMessage", context.Background(), int64(1), 99).Return(nil)

	e := feedback.New(tasks, transport)
	err := e.OnSuccess(context.Background(), task, 42)

	require.NoError(t, err)
	tasks.AssertExpectations(t)
	transport.AssertExpectations(t)
}

func TestEmitter_OnSuccess_Album_UsesAggregatePolicy(t *testing.T) {
	tasks := &mocks.MockTaskRepository{}
	transport := &mocks.MockTelegramClient{}

	task := &types.Task{ID: 5, BotChatID: 1, BotMessageID: 3, Payload: types.TaskPayload{TgGroupID: "g1"}}
	siblings := []types.Task{
		{BotMessageID: 2, Status: types.TaskCompleted},
		{BotMessageID: 3, Status: types.TaskCompleted},
	}

	tasks.On("Complete", context.Background(), int64(5), int64(42)).Return(nil)
	tasks.On("SiblingsByGroup", context.Background(), int64(1), "g1").Return(siblings, nil)
	transport.On("SetReaction", context.Background(), int64(1), 2, "❤️").Return(nil)

	e := feedback.New(tasks, transport)
	err := e.OnSuccess(context.Background(), task, 42)

	require.NoError(t, err)
	tasks.AssertExpectations(t)
	transport.AssertExpectations(t)
}

func TestEmitter_OnFailure_SendsNewErrorReply(t *testing.T) {
	tasks := &mocks.MockTaskRepository{}
	transport := &mocks.MockTelegramClient{}

	task := &types.Task{ID: 5, BotChatID: 1, BotMessageID: 2}
	failErr := errors.New("boom")

	transport.On("SetReaction", context.Background(), int64(1), 2, "👎").Return(nil)
	transport.On("SendMessage", context.Background(), int64(1), "❌ 处理失败: boom").Return(77, nil)
	replyID := int64(77)
	tasks.On("Fail", context.Background(), int64(5), "boom", &replyID).Return(nil)

	e := feedback.New(tasks, transport)
	err := e.OnFailure(context.Background(), task, failErr)

	require.NoError(t, err)
	tasks.AssertExpectations(t)
	transport.AssertExpectations(t)
}

func TestEmitter_OnFailure_EditsExistingErrorReply(t *testing.T) {
	tasks := &mocks.MockTaskRepository{}
	transport := &mocks.MockTelegramClient{}

	replyID := int64(77)
	task := &types.Task{ID: 5, BotChatID: 1, BotMessageID: 2, ErrorReplyID: &replyID}
	failErr := errors.New("boom again")

	transport.On("SetReaction", context.Background(), int64(1), 2, "👎").Return(nil)
	transport.On("EditMessage", context.Background(), int64(1), 77, "❌ 处理失败: boom again").Return(nil)
	tasks.On("Fail", context.Background(), int64(5), "boom again", &replyID).Return(nil)

	e := feedback.New(tasks, transport)
	err := e.OnFailure(context.Background(), task, failErr)

	require.NoError(t, err)
	tasks.AssertExpectations(t)
	transport.AssertExpectations(t)
}

// TestEmitter_OnFailure_EditedReplyActuallyChangesContent guards the retry
// idempotence story: a second failure on the same task must produce an
// edited reply whose text differs from the first, not a no-op edit that
// would leave a stale error message on screen.
func TestEmitter_OnFailure_EditedReplyActuallyChangesContent(t *testing.T) {
	tasks := &mocks.MockTaskRepository{}
	transport := &mocks.MockTelegramClient{}

	replyID := int64(77)
	task := &types.Task{ID: 5, BotChatID: 1, BotMessageID: 2, ErrorReplyID: &replyID}
	firstErr := errors.New("boom")
	secondErr := errors.New("boom again, harder")

	var editedTexts []string
	transport.On("SetReaction", context.Background(), int64(1), 2, "👎").Return(nil).Twice()
	transport.On("EditMessage", context.Background(), int64(1), 77, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { editedTexts = append(editedTexts, args.String(3)) }).
		Return(nil).Twice()
	tasks.On("Fail", context.Background(), int64(5), "boom", &replyID).Return(nil)
	tasks.On("Fail", context.Background(), int64(5), "boom again, harder", &replyID).Return(nil)

	e := feedback.New(tasks, transport)
	require.NoError(t, e.OnFailure(context.Background(), task, firstErr))
	require.NoError(t, e.OnFailure(context.Background(), task, secondErr))

	require.Len(t, editedTexts, 2)
	diffs := diffmatchpatch.New().DiffMain(editedTexts[0], editedTexts[1], false)
	changed := false
	for _, d := range diffs {
		if d.Type != diffmatchpatch.DiffEqual {
			changed = true
			break
		}
	}
	require.True(t, changed, "edited reply must change content between retries")
}
