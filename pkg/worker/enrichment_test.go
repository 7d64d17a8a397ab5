package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SkyAerope/Brainpile/pkg/feedback"
	"github.com/SkyAerope/Brainpile/pkg/pipeline"
	"github.com/SkyAerope/Brainpile/pkg/queue"
	"github.com/SkyAerope/Brainpile/pkg/types"
	"github.com/SkyAerope/Brainpile/pkg/worker"
	"github.com/SkyAerope/Brainpile/testutil/mocks"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	twoSeconds = 2 * time.Second
	tenMillis  = 10 * time.Millisecond
)

type stubTextEmbedder struct{}

func (stubTextEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1}, nil
}

func TestEnrichmentWorker_Run_DrainsOneTaskThenStops(t *testing.T) {
	tasks := &mocks.MockTaskRepository{}
	transport := &mocks.MockTelegramClient{}

	task := &types.Task{
		ID:           1,
		BotChatID:    100,
		BotMessageID: 5,
		Payload:      types.TaskPayload{ItemType: types.ItemTypeText, ContentText: "note"},
	}

	tasks.On("LeaseNext", mock.Anything).Return(task, nil).Once()
	tasks.On("LeaseNext", mock.Anything).Return((*types.Task)(nil), nil)
	tasks.On("Complete", mock.Anything, int64(1), int64(42)).Return(nil)

	transport.On("SetReaction", mock.Anything, int64(100), 5, "👀").Return(nil)
	transport.On("SetReaction", mock.Anything, int64(100), 5, "❤️").Return(nil)

	items := &mocks.MockItemRepository{}
	items.On("Create", mock.Anything, mock.AnythingOfType("*types.Item")).Return(int64(42), nil)

	q := queue.New(tasks)
	p := pipeline.New(pipeline.Dependencies{Text: stubTextEmbedder{}, Items: items})
	fe := feedback.New(tasks, transport)
	w := worker.NewEnrichmentWorker(q, p, fe, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(tasks.Calls) >= 3
	}, twoSeconds, tenMillis)

	cancel()
	<-done

	tasks.AssertCalled(t, "Complete", mock.Anything, int64(1), int64(42))
	transport.AssertCalled(t, "SetReaction", mock.Anything, int64(100), 5, "❤️")
}

func TestEnrichmentWorker_Run_FailureEmitsErrorReply(t *testing.T) {
	tasks := &mocks.MockTaskRepository{}
	transport := &mocks.MockTelegramClient{}

	task := &types.Task{
		ID:           2,
		BotChatID:    100,
		BotMessageID: 6,
		Payload:      types.TaskPayload{ItemType: types.ItemTypeText, ContentText: "note"},
	}

	tasks.On("LeaseNext", mock.Anything).Return(task, nil).Once()
	tasks.On("LeaseNext", mock.Anything).Return((*types.Task)(nil), nil)
	tasks.On("Fail", mock.Anything, int64(2), mock.AnythingOfType("string"), mock.Anything).Return(nil)

	transport.On("SetReaction", mock.Anything, int64(100), 6, "👀").Return(nil)
	transport.On("SetReaction", mock.Anything, int64(100), 6, "👎").Return(nil)
	transport.On("SendMessage", mock.Anything, int64(100), mock.AnythingOfType("string")).Return(9, nil)

	items := &mocks.MockItemRepository{}
	items.On("Create", mock.Anything, mock.AnythingOfType("*types.Item")).Return(int64(0), errors.New("boom"))

	q := queue.New(tasks)
	p := pipeline.New(pipeline.Dependencies{Text: stubTextEmbedder{}, Items: items})
	fe := feedback.New(tasks, transport)
	w := worker.NewEnrichmentWorker(q, p, fe, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(tasks.Calls) >= 3
	}, twoSeconds, tenMillis)

	cancel()
	<-done

	tasks.AssertCalled(t, "Fail", mock.Anything, int64(2), mock.AnythingOfType("string"), mock.Anything)
	transport.AssertCalled(t, "SetReaction", mock.Anything, int64(100), 6, "👎")
}
