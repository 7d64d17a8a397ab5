package worker_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SkyAerope/Brainpile/pkg/worker"

	"github.com/stretchr/testify/require"
)

type fakeWorker struct {
	name string
	runs int32
	done chan struct{}
}

func newFakeWorker(name string) *fakeWorker {
	return &fakeWorker{name: name, done: make(chan struct{}, 8)}
}

func (w *fakeWorker) Name() string { return w.name }

func (w *fakeWorker) Run(ctx context.Context) error {
	atomic.AddInt32(&w.runs, 1)
	w.done <- struct{}{}
	return nil
}

func TestManager_RunWorkerNow(t *testing.T) {
	m := worker.NewManager(nil)
	w := newFakeWorker("one")
	m.RegisterWorker(w)

	require.NoError(t, m.RunWorkerNow("one"))

	select {
	case <-w.done:
	case <-time.After(time.Second):
		t.Fatal("worker did not run")
	}
}

func TestManager_RunWorkerNow_UnknownWorker(t *testing.T) {
	m := worker.NewManager(nil)
	require.ErrorIs(t, m.RunWorkerNow("missing"), worker.ErrWorkerNotFound)
}

func TestManager_ScheduleWorker_UnknownWorker(t *testing.T) {
	m := worker.NewManager(nil)
	require.ErrorIs(t, m.ScheduleWorker("missing", "*/5 * * * *"), worker.ErrWorkerNotFound)
}

func TestManager_StopWorker_NotRunning(t *testing.T) {
	m := worker.NewManager(nil)
	w := newFakeWorker("one")
	m.RegisterWorker(w)

	require.ErrorIs(t, m.StopWorker("one"), worker.ErrWorkerNotRunning)
}

type blockingWorker struct {
	name    string
	started chan struct{}
}

func (w *blockingWorker) Name() string { return w.name }

func (w *blockingWorker) Run(ctx context.Context) error {
	close(w.started)
	<-ctx.Done()
	return nil
}

func TestManager_StartStop_RunsContinuousWorkers(t *testing.T) {
	m := worker.NewManager(nil)
	w := &blockingWorker{name: "continuous", started: make(chan struct{})}
	m.RegisterContinuous(w)

	m.Start()
	defer m.Stop()

	select {
	case <-w.started:
	case <-time.After(time.Second):
		t.Fatal("continuous worker never started")
	}

	require.True(t, m.IsWorkerRunning("continuous"))
}
