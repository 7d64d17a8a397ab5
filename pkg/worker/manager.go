// Package worker hosts the engine's background workers: the continuous
// Enrichment Pipeline lease-drain loop and the cron-scheduled sweeps
// (avatar/asset sideload, album reconciliation).
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

var (
	ErrWorkerNotFound       = errors.New("worker not found")
	ErrWorkerAlreadyRunning = errors.New("worker is already running")
	ErrWorkerNotRunning     = errors.New("worker is not running")
)

// Worker is a named background job. Run blocks until ctx is done (for
// continuous workers like the enrichment loop) or until one pass completes
// (for cron-scheduled sweeps).
type Worker interface {
	Name() string
	Run(ctx context.Context) error
}

// Manager registers workers, runs some continuously and others on a cron
// schedule, and tracks what's currently running. Grounded on
// pkg/core/worker/manager.go's Worker/WorkerManager pattern.
type Manager struct {
	cron            *cron.Cron
	workers         map[string]Worker
	continuous      []string
	runningWorkers  map[string]context.CancelFunc
	mu              sync.RWMutex
	logger          *slog.Logger
	isRunning       bool
	shutdownTimeout time.Duration
}

// NewManager creates a new Manager.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cron:            cron.New(),
		workers:         make(map[string]Worker),
		runningWorkers:  make(map[string]context.CancelFunc),
		logger:          logger,
		shutdownTimeout: 30 * time.Second,
	}
}

// RegisterWorker registers a worker with the manager.
func (m *Manager) RegisterWorker(worker Worker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workers[worker.Name()] = worker
	m.logger.Info("registered worker", "name", worker.Name())
}

// RegisterContinuous registers a worker to start running as soon as Start
// is called, and to keep running until Stop cancels it — the shape the
// enrichment loop needs, since it blocks on its own internal lease/sleep
// cycle rather than completing a single pass.
func (m *Manager) RegisterContinuous(worker Worker) {
	m.RegisterWorker(worker)
	m.mu.Lock()
	m.continuous = append(m.continuous, worker.Name())
	m.mu.Unlock()
}

// ScheduleWorker schedules a registered worker on a standard 5-field cron
// expression.
func (m *Manager) ScheduleWorker(workerName, schedule string) error {
	m.mu.RLock()
	worker, exists := m.workers[workerName]
	m.mu.RUnlock()

	if !exists {
		m.logger.Error("worker not found", "name", workerName)
		return ErrWorkerNotFound
	}

	_, err := m.cron.AddFunc(schedule, func() {
		m.runWorker(worker)
	})
	if err != nil {
		m.logger.Error("failed to schedule worker", "name", workerName, "error", err)
		return err
	}

	m.logger.Info("scheduled worker", "name", workerName, "schedule", schedule)
	return nil
}

func (m *Manager) runWorker(worker Worker) {
	name := worker.Name()

	m.mu.Lock()
	if _, running := m.runningWorkers[name]; running {
		m.mu.Unlock()
		m.logger.Warn("worker already running, skipping", "name", name)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.runningWorkers[name] = cancel
	m.mu.Unlock()

	m.logger.Info("starting worker", "name", name)
	startTime := time.Now()

	defer func() {
		m.mu.Lock()
		delete(m.runningWorkers, name)
		m.mu.Unlock()
		m.logger.Info("worker completed", "name", name, "duration", time.Since(startTime))
	}()

	if err := worker.Run(ctx); err != nil {
		m.logger.Error("worker failed", "name", name, "error", err)
	}
}

// RunWorkerNow runs a registered worker immediately, outside its schedule.
func (m *Manager) RunWorkerNow(workerName string) error {
	m.mu.RLock()
	worker, exists := m.workers[workerName]
	_, isRunning := m.runningWorkers[workerName]
	m.mu.RUnlock()

	if !exists {
		return ErrWorkerNotFound
	}
	if isRunning {
		return ErrWorkerAlreadyRunning
	}

	go m.runWorker(worker)
	return nil
}

// StopWorker cancels a running worker's context.
func (m *Manager) StopWorker(workerName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cancel, running := m.runningWorkers[workerName]
	if !running {
		return ErrWorkerNotRunning
	}
	m.logger.Info("stopping worker", "name", workerName)
	cancel()
	return nil
}

// IsWorkerRunning reports whether a worker is currently running.
func (m *Manager) IsWorkerRunning(workerName string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, running := m.runningWorkers[workerName]
	return running
}

// Start launches every continuously-registered worker and starts the cron
// scheduler for the rest.
func (m *Manager) Start() {
	m.mu.Lock()
	if m.isRunning {
		m.mu.Unlock()
		return
	}
	m.isRunning = true
	continuous := append([]string(nil), m.continuous...)
	m.mu.Unlock()

	for _, name := range continuous {
		if err := m.RunWorkerNow(name); err != nil {
			m.logger.Error("failed to start continuous worker", "name", name, "error", err)
		}
	}

	m.cron.Start()
	m.logger.Info("worker manager started")
}

// Stop stops the cron scheduler, cancels every running worker, and waits
// up to shutdownTimeout for the cron scheduler's in-flight jobs.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.isRunning {
		m.mu.Unlock()
		return
	}
	cronCtx := m.cron.Stop()
	m.isRunning = false

	for name, cancel := range m.runningWorkers {
		m.logger.Info("cancelling worker", "name", name)
		cancel()
	}
	m.mu.Unlock()

	select {
	case <-cronCtx.Done():
		m.logger.Info("all cron jobs completed")
	case <-time.After(m.shutdownTimeout):
		m.logger.Warn("shutdown timeout exceeded, some workers may not have completed")
	}
	m.logger.Info("worker manager stopped")
}

// IsRunning reports whether the manager has been started.
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isRunning
}

// GetRunningWorkers returns the names of currently running workers.
func (m *Manager) GetRunningWorkers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.runningWorkers))
	for name := range m.runningWorkers {
		names = append(names, name)
	}
	return names
}

// GetRegisteredWorkers returns the names of every registered worker.
func (m *Manager) GetRegisteredWorkers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.workers))
	for name := range m.workers {
		names = append(names, name)
	}
	return names
}
