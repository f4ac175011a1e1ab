package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/crewops/opsync/internal/syncer"
	"github.com/crewops/opsync/shared/rabbitmq"
)

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	RabbitClient  *rabbitmq.Client
	Dispatch      *syncer.DispatchService
	Inspection    *syncer.InspectionService
	Concurrency   int
	TaskTimeout   time.Duration
	PrefetchCount int
}

// Worker consumes sync tasks from the queue and runs them against the
// dispatch and inspection services.
type Worker struct {
	logger        *slog.Logger
	rabbitClient  *rabbitmq.Client
	dispatch      *syncer.DispatchService
	inspection    *syncer.InspectionService
	concurrency   int
	taskTimeout   time.Duration
	prefetchCount int
	workerID      string
	tasksChan     chan *SyncTask
	wg            sync.WaitGroup
	stopChan      chan struct{}
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	prefetch := cfg.PrefetchCount
	if prefetch <= 0 {
		prefetch = concurrency
	}

	return &Worker{
		logger:        cfg.Logger,
		rabbitClient:  cfg.RabbitClient,
		dispatch:      cfg.Dispatch,
		inspection:    cfg.Inspection,
		concurrency:   concurrency,
		taskTimeout:   cfg.TaskTimeout,
		prefetchCount: prefetch,
		workerID:      fmt.Sprintf("opsync-worker-%s", uuid.New().String()[:8]),
		tasksChan:     make(chan *SyncTask),
		stopChan:      make(chan struct{}),
	}
}

// Start begins consuming and processing sync tasks. It blocks until the
// context is canceled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("task_timeout", w.taskTimeout),
	)

	deliveries, err := w.setupConsumer(ctx)
	if err != nil {
		return fmt.Errorf("failed to set up consumer: %w", err)
	}

	w.spawnWorkerPool(ctx)
	w.startMessageDispatcher(ctx, deliveries)

	w.logger.Info("Worker context canceled, stopping...")
	return nil
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}
