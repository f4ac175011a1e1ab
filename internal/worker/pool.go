package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// spawnWorkerPool spawns N worker goroutines based on concurrency configuration
func (w *Worker) spawnWorkerPool(ctx context.Context) {
	w.logger.Info("Spawning worker pool",
		slog.Int("concurrency", w.concurrency),
		slog.String("worker_id", w.workerID),
	)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx, i)
	}
}

// workerLoop is the main processing loop for each worker goroutine
func (w *Worker) workerLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)
	w.logger.Info("Worker goroutine started",
		slog.String("worker_name", workerName),
	)

	for {
		select {
		case <-w.stopChan:
			w.logger.Info("Worker goroutine stopping - stopChan closed",
				slog.String("worker_name", workerName),
			)
			return

		case <-ctx.Done():
			w.logger.Info("Worker goroutine stopping - context canceled",
				slog.String("worker_name", workerName),
			)
			return

		case task, ok := <-w.tasksChan:
			if !ok {
				w.logger.Info("Worker goroutine stopping - tasksChan closed",
					slog.String("worker_name", workerName),
				)
				return
			}

			w.logger.Info("Worker received task",
				slog.String("worker_name", workerName),
				slog.String("task_id", task.TaskID),
				slog.String("task_type", task.TaskType),
			)

			err := w.processTask(ctx, task)

			channel := w.rabbitClient.GetChannel()
			if channel == nil {
				w.logger.Error("Failed to get RabbitMQ channel for ACK/NACK",
					slog.String("worker_name", workerName),
					slog.String("task_id", task.TaskID),
				)
				continue
			}

			if err != nil {
				w.logger.Error("Task processing failed",
					slog.String("worker_name", workerName),
					slog.String("task_id", task.TaskID),
					slog.String("error", err.Error()),
				)

				requeue := w.shouldRequeueTask(err)
				if nackErr := channel.Nack(task.DeliveryTag, false, requeue); nackErr != nil {
					w.logger.Error("Failed to NACK message",
						slog.String("worker_name", workerName),
						slog.String("task_id", task.TaskID),
						slog.String("error", nackErr.Error()),
					)
				} else {
					w.logger.Info("Message NACKed",
						slog.String("worker_name", workerName),
						slog.String("task_id", task.TaskID),
						slog.Bool("requeue", requeue),
					)
				}
				continue
			}

			if ackErr := channel.Ack(task.DeliveryTag, false); ackErr != nil {
				w.logger.Error("Failed to ACK message",
					slog.String("worker_name", workerName),
					slog.String("task_id", task.TaskID),
					slog.String("error", ackErr.Error()),
				)
			} else {
				w.logger.Info("Task completed successfully",
					slog.String("worker_name", workerName),
					slog.String("task_id", task.TaskID),
				)
			}
		}
	}
}

// shouldRequeueTask determines if a task should be requeued based on the error type
func (w *Worker) shouldRequeueTask(err error) bool {
	// Never requeue malformed tasks
	if errors.Is(err, ErrInvalidTask) {
		return false
	}

	// A detached backend needs an operator, not a retry loop
	if errors.Is(err, ErrRemoteUnavailable) {
		return false
	}

	// Requeue transient failures (network, gateway hiccups)
	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return true
	}

	return false
}
