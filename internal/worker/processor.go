package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/crewops/opsync/internal/domain"
	"github.com/crewops/opsync/internal/remote"
)

// processTask runs one sync task with a timeout.
func (w *Worker) processTask(ctx context.Context, task *SyncTask) error {
	taskCtx := ctx
	if w.taskTimeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, w.taskTimeout)
		defer cancel()
	}

	start := time.Now()
	var err error

	switch task.TaskType {
	case TaskRemoteBackfill:
		err = w.runBackfill(taskCtx, task)
	case TaskAssetMigration:
		err = w.runAssetMigration(taskCtx, task)
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTask, task.TaskType)
	}

	if err != nil {
		return err
	}

	w.logger.Info("Sync task finished",
		slog.String("task_id", task.TaskID),
		slog.String("task_type", task.TaskType),
		slog.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// runBackfill pushes the local cache to the remote mirror: dispatch
// collections first, then the inspection-side templates.
func (w *Worker) runBackfill(ctx context.Context, task *SyncTask) error {
	pushed, err := w.dispatch.BackfillRemote(ctx)
	if err != nil {
		return w.classifyTaskError(task, "dispatch backfill", err)
	}

	templates, err := w.inspection.BackfillRemote(ctx)
	if err != nil {
		return w.classifyTaskError(task, "template backfill", err)
	}

	w.logger.Info("Backfill pushed records",
		slog.String("task_id", task.TaskID),
		slog.Int("dispatch_records", pushed),
		slog.Int("templates", templates),
	)
	return nil
}

// runAssetMigration sweeps remote jobs, reports and templates for inline
// payloads and rewrites them to object-storage URLs.
func (w *Worker) runAssetMigration(ctx context.Context, task *SyncTask) error {
	jobUploads, err := w.dispatch.MigrateRemoteAssets(ctx)
	if err != nil {
		return w.classifyTaskError(task, "job asset migration", err)
	}

	inspectionUploads, err := w.inspection.MigrateRemoteAssets(ctx)
	if err != nil {
		return w.classifyTaskError(task, "inspection asset migration", err)
	}

	w.logger.Info("Asset sweep uploaded images",
		slog.String("task_id", task.TaskID),
		slog.Int("uploads", jobUploads+inspectionUploads),
	)
	return nil
}

// classifyTaskError decides retryability: a detached backend is terminal
// for the message, transport failures are worth a requeue, and gateway
// rejections (schema drift, auth) need operator attention first.
func (w *Worker) classifyTaskError(task *SyncTask, step string, err error) error {
	w.logger.Error("Sync step failed",
		slog.String("task_id", task.TaskID),
		slog.String("step", step),
		slog.String("error", err.Error()),
	)

	if errors.Is(err, domain.ErrNotConfigured) {
		return fmt.Errorf("%w: %s", ErrRemoteUnavailable, step)
	}
	if _, ok := remote.AsGatewayError(err); ok {
		return fmt.Errorf("%s rejected by gateway: %w", step, err)
	}
	if remote.IsNetworkError(err) {
		return NewRetryableError(fmt.Errorf("%s: %w", step, err))
	}
	return fmt.Errorf("%s failed: %w", step, err)
}
