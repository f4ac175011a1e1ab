package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/crewops/opsync/internal/api/dto"
	"github.com/crewops/opsync/internal/worker"
)

// EnqueueTask handles POST /api/v1/sync/tasks
// Publishes a sync task for the worker service: a remote backfill pushes
// the local cache to the remote backend, an asset migration sweeps remote
// records for inline image payloads.
func (h *SyncHandler) EnqueueTask(c *gin.Context) {
	if h.tasks == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sync queue is not configured"})
		return
	}

	var req dto.EnqueueSyncTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if !worker.ValidTaskType(req.TaskType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown task type: " + req.TaskType})
		return
	}

	task := worker.SyncTask{
		TaskID:   uuid.NewString(),
		TaskType: req.TaskType,
	}

	body, err := json.Marshal(task)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode task"})
		return
	}

	if err := h.tasks.PublishWithRetry(c.Request.Context(), body, "application/json"); err != nil {
		h.logger.Error("Failed to enqueue sync task",
			slog.String("task_type", req.TaskType),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to enqueue task"})
		return
	}

	h.logger.Info("Sync task enqueued",
		slog.String("task_id", task.TaskID),
		slog.String("task_type", task.TaskType),
	)

	c.JSON(http.StatusAccepted, gin.H{
		"taskId":   task.TaskID,
		"taskType": task.TaskType,
		"status":   "queued",
	})
}
