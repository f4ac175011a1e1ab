package handler

import (
	"context"
	"log/slog"

	"github.com/crewops/opsync/internal/remote"
	"github.com/crewops/opsync/internal/syncer"
)

// TaskPublisher enqueues sync task messages for the worker service.
type TaskPublisher interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger     *slog.Logger
	Dispatch   *syncer.DispatchService
	Inspection *syncer.InspectionService
	Settings   *remote.Settings
	Tasks      TaskPublisher
}

// DispatchHandler handles dispatch-board HTTP requests
type DispatchHandler struct {
	logger  *slog.Logger
	service *syncer.DispatchService
}

// NewDispatchHandler creates a new DispatchHandler instance
func NewDispatchHandler(deps *Dependencies) *DispatchHandler {
	return &DispatchHandler{
		logger:  deps.Logger,
		service: deps.Dispatch,
	}
}

// InspectionHandler handles inspection-report and template HTTP requests
type InspectionHandler struct {
	logger  *slog.Logger
	service *syncer.InspectionService
}

// NewInspectionHandler creates a new InspectionHandler instance
func NewInspectionHandler(deps *Dependencies) *InspectionHandler {
	return &InspectionHandler{
		logger:  deps.Logger,
		service: deps.Inspection,
	}
}

// SyncHandler enqueues background sync tasks
type SyncHandler struct {
	logger *slog.Logger
	tasks  TaskPublisher
}

// NewSyncHandler creates a new SyncHandler instance
func NewSyncHandler(deps *Dependencies) *SyncHandler {
	return &SyncHandler{
		logger: deps.Logger,
		tasks:  deps.Tasks,
	}
}

// SettingsHandler handles runtime remote-backend configuration
type SettingsHandler struct {
	logger   *slog.Logger
	settings *remote.Settings
}

// NewSettingsHandler creates a new SettingsHandler instance
func NewSettingsHandler(deps *Dependencies) *SettingsHandler {
	return &SettingsHandler{
		logger:   deps.Logger,
		settings: deps.Settings,
	}
}
