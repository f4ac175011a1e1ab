package worker

import "errors"

// Sync task types
const (
	TaskRemoteBackfill = "remote_backfill"
	TaskAssetMigration = "asset_migration"
)

// SyncTask is the message published to the sync queue. RemoteBackfill
// pushes the whole local cache to the mirror; AssetMigration sweeps the
// remote store for records still carrying inline image payloads.
type SyncTask struct {
	TaskID      string `json:"task_id"`
	TaskType    string `json:"task_type"`
	DeliveryTag uint64 `json:"-"`
}

// ValidTaskType reports whether t names a known sync task.
func ValidTaskType(t string) bool {
	return t == TaskRemoteBackfill || t == TaskAssetMigration
}

var (
	// ErrInvalidTask is returned for a malformed or unknown task message.
	// Such messages are never requeued.
	ErrInvalidTask = errors.New("invalid sync task")

	// ErrRemoteUnavailable is returned when the task needs the remote
	// backend and it is detached. Not requeued: re-running the task
	// before an operator attaches a backend cannot succeed.
	ErrRemoteUnavailable = errors.New("remote backend unavailable")
)

// RetryableError wraps transient errors that should trigger a requeue
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}
