package domain

// Outcome records which path a dual-write took, so callers and tests can
// assert the provenance of a result instead of inferring it from side
// effects.
type Outcome string

const (
	// OutcomeRemote means the remote mirror accepted the write and the
	// local cache was updated with the echoed payload.
	OutcomeRemote Outcome = "remote"

	// OutcomeLocalFallback means the remote mirror was unconfigured,
	// unreachable, or missing the relation, and only the local store
	// holds the write.
	OutcomeLocalFallback Outcome = "local-fallback"
)

// SyncResult is the typed success value of a dual-write operation.
type SyncResult struct {
	Outcome Outcome `json:"outcome"`
	Detail  string  `json:"detail,omitempty"`
}

// RemoteResult tags a result as remotely persisted.
func RemoteResult() SyncResult {
	return SyncResult{Outcome: OutcomeRemote}
}

// FallbackResult tags a result as locally persisted only, with the reason
// the remote path was skipped or abandoned.
func FallbackResult(detail string) SyncResult {
	return SyncResult{Outcome: OutcomeLocalFallback, Detail: detail}
}
