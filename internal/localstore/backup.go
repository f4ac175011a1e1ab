package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/crewops/opsync/internal/domain"
)

// BackupVersion identifies the export envelope layout.
const BackupVersion = "v1"

// BackupEnvelope is the versioned export/import format for the dispatch
// cache. Data is required on import; EmployeeLocations is optional.
type BackupEnvelope struct {
	Version           string                             `json:"version"`
	ExportedAt        time.Time                          `json:"exportedAt"`
	Data              *DispatchData                      `json:"data"`
	EmployeeLocations map[string]domain.EmployeeLocation `json:"employeeLocations,omitempty"`
}

// ExportBackup snapshots the dispatch document and the location map into
// an envelope.
func (s *Store) ExportBackup(ctx context.Context) BackupEnvelope {
	data := s.LoadDispatch(ctx)
	return BackupEnvelope{
		Version:           BackupVersion,
		ExportedAt:        time.Now().UTC(),
		Data:              &data,
		EmployeeLocations: s.LoadLocations(ctx),
	}
}

// ImportBackup validates raw as a backup envelope and atomically replaces
// the dispatch document (and, when present, the location map). A missing
// data field is a caller error and leaves the store untouched.
func (s *Store) ImportBackup(ctx context.Context, raw []byte) error {
	var envelope BackupEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("%w: malformed backup JSON: %v", domain.ErrValidation, err)
	}

	if envelope.Data == nil {
		return fmt.Errorf("%w: backup envelope has no data field", domain.ErrValidation)
	}

	data := *envelope.Data
	if data.Jobs == nil {
		data.Jobs = []domain.Job{}
	}
	if data.Employees == nil {
		data.Employees = []domain.Employee{}
	}
	if data.CustomerProfiles == nil {
		data.CustomerProfiles = []domain.CustomerProfile{}
	}
	if data.Schedules == nil {
		data.Schedules = []domain.ScheduleEntry{}
	}

	dispatchDoc, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to serialize imported dispatch data: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin import transaction: %w", err)
	}
	defer tx.Rollback()

	upsert := `
		INSERT INTO collections (key, doc, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at
	`

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, upsert, KeyDispatchData, string(dispatchDoc), now); err != nil {
		return fmt.Errorf("failed to import dispatch data: %w", err)
	}

	if envelope.EmployeeLocations != nil {
		locationsDoc, err := json.Marshal(envelope.EmployeeLocations)
		if err != nil {
			return fmt.Errorf("failed to serialize imported locations: %w", err)
		}
		if _, err := tx.ExecContext(ctx, upsert, KeyEmployeeLocations, string(locationsDoc), now); err != nil {
			return fmt.Errorf("failed to import employee locations: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	return nil
}
