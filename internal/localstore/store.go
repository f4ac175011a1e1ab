package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/crewops/opsync/internal/domain"
	"github.com/crewops/opsync/shared/sqlite"
)

// Collection keys. Each key addresses exactly one JSON document.
const (
	KeyDispatchData        = "dispatch_data"
	KeyEmployeeLocations   = "employee_locations"
	KeyInspectionReports   = "inspection_reports"
	KeyPropertyTemplates   = "property_templates"
	KeyInspectionEmployees = "inspection_employees"
)

// DispatchData is the dispatch board's cached collection: jobs, employees,
// customer profiles and schedule entries travel together in one document,
// which is also the payload of the backup envelope.
type DispatchData struct {
	Jobs             []domain.Job             `json:"jobs"`
	Employees        []domain.Employee        `json:"employees"`
	CustomerProfiles []domain.CustomerProfile `json:"customerProfiles"`
	Schedules        []domain.ScheduleEntry   `json:"schedules"`
}

// SeedDispatch returns the default dispatch document used when nothing has
// been saved yet or the stored document cannot be parsed.
func SeedDispatch() DispatchData {
	return DispatchData{
		Jobs:             []domain.Job{},
		Employees:        []domain.Employee{},
		CustomerProfiles: []domain.CustomerProfile{},
		Schedules:        []domain.ScheduleEntry{},
	}
}

// Store persists one JSON document per collection key in an embedded
// SQLite table. Load never fails: absence or a corrupt document yields the
// collection's seed value. Save reports success as a bool so higher-level
// operations can decide whether a failed local write matters (it does not
// when a remote write already succeeded).
//
// Every mutation is a full read-modify-write of the collection document.
// Two concurrent writers racing on the same key lose one update (last
// writer wins). That is the documented behavior of this layer, not a bug.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates the backing table if needed and returns the store.
func NewStore(client *sqlite.Client, logger *slog.Logger) (*Store, error) {
	db := client.GetDB()

	schema := `
		CREATE TABLE IF NOT EXISTS collections (
			key        TEXT PRIMARY KEY,
			doc        TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create collections table: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// loadDoc fetches the raw document for a key. ok is false when absent.
func (s *Store) loadDoc(ctx context.Context, key string) (raw []byte, ok bool) {
	var doc string
	err := s.db.GetContext(ctx, &doc, "SELECT doc FROM collections WHERE key = ?", key)
	if err != nil {
		return nil, false
	}
	return []byte(doc), true
}

// saveDoc serializes v and upserts it under key.
func (s *Store) saveDoc(ctx context.Context, key string, v interface{}) bool {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("Failed to serialize collection",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false
	}

	query := `
		INSERT INTO collections (key, doc, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, string(raw), time.Now().UTC()); err != nil {
		s.logger.Error("Failed to persist collection",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}

// loadInto decodes the document for key into a fresh value of T. On
// absence it returns the seed; on a corrupt document the seed replaces the
// stored value (no partial recovery).
func loadInto[T any](ctx context.Context, s *Store, key string, seed T) T {
	raw, ok := s.loadDoc(ctx, key)
	if !ok {
		return seed
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		s.logger.Warn("Corrupt collection document, restoring seed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		s.saveDoc(ctx, key, seed)
		return seed
	}
	return v
}

// LoadDispatch returns the dispatch document or its seed.
func (s *Store) LoadDispatch(ctx context.Context) DispatchData {
	data := loadInto(ctx, s, KeyDispatchData, SeedDispatch())
	// A hand-edited or imported document may carry nulls for sub-collections.
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
	return data
}

// SaveDispatch persists the dispatch document.
func (s *Store) SaveDispatch(ctx context.Context, data DispatchData) bool {
	return s.saveDoc(ctx, KeyDispatchData, data)
}

// LoadLocations returns the employee-location map or its seed.
func (s *Store) LoadLocations(ctx context.Context) map[string]domain.EmployeeLocation {
	return loadInto(ctx, s, KeyEmployeeLocations, map[string]domain.EmployeeLocation{})
}

// SaveLocations persists the employee-location map.
func (s *Store) SaveLocations(ctx context.Context, locations map[string]domain.EmployeeLocation) bool {
	return s.saveDoc(ctx, KeyEmployeeLocations, locations)
}

// LoadReports returns the cached light inspection reports or the seed.
// Only the light variant is ever cached here; canonical image-bearing
// reports live in the remote store.
func (s *Store) LoadReports(ctx context.Context) []domain.InspectionReportLight {
	return loadInto(ctx, s, KeyInspectionReports, []domain.InspectionReportLight{})
}

// SaveReports persists the light inspection reports.
func (s *Store) SaveReports(ctx context.Context, reports []domain.InspectionReportLight) bool {
	return s.saveDoc(ctx, KeyInspectionReports, reports)
}

// LoadTemplates returns the cached property templates or the seed.
func (s *Store) LoadTemplates(ctx context.Context) []domain.PropertyTemplate {
	return loadInto(ctx, s, KeyPropertyTemplates, []domain.PropertyTemplate{})
}

// SaveTemplates persists the property templates.
func (s *Store) SaveTemplates(ctx context.Context, templates []domain.PropertyTemplate) bool {
	return s.saveDoc(ctx, KeyPropertyTemplates, templates)
}

// LoadInspectionEmployees returns the mirrored employee collection used by
// the inspection subsystem, or the seed.
func (s *Store) LoadInspectionEmployees(ctx context.Context) []domain.InspectionEmployee {
	return loadInto(ctx, s, KeyInspectionEmployees, []domain.InspectionEmployee{})
}

// SaveInspectionEmployees persists the mirrored employee collection.
func (s *Store) SaveInspectionEmployees(ctx context.Context, employees []domain.InspectionEmployee) bool {
	return s.saveDoc(ctx, KeyInspectionEmployees, employees)
}
