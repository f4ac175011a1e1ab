package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/crewops/opsync/internal/assets"
	"github.com/crewops/opsync/internal/domain"
	"github.com/crewops/opsync/internal/localstore"
	"github.com/crewops/opsync/internal/remote"
	"github.com/crewops/opsync/internal/schedule"
)

// DispatchService runs the dual-write protocol for the dispatch board:
// jobs, employees, customer profiles, schedule entries and employee
// locations. Every write attempts the remote mirror first; on success the
// echoed payload replaces the local cache entry. A missing relation,
// missing configuration or network failure downgrades the write to
// local-only with a provenance tag. Any other remote failure propagates.
type DispatchService struct {
	store    *localstore.Store
	mirror   *remote.Mirror
	pipeline *assets.Pipeline
	logger   *slog.Logger
}

// NewDispatchService wires the dispatch dual-write service.
func NewDispatchService(store *localstore.Store, mirror *remote.Mirror, pipeline *assets.Pipeline, logger *slog.Logger) *DispatchService {
	return &DispatchService{store: store, mirror: mirror, pipeline: pipeline, logger: logger}
}

// fallbackDetail classifies a remote failure that downgrades the
// operation to local-only. ok is false for failures that must propagate.
func fallbackDetail(err error) (string, bool) {
	switch {
	case errors.Is(err, domain.ErrNotConfigured):
		return "remote not configured", true
	case errors.Is(err, domain.ErrRelationMissing):
		return "remote relation not provisioned", true
	case remote.IsNetworkError(err):
		return "remote unreachable", true
	}
	return "", false
}

// dualWrite is the write-side state machine shared by every entity: push
// remote, echo into the local cache on success; fall back to a local-only
// write on a recoverable remote failure; error out when neither store
// accepted the value.
func dualWrite[T any](
	ctx context.Context,
	logger *slog.Logger,
	value T,
	push func(context.Context, T) (T, error),
	persist func(context.Context, T) bool,
) (T, domain.SyncResult, error) {
	echoed, err := push(ctx, value)
	if err == nil {
		if !persist(ctx, echoed) {
			// The remote write already holds the value; a failed cache
			// refresh is logged, not surfaced.
			logger.Warn("Local cache refresh failed after remote write")
		}
		return echoed, domain.RemoteResult(), nil
	}

	detail, recoverable := fallbackDetail(err)
	if !recoverable {
		var zero T
		return zero, domain.SyncResult{}, err
	}

	if !persist(ctx, value) {
		var zero T
		return zero, domain.SyncResult{}, fmt.Errorf("%w (remote also failed: %v)", domain.ErrLocalPersistence, err)
	}
	return value, domain.FallbackResult(detail), nil
}

// isNotFound matches both the sentinel and a classified 404 response.
func isNotFound(err error) bool {
	if errors.Is(err, domain.ErrNotFound) {
		return true
	}
	if ge, ok := remote.AsGatewayError(err); ok {
		return ge.Class.Kind == remote.KindNotFound
	}
	return false
}

// dualDelete removes a record remotely (best effort) and locally. Remote
// absence of the row or the relation is not an error for a delete.
func dualDelete(ctx context.Context, remove func(context.Context) error, prune func(context.Context) bool) (domain.SyncResult, error) {
	result := domain.RemoteResult()
	if err := remove(ctx); err != nil {
		if isNotFound(err) {
			// Already gone remotely; still prune the cache.
		} else if detail, recoverable := fallbackDetail(err); recoverable {
			result = domain.FallbackResult(detail)
		} else {
			return domain.SyncResult{}, err
		}
	}
	if !prune(ctx) {
		return domain.SyncResult{}, domain.ErrLocalPersistence
	}
	return result, nil
}

// upsertByID replaces the entry with the same id or appends.
func upsertByID[T any](list []T, item T, key func(T) string) []T {
	id := key(item)
	for i := range list {
		if key(list[i]) == id {
			list[i] = item
			return list
		}
	}
	return append(list, item)
}

// removeByID drops every entry with the given id.
func removeByID[T any](list []T, id string, key func(T) string) []T {
	kept := list[:0]
	for _, item := range list {
		if key(item) != id {
			kept = append(kept, item)
		}
	}
	return kept
}

func jobKey(j domain.Job) string                { return j.JobID }
func employeeKey(e domain.Employee) string      { return e.EmployeeID }
func profileKey(p domain.CustomerProfile) string { return p.ProfileID }
func scheduleKey(e domain.ScheduleEntry) string { return e.ScheduleID }

// stamp fills CreatedAt on first write and always advances UpdatedAt.
func stamp(createdAt *time.Time, updatedAt *time.Time) {
	now := time.Now().UTC()
	if createdAt.IsZero() {
		*createdAt = now
	}
	*updatedAt = now
}

// LoadBoard returns the dispatch document. With a configured mirror it
// fetches each remote collection, merges it with the cache (remote wins
// on shared ids, local-only records survive) and re-persists the merged
// document as the new cache baseline. A collection whose remote fetch
// fails recoverably is served from cache; any other fetch failure
// propagates.
func (s *DispatchService) LoadBoard(ctx context.Context) (localstore.DispatchData, domain.SyncResult, error) {
	local := s.store.LoadDispatch(ctx)
	if !s.mirror.Configured() {
		return local, domain.FallbackResult("remote not configured"), nil
	}

	result := domain.RemoteResult()
	merged := DispatchCollections{
		Jobs:             local.Jobs,
		Employees:        local.Employees,
		CustomerProfiles: local.CustomerProfiles,
		Schedules:        local.Schedules,
	}

	// Each collection falls back independently so one unprovisioned table
	// does not hide the rest of the board.
	downgrade := func(collection string, err error) error {
		detail, recoverable := fallbackDetail(err)
		if !recoverable {
			return fmt.Errorf("failed to fetch %s: %w", collection, err)
		}
		s.logger.Warn("Serving collection from cache",
			slog.String("collection", collection),
			slog.String("reason", detail),
		)
		result = domain.FallbackResult(detail)
		return nil
	}

	if jobs, err := s.mirror.ListJobs(ctx, "", ""); err == nil {
		merged.Jobs = MergeByID(jobs, local.Jobs, jobKey)
	} else if err = downgrade("jobs", err); err != nil {
		return localstore.DispatchData{}, domain.SyncResult{}, err
	}

	if employees, err := s.mirror.ListEmployees(ctx); err == nil {
		merged.Employees = MergeByID(employees, local.Employees, employeeKey)
	} else if err = downgrade("employees", err); err != nil {
		return localstore.DispatchData{}, domain.SyncResult{}, err
	}

	if profiles, err := s.mirror.ListProfiles(ctx); err == nil {
		merged.CustomerProfiles = MergeByID(profiles, local.CustomerProfiles, profileKey)
	} else if err = downgrade("customer profiles", err); err != nil {
		return localstore.DispatchData{}, domain.SyncResult{}, err
	}

	if schedules, err := s.mirror.ListSchedules(ctx, "", ""); err == nil {
		merged.Schedules = MergeByID(schedules, local.Schedules, scheduleKey)
	} else if err = downgrade("schedules", err); err != nil {
		return localstore.DispatchData{}, domain.SyncResult{}, err
	}

	data := localstore.DispatchData{
		Jobs:             merged.Jobs,
		Employees:        merged.Employees,
		CustomerProfiles: merged.CustomerProfiles,
		Schedules:        merged.Schedules,
	}
	if !s.store.SaveDispatch(ctx, data) {
		s.logger.Warn("Local cache refresh failed after board merge")
	}
	return data, result, nil
}

// SaveJob dual-writes one job. Inline image payloads are migrated to
// object storage first, so the mirror never stores base64 blobs. A
// failed upload aborts the save. Without a configured mirror migration
// is skipped (object storage shares the remote credentials) and the
// inline payloads stay in the cache until a backfill or sweep runs.
func (s *DispatchService) SaveJob(ctx context.Context, job domain.Job) (domain.Job, domain.SyncResult, error) {
	if s.mirror.Configured() {
		migrated, uploaded, changed, err := s.pipeline.MigrateJob(ctx, job)
		if err != nil {
			return domain.Job{}, domain.SyncResult{}, err
		}
		if changed {
			s.logger.Info("Job images migrated to object storage",
				slog.String("job_id", job.JobID),
				slog.Int("uploaded", uploaded),
			)
		}
		job = migrated
	}

	stamp(&job.CreatedAt, &job.UpdatedAt)
	return dualWrite(ctx, s.logger, job, s.mirror.UpsertJob, func(ctx context.Context, j domain.Job) bool {
		data := s.store.LoadDispatch(ctx)
		data.Jobs = upsertByID(data.Jobs, j, jobKey)
		return s.store.SaveDispatch(ctx, data)
	})
}

// JobPatch carries the mutable scheduling fields of a job. Nil fields
// are left unchanged.
type JobPatch struct {
	Status            *string
	AssignedEmployees *[]string
	ScheduledDate     *string
	StartTime         *string
	EndTime           *string
}

// PatchJob applies a partial update to one job and dual-writes the
// result. The job is looked up on the merged board so records that only
// exist remotely can be patched too.
func (s *DispatchService) PatchJob(ctx context.Context, jobID string, patch JobPatch) (domain.Job, domain.SyncResult, error) {
	board, _, err := s.LoadBoard(ctx)
	if err != nil {
		return domain.Job{}, domain.SyncResult{}, err
	}

	var job domain.Job
	found := false
	for _, candidate := range board.Jobs {
		if candidate.JobID == jobID {
			job = candidate
			found = true
			break
		}
	}
	if !found {
		return domain.Job{}, domain.SyncResult{}, fmt.Errorf("%w: job %s", domain.ErrNotFound, jobID)
	}

	if patch.Status != nil {
		if !domain.ValidStatus(*patch.Status) {
			return domain.Job{}, domain.SyncResult{}, fmt.Errorf("%w: invalid job status %q", domain.ErrValidation, *patch.Status)
		}
		job.Status = *patch.Status
	}
	if patch.AssignedEmployees != nil {
		job.AssignedEmployees = *patch.AssignedEmployees
		if patch.Status == nil {
			if len(job.AssignedEmployees) > 0 && job.Status == domain.JobStatusPending {
				job.Status = domain.JobStatusAssigned
			} else if len(job.AssignedEmployees) == 0 && job.Status == domain.JobStatusAssigned {
				job.Status = domain.JobStatusPending
			}
		}
	}
	if patch.ScheduledDate != nil {
		job.ScheduledDate = *patch.ScheduledDate
	}
	if patch.StartTime != nil {
		job.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		job.EndTime = *patch.EndTime
	}

	return s.SaveJob(ctx, job)
}

// DeleteJob removes a job remotely and from the cache.
func (s *DispatchService) DeleteJob(ctx context.Context, jobID string) (domain.SyncResult, error) {
	return dualDelete(ctx,
		func(ctx context.Context) error { return s.mirror.DeleteJob(ctx, jobID) },
		func(ctx context.Context) bool {
			data := s.store.LoadDispatch(ctx)
			data.Jobs = removeByID(data.Jobs, jobID, jobKey)
			return s.store.SaveDispatch(ctx, data)
		},
	)
}

// SaveEmployee dual-writes one employee and refreshes the derived
// inspection-side record, both locally and (best effort) remotely.
func (s *DispatchService) SaveEmployee(ctx context.Context, employee domain.Employee) (domain.Employee, domain.SyncResult, error) {
	stamp(&employee.CreatedAt, &employee.UpdatedAt)
	saved, result, err := dualWrite(ctx, s.logger, employee, s.mirror.UpsertEmployee, func(ctx context.Context, e domain.Employee) bool {
		data := s.store.LoadDispatch(ctx)
		data.Employees = upsertByID(data.Employees, e, employeeKey)
		return s.store.SaveDispatch(ctx, data)
	})
	if err != nil {
		return domain.Employee{}, domain.SyncResult{}, err
	}

	mirrored := saved.MirrorForInspection()
	employees := s.store.LoadInspectionEmployees(ctx)
	employees = upsertByID(employees, mirrored, func(e domain.InspectionEmployee) string { return e.EmployeeID })
	s.store.SaveInspectionEmployees(ctx, employees)

	if _, err := s.mirror.UpsertInspectionEmployee(ctx, mirrored); err != nil {
		if _, recoverable := fallbackDetail(err); !recoverable {
			s.logger.Warn("Inspection employee mirror write failed",
				slog.String("employee_id", mirrored.EmployeeID),
				slog.String("error", err.Error()),
			)
		}
	}
	return saved, result, nil
}

// DeleteEmployee removes an employee and cascades: the employee is
// unassigned from every job that references it, and the derived
// inspection-side record is removed from both stores.
func (s *DispatchService) DeleteEmployee(ctx context.Context, employeeID string) (domain.SyncResult, error) {
	// Refresh the cache from the merged board first so the cascade also
	// reaches jobs that only exist remotely; otherwise the next merge
	// would re-introduce the dangling assignment.
	if s.mirror.Configured() {
		if _, _, err := s.LoadBoard(ctx); err != nil {
			s.logger.Warn("Board refresh before employee delete failed",
				slog.String("employee_id", employeeID),
				slog.String("error", err.Error()),
			)
		}
	}

	result, err := dualDelete(ctx,
		func(ctx context.Context) error { return s.mirror.DeleteEmployee(ctx, employeeID) },
		func(ctx context.Context) bool {
			data := s.store.LoadDispatch(ctx)
			data.Employees = removeByID(data.Employees, employeeID, employeeKey)
			data.Jobs = s.unassignFromJobs(ctx, data.Jobs, employeeID)
			return s.store.SaveDispatch(ctx, data)
		},
	)
	if err != nil {
		return domain.SyncResult{}, err
	}

	employees := s.store.LoadInspectionEmployees(ctx)
	employees = removeByID(employees, employeeID, func(e domain.InspectionEmployee) string { return e.EmployeeID })
	s.store.SaveInspectionEmployees(ctx, employees)

	if err := s.mirror.DeleteInspectionEmployee(ctx, employeeID); err != nil && !isNotFound(err) {
		if _, recoverable := fallbackDetail(err); !recoverable {
			s.logger.Warn("Inspection employee mirror delete failed",
				slog.String("employee_id", employeeID),
				slog.String("error", err.Error()),
			)
		}
	}
	return result, nil
}

// unassignFromJobs drops the employee from every job's assignment list.
// A job left with no assignees falls back from ASSIGNED to PENDING. Jobs
// that changed are pushed to the mirror best effort.
func (s *DispatchService) unassignFromJobs(ctx context.Context, jobs []domain.Job, employeeID string) []domain.Job {
	for i := range jobs {
		assigned := jobs[i].AssignedEmployees
		kept := assigned[:0]
		for _, id := range assigned {
			if id != employeeID {
				kept = append(kept, id)
			}
		}
		if len(kept) == len(assigned) {
			continue
		}

		jobs[i].AssignedEmployees = kept
		if len(kept) == 0 && jobs[i].Status == domain.JobStatusAssigned {
			jobs[i].Status = domain.JobStatusPending
		}
		jobs[i].UpdatedAt = time.Now().UTC()

		if _, err := s.mirror.UpsertJob(ctx, jobs[i]); err != nil {
			if _, recoverable := fallbackDetail(err); !recoverable {
				s.logger.Warn("Failed to push unassignment",
					slog.String("job_id", jobs[i].JobID),
					slog.String("error", err.Error()),
				)
			}
		}
	}
	return jobs
}

// SaveProfile dual-writes one customer profile.
func (s *DispatchService) SaveProfile(ctx context.Context, profile domain.CustomerProfile) (domain.CustomerProfile, domain.SyncResult, error) {
	stamp(&profile.CreatedAt, &profile.UpdatedAt)
	return dualWrite(ctx, s.logger, profile, s.mirror.UpsertProfile, func(ctx context.Context, p domain.CustomerProfile) bool {
		data := s.store.LoadDispatch(ctx)
		data.CustomerProfiles = upsertByID(data.CustomerProfiles, p, profileKey)
		return s.store.SaveDispatch(ctx, data)
	})
}

// DeleteProfile removes a customer profile remotely and from the cache.
func (s *DispatchService) DeleteProfile(ctx context.Context, profileID string) (domain.SyncResult, error) {
	return dualDelete(ctx,
		func(ctx context.Context) error { return s.mirror.DeleteProfile(ctx, profileID) },
		func(ctx context.Context) bool {
			data := s.store.LoadDispatch(ctx)
			data.CustomerProfiles = removeByID(data.CustomerProfiles, profileID, profileKey)
			return s.store.SaveDispatch(ctx, data)
		},
	)
}

// SaveSchedule dual-writes one schedule entry.
func (s *DispatchService) SaveSchedule(ctx context.Context, entry domain.ScheduleEntry) (domain.ScheduleEntry, domain.SyncResult, error) {
	stamp(&entry.CreatedAt, &entry.UpdatedAt)
	return dualWrite(ctx, s.logger, entry, s.mirror.UpsertSchedule, func(ctx context.Context, e domain.ScheduleEntry) bool {
		data := s.store.LoadDispatch(ctx)
		data.Schedules = upsertByID(data.Schedules, e, scheduleKey)
		return s.store.SaveDispatch(ctx, data)
	})
}

// DeleteSchedule removes a schedule entry remotely and from the cache.
func (s *DispatchService) DeleteSchedule(ctx context.Context, scheduleID string) (domain.SyncResult, error) {
	return dualDelete(ctx,
		func(ctx context.Context) error { return s.mirror.DeleteSchedule(ctx, scheduleID) },
		func(ctx context.Context) bool {
			data := s.store.LoadDispatch(ctx)
			data.Schedules = removeByID(data.Schedules, scheduleID, scheduleKey)
			return s.store.SaveDispatch(ctx, data)
		},
	)
}

// ReportLocation records an employee's latest position, overwriting the
// previous report for that employee.
func (s *DispatchService) ReportLocation(ctx context.Context, location domain.EmployeeLocation) (domain.EmployeeLocation, domain.SyncResult, error) {
	if location.ReportedAt.IsZero() {
		location.ReportedAt = time.Now().UTC()
	}
	return dualWrite(ctx, s.logger, location, s.mirror.UpsertLocation, func(ctx context.Context, l domain.EmployeeLocation) bool {
		locations := s.store.LoadLocations(ctx)
		locations[l.EmployeeID] = l
		return s.store.SaveLocations(ctx, locations)
	})
}

// ListLocations returns the employee-location map, merged with the remote
// mirror when reachable.
func (s *DispatchService) ListLocations(ctx context.Context) (map[string]domain.EmployeeLocation, domain.SyncResult, error) {
	local := s.store.LoadLocations(ctx)
	if !s.mirror.Configured() {
		return local, domain.FallbackResult("remote not configured"), nil
	}

	fetched, err := s.mirror.ListLocations(ctx)
	if err != nil {
		detail, recoverable := fallbackDetail(err)
		if !recoverable {
			return nil, domain.SyncResult{}, err
		}
		return local, domain.FallbackResult(detail), nil
	}

	byID := make(map[string]domain.EmployeeLocation, len(fetched))
	for _, loc := range fetched {
		byID[loc.EmployeeID] = loc
	}
	merged := MergeLocations(byID, local)
	s.store.SaveLocations(ctx, merged)
	return merged, domain.RemoteResult(), nil
}

// GenerateRecurringJobs expands the recurring customer profiles into
// concrete jobs for the week starting at weekStart (YYYY-MM-DD) and
// persists each one through the dual-write path. The board is loaded
// through LoadBoard first so remote jobs count when checking for
// already-generated slots.
func (s *DispatchService) GenerateRecurringJobs(ctx context.Context, weekStart string) ([]domain.Job, domain.SyncResult, error) {
	start, err := time.Parse("2006-01-02", weekStart)
	if err != nil {
		return nil, domain.SyncResult{}, fmt.Errorf("%w: invalid week start %q", domain.ErrValidation, weekStart)
	}

	board, result, err := s.LoadBoard(ctx)
	if err != nil {
		return nil, domain.SyncResult{}, err
	}

	generated := schedule.Generate(board.CustomerProfiles, board.Jobs, start, start.AddDate(0, 0, 6))

	saved := make([]domain.Job, 0, len(generated))
	for _, job := range generated {
		persisted, jobResult, err := s.SaveJob(ctx, job)
		if err != nil {
			return nil, domain.SyncResult{}, fmt.Errorf("failed to persist generated job: %w", err)
		}
		if jobResult.Outcome == domain.OutcomeLocalFallback {
			result = jobResult
		}
		saved = append(saved, persisted)
	}

	s.logger.Info("Recurring jobs generated",
		slog.String("week_start", weekStart),
		slog.Int("count", len(saved)),
	)
	return saved, result, nil
}

// BackfillRemote pushes every locally cached dispatch record to the
// mirror, parents before children so foreign keys resolve without retry.
// A collection whose relation is not provisioned is skipped; any other
// failure stops the backfill so it can be retried from the queue.
func (s *DispatchService) BackfillRemote(ctx context.Context) (int, error) {
	if !s.mirror.Configured() {
		return 0, domain.ErrNotConfigured
	}

	data := s.store.LoadDispatch(ctx)
	pushed := 0

	push := func(collection string, upsert func() error) error {
		err := upsert()
		switch {
		case err == nil:
			pushed++
			return nil
		case errors.Is(err, domain.ErrRelationMissing):
			s.logger.Warn("Skipping backfill for unprovisioned relation",
				slog.String("collection", collection),
			)
			return errSkipCollection
		}
		return fmt.Errorf("backfill of %s failed: %w", collection, err)
	}

	for _, profile := range data.CustomerProfiles {
		p := profile
		if err := push("customer profiles", func() error {
			_, err := s.mirror.UpsertProfile(ctx, p)
			return err
		}); err != nil {
			if errors.Is(err, errSkipCollection) {
				break
			}
			return pushed, err
		}
	}

	for _, employee := range data.Employees {
		e := employee
		if err := push("employees", func() error {
			_, err := s.mirror.UpsertEmployee(ctx, e)
			return err
		}); err != nil {
			if errors.Is(err, errSkipCollection) {
				break
			}
			return pushed, err
		}
	}

	for _, job := range data.Jobs {
		j := job
		if err := push("jobs", func() error {
			_, err := s.mirror.UpsertJob(ctx, j)
			return err
		}); err != nil {
			if errors.Is(err, errSkipCollection) {
				break
			}
			return pushed, err
		}
	}

	for _, entry := range data.Schedules {
		e := entry
		if err := push("schedules", func() error {
			_, err := s.mirror.UpsertSchedule(ctx, e)
			return err
		}); err != nil {
			if errors.Is(err, errSkipCollection) {
				break
			}
			return pushed, err
		}
	}

	for _, location := range s.store.LoadLocations(ctx) {
		l := location
		if err := push("employee locations", func() error {
			_, err := s.mirror.UpsertLocation(ctx, l)
			return err
		}); err != nil {
			if errors.Is(err, errSkipCollection) {
				break
			}
			return pushed, err
		}
	}

	for _, employee := range s.store.LoadInspectionEmployees(ctx) {
		e := employee
		if err := push("inspection employees", func() error {
			_, err := s.mirror.UpsertInspectionEmployee(ctx, e)
			return err
		}); err != nil {
			if errors.Is(err, errSkipCollection) {
				break
			}
			return pushed, err
		}
	}

	s.logger.Info("Remote backfill finished", slog.Int("pushed", pushed))
	return pushed, nil
}

// errSkipCollection aborts one collection's backfill loop without failing
// the whole run.
var errSkipCollection = errors.New("collection skipped")

// MigrateRemoteAssets sweeps remote jobs still carrying inline image
// payloads (saved through the local-fallback path and backfilled as-is)
// and rewrites them to object-storage URLs. Returns the number of
// uploads performed.
func (s *DispatchService) MigrateRemoteAssets(ctx context.Context) (int, error) {
	if !s.mirror.Configured() {
		return 0, domain.ErrNotConfigured
	}

	uploads := 0

	jobs, err := s.mirror.ListJobs(ctx, "", "")
	if err != nil && !errors.Is(err, domain.ErrRelationMissing) {
		return 0, fmt.Errorf("failed to list jobs for migration: %w", err)
	}
	for _, job := range jobs {
		migrated, uploaded, changed, err := s.pipeline.MigrateJob(ctx, job)
		if err != nil {
			return uploads, fmt.Errorf("failed to migrate job %s: %w", job.JobID, err)
		}
		if !changed {
			continue
		}
		if _, err := s.mirror.UpsertJob(ctx, migrated); err != nil {
			return uploads, fmt.Errorf("failed to store migrated job %s: %w", job.JobID, err)
		}
		uploads += uploaded
	}

	s.logger.Info("Job asset sweep finished", slog.Int("uploads", uploads))
	return uploads, nil
}

// ExportBackup snapshots the local store into the versioned envelope.
func (s *DispatchService) ExportBackup(ctx context.Context) localstore.BackupEnvelope {
	return s.store.ExportBackup(ctx)
}

// ImportBackup replaces the local store from a backup envelope. Remote
// state is untouched; the next sync reconciles.
func (s *DispatchService) ImportBackup(ctx context.Context, raw []byte) error {
	return s.store.ImportBackup(ctx, raw)
}
