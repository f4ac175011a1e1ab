package remote

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/crewops/opsync/internal/domain"
	"github.com/crewops/opsync/internal/localstore"
)

// Mirror exposes per-entity operations against the remote backend, with
// the bounded recovery rules layered on top of the raw gateway:
//
//   - foreign-key violation: auto-provision a minimal parent row (from the
//     local cache, or a synthesized placeholder) and retry the original
//     write exactly once;
//   - missing optional column: strip that column from the payload and
//     retry exactly once;
//   - relation missing: surface ErrRelationMissing immediately, no retry.
//
// Anything else propagates to the caller.
type Mirror struct {
	client *Client
	store  *localstore.Store
	logger *slog.Logger
}

// NewMirror creates a mirror over the gateway client. The local store is
// consulted when a parent record must be provisioned.
func NewMirror(client *Client, store *localstore.Store, logger *slog.Logger) *Mirror {
	return &Mirror{client: client, store: store, logger: logger}
}

// Configured reports whether the runtime settings carry a backend.
func (m *Mirror) Configured() bool {
	return m.client.settings.Configured()
}

// upsertRow writes one row with the bounded recovery rules. Each recovery
// kind fires at most once per write.
func (m *Mirror) upsertRow(ctx context.Context, table string, row interface{}, out interface{}, provision func(ctx context.Context) error) error {
	cols, err := rowToMap(row)
	if err != nil {
		return err
	}

	var colRetried, fkRetried bool
	for {
		err := m.client.Upsert(ctx, table, []map[string]interface{}{cols}, out)
		if err == nil {
			return nil
		}

		ge, ok := AsGatewayError(err)
		if !ok {
			return err
		}

		switch ge.Class.Kind {
		case KindColumnMissing:
			column := ge.Class.Column
			if colRetried || column == "" || column == "id" {
				return err
			}
			if _, present := cols[column]; !present {
				return err
			}
			m.logger.Warn("Retrying upsert without missing column",
				slog.String("table", table),
				slog.String("column", column),
			)
			delete(cols, column)
			colRetried = true

		case KindForeignKeyViolation:
			if fkRetried || provision == nil {
				return err
			}
			m.logger.Warn("Provisioning missing parent record",
				slog.String("table", table),
				slog.String("parent_table", ge.Class.ReferencedTable),
			)
			if perr := provision(ctx); perr != nil {
				return fmt.Errorf("failed to provision parent for %s: %w", table, perr)
			}
			fkRetried = true

		default:
			return err
		}
	}
}

// firstOrNotFound unwraps the single-row representation PostgREST returns.
func firstOrNotFound[T any](rows []T) (T, error) {
	var zero T
	if len(rows) == 0 {
		return zero, domain.ErrNotFound
	}
	return rows[0], nil
}

// --- Jobs ---

// provisionProfile upserts a minimal customer profile so a job write can
// satisfy its foreign key. The local cache is the preferred source; a
// placeholder is synthesized when the profile is unknown locally.
func (m *Mirror) provisionProfile(ctx context.Context, profileID string) error {
	now := time.Now().UTC()
	profile := domain.CustomerProfile{
		ProfileID: profileID,
		Name:      "Unknown customer " + profileID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, p := range m.store.LoadDispatch(ctx).CustomerProfiles {
		if p.ProfileID == profileID {
			profile = p
			break
		}
	}
	return m.client.Upsert(ctx, TableProfiles, []profileRow{profileToRow(profile)}, nil)
}

// UpsertJob writes a job and returns the backend's representation.
func (m *Mirror) UpsertJob(ctx context.Context, job domain.Job) (domain.Job, error) {
	var rows []jobRow
	provision := func(ctx context.Context) error {
		if job.CustomerProfileID == "" {
			return domain.ErrNotFound
		}
		return m.provisionProfile(ctx, job.CustomerProfileID)
	}
	if err := m.upsertRow(ctx, TableJobs, jobToRow(job), &rows, provision); err != nil {
		return domain.Job{}, err
	}
	row, err := firstOrNotFound(rows)
	if err != nil {
		return domain.Job{}, err
	}
	return row.toDomain(), nil
}

// ListJobs fetches jobs, optionally bounded to a scheduled-date window.
func (m *Mirror) ListJobs(ctx context.Context, fromDate, toDate string) ([]domain.Job, error) {
	filters := url.Values{}
	filters.Set("order", "scheduled_date.asc.nullslast")
	if fromDate != "" {
		filters.Add("scheduled_date", "gte."+fromDate)
	}
	if toDate != "" {
		filters.Add("scheduled_date", "lte."+toDate)
	}

	var rows []jobRow
	if err := m.client.List(ctx, TableJobs, filters, &rows); err != nil {
		return nil, err
	}
	jobs := make([]domain.Job, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, row.toDomain())
	}
	return jobs, nil
}

// DeleteJob removes a job row.
func (m *Mirror) DeleteJob(ctx context.Context, jobID string) error {
	return m.client.Delete(ctx, TableJobs, jobID)
}

// --- Employees ---

// UpsertEmployee writes an employee and returns the representation.
func (m *Mirror) UpsertEmployee(ctx context.Context, employee domain.Employee) (domain.Employee, error) {
	var rows []employeeRow
	if err := m.upsertRow(ctx, TableEmployees, employeeToRow(employee), &rows, nil); err != nil {
		return domain.Employee{}, err
	}
	row, err := firstOrNotFound(rows)
	if err != nil {
		return domain.Employee{}, err
	}
	return row.toDomain(), nil
}

// ListEmployees fetches every employee.
func (m *Mirror) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	filters := url.Values{}
	filters.Set("order", "name.asc")

	var rows []employeeRow
	if err := m.client.List(ctx, TableEmployees, filters, &rows); err != nil {
		return nil, err
	}
	employees := make([]domain.Employee, 0, len(rows))
	for _, row := range rows {
		employees = append(employees, row.toDomain())
	}
	return employees, nil
}

// DeleteEmployee removes an employee row.
func (m *Mirror) DeleteEmployee(ctx context.Context, employeeID string) error {
	return m.client.Delete(ctx, TableEmployees, employeeID)
}

// provisionEmployee upserts a minimal employee so a dependent write can
// satisfy its foreign key.
func (m *Mirror) provisionEmployee(ctx context.Context, employeeID string) error {
	now := time.Now().UTC()
	employee := domain.Employee{
		EmployeeID:   employeeID,
		Name:         "Unknown employee " + employeeID,
		Availability: domain.AvailabilityAvailable,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, e := range m.store.LoadDispatch(ctx).Employees {
		if e.EmployeeID == employeeID {
			employee = e
			break
		}
	}
	return m.client.Upsert(ctx, TableEmployees, []employeeRow{employeeToRow(employee)}, nil)
}

// --- Customer profiles ---

// UpsertProfile writes a customer profile and returns the representation.
func (m *Mirror) UpsertProfile(ctx context.Context, profile domain.CustomerProfile) (domain.CustomerProfile, error) {
	var rows []profileRow
	if err := m.upsertRow(ctx, TableProfiles, profileToRow(profile), &rows, nil); err != nil {
		return domain.CustomerProfile{}, err
	}
	row, err := firstOrNotFound(rows)
	if err != nil {
		return domain.CustomerProfile{}, err
	}
	return row.toDomain(), nil
}

// ListProfiles fetches every customer profile.
func (m *Mirror) ListProfiles(ctx context.Context) ([]domain.CustomerProfile, error) {
	filters := url.Values{}
	filters.Set("order", "name.asc")

	var rows []profileRow
	if err := m.client.List(ctx, TableProfiles, filters, &rows); err != nil {
		return nil, err
	}
	profiles := make([]domain.CustomerProfile, 0, len(rows))
	for _, row := range rows {
		profiles = append(profiles, row.toDomain())
	}
	return profiles, nil
}

// DeleteProfile removes a customer profile row.
func (m *Mirror) DeleteProfile(ctx context.Context, profileID string) error {
	return m.client.Delete(ctx, TableProfiles, profileID)
}

// --- Schedules ---

// UpsertSchedule writes a schedule entry, provisioning the referenced
// employee on a foreign-key violation.
func (m *Mirror) UpsertSchedule(ctx context.Context, entry domain.ScheduleEntry) (domain.ScheduleEntry, error) {
	var rows []scheduleRow
	provision := func(ctx context.Context) error {
		return m.provisionEmployee(ctx, entry.EmployeeID)
	}
	if err := m.upsertRow(ctx, TableSchedules, scheduleToRow(entry), &rows, provision); err != nil {
		return domain.ScheduleEntry{}, err
	}
	row, err := firstOrNotFound(rows)
	if err != nil {
		return domain.ScheduleEntry{}, err
	}
	return row.toDomain(), nil
}

// ListSchedules fetches schedule entries, optionally bounded by date.
func (m *Mirror) ListSchedules(ctx context.Context, fromDate, toDate string) ([]domain.ScheduleEntry, error) {
	filters := url.Values{}
	filters.Set("order", "date.asc")
	if fromDate != "" {
		filters.Add("date", "gte."+fromDate)
	}
	if toDate != "" {
		filters.Add("date", "lte."+toDate)
	}

	var rows []scheduleRow
	if err := m.client.List(ctx, TableSchedules, filters, &rows); err != nil {
		return nil, err
	}
	entries := make([]domain.ScheduleEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toDomain())
	}
	return entries, nil
}

// DeleteSchedule removes a schedule entry row.
func (m *Mirror) DeleteSchedule(ctx context.Context, scheduleID string) error {
	return m.client.Delete(ctx, TableSchedules, scheduleID)
}

// --- Employee locations ---

// UpsertLocation writes a location report. The row references its
// employee, which may not be mirrored yet: the foreign-key recovery
// provisions it and the original write is retried once.
func (m *Mirror) UpsertLocation(ctx context.Context, location domain.EmployeeLocation) (domain.EmployeeLocation, error) {
	var rows []locationRow
	provision := func(ctx context.Context) error {
		return m.provisionEmployee(ctx, location.EmployeeID)
	}
	if err := m.upsertRow(ctx, TableLocations, locationToRow(location), &rows, provision); err != nil {
		return domain.EmployeeLocation{}, err
	}
	row, err := firstOrNotFound(rows)
	if err != nil {
		return domain.EmployeeLocation{}, err
	}
	return row.toDomain(), nil
}

// ListLocations fetches every location report.
func (m *Mirror) ListLocations(ctx context.Context) ([]domain.EmployeeLocation, error) {
	filters := url.Values{}
	filters.Set("order", "reported_at.desc.nullslast")

	var rows []locationRow
	if err := m.client.List(ctx, TableLocations, filters, &rows); err != nil {
		return nil, err
	}
	locations := make([]domain.EmployeeLocation, 0, len(rows))
	for _, row := range rows {
		locations = append(locations, row.toDomain())
	}
	return locations, nil
}

// --- Inspection reports ---

// UpsertReport writes the canonical (image- or URL-bearing) report.
func (m *Mirror) UpsertReport(ctx context.Context, report domain.InspectionReport) (domain.InspectionReport, error) {
	row, err := reportToRow(report)
	if err != nil {
		return domain.InspectionReport{}, err
	}
	var rows []reportRow
	if err := m.upsertRow(ctx, TableReports, row, &rows, nil); err != nil {
		return domain.InspectionReport{}, err
	}
	echoed, err := firstOrNotFound(rows)
	if err != nil {
		return domain.InspectionReport{}, err
	}
	return echoed.toDomain(), nil
}

// ListReports fetches reports newest-first, optionally bounded to a
// checkout-date window.
func (m *Mirror) ListReports(ctx context.Context, fromDate, toDate string) ([]domain.InspectionReport, error) {
	filters := url.Values{}
	filters.Set("order", "submitted_at.desc.nullslast")
	if fromDate != "" {
		filters.Add("checkout_date", "gte."+fromDate)
	}
	if toDate != "" {
		filters.Add("checkout_date", "lte."+toDate)
	}

	var rows []reportRow
	if err := m.client.List(ctx, TableReports, filters, &rows); err != nil {
		return nil, err
	}
	reports := make([]domain.InspectionReport, 0, len(rows))
	for _, row := range rows {
		reports = append(reports, row.toDomain())
	}
	return reports, nil
}

// GetReport fetches one canonical report by id.
func (m *Mirror) GetReport(ctx context.Context, reportID string) (domain.InspectionReport, error) {
	filters := url.Values{}
	filters.Set("id", "eq."+reportID)

	var rows []reportRow
	if err := m.client.List(ctx, TableReports, filters, &rows); err != nil {
		return domain.InspectionReport{}, err
	}
	row, err := firstOrNotFound(rows)
	if err != nil {
		return domain.InspectionReport{}, err
	}
	return row.toDomain(), nil
}

// DeleteReport removes a report row.
func (m *Mirror) DeleteReport(ctx context.Context, reportID string) error {
	return m.client.Delete(ctx, TableReports, reportID)
}

// --- Property templates ---

// UpsertTemplate writes a property template.
func (m *Mirror) UpsertTemplate(ctx context.Context, template domain.PropertyTemplate) (domain.PropertyTemplate, error) {
	row, err := templateToRow(template)
	if err != nil {
		return domain.PropertyTemplate{}, err
	}
	var rows []templateRow
	if err := m.upsertRow(ctx, TableTemplates, row, &rows, nil); err != nil {
		return domain.PropertyTemplate{}, err
	}
	echoed, err := firstOrNotFound(rows)
	if err != nil {
		return domain.PropertyTemplate{}, err
	}
	return echoed.toDomain(), nil
}

// ListTemplates fetches every property template.
func (m *Mirror) ListTemplates(ctx context.Context) ([]domain.PropertyTemplate, error) {
	filters := url.Values{}
	filters.Set("order", "property_name.asc")

	var rows []templateRow
	if err := m.client.List(ctx, TableTemplates, filters, &rows); err != nil {
		return nil, err
	}
	templates := make([]domain.PropertyTemplate, 0, len(rows))
	for _, row := range rows {
		templates = append(templates, row.toDomain())
	}
	return templates, nil
}

// --- Inspection employees (mirror of Employee) ---

// UpsertInspectionEmployee writes the derived inspection-side employee
// record, provisioning the parent employee if the backend enforces it.
func (m *Mirror) UpsertInspectionEmployee(ctx context.Context, employee domain.InspectionEmployee) (domain.InspectionEmployee, error) {
	var rows []inspectionEmployeeRow
	provision := func(ctx context.Context) error {
		return m.provisionEmployee(ctx, employee.EmployeeID)
	}
	if err := m.upsertRow(ctx, TableInspectionEmployees, inspectionEmployeeToRow(employee), &rows, provision); err != nil {
		return domain.InspectionEmployee{}, err
	}
	row, err := firstOrNotFound(rows)
	if err != nil {
		return domain.InspectionEmployee{}, err
	}
	return row.toDomain(), nil
}

// DeleteInspectionEmployee removes the mirrored record.
func (m *Mirror) DeleteInspectionEmployee(ctx context.Context, employeeID string) error {
	return m.client.Delete(ctx, TableInspectionEmployees, employeeID)
}
