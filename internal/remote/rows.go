package remote

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/crewops/opsync/internal/domain"
)

// Remote table names.
const (
	TableJobs                = "jobs"
	TableEmployees           = "employees"
	TableProfiles            = "customer_profiles"
	TableSchedules           = "schedules"
	TableLocations           = "employee_locations"
	TableReports             = "inspection_reports"
	TableTemplates           = "property_templates"
	TableInspectionEmployees = "inspection_employees"
)

// Row types mirror the backend's snake_case columns. Conversions copy by
// value; nothing is shared with the domain structs.

type jobRow struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	ServiceType       string    `json:"service_type"`
	Status            string    `json:"status"`
	Priority          int       `json:"priority"`
	ScheduledDate     string    `json:"scheduled_date"`
	StartTime         string    `json:"start_time"`
	EndTime           string    `json:"end_time"`
	CustomerProfileID *string   `json:"customer_profile_id,omitempty"`
	AssignedEmployees []string  `json:"assigned_employees,omitempty"`
	Description       string    `json:"description,omitempty"`
	Notes             string    `json:"notes,omitempty"`
	Address           string    `json:"address,omitempty"`
	Phone             string    `json:"phone,omitempty"`
	ImageURLs         []string  `json:"image_urls,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func jobToRow(j domain.Job) jobRow {
	row := jobRow{
		ID:                j.JobID,
		Title:             j.Title,
		ServiceType:       j.ServiceType,
		Status:            j.Status,
		Priority:          j.Priority,
		ScheduledDate:     j.ScheduledDate,
		StartTime:         j.StartTime,
		EndTime:           j.EndTime,
		AssignedEmployees: j.AssignedEmployees,
		Description:       j.Description,
		Notes:             j.Notes,
		Address:           j.Address,
		Phone:             j.Phone,
		ImageURLs:         j.ImageURLs,
		CreatedAt:         j.CreatedAt,
		UpdatedAt:         j.UpdatedAt,
	}
	if j.CustomerProfileID != "" {
		id := j.CustomerProfileID
		row.CustomerProfileID = &id
	}
	return row
}

func (r jobRow) toDomain() domain.Job {
	j := domain.Job{
		JobID:             r.ID,
		Title:             r.Title,
		ServiceType:       r.ServiceType,
		Status:            r.Status,
		Priority:          r.Priority,
		ScheduledDate:     r.ScheduledDate,
		StartTime:         r.StartTime,
		EndTime:           r.EndTime,
		AssignedEmployees: r.AssignedEmployees,
		Description:       r.Description,
		Notes:             r.Notes,
		Address:           r.Address,
		Phone:             r.Phone,
		ImageURLs:         r.ImageURLs,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	if r.CustomerProfileID != nil {
		j.CustomerProfileID = *r.CustomerProfileID
	}
	return j
}

type employeeRow struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	NameAlt      string    `json:"name_alt,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Skills       []string  `json:"skills,omitempty"`
	Availability string    `json:"availability"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func employeeToRow(e domain.Employee) employeeRow {
	return employeeRow{
		ID:           e.EmployeeID,
		Name:         e.Name,
		NameAlt:      e.NameAlt,
		Phone:        e.Phone,
		Skills:       e.Skills,
		Availability: e.Availability,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func (r employeeRow) toDomain() domain.Employee {
	return domain.Employee{
		EmployeeID:   r.ID,
		Name:         r.Name,
		NameAlt:      r.NameAlt,
		Phone:        r.Phone,
		Skills:       r.Skills,
		Availability: r.Availability,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type profileRow struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Address           string    `json:"address,omitempty"`
	Phone             string    `json:"phone,omitempty"`
	DefaultTitle      string    `json:"default_title,omitempty"`
	DefaultDesc       string    `json:"default_description,omitempty"`
	DefaultNotes      string    `json:"default_notes,omitempty"`
	RecurringEnabled  bool      `json:"recurring_enabled"`
	RecurringWeekdays []int     `json:"recurring_weekdays,omitempty"`
	RecurringWeekday  int       `json:"recurring_weekday,omitempty"`
	RecurringStart    string    `json:"recurring_start_time,omitempty"`
	RecurringEnd      string    `json:"recurring_end_time,omitempty"`
	RecurringService  string    `json:"recurring_service_type,omitempty"`
	RecurringPriority int       `json:"recurring_priority,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func profileToRow(p domain.CustomerProfile) profileRow {
	return profileRow{
		ID:                p.ProfileID,
		Name:              p.Name,
		Address:           p.Address,
		Phone:             p.Phone,
		DefaultTitle:      p.DefaultTitle,
		DefaultDesc:       p.DefaultDesc,
		DefaultNotes:      p.DefaultNotes,
		RecurringEnabled:  p.RecurringEnabled,
		RecurringWeekdays: p.RecurringWeekdays,
		RecurringWeekday:  p.RecurringWeekday,
		RecurringStart:    p.RecurringStart,
		RecurringEnd:      p.RecurringEnd,
		RecurringService:  p.RecurringService,
		RecurringPriority: p.RecurringPriority,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func (r profileRow) toDomain() domain.CustomerProfile {
	return domain.CustomerProfile{
		ProfileID:         r.ID,
		Name:              r.Name,
		Address:           r.Address,
		Phone:             r.Phone,
		DefaultTitle:      r.DefaultTitle,
		DefaultDesc:       r.DefaultDesc,
		DefaultNotes:      r.DefaultNotes,
		RecurringEnabled:  r.RecurringEnabled,
		RecurringWeekdays: r.RecurringWeekdays,
		RecurringWeekday:  r.RecurringWeekday,
		RecurringStart:    r.RecurringStart,
		RecurringEnd:      r.RecurringEnd,
		RecurringService:  r.RecurringService,
		RecurringPriority: r.RecurringPriority,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

type scheduleRow struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employee_id"`
	JobID      *string   `json:"job_id,omitempty"`
	Date       string    `json:"date"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func scheduleToRow(s domain.ScheduleEntry) scheduleRow {
	row := scheduleRow{
		ID:         s.ScheduleID,
		EmployeeID: s.EmployeeID,
		Date:       s.Date,
		StartTime:  s.StartTime,
		EndTime:    s.EndTime,
		Note:       s.Note,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
	if s.JobID != "" {
		id := s.JobID
		row.JobID = &id
	}
	return row
}

func (r scheduleRow) toDomain() domain.ScheduleEntry {
	s := domain.ScheduleEntry{
		ScheduleID: r.ID,
		EmployeeID: r.EmployeeID,
		Date:       r.Date,
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
		Note:       r.Note,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.JobID != nil {
		s.JobID = *r.JobID
	}
	return s
}

type locationRow struct {
	ID         string    `json:"id"` // employee id; one row per employee
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Accuracy   float64   `json:"accuracy,omitempty"`
	Source     string    `json:"source,omitempty"`
	Label      string    `json:"label,omitempty"`
	ReportedAt time.Time `json:"reported_at"`
}

func locationToRow(l domain.EmployeeLocation) locationRow {
	return locationRow{
		ID:         l.EmployeeID,
		Latitude:   l.Latitude,
		Longitude:  l.Longitude,
		Accuracy:   l.Accuracy,
		Source:     l.Source,
		Label:      l.Label,
		ReportedAt: l.ReportedAt,
	}
}

func (r locationRow) toDomain() domain.EmployeeLocation {
	return domain.EmployeeLocation{
		EmployeeID: r.ID,
		Latitude:   r.Latitude,
		Longitude:  r.Longitude,
		Accuracy:   r.Accuracy,
		Source:     r.Source,
		Label:      r.Label,
		ReportedAt: r.ReportedAt,
	}
}

// reportPayload is the nested checklist structure stored in the report
// row's JSON payload column.
type reportPayload struct {
	Notes      string                     `json:"notes,omitempty"`
	NoteImages []string                   `json:"noteImages,omitempty"`
	Sections   []domain.InspectionSection `json:"sections,omitempty"`
	Damages    []domain.DamageReport      `json:"damages,omitempty"`
	CheckIn    *domain.StayEvidence       `json:"checkIn,omitempty"`
	CheckOut   *domain.StayEvidence       `json:"checkOut,omitempty"`
}

type reportRow struct {
	ID           string          `json:"id"`
	PropertyID   string          `json:"property_id"`
	PropertyName string          `json:"property_name,omitempty"`
	Status       string          `json:"status"`
	CheckoutDate string          `json:"checkout_date,omitempty"`
	SubmittedAt  time.Time       `json:"submitted_at"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

func reportToRow(r domain.InspectionReport) (reportRow, error) {
	payload, err := json.Marshal(reportPayload{
		Notes:      r.Notes,
		NoteImages: r.NoteImages,
		Sections:   r.Sections,
		Damages:    r.Damages,
		CheckIn:    r.CheckIn,
		CheckOut:   r.CheckOut,
	})
	if err != nil {
		return reportRow{}, fmt.Errorf("failed to encode report payload: %w", err)
	}
	return reportRow{
		ID:           r.ReportID,
		PropertyID:   r.PropertyID,
		PropertyName: r.PropertyName,
		Status:       r.Status,
		CheckoutDate: r.CheckoutDate,
		SubmittedAt:  r.SubmittedAt,
		Payload:      payload,
	}, nil
}

func (r reportRow) toDomain() domain.InspectionReport {
	report := domain.InspectionReport{
		ReportID:     r.ID,
		PropertyID:   r.PropertyID,
		PropertyName: r.PropertyName,
		Status:       r.Status,
		CheckoutDate: r.CheckoutDate,
		SubmittedAt:  r.SubmittedAt,
	}
	if len(r.Payload) > 0 {
		var payload reportPayload
		// A payload this service wrote always parses; anything else is
		// treated as an empty checklist rather than a failed read.
		if err := json.Unmarshal(r.Payload, &payload); err == nil {
			report.Notes = payload.Notes
			report.NoteImages = payload.NoteImages
			report.Sections = payload.Sections
			report.Damages = payload.Damages
			report.CheckIn = payload.CheckIn
			report.CheckOut = payload.CheckOut
		}
	}
	return report
}

type templateRow struct {
	ID           string          `json:"id"`
	PropertyName string          `json:"property_name"`
	Notes        string          `json:"notes,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type templatePayload struct {
	NoteImages []string                 `json:"noteImages,omitempty"`
	Sections   []domain.TemplateSection `json:"sections,omitempty"`
}

func templateToRow(t domain.PropertyTemplate) (templateRow, error) {
	payload, err := json.Marshal(templatePayload{
		NoteImages: t.NoteImages,
		Sections:   t.Sections,
	})
	if err != nil {
		return templateRow{}, fmt.Errorf("failed to encode template payload: %w", err)
	}
	return templateRow{
		ID:           t.TemplateID,
		PropertyName: t.PropertyName,
		Notes:        t.Notes,
		Payload:      payload,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}, nil
}

func (r templateRow) toDomain() domain.PropertyTemplate {
	template := domain.PropertyTemplate{
		TemplateID:   r.ID,
		PropertyName: r.PropertyName,
		Notes:        r.Notes,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if len(r.Payload) > 0 {
		var payload templatePayload
		if err := json.Unmarshal(r.Payload, &payload); err == nil {
			template.NoteImages = payload.NoteImages
			template.Sections = payload.Sections
		}
	}
	return template
}

type inspectionEmployeeRow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Alias     string    `json:"alias,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func inspectionEmployeeToRow(e domain.InspectionEmployee) inspectionEmployeeRow {
	return inspectionEmployeeRow{
		ID:        e.EmployeeID,
		Name:      e.Name,
		Alias:     e.Alias,
		UpdatedAt: e.UpdatedAt,
	}
}

func (r inspectionEmployeeRow) toDomain() domain.InspectionEmployee {
	return domain.InspectionEmployee{
		EmployeeID: r.ID,
		Name:       r.Name,
		Alias:      r.Alias,
		UpdatedAt:  r.UpdatedAt,
	}
}

// rowToMap converts a row struct into a mutable column map so recovery
// retries can strip a missing column before resending.
func rowToMap(row interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("failed to encode row: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to decode row: %w", err)
	}
	return m, nil
}
