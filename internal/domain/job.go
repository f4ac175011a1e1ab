package domain

import "time"

// Job status constants
const (
	JobStatusPending    = "PENDING"
	JobStatusAssigned   = "ASSIGNED"
	JobStatusInProgress = "IN_PROGRESS"
	JobStatusCompleted  = "COMPLETED"
	JobStatusCancelled  = "CANCELLED"
)

// Job is a single unit of scheduled work on the dispatch board.
// Identifiers are client-generated, so every remote write uses
// upsert-by-id semantics rather than insert.
type Job struct {
	JobID             string    `json:"jobId"`
	Title             string    `json:"title"`
	ServiceType       string    `json:"serviceType"`
	Status            string    `json:"status"`
	Priority          int       `json:"priority"`
	ScheduledDate     string    `json:"scheduledDate"` // YYYY-MM-DD
	StartTime         string    `json:"startTime"`     // HH:MM
	EndTime           string    `json:"endTime"`       // HH:MM
	CustomerProfileID string    `json:"customerProfileId,omitempty"`
	AssignedEmployees []string  `json:"assignedEmployees,omitempty"`
	Description       string    `json:"description,omitempty"`
	Notes             string    `json:"notes,omitempty"`
	Address           string    `json:"address,omitempty"`
	Phone             string    `json:"phone,omitempty"`
	ImageURLs         []string  `json:"imageUrls,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// ValidStatus reports whether s is one of the job status constants.
func ValidStatus(s string) bool {
	switch s {
	case JobStatusPending, JobStatusAssigned, JobStatusInProgress,
		JobStatusCompleted, JobStatusCancelled:
		return true
	}
	return false
}

// ScheduleEntry is a shift assignment row on the weekly schedule board.
type ScheduleEntry struct {
	ScheduleID string    `json:"scheduleId"`
	EmployeeID string    `json:"employeeId"`
	JobID      string    `json:"jobId,omitempty"`
	Date       string    `json:"date"` // YYYY-MM-DD
	StartTime  string    `json:"startTime"`
	EndTime    string    `json:"endTime"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
