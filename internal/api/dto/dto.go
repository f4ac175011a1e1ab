package dto

import (
	"github.com/crewops/opsync/internal/domain"
)

// Write requests mirror the domain JSON shapes. Identifiers are optional
// on create; handlers generate one when absent so every remote write can
// use upsert-by-id semantics.

type SaveJobRequest struct {
	JobID             string   `json:"jobId"`
	Title             string   `json:"title" binding:"required"`
	ServiceType       string   `json:"serviceType"`
	Status            string   `json:"status"`
	Priority          int      `json:"priority"`
	ScheduledDate     string   `json:"scheduledDate" binding:"required"`
	StartTime         string   `json:"startTime"`
	EndTime           string   `json:"endTime"`
	CustomerProfileID string   `json:"customerProfileId"`
	AssignedEmployees []string `json:"assignedEmployees"`
	Description       string   `json:"description"`
	Notes             string   `json:"notes"`
	Address           string   `json:"address"`
	Phone             string   `json:"phone"`
	ImageURLs         []string `json:"imageUrls"`
}

func (r SaveJobRequest) ToDomain() domain.Job {
	return domain.Job{
		JobID:             r.JobID,
		Title:             r.Title,
		ServiceType:       r.ServiceType,
		Status:            r.Status,
		Priority:          r.Priority,
		ScheduledDate:     r.ScheduledDate,
		StartTime:         r.StartTime,
		EndTime:           r.EndTime,
		CustomerProfileID: r.CustomerProfileID,
		AssignedEmployees: r.AssignedEmployees,
		Description:       r.Description,
		Notes:             r.Notes,
		Address:           r.Address,
		Phone:             r.Phone,
		ImageURLs:         r.ImageURLs,
	}
}

type SaveEmployeeRequest struct {
	EmployeeID   string   `json:"employeeId"`
	Name         string   `json:"name" binding:"required"`
	NameAlt      string   `json:"nameAlt"`
	Phone        string   `json:"phone"`
	Skills       []string `json:"skills"`
	Availability string   `json:"availability"`
}

func (r SaveEmployeeRequest) ToDomain() domain.Employee {
	return domain.Employee{
		EmployeeID:   r.EmployeeID,
		Name:         r.Name,
		NameAlt:      r.NameAlt,
		Phone:        r.Phone,
		Skills:       r.Skills,
		Availability: r.Availability,
	}
}

type SaveProfileRequest struct {
	ProfileID         string `json:"profileId"`
	Name              string `json:"name" binding:"required"`
	Address           string `json:"address"`
	Phone             string `json:"phone"`
	DefaultTitle      string `json:"defaultTitle"`
	DefaultDesc       string `json:"defaultDescription"`
	DefaultNotes      string `json:"defaultNotes"`
	RecurringEnabled  bool   `json:"recurringEnabled"`
	RecurringWeekdays []int  `json:"recurringWeekdays"`
	RecurringWeekday  int    `json:"recurringWeekday"`
	RecurringStart    string `json:"recurringStartTime"`
	RecurringEnd      string `json:"recurringEndTime"`
	RecurringService  string `json:"recurringServiceType"`
	RecurringPriority int    `json:"recurringPriority"`
}

func (r SaveProfileRequest) ToDomain() domain.CustomerProfile {
	return domain.CustomerProfile{
		ProfileID:         r.ProfileID,
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
	}
}

type SaveScheduleRequest struct {
	ScheduleID string `json:"scheduleId"`
	EmployeeID string `json:"employeeId" binding:"required"`
	JobID      string `json:"jobId"`
	Date       string `json:"date" binding:"required"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	Note       string `json:"note"`
}

func (r SaveScheduleRequest) ToDomain() domain.ScheduleEntry {
	return domain.ScheduleEntry{
		ScheduleID: r.ScheduleID,
		EmployeeID: r.EmployeeID,
		JobID:      r.JobID,
		Date:       r.Date,
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
		Note:       r.Note,
	}
}

// ReportLocationRequest uses pointer coordinates: zero is a valid
// latitude and longitude, so presence has to be checked on the pointer,
// not the value.
type ReportLocationRequest struct {
	EmployeeID string   `json:"employeeId" binding:"required"`
	Latitude   *float64 `json:"latitude" binding:"required"`
	Longitude  *float64 `json:"longitude" binding:"required"`
	Accuracy   float64  `json:"accuracy"`
	Source     string   `json:"source"`
	Label      string   `json:"label"`
}

func (r ReportLocationRequest) ToDomain() domain.EmployeeLocation {
	return domain.EmployeeLocation{
		EmployeeID: r.EmployeeID,
		Latitude:   *r.Latitude,
		Longitude:  *r.Longitude,
		Accuracy:   r.Accuracy,
		Source:     r.Source,
		Label:      r.Label,
	}
}

// GenerateJobsRequest asks for recurring-job expansion of one week.
type GenerateJobsRequest struct {
	WeekStart string `json:"weekStart" binding:"required"` // YYYY-MM-DD
}

// UpdateRemoteSettingsRequest attaches or detaches the remote backend at
// runtime. Both fields empty means detach.
type UpdateRemoteSettingsRequest struct {
	Endpoint   string `json:"endpoint"`
	Credential string `json:"credential"`
}

// PatchJobRequest carries a partial job update. Absent fields keep
// their current value.
type PatchJobRequest struct {
	Status            *string   `json:"status"`
	AssignedEmployees *[]string `json:"assignedEmployees"`
	ScheduledDate     *string   `json:"scheduledDate"`
	StartTime         *string   `json:"startTime"`
	EndTime           *string   `json:"endTime"`
}

// EnqueueSyncTaskRequest queues a background sync task for the worker.
type EnqueueSyncTaskRequest struct {
	TaskType string `json:"taskType" binding:"required"`
}
