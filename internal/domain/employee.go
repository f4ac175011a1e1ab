package domain

import "time"

// Employee availability constants
const (
	AvailabilityAvailable = "AVAILABLE"
	AvailabilityOff       = "OFF"
	AvailabilityBusy      = "BUSY"
)

// Employee is a dispatchable worker. EmployeeID is the upsert key across
// the local cache and the remote mirror.
type Employee struct {
	EmployeeID   string    `json:"employeeId"`
	Name         string    `json:"name"`
	NameAlt      string    `json:"nameAlt,omitempty"` // secondary-language name
	Phone        string    `json:"phone,omitempty"`
	Skills       []string  `json:"skills,omitempty"`
	Availability string    `json:"availability"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// EmployeeLocation is the last reported position of an employee, keyed by
// employee id. Each report overwrites the previous one; no history is kept.
type EmployeeLocation struct {
	EmployeeID string    `json:"employeeId"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Accuracy   float64   `json:"accuracy,omitempty"`
	Source     string    `json:"source,omitempty"` // gps, manual, ...
	Label      string    `json:"label,omitempty"`
	ReportedAt time.Time `json:"reportedAt"`
}

// InspectionEmployee is the mirrored record of an Employee inside the
// inspection subsystem, with a derived display name / alias pair. It is
// created and removed together with its parent Employee.
type InspectionEmployee struct {
	EmployeeID string    `json:"employeeId"`
	Name       string    `json:"name"`
	Alias      string    `json:"alias,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// MirrorForInspection derives the inspection-side record for an employee.
// The alias falls back to the primary name when no secondary-language name
// is set.
func (e Employee) MirrorForInspection() InspectionEmployee {
	alias := e.NameAlt
	if alias == "" {
		alias = e.Name
	}
	return InspectionEmployee{
		EmployeeID: e.EmployeeID,
		Name:       e.Name,
		Alias:      alias,
		UpdatedAt:  e.UpdatedAt,
	}
}
