package domain

import "time"

// Inspection report status constants
const (
	ReportStatusDraft     = "DRAFT"
	ReportStatusSubmitted = "SUBMITTED"
	ReportStatusApproved  = "APPROVED"
)

// InspectionReport is the canonical, image-bearing variant of a cleaning
// inspection record. Photo fields hold either inline data-URI payloads
// (fresh from a device) or object-storage URLs (after asset migration).
// The canonical variant lives in the remote store and in memory during a
// session only; the local cache always holds the light variant.
type InspectionReport struct {
	ReportID     string              `json:"reportId"`
	PropertyID   string              `json:"propertyId"`
	PropertyName string              `json:"propertyName,omitempty"`
	Status       string              `json:"status"`
	CheckoutDate string              `json:"checkoutDate,omitempty"` // YYYY-MM-DD
	SubmittedAt  time.Time           `json:"submittedAt"`
	Notes        string              `json:"notes,omitempty"`
	NoteImages   []string            `json:"noteImages,omitempty"`
	Sections     []InspectionSection `json:"sections,omitempty"`
	Damages      []DamageReport      `json:"damages,omitempty"`
	CheckIn      *StayEvidence       `json:"checkIn,omitempty"`
	CheckOut     *StayEvidence       `json:"checkOut,omitempty"`
}

// InspectionSection is one room/area of the checklist.
type InspectionSection struct {
	Name            string          `json:"name"`
	ReferenceImages []string        `json:"referenceImages,omitempty"`
	Photos          []string        `json:"photos,omitempty"`
	Items           []ChecklistItem `json:"items,omitempty"`
}

// ChecklistItem is a single check within a section.
type ChecklistItem struct {
	Label   string   `json:"label"`
	Checked bool     `json:"checked"`
	Photos  []string `json:"photos,omitempty"`
}

// DamageReport documents damage found during an inspection.
type DamageReport struct {
	Description string   `json:"description"`
	Severity    string   `json:"severity,omitempty"`
	Photos      []string `json:"photos,omitempty"`
}

// StayEvidence holds check-in or check-out proof photos.
type StayEvidence struct {
	RecordedAt time.Time `json:"recordedAt"`
	Photos     []string  `json:"photos,omitempty"`
}

// InspectionReportLight is the locally cached variant of a report: every
// photo array is replaced by its count so the cache stays bounded no matter
// how many inline payloads the canonical report carried.
type InspectionReportLight struct {
	ReportID     string         `json:"reportId"`
	PropertyID   string         `json:"propertyId"`
	PropertyName string         `json:"propertyName,omitempty"`
	Status       string         `json:"status"`
	CheckoutDate string         `json:"checkoutDate,omitempty"`
	SubmittedAt  time.Time      `json:"submittedAt"`
	Notes        string         `json:"notes,omitempty"`
	NoteImages   int            `json:"noteImageCount"`
	Sections     []SectionLight `json:"sections,omitempty"`
	Damages      []DamageLight  `json:"damages,omitempty"`
	CheckIn      *EvidenceLight `json:"checkIn,omitempty"`
	CheckOut     *EvidenceLight `json:"checkOut,omitempty"`
}

type SectionLight struct {
	Name            string      `json:"name"`
	ReferenceImages int         `json:"referenceImageCount"`
	Photos          int         `json:"photoCount"`
	Items           []ItemLight `json:"items,omitempty"`
}

type ItemLight struct {
	Label   string `json:"label"`
	Checked bool   `json:"checked"`
	Photos  int    `json:"photoCount"`
}

type DamageLight struct {
	Description string `json:"description"`
	Severity    string `json:"severity,omitempty"`
	Photos      int    `json:"photoCount"`
}

type EvidenceLight struct {
	RecordedAt time.Time `json:"recordedAt"`
	Photos     int       `json:"photoCount"`
}

// Lighten strips every photo payload from the report, leaving counts.
func (r InspectionReport) Lighten() InspectionReportLight {
	light := InspectionReportLight{
		ReportID:     r.ReportID,
		PropertyID:   r.PropertyID,
		PropertyName: r.PropertyName,
		Status:       r.Status,
		CheckoutDate: r.CheckoutDate,
		SubmittedAt:  r.SubmittedAt,
		Notes:        r.Notes,
		NoteImages:   len(r.NoteImages),
	}
	for _, s := range r.Sections {
		ls := SectionLight{
			Name:            s.Name,
			ReferenceImages: len(s.ReferenceImages),
			Photos:          len(s.Photos),
		}
		for _, it := range s.Items {
			ls.Items = append(ls.Items, ItemLight{
				Label:   it.Label,
				Checked: it.Checked,
				Photos:  len(it.Photos),
			})
		}
		light.Sections = append(light.Sections, ls)
	}
	for _, d := range r.Damages {
		light.Damages = append(light.Damages, DamageLight{
			Description: d.Description,
			Severity:    d.Severity,
			Photos:      len(d.Photos),
		})
	}
	if r.CheckIn != nil {
		light.CheckIn = &EvidenceLight{RecordedAt: r.CheckIn.RecordedAt, Photos: len(r.CheckIn.Photos)}
	}
	if r.CheckOut != nil {
		light.CheckOut = &EvidenceLight{RecordedAt: r.CheckOut.RecordedAt, Photos: len(r.CheckOut.Photos)}
	}
	return light
}

// PropertyTemplate is a reusable inspection checklist definition for a
// property. Reference images may be inline payloads until migrated.
type PropertyTemplate struct {
	TemplateID   string            `json:"templateId"`
	PropertyName string            `json:"propertyName"`
	Notes        string            `json:"notes,omitempty"`
	NoteImages   []string          `json:"noteImages,omitempty"`
	Sections     []TemplateSection `json:"sections,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// TemplateSection defines one checklist area of a property template.
type TemplateSection struct {
	Name            string   `json:"name"`
	ReferenceImages []string `json:"referenceImages,omitempty"`
	ItemLabels      []string `json:"itemLabels,omitempty"`
}
