package domain

import "time"

// CustomerProfile is a reusable billing/service template for a customer.
// When RecurringEnabled is set and the weekday/time fields are complete,
// the recurring generator expands it into concrete jobs for a week window.
type CustomerProfile struct {
	ProfileID        string    `json:"profileId"`
	Name             string    `json:"name"`
	Address          string    `json:"address,omitempty"`
	Phone            string    `json:"phone,omitempty"`
	DefaultTitle     string    `json:"defaultTitle,omitempty"`
	DefaultDesc      string    `json:"defaultDescription,omitempty"`
	DefaultNotes     string    `json:"defaultNotes,omitempty"`
	RecurringEnabled bool      `json:"recurringEnabled"`
	// RecurringWeekdays holds ordinals 1..7 (1 = first day of the week
	// window). RecurringWeekday is the legacy single-day field kept for
	// profiles saved before multi-day support.
	RecurringWeekdays []int     `json:"recurringWeekdays,omitempty"`
	RecurringWeekday  int       `json:"recurringWeekday,omitempty"`
	RecurringStart    string    `json:"recurringStartTime,omitempty"` // HH:MM
	RecurringEnd      string    `json:"recurringEndTime,omitempty"`   // HH:MM
	RecurringService  string    `json:"recurringServiceType,omitempty"`
	RecurringPriority int       `json:"recurringPriority,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// EffectiveWeekdays resolves the weekday set the generator should act on:
// the explicit list when present, else the legacy single field, else nil.
func (p CustomerProfile) EffectiveWeekdays() []int {
	if len(p.RecurringWeekdays) > 0 {
		return p.RecurringWeekdays
	}
	if p.RecurringWeekday >= 1 && p.RecurringWeekday <= 7 {
		return []int{p.RecurringWeekday}
	}
	return nil
}

// Generatable reports whether the profile carries enough recurring data
// for the generator to act on it.
func (p CustomerProfile) Generatable() bool {
	return p.RecurringEnabled &&
		len(p.EffectiveWeekdays()) > 0 &&
		p.RecurringStart != "" &&
		p.RecurringEnd != ""
}
