package schedule

import (
	"time"

	"github.com/google/uuid"

	"github.com/crewops/opsync/internal/domain"
)

// Generate expands every generatable recurring customer profile into
// concrete job instances inside the [weekStart, weekEnd] window. Weekday
// ordinals are relative to the window: weekday 1 falls on weekStart
// itself. A (profile, date) pair is skipped when an existing job already
// carries the same profile reference, scheduled date and start time, so
// running the generator twice over the same window creates nothing new.
//
// Date arithmetic goes through time.AddDate so month and year boundaries
// roll over correctly.
func Generate(profiles []domain.CustomerProfile, existing []domain.Job, weekStart, weekEnd time.Time) []domain.Job {
	taken := make(map[string]bool, len(existing))
	for _, job := range existing {
		if job.CustomerProfileID == "" {
			continue
		}
		taken[occurrenceKey(job.CustomerProfileID, job.ScheduledDate, job.StartTime)] = true
	}

	var generated []domain.Job
	now := time.Now().UTC()

	for _, profile := range profiles {
		if !profile.Generatable() {
			continue
		}

		for _, weekday := range profile.EffectiveWeekdays() {
			if weekday < 1 || weekday > 7 {
				continue
			}

			day := weekStart.AddDate(0, 0, weekday-1)
			if day.Before(weekStart) || day.After(weekEnd) {
				continue
			}
			date := day.Format("2006-01-02")

			key := occurrenceKey(profile.ProfileID, date, profile.RecurringStart)
			if taken[key] {
				continue
			}
			taken[key] = true

			generated = append(generated, jobFromProfile(profile, date, now))
		}
	}
	return generated
}

// occurrenceKey identifies one generated slot.
func occurrenceKey(profileID, date, startTime string) string {
	return profileID + "|" + date + "|" + startTime
}

// jobFromProfile builds a pending job carrying the profile's defaults.
func jobFromProfile(profile domain.CustomerProfile, date string, now time.Time) domain.Job {
	title := profile.DefaultTitle
	if title == "" {
		title = profile.Name
	}
	return domain.Job{
		JobID:             uuid.NewString(),
		Title:             title,
		ServiceType:       profile.RecurringService,
		Status:            domain.JobStatusPending,
		Priority:          profile.RecurringPriority,
		ScheduledDate:     date,
		StartTime:         profile.RecurringStart,
		EndTime:           profile.RecurringEnd,
		CustomerProfileID: profile.ProfileID,
		Description:       profile.DefaultDesc,
		Notes:             profile.DefaultNotes,
		Address:           profile.Address,
		Phone:             profile.Phone,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}
