package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewops/opsync/internal/domain"
)

func week(t *testing.T, start string) (time.Time, time.Time) {
	t.Helper()
	weekStart, err := time.Parse("2006-01-02", start)
	require.NoError(t, err)
	return weekStart, weekStart.AddDate(0, 0, 6)
}

func TestGenerate_SingleLegacyWeekday(t *testing.T) {
	weekStart, weekEnd := week(t, "2024-03-04") // a Monday

	profiles := []domain.CustomerProfile{{
		ProfileID:        "p1",
		Name:             "Tanaka residence",
		DefaultTitle:     "Weekly cleaning",
		RecurringEnabled: true,
		RecurringWeekday: 3,
		RecurringStart:   "09:00",
		RecurringEnd:     "11:00",
		RecurringService: "cleaning",
	}}

	jobs := Generate(profiles, nil, weekStart, weekEnd)

	require.Len(t, jobs, 1)
	job := jobs[0]
	assert.Equal(t, "2024-03-06", job.ScheduledDate, "weekday 3 lands on Wednesday")
	assert.Equal(t, "09:00", job.StartTime)
	assert.Equal(t, "11:00", job.EndTime)
	assert.Equal(t, domain.JobStatusPending, job.Status)
	assert.Equal(t, "Weekly cleaning", job.Title)
	assert.Equal(t, "p1", job.CustomerProfileID)
	assert.NotEmpty(t, job.JobID)
}

func TestGenerate_ExplicitWeekdayListOverridesLegacyField(t *testing.T) {
	weekStart, weekEnd := week(t, "2024-03-04")

	profiles := []domain.CustomerProfile{{
		ProfileID:         "p1",
		Name:              "Office floor 3",
		RecurringEnabled:  true,
		RecurringWeekdays: []int{1, 5},
		RecurringWeekday:  3, // ignored when the list is present
		RecurringStart:    "08:00",
		RecurringEnd:      "10:00",
	}}

	jobs := Generate(profiles, nil, weekStart, weekEnd)

	require.Len(t, jobs, 2)
	assert.Equal(t, "2024-03-04", jobs[0].ScheduledDate)
	assert.Equal(t, "2024-03-08", jobs[1].ScheduledDate)
}

func TestGenerate_Idempotent(t *testing.T) {
	weekStart, weekEnd := week(t, "2024-03-04")

	profiles := []domain.CustomerProfile{{
		ProfileID:         "p1",
		Name:              "Tanaka residence",
		RecurringEnabled:  true,
		RecurringWeekdays: []int{2, 4},
		RecurringStart:    "09:00",
		RecurringEnd:      "11:00",
	}}

	first := Generate(profiles, nil, weekStart, weekEnd)
	require.Len(t, first, 2)

	second := Generate(profiles, first, weekStart, weekEnd)
	assert.Empty(t, second, "a second run over the same window creates nothing")
}

func TestGenerate_SkipsIncompleteProfiles(t *testing.T) {
	weekStart, weekEnd := week(t, "2024-03-04")

	profiles := []domain.CustomerProfile{
		{ProfileID: "disabled", RecurringEnabled: false, RecurringWeekday: 2, RecurringStart: "09:00", RecurringEnd: "10:00"},
		{ProfileID: "no-weekdays", RecurringEnabled: true, RecurringStart: "09:00", RecurringEnd: "10:00"},
		{ProfileID: "no-times", RecurringEnabled: true, RecurringWeekday: 2},
	}

	assert.Empty(t, Generate(profiles, nil, weekStart, weekEnd))
}

func TestGenerate_MonthBoundaryRollsOver(t *testing.T) {
	weekStart, weekEnd := week(t, "2024-02-26") // window crosses into March

	profiles := []domain.CustomerProfile{{
		ProfileID:        "p1",
		Name:             "Month-end client",
		RecurringEnabled: true,
		RecurringWeekday: 6, // Saturday of this window
		RecurringStart:   "13:00",
		RecurringEnd:     "15:00",
	}}

	jobs := Generate(profiles, nil, weekStart, weekEnd)

	require.Len(t, jobs, 1)
	assert.Equal(t, "2024-03-02", jobs[0].ScheduledDate, "calendar-safe rollover past February 29")
}

func TestGenerate_ExistingJobWithDifferentStartTimeDoesNotBlock(t *testing.T) {
	weekStart, weekEnd := week(t, "2024-03-04")

	profiles := []domain.CustomerProfile{{
		ProfileID:        "p1",
		Name:             "Tanaka residence",
		RecurringEnabled: true,
		RecurringWeekday: 3,
		RecurringStart:   "09:00",
		RecurringEnd:     "11:00",
	}}
	existing := []domain.Job{{
		JobID:             "manual",
		CustomerProfileID: "p1",
		ScheduledDate:     "2024-03-06",
		StartTime:         "14:00", // a one-off afternoon visit
	}}

	jobs := Generate(profiles, existing, weekStart, weekEnd)
	require.Len(t, jobs, 1)
	assert.Equal(t, "09:00", jobs[0].StartTime)
}

func TestGenerate_CopiesProfileDefaults(t *testing.T) {
	weekStart, weekEnd := week(t, "2024-03-04")

	profiles := []domain.CustomerProfile{{
		ProfileID:         "p1",
		Name:              "Sato household",
		Address:           "1-2-3 Chuo",
		Phone:             "090-0000-0000",
		DefaultDesc:       "Bring ladder",
		DefaultNotes:      "Key under the mat",
		RecurringEnabled:  true,
		RecurringWeekday:  1,
		RecurringStart:    "10:00",
		RecurringEnd:      "12:00",
		RecurringService:  "window-cleaning",
		RecurringPriority: 2,
	}}

	jobs := Generate(profiles, nil, weekStart, weekEnd)

	require.Len(t, jobs, 1)
	job := jobs[0]
	assert.Equal(t, "Sato household", job.Title, "title falls back to the profile name")
	assert.Equal(t, "Bring ladder", job.Description)
	assert.Equal(t, "Key under the mat", job.Notes)
	assert.Equal(t, "1-2-3 Chuo", job.Address)
	assert.Equal(t, "090-0000-0000", job.Phone)
	assert.Equal(t, "window-cleaning", job.ServiceType)
	assert.Equal(t, 2, job.Priority)
}
