package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/crewops/opsync/internal/api/dto"
	"github.com/crewops/opsync/internal/domain"
	"github.com/crewops/opsync/internal/syncer"
)

// GetBoard handles GET /api/v1/dispatch/board
// Returns the full dispatch document: jobs, employees, customer profiles
// and schedule entries, merged with the remote mirror when reachable.
func (h *DispatchHandler) GetBoard(c *gin.Context) {
	board, result, err := h.service.LoadBoard(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, synced(result, gin.H{
		"jobs":             board.Jobs,
		"employees":        board.Employees,
		"customerProfiles": board.CustomerProfiles,
		"schedules":        board.Schedules,
	}))
}

// SaveJob handles POST /api/v1/dispatch/jobs
func (h *DispatchHandler) SaveJob(c *gin.Context) {
	var req dto.SaveJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	job := req.ToDomain()
	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = domain.JobStatusPending
	}
	if !domain.ValidStatus(job.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job status"})
		return
	}

	saved, result, err := h.service.SaveJob(c.Request.Context(), job)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, synced(result, gin.H{"job": saved}))
}

// ListJobs handles GET /api/v1/dispatch/jobs
func (h *DispatchHandler) ListJobs(c *gin.Context) {
	board, result, err := h.service.LoadBoard(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, synced(result, gin.H{"jobs": board.Jobs}))
}

// PatchJob handles PATCH /api/v1/dispatch/jobs/:job_id
// Partial update of status, assignment, or scheduling fields.
func (h *DispatchHandler) PatchJob(c *gin.Context) {
	var req dto.PatchJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	saved, result, err := h.service.PatchJob(c.Request.Context(), c.Param("job_id"), syncer.JobPatch{
		Status:            req.Status,
		AssignedEmployees: req.AssignedEmployees,
		ScheduledDate:     req.ScheduledDate,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, synced(result, gin.H{"job": saved}))
}

// DeleteJob handles DELETE /api/v1/dispatch/jobs/:job_id
func (h *DispatchHandler) DeleteJob(c *gin.Context) {
	jobID := c.Param("job_id")

	result, err := h.service.DeleteJob(c.Request.Context(), jobID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, synced(result, gin.H{"jobId": jobID}))
}

// SaveEmployee handles POST /api/v1/dispatch/employees
func (h *DispatchHandler) SaveEmployee(c *gin.Context) {
	var req dto.SaveEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	employee := req.ToDomain()
	if employee.EmployeeID == "" {
		employee.EmployeeID = uuid.New().String()
	}
	if employee.Availability == "" {
		employee.Availability = domain.AvailabilityAvailable
	}

	saved, result, err := h.service.SaveEmployee(c.Request.Context(), employee)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, synced(result, gin.H{"employee": saved}))
}

// DeleteEmployee handles DELETE /api/v1/dispatch/employees/:employee_id
// Deletion cascades: the employee is unassigned from every job and the
// inspection-side mirror record is removed.
func (h *DispatchHandler) DeleteEmployee(c *gin.Context) {
	employeeID := c.Param("employee_id")

	result, err := h.service.DeleteEmployee(c.Request.Context(), employeeID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, synced(result, gin.H{"employeeId": employeeID}))
}

// SaveProfile handles POST /api/v1/dispatch/profiles
func (h *DispatchHandler) SaveProfile(c *gin.Context) {
	var req dto.SaveProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	profile := req.ToDomain()
	if profile.ProfileID == "" {
		profile.ProfileID = uuid.New().String()
	}

	saved, result, err := h.service.SaveProfile(c.Request.Context(), profile)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, synced(result, gin.H{"profile": saved}))
}

// DeleteProfile handles DELETE /api/v1/dispatch/profiles/:profile_id
func (h *DispatchHandler) DeleteProfile(c *gin.Context) {
	profileID := c.Param("profile_id")

	result, err := h.service.DeleteProfile(c.Request.Context(), profileID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, synced(result, gin.H{"profileId": profileID}))
}

// SaveSchedule handles POST /api/v1/dispatch/schedules
func (h *DispatchHandler) SaveSchedule(c *gin.Context) {
	var req dto.SaveScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	entry := req.ToDomain()
	if entry.ScheduleID == "" {
		entry.ScheduleID = uuid.New().String()
	}

	saved, result, err := h.service.SaveSchedule(c.Request.Context(), entry)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, synced(result, gin.H{"schedule": saved}))
}

// DeleteSchedule handles DELETE /api/v1/dispatch/schedules/:schedule_id
func (h *DispatchHandler) DeleteSchedule(c *gin.Context) {
	scheduleID := c.Param("schedule_id")

	result, err := h.service.DeleteSchedule(c.Request.Context(), scheduleID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, synced(result, gin.H{"scheduleId": scheduleID}))
}

// ListLocations handles GET /api/v1/dispatch/locations
func (h *DispatchHandler) ListLocations(c *gin.Context) {
	locations, result, err := h.service.ListLocations(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, synced(result, gin.H{"locations": locations}))
}

// ReportLocation handles POST /api/v1/dispatch/locations
func (h *DispatchHandler) ReportLocation(c *gin.Context) {
	var req dto.ReportLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	saved, result, err := h.service.ReportLocation(c.Request.Context(), req.ToDomain())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, synced(result, gin.H{"location": saved}))
}

// GenerateJobs handles POST /api/v1/dispatch/generate
// Expands recurring customer profiles into concrete jobs for one week.
func (h *DispatchHandler) GenerateJobs(c *gin.Context) {
	var req dto.GenerateJobsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	jobs, result, err := h.service.GenerateRecurringJobs(c.Request.Context(), req.WeekStart)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if jobs == nil {
		jobs = []domain.Job{}
	}
	c.JSON(http.StatusOK, synced(result, gin.H{
		"generated": len(jobs),
		"jobs":      jobs,
	}))
}

// ExportBackup handles GET /api/v1/dispatch/backup
func (h *DispatchHandler) ExportBackup(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.ExportBackup(c.Request.Context()))
}

// ImportBackup handles POST /api/v1/dispatch/backup
// The body is the raw backup envelope; a malformed envelope is rejected
// without touching the local store.
func (h *DispatchHandler) ImportBackup(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.service.ImportBackup(c.Request.Context(), raw); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "imported"})
}
