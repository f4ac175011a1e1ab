package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/crewops/opsync/internal/domain"
)

// ListReports handles GET /api/v1/inspection/reports
// Returns light report variants (photo counts, no payloads), optionally
// bounded by ?from=YYYY-MM-DD&to=YYYY-MM-DD on the checkout date.
func (h *InspectionHandler) ListReports(c *gin.Context) {
	reports, result, err := h.service.ListReports(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if reports == nil {
		reports = []domain.InspectionReportLight{}
	}
	c.JSON(http.StatusOK, synced(result, gin.H{"reports": reports}))
}

// SaveReport handles POST /api/v1/inspection/reports
// The body is a canonical report; inline base64 images are migrated to
// object storage before the record is stored, and only the light variant
// is cached locally.
func (h *InspectionHandler) SaveReport(c *gin.Context) {
	var report domain.InspectionReport
	if err := c.ShouldBindJSON(&report); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if report.ReportID == "" {
		report.ReportID = uuid.New().String()
	}
	if report.Status == "" {
		report.Status = domain.ReportStatusDraft
	}

	saved, result, err := h.service.SaveReport(c.Request.Context(), report)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, synced(result, gin.H{"report": saved.Lighten()}))
}

// GetReport handles GET /api/v1/inspection/reports/:report_id
// Returns the canonical, image-bearing report from the remote store.
func (h *InspectionHandler) GetReport(c *gin.Context) {
	report, err := h.service.GetReport(c.Request.Context(), c.Param("report_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

// DeleteReport handles DELETE /api/v1/inspection/reports/:report_id
func (h *InspectionHandler) DeleteReport(c *gin.Context) {
	reportID := c.Param("report_id")

	result, err := h.service.DeleteReport(c.Request.Context(), reportID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, synced(result, gin.H{"reportId": reportID}))
}

// ListTemplates handles GET /api/v1/inspection/templates
func (h *InspectionHandler) ListTemplates(c *gin.Context) {
	templates, result, err := h.service.ListTemplates(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if templates == nil {
		templates = []domain.PropertyTemplate{}
	}
	c.JSON(http.StatusOK, synced(result, gin.H{"templates": templates}))
}

// SaveTemplate handles POST /api/v1/inspection/templates
func (h *InspectionHandler) SaveTemplate(c *gin.Context) {
	var template domain.PropertyTemplate
	if err := c.ShouldBindJSON(&template); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if template.TemplateID == "" {
		template.TemplateID = uuid.New().String()
	}
	if template.PropertyName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "propertyName is required"})
		return
	}

	saved, result, err := h.service.SaveTemplate(c.Request.Context(), template)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, synced(result, gin.H{"template": saved}))
}

// ListEmployees handles GET /api/v1/inspection/employees
// Serves the inspection-side employee mirror maintained by the dispatch
// service.
func (h *InspectionHandler) ListEmployees(c *gin.Context) {
	employees := h.service.ListEmployees(c.Request.Context())
	if employees == nil {
		employees = []domain.InspectionEmployee{}
	}
	c.JSON(http.StatusOK, gin.H{"employees": employees})
}
