package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kurlerprudent/kubo-backend-go/internal/models"
	"github.com/kurlerprudent/kubo-backend-go/internal/service"
)

type fileReportRequest struct {
	PatientID string `json:"patientId" binding:"required"`
	Title     string `json:"title" binding:"required"`
	Findings  string `json:"findings"`
}

func (h HandlerSet) FileReport(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req fileReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	report, err := h.reports.File(c.Request.Context(), principal, service.FileReportInput{
		PatientID: req.PatientID,
		Title:     req.Title,
		Findings:  req.Findings,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toReportResponse(report))
}

func (h HandlerSet) MyReports(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	reports, err := h.reports.ListForPatient(c.Request.Context(), principal.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondReports(c, reports)
}

func (h HandlerSet) PatientReports(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	account, err := h.accounts.Get(c.Request.Context(), c.Param("id"), models.RolePatient)
	if err != nil {
		h.respondError(c, err)
		return
	}

	// Same visibility rule as the patient profile: a doctor reads only
	// their own patients' reports, everyone else's look nonexistent.
	if principal.Role == models.RoleDoctor {
		assigned := account.AssignedDoctorID()
		if assigned == nil || *assigned != principal.ID {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}
	}

	reports, err := h.reports.ListForPatient(c.Request.Context(), account.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondReports(c, reports)
}

func (h HandlerSet) respondReports(c *gin.Context, reports []models.ImagingReport) {
	items := make([]reportResponse, 0, len(reports))
	for _, r := range reports {
		items = append(items, toReportResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
