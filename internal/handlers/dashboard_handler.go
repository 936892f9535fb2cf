package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SaidjonAlixon/testblok/internal/services"
	"github.com/SaidjonAlixon/testblok/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type DashboardHandler struct {
	BaseHandler
	dashboardService   services.DashboardService
	leaderboardService services.LeaderboardService
	exportService      services.ExportService
}

func NewDashboardHandler(dashboardService services.DashboardService, leaderboardService services.LeaderboardService, exportService services.ExportService, logger utils.Logger) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler:        NewBaseHandler(logger),
		dashboardService:   dashboardService,
		leaderboardService: leaderboardService,
		exportService:      exportService,
	}
}

// StudentDashboard returns the student home view: catalog with access flags,
// recent results, rank and unread count
func (h *DashboardHandler) StudentDashboard(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	dashboard, err := h.dashboardService.StudentOverview(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// AdminDashboard returns platform stats, popular directions and the most
// missed questions
func (h *DashboardHandler) AdminDashboard(c *gin.Context) {
	adminID, ok := h.userID(c)
	if !ok {
		return
	}

	dashboard, err := h.dashboardService.AdminOverview(c.Request.Context(), adminID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// Leaderboard returns the global ranking
func (h *DashboardHandler) Leaderboard(c *gin.Context) {
	entries, err := h.leaderboardService.Get(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// MyRank returns the authenticated user's leaderboard position
func (h *DashboardHandler) MyRank(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	entry, err := h.leaderboardService.ForUser(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

// ExportResults streams all results as an xlsx workbook
func (h *DashboardHandler) ExportResults(c *gin.Context) {
	adminID, ok := h.userID(c)
	if !ok {
		return
	}

	data, err := h.exportService.ExportResults(c.Request.Context(), adminID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.sendWorkbook(c, "results", data)
}

// ExportLeaderboard streams the current ranking as an xlsx workbook
func (h *DashboardHandler) ExportLeaderboard(c *gin.Context) {
	adminID, ok := h.userID(c)
	if !ok {
		return
	}

	data, err := h.exportService.ExportLeaderboard(c.Request.Context(), adminID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.sendWorkbook(c, "leaderboard", data)
}

// ImportQuestions bulk-loads questions for a subject from an uploaded xlsx
// file
func (h *DashboardHandler) ImportQuestions(c *gin.Context) {
	adminID, ok := h.userID(c)
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing file upload",
			Details: err.Error(),
		})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Cannot read uploaded file",
		})
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Cannot read uploaded file",
		})
		return
	}

	count, err := h.exportService.ImportQuestions(c.Request.Context(), c.Param("subject_id"), data, adminID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"imported": count})
}

func (h *DashboardHandler) sendWorkbook(c *gin.Context, name string, data []byte) {
	filename := fmt.Sprintf("%s_%s.xlsx", name, time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
