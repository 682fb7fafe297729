package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/smartadmission/admissions-api/internal/models"
	"github.com/smartadmission/admissions-api/internal/service"
	appErrors "github.com/smartadmission/admissions-api/pkg/errors"
	"github.com/smartadmission/admissions-api/pkg/response"
)

// AdminHandler exposes the staff review endpoints.
type AdminHandler struct {
	applications *service.ApplicationService
	dashboard    *service.DashboardService
	exporter     *service.ExportService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(applications *service.ApplicationService, dashboard *service.DashboardService, exporter *service.ExportService) *AdminHandler {
	return &AdminHandler{applications: applications, dashboard: dashboard, exporter: exporter}
}

// List godoc
// @Summary List applications
// @Tags Admin
// @Produce json
// @Param search query string false "Search by name, email, or application ID"
// @Param status query string false "Filter by status"
// @Param course query string false "Filter by course"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/applications [get]
func (h *AdminHandler) List(c *gin.Context) {
	filter := models.ApplicationFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Status: c.Query("status"),
		Course: c.Query("course"),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	apps, pagination, err := h.applications.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, apps, pagination)
}

// Get godoc
// @Summary Get application detail
// @Tags Admin
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/applications/{id} [get]
func (h *AdminHandler) Get(c *gin.Context) {
	app, err := h.applications.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus godoc
// @Summary Update application status
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body updateStatusRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/applications/{id}/status [patch]
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "status is required"))
		return
	}

	app, err := h.applications.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}

// Delete godoc
// @Summary Delete an application
// @Tags Admin
// @Param id path string true "Application ID"
// @Success 204
// @Security BearerAuth
// @Router /admin/applications/{id} [delete]
func (h *AdminHandler) Delete(c *gin.Context) {
	if err := h.applications.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// PDF godoc
// @Summary Download a single-application PDF summary
// @Tags Admin
// @Produce application/pdf
// @Param id path string true "Application ID"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /admin/applications/{id}/pdf [get]
func (h *AdminHandler) PDF(c *gin.Context) {
	app, err := h.applications.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.exporter.ApplicationPDF(app)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, "application/pdf", result.Data)
}

// Dashboard godoc
// @Summary Admission statistics for the admin dashboard
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.dashboard.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
