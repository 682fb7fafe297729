package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartadmission/admissions-api/internal/models"
	"github.com/smartadmission/admissions-api/internal/service"
	appErrors "github.com/smartadmission/admissions-api/pkg/errors"
	"github.com/smartadmission/admissions-api/pkg/response"
)

// ApplicationHandler exposes the public applicant endpoints.
type ApplicationHandler struct {
	applications *service.ApplicationService
}

// NewApplicationHandler constructs ApplicationHandler.
func NewApplicationHandler(applications *service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applications: applications}
}

// Submit godoc
// @Summary Submit an admission application
// @Tags Applications
// @Accept json
// @Produce json
// @Param payload body models.SubmitApplicationRequest true "Application payload"
// @Success 201 {object} response.Envelope
// @Router /applications [post]
func (h *ApplicationHandler) Submit(c *gin.Context) {
	var req models.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	app, err := h.applications.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, app)
}

// Track godoc
// @Summary Track an application by ID and email
// @Tags Applications
// @Produce json
// @Param appId query string true "Application ID"
// @Param email query string true "Applicant email"
// @Success 200 {object} response.Envelope
// @Router /applications/track [get]
func (h *ApplicationHandler) Track(c *gin.Context) {
	result, err := h.applications.Track(c.Request.Context(), c.Query("appId"), c.Query("email"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
