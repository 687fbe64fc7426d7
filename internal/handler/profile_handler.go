package handler

import (
	"bytes"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/faxlab-academy-api/internal/models"
	"github.com/noah-isme/faxlab-academy-api/internal/service"
	appErrors "github.com/noah-isme/faxlab-academy-api/pkg/errors"
	"github.com/noah-isme/faxlab-academy-api/pkg/response"
)

type profileService interface {
	Get(ctx context.Context, session *models.Session) (*models.Profile, error)
	UpdateName(ctx context.Context, session *models.Session, req models.UpdateProfileRequest) (*models.Profile, error)
	ExportEnrollments(ctx context.Context, session *models.Session, format string) (*service.TranscriptExport, error)
}

// ProfileHandler serves the learner's own profile.
type ProfileHandler struct {
	service profileService
}

// NewProfileHandler constructs the handler.
func NewProfileHandler(svc profileService) *ProfileHandler {
	return &ProfileHandler{service: svc}
}

// Get godoc
// @Summary My profile
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /profile [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	profile, err := h.service.Get(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile)
}

// Update godoc
// @Summary Update my display name
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.UpdateProfileRequest true "New name"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /profile [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid profile payload"))
		return
	}
	profile, err := h.service.UpdateName(c.Request.Context(), session, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile)
}

// Export godoc
// @Summary Download my enrollment transcript
// @Tags Profile
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv|pdf"
// @Security BearerAuth
// @Success 200 {file} file
// @Router /profile/enrollments/export [get]
func (h *ProfileHandler) Export(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	out, err := h.service.ExportEnrollments(c.Request.Context(), session, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, out.Filename, out.ContentType, int64(len(out.Data)), bytes.NewReader(out.Data))
}
