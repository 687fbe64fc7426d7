package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/faxlab-academy-api/internal/middleware"
	"github.com/noah-isme/faxlab-academy-api/internal/models"
	"github.com/noah-isme/faxlab-academy-api/pkg/response"
)

type enrollmentService interface {
	Enroll(ctx context.Context, session *models.Session, courseID string) (*models.EnrollmentDecision, error)
	ListMine(ctx context.Context, session *models.Session) ([]models.EnrollmentDetail, error)
}

// EnrollmentHandler exposes the enroll decision and the learner's enrollments.
type EnrollmentHandler struct {
	service enrollmentService
}

// NewEnrollmentHandler constructs the handler.
func NewEnrollmentHandler(svc enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc}
}

// Enroll godoc
// @Summary Enroll in a course
// @Description Free courses enroll directly. Paid courses return checkout_required with the course summary.
// @Tags Enrollments
// @Produce json
// @Param id path string true "Course ID"
// @Success 201 {object} response.Envelope
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/enroll [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	decision, err := h.service.Enroll(c.Request.Context(), sessionFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if decision.Redirect != "" {
		c.Header("X-Redirect", decision.Redirect)
	}
	if decision.Outcome == models.OutcomeEnrolled {
		response.Created(c, decision)
		return
	}
	response.JSON(c, http.StatusOK, decision)
}

// Mine godoc
// @Summary List my enrollments
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /profile/enrollments [get]
func (h *EnrollmentHandler) Mine(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	list, err := h.service.ListMine(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "total", len(list))
	response.JSON(c, http.StatusOK, list, middleware.Meta(c))
}
