package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/faxlab-academy-api/internal/dto"
	"github.com/noah-isme/faxlab-academy-api/internal/models"
	appErrors "github.com/noah-isme/faxlab-academy-api/pkg/errors"
	"github.com/noah-isme/faxlab-academy-api/pkg/response"
)

type checkoutService interface {
	Start(ctx context.Context, session *models.Session, req dto.StartCheckoutRequest) (*models.CheckoutSession, error)
	Get(ctx context.Context, session *models.Session, id string) (*dto.CheckoutView, error)
	Update(ctx context.Context, session *models.Session, id string, patch dto.CheckoutFormPatch) (*models.CheckoutSession, error)
	Submit(ctx context.Context, session *models.Session, id string) (*models.CheckoutSession, error)
}

// CheckoutHandler drives the simulated checkout.
type CheckoutHandler struct {
	service checkoutService
}

// NewCheckoutHandler constructs the handler.
func NewCheckoutHandler(svc checkoutService) *CheckoutHandler {
	return &CheckoutHandler{service: svc}
}

// Start godoc
// @Summary Start checkout
// @Tags Checkout
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.StartCheckoutRequest true "Course to buy"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /checkout/sessions [post]
func (h *CheckoutHandler) Start(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	var req dto.StartCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.WithRedirect(appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "No course selected"), "/courses"))
		return
	}
	checkout, err := h.service.Start(c.Request.Context(), session, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewCheckoutView(checkout))
}

// Get godoc
// @Summary Checkout state
// @Description Once settled the response carries the success notice and redirect.
// @Tags Checkout
// @Produce json
// @Security BearerAuth
// @Param id path string true "Checkout ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /checkout/sessions/{id} [get]
func (h *CheckoutHandler) Get(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	view, err := h.service.Get(c.Request.Context(), session, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if view.Redirect != "" {
		c.Header("X-Redirect", view.Redirect)
	}
	response.JSON(c, http.StatusOK, view)
}

// Update godoc
// @Summary Edit checkout form
// @Description Card number, expiry and CVV are masked on the way in. Responses show only the last four card digits.
// @Tags Checkout
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Checkout ID"
// @Param payload body dto.CheckoutFormPatch true "Changed fields"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /checkout/sessions/{id} [patch]
func (h *CheckoutHandler) Update(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	var patch dto.CheckoutFormPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid checkout payload"))
		return
	}
	checkout, err := h.service.Update(c.Request.Context(), session, c.Param("id"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewCheckoutView(checkout))
}

// Submit godoc
// @Summary Submit payment
// @Description Moves the checkout to submitting. It settles asynchronously after a fixed delay.
// @Tags Checkout
// @Produce json
// @Security BearerAuth
// @Param id path string true "Checkout ID"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /checkout/sessions/{id}/submit [post]
func (h *CheckoutHandler) Submit(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	checkout, err := h.service.Submit(c.Request.Context(), session, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, dto.NewCheckoutView(checkout))
}
