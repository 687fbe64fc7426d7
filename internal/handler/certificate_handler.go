package handler

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/faxlab-academy-api/internal/middleware"
	"github.com/noah-isme/faxlab-academy-api/internal/models"
	appErrors "github.com/noah-isme/faxlab-academy-api/pkg/errors"
	"github.com/noah-isme/faxlab-academy-api/pkg/response"
)

type certificateService interface {
	List(ctx context.Context, session *models.Session) ([]models.CertificateDetail, error)
	Link(ctx context.Context, session *models.Session, certificateID string) (*models.CertificateLink, error)
	Open(ctx context.Context, token string) (*os.File, string, error)
}

// CertificateHandler lists certificates and serves their PDFs through signed links.
type CertificateHandler struct {
	service certificateService
}

// NewCertificateHandler constructs the handler.
func NewCertificateHandler(svc certificateService) *CertificateHandler {
	return &CertificateHandler{service: svc}
}

// List godoc
// @Summary My certificates
// @Tags Certificates
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /certificates [get]
func (h *CertificateHandler) List(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	list, err := h.service.List(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "total", len(list))
	response.JSON(c, http.StatusOK, list, middleware.Meta(c))
}

// PDF godoc
// @Summary Certificate download link
// @Description Renders the PDF when needed and returns a short-lived signed URL.
// @Tags Certificates
// @Produce json
// @Security BearerAuth
// @Param id path string true "Certificate ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /certificates/{id}/pdf [get]
func (h *CertificateHandler) PDF(c *gin.Context) {
	session := requireSession(c)
	if session == nil {
		return
	}
	link, err := h.service.Link(c.Request.Context(), session, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link)
}

// Download godoc
// @Summary Download certificate PDF
// @Tags Certificates
// @Produce application/pdf
// @Param token query string true "Signed token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Router /certificates/download [get]
func (h *CertificateHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	file, name, err := h.service.Open(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read certificate"))
		return
	}
	response.Attachment(c, name, "application/pdf", info.Size(), file)
}
