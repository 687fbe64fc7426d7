package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/faxlab-academy-api/internal/dto"
	"github.com/noah-isme/faxlab-academy-api/internal/middleware"
	"github.com/noah-isme/faxlab-academy-api/internal/models"
	"github.com/noah-isme/faxlab-academy-api/internal/service"
	appErrors "github.com/noah-isme/faxlab-academy-api/pkg/errors"
	"github.com/noah-isme/faxlab-academy-api/pkg/response"
)

type catalogService interface {
	Browse(ctx context.Context, q models.CatalogQuery) ([]models.Course, bool, error)
	Get(ctx context.Context, session *models.Session, id string) (*dto.CourseDetailResponse, error)
}

// CatalogHandler serves course browsing.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(svc catalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// List godoc
// @Summary Browse courses
// @Description Filters by title text, category and free flag, then sorts. Default order is most popular first.
// @Tags Courses
// @Produce json
// @Param search query string false "Case-insensitive text"
// @Param category query string false "all|basics|advanced|ethics|career"
// @Param free query bool false "Only free courses"
// @Param sort query string false "popular|rating|price-low|price-high"
// @Param scope query string false "title|all"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses [get]
func (h *CatalogHandler) List(c *gin.Context) {
	var params dto.CatalogQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	query, err := service.ParseQuery(params)
	if err != nil {
		response.Error(c, err)
		return
	}

	courses, hit, err := h.service.Browse(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	middleware.SetMeta(c, "total", len(courses))
	response.JSON(c, http.StatusOK, courses, middleware.Meta(c))
}

// Get godoc
// @Summary Course detail
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CatalogHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), sessionFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}
