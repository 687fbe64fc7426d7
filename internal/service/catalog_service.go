package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/faxlab-academy-api/internal/dto"
	"github.com/noah-isme/faxlab-academy-api/internal/models"
	appErrors "github.com/noah-isme/faxlab-academy-api/pkg/errors"
)

const catalogCacheKey = "catalog:courses"

type courseReader interface {
	List(ctx context.Context) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type enrollmentLookup interface {
	FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
}

// CatalogService serves course browsing.
type CatalogService struct {
	courses     courseReader
	enrollments enrollmentLookup
	cache       *CacheService
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(courses courseReader, enrollments enrollmentLookup, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &CatalogService{courses: courses, enrollments: enrollments, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// ParseQuery validates raw browse parameters.
func ParseQuery(params dto.CatalogQueryParams) (models.CatalogQuery, error) {
	category, ok := models.ParseCategory(params.Category)
	if !ok {
		return models.CatalogQuery{}, appErrors.Clone(appErrors.ErrValidation, "unknown category "+strconv.Quote(params.Category))
	}
	sortKey, ok := models.ParseSort(params.Sort)
	if !ok {
		return models.CatalogQuery{}, appErrors.Clone(appErrors.ErrValidation, "unknown sort "+strconv.Quote(params.Sort))
	}
	freeOnly := false
	if raw := strings.TrimSpace(params.Free); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return models.CatalogQuery{}, appErrors.Clone(appErrors.ErrValidation, "free must be a boolean")
		}
		freeOnly = parsed
	}
	includeDescription := false
	switch strings.ToLower(strings.TrimSpace(params.Scope)) {
	case "", "title":
	case "all":
		includeDescription = true
	default:
		return models.CatalogQuery{}, appErrors.Clone(appErrors.ErrValidation, "scope must be title or all")
	}
	return models.CatalogQuery{
		Search:             params.Search,
		Category:           category,
		FreeOnly:           freeOnly,
		Sort:               sortKey,
		IncludeDescription: includeDescription,
	}, nil
}

// FilterCourses applies the text, category and free filters then sorts stably.
// The input slice is left untouched.
func FilterCourses(courses []models.Course, q models.CatalogQuery) []models.Course {
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	category := strings.ToLower(string(q.Category))
	if category == string(models.CategoryAll) {
		category = ""
	}

	result := make([]models.Course, 0, len(courses))
	for _, course := range courses {
		if needle != "" && !matchesText(course, needle, q.IncludeDescription) {
			continue
		}
		if category != "" && strings.ToLower(course.Category) != category {
			continue
		}
		if q.FreeOnly && !course.Free() {
			continue
		}
		result = append(result, course)
	}

	switch q.Sort {
	case models.SortRating:
		sort.SliceStable(result, func(i, j int) bool { return result[i].Rating > result[j].Rating })
	case models.SortPriceLow:
		sort.SliceStable(result, func(i, j int) bool { return result[i].Price < result[j].Price })
	case models.SortPriceHigh:
		sort.SliceStable(result, func(i, j int) bool { return result[i].Price > result[j].Price })
	default:
		sort.SliceStable(result, func(i, j int) bool { return result[i].Enrollments > result[j].Enrollments })
	}
	return result
}

func matchesText(course models.Course, needle string, includeDescription bool) bool {
	if strings.Contains(strings.ToLower(course.Title), needle) {
		return true
	}
	return includeDescription && strings.Contains(strings.ToLower(course.Description), needle)
}

// Load returns every course, from cache when possible. The flag reports a cache hit.
func (s *CatalogService) Load(ctx context.Context) ([]models.Course, bool, error) {
	return Remember(ctx, s.cache, catalogCacheKey, s.cacheTTL, func(ctx context.Context) ([]models.Course, error) {
		courses, err := s.courses.List(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
		}
		if courses == nil {
			courses = []models.Course{}
		}
		return courses, nil
	})
}

// Browse loads the catalog and applies q.
func (s *CatalogService) Browse(ctx context.Context, q models.CatalogQuery) ([]models.Course, bool, error) {
	courses, hit, err := s.Load(ctx)
	if err != nil {
		return nil, false, err
	}
	return FilterCourses(courses, q), hit, nil
}

// Get returns a course detail. A signed-in caller also sees their enrollment.
func (s *CatalogService) Get(ctx context.Context, session *models.Session, id string) (*dto.CourseDetailResponse, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.WithRedirect(appErrors.Clone(appErrors.ErrNotFound, "Course not found"), "/courses")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	detail := &dto.CourseDetailResponse{Course: *course}
	if session == nil || s.enrollments == nil {
		return detail, nil
	}
	enrollment, err := s.enrollments.FindByUserAndCourse(ctx, session.UserID, course.ID)
	switch {
	case err == nil:
		detail.Enrolled = true
		detail.Enrollment = enrollment
	case errors.Is(err, sql.ErrNoRows):
	default:
		s.logger.Warn("course detail enrollment lookup failed", zap.String("course_id", id), zap.Error(err))
	}
	return detail, nil
}
