package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/faxlab-academy-api/internal/dto"
	"github.com/noah-isme/faxlab-academy-api/internal/models"
	appErrors "github.com/noah-isme/faxlab-academy-api/pkg/errors"
)

type dashboardEnrollmentLister interface {
	ListByUser(ctx context.Context, userID string) ([]models.EnrollmentDetail, error)
}

type dashboardCertificateLister interface {
	ListByUser(ctx context.Context, userID string) ([]models.CertificateDetail, error)
}

type dashboardProgressLister interface {
	ListByUser(ctx context.Context, userID string) ([]models.VideoProgress, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardService composes the learner dashboard.
type DashboardService struct {
	enrollments  dashboardEnrollmentLister
	certificates dashboardCertificateLister
	progress     dashboardProgressLister
	cache        *CacheService
	logger       *zap.Logger
	now          func() time.Time
	cfg          DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Enrollments  dashboardEnrollmentLister
	Certificates dashboardCertificateLister
	Progress     dashboardProgressLister
	Cache        *CacheService
	Logger       *zap.Logger
	Config       DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		enrollments:  params.Enrollments,
		certificates: params.Certificates,
		progress:     params.Progress,
		cache:        params.Cache,
		logger:       logger,
		now:          time.Now,
		cfg:          cfg,
	}
}

func learnerCacheKey(userID string) string {
	return fmt.Sprintf("dash:learner:%s", userID)
}

// Learner returns the learner dashboard and indicates cache utilisation.
func (s *DashboardService) Learner(ctx context.Context, userID string) (*dto.LearnerDashboardResponse, bool, error) {
	if userID == "" {
		return nil, false, appErrors.ErrAuthRequired
	}
	return Remember(ctx, s.cache, learnerCacheKey(userID), s.cfg.CacheTTL, func(ctx context.Context) (*dto.LearnerDashboardResponse, error) {
		return s.composeLearnerSummary(ctx, userID)
	})
}

// InvalidateLearner drops the cached dashboard after the learner's enrollments change.
func (s *DashboardService) InvalidateLearner(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, learnerCacheKey(userID)); err != nil {
		s.logger.Warn("dashboard cache invalidate failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *DashboardService) composeLearnerSummary(ctx context.Context, userID string) (*dto.LearnerDashboardResponse, error) {
	var (
		enrollments  []models.EnrollmentDetail
		certificates []models.CertificateDetail
		progress     []models.VideoProgress
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		enrollments, err = s.enrollments.ListByUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		certificates, err = s.certificates.ListByUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		progress, err = s.progress.ListByUser(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard")
	}

	summary := BuildLearnerDashboard(enrollments, certificates, progress)
	summary.UserID = userID
	summary.GeneratedAt = s.now().UTC()
	return summary, nil
}

// BuildLearnerDashboard reduces the three independently fetched lists into dashboard stats.
func BuildLearnerDashboard(enrollments []models.EnrollmentDetail, certificates []models.CertificateDetail, progress []models.VideoProgress) *dto.LearnerDashboardResponse {
	completedModules := make(map[string]map[string]struct{})
	var watchedSeconds int
	for _, p := range progress {
		watchedSeconds += p.VideoPosition
		if !p.Completed {
			continue
		}
		if completedModules[p.CourseID] == nil {
			completedModules[p.CourseID] = make(map[string]struct{})
		}
		completedModules[p.CourseID][p.ModuleID] = struct{}{}
	}

	stats := dto.LearnerStats{
		TotalEnrolled: len(enrollments),
		Certificates:  len(certificates),
		HoursLearned:  int(math.Round(float64(watchedSeconds) / 3600)),
	}

	courses := make([]dto.DashboardCourse, 0, len(enrollments))
	for _, e := range enrollments {
		if e.Completed {
			stats.Completed++
		}
		courses = append(courses, dto.DashboardCourse{
			EnrollmentID: e.ID,
			CourseID:     e.CourseID,
			Title:        e.CourseTitle,
			ImageURL:     e.CourseImageURL,
			Level:        e.CourseLevel,
			Duration:     e.CourseDuration,
			Completed:    e.Completed,
			Progress:     courseProgress(e, len(completedModules[e.CourseID])),
			EnrolledAt:   e.EnrolledAt,
		})
	}
	stats.InProgress = stats.TotalEnrolled - stats.Completed
	if stats.TotalEnrolled > 0 {
		stats.CompletionRate = math.Round(float64(stats.Completed)/float64(stats.TotalEnrolled)*10000) / 10000
	}

	certs := make([]dto.DashboardCertificate, 0, len(certificates))
	for _, c := range certificates {
		certs = append(certs, dto.DashboardCertificate{
			ID:                c.ID,
			CourseID:          c.CourseID,
			CourseTitle:       c.CourseTitle,
			CertificateNumber: c.CertificateNumber,
			IssuedAt:          c.IssuedAt,
		})
	}

	return &dto.LearnerDashboardResponse{Stats: stats, Courses: courses, Certificates: certs}
}

// courseProgress is 100 for completed enrollments, otherwise completed modules over the course's module count.
func courseProgress(e models.EnrollmentDetail, completedModules int) int {
	if e.Completed {
		return 100
	}
	if e.CourseModules <= 0 {
		return 0
	}
	pct := int(math.Round(float64(completedModules) / float64(e.CourseModules) * 100))
	if pct > 99 {
		// all modules watched but the enrollment is not marked completed yet
		pct = 99
	}
	return pct
}
