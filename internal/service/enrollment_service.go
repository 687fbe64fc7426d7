package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/faxlab-academy-api/internal/models"
	"github.com/noah-isme/faxlab-academy-api/internal/repository"
	appErrors "github.com/noah-isme/faxlab-academy-api/pkg/errors"
)

// Notices and redirects returned with enroll decisions.
const (
	NoticeSignInToEnroll  = "Please sign in to enroll"
	NoticeAlreadyEnrolled = "You're already enrolled in this course!"
	NoticeEnrollFailed    = "Failed to enroll. Please try again."

	RedirectAuth      = "/auth"
	RedirectDashboard = "/dashboard"
	RedirectCheckout  = "/checkout"
	RedirectCourses   = "/courses"
)

type enrollmentStore interface {
	FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	ListByUser(ctx context.Context, userID string) ([]models.EnrollmentDetail, error)
}

type courseFinder interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type learnerCacheInvalidator interface {
	InvalidateLearner(ctx context.Context, userID string)
}

// EnrollmentService decides what an enroll request does.
type EnrollmentService struct {
	courses   courseFinder
	store     enrollmentStore
	dashboard learnerCacheInvalidator
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewEnrollmentService constructs an EnrollmentService.
func NewEnrollmentService(courses courseFinder, store enrollmentStore, dashboard learnerCacheInvalidator, metrics *MetricsService, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{courses: courses, store: store, dashboard: dashboard, metrics: metrics, logger: logger}
}

// Enroll signs the learner up for a free course or hands a paid course over to checkout.
// Only the free path writes; a unique violation on that write counts as already enrolled.
func (s *EnrollmentService) Enroll(ctx context.Context, session *models.Session, courseID string) (*models.EnrollmentDecision, error) {
	if session == nil || session.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrAuthRequired, NoticeSignInToEnroll)
	}

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.WithRedirect(appErrors.Clone(appErrors.ErrNotFound, "Course not found"), RedirectCourses)
		}
		return nil, s.backendFailure(err, "load course")
	}

	existing, err := s.store.FindByUserAndCourse(ctx, session.UserID, course.ID)
	switch {
	case err == nil:
		return s.alreadyEnrolled(existing), nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, s.backendFailure(err, "check enrollment")
	}

	if !course.Free() {
		summary := course.Summary()
		s.metrics.RecordEnrollment(string(models.OutcomeCheckoutRequired))
		return &models.EnrollmentDecision{
			Outcome:  models.OutcomeCheckoutRequired,
			Redirect: RedirectCheckout,
			Checkout: &summary,
		}, nil
	}

	enrollment := &models.Enrollment{UserID: session.UserID, CourseID: course.ID}
	if err := s.store.Create(ctx, enrollment); err != nil {
		if errors.Is(err, repository.ErrEnrollmentExists) {
			return s.alreadyEnrolled(nil), nil
		}
		return nil, s.backendFailure(err, "create enrollment")
	}

	if s.dashboard != nil {
		s.dashboard.InvalidateLearner(ctx, session.UserID)
	}
	s.metrics.RecordEnrollment(string(models.OutcomeEnrolled))
	s.logger.Info("learner enrolled", zap.String("user_id", session.UserID), zap.String("course_id", course.ID))

	return &models.EnrollmentDecision{
		Outcome:    models.OutcomeEnrolled,
		Notice:     fmt.Sprintf("Successfully enrolled in %s!", course.Title),
		Redirect:   RedirectDashboard,
		Enrollment: enrollment,
	}, nil
}

// ListMine returns the caller's enrollments, newest first.
func (s *EnrollmentService) ListMine(ctx context.Context, session *models.Session) ([]models.EnrollmentDetail, error) {
	if session == nil || session.UserID == "" {
		return nil, appErrors.ErrAuthRequired
	}
	list, err := s.store.ListByUser(ctx, session.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	if list == nil {
		list = []models.EnrollmentDetail{}
	}
	return list, nil
}

func (s *EnrollmentService) alreadyEnrolled(existing *models.Enrollment) *models.EnrollmentDecision {
	s.metrics.RecordEnrollment(string(models.OutcomeAlreadyEnrolled))
	return &models.EnrollmentDecision{
		Outcome:    models.OutcomeAlreadyEnrolled,
		Notice:     NoticeAlreadyEnrolled,
		Redirect:   RedirectDashboard,
		Enrollment: existing,
	}
}

func (s *EnrollmentService) backendFailure(err error, step string) error {
	s.logger.Error("enroll failed", zap.String("step", step), zap.Error(err))
	s.metrics.RecordEnrollment("failed")
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, NoticeEnrollFailed)
}
