package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/faxlab-academy-api/internal/models"
	appErrors "github.com/noah-isme/faxlab-academy-api/pkg/errors"
)

func dashboardEnrollments() []models.EnrollmentDetail {
	enrolled := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	return []models.EnrollmentDetail{
		{Enrollment: models.Enrollment{ID: "e1", UserID: "u1", CourseID: "c1", Completed: true, EnrolledAt: enrolled}, CourseTitle: "AI Basics", CourseModules: 4},
		{Enrollment: models.Enrollment{ID: "e2", UserID: "u1", CourseID: "c2", EnrolledAt: enrolled}, CourseTitle: "Deep Learning", CourseModules: 8},
		{Enrollment: models.Enrollment{ID: "e3", UserID: "u1", CourseID: "c3", EnrolledAt: enrolled}, CourseTitle: "AI Ethics", CourseModules: 2},
	}
}

func dashboardProgress() []models.VideoProgress {
	return []models.VideoProgress{
		{UserID: "u1", CourseID: "c2", ModuleID: "m1", VideoPosition: 3600, Completed: true},
		{UserID: "u1", CourseID: "c2", ModuleID: "m2", VideoPosition: 1800, Completed: true},
		{UserID: "u1", CourseID: "c2", ModuleID: "m2", VideoPosition: 0, Completed: true},
		{UserID: "u1", CourseID: "c3", ModuleID: "m1", VideoPosition: 1700, Completed: true},
		{UserID: "u1", CourseID: "c3", ModuleID: "m2", VideoPosition: 100, Completed: true},
		{UserID: "u1", CourseID: "c1", ModuleID: "m1", VideoPosition: 600},
	}
}

func TestBuildLearnerDashboardStats(t *testing.T) {
	certs := []models.CertificateDetail{{Certificate: models.Certificate{ID: "cert1", UserID: "u1", CourseID: "c1", CertificateNumber: "FX-1"}, CourseTitle: "AI Basics"}}

	got := BuildLearnerDashboard(dashboardEnrollments(), certs, dashboardProgress())

	assert.Equal(t, 3, got.Stats.TotalEnrolled)
	assert.Equal(t, 1, got.Stats.Completed)
	assert.Equal(t, 2, got.Stats.InProgress)
	assert.Equal(t, 1, got.Stats.Certificates)
	// 7800 seconds rounds to 2 hours.
	assert.Equal(t, 2, got.Stats.HoursLearned)
	assert.Equal(t, 0.3333, got.Stats.CompletionRate)

	require.Len(t, got.Courses, 3)
	assert.Equal(t, 100, got.Courses[0].Progress)
	assert.Equal(t, 25, got.Courses[1].Progress)
	assert.Equal(t, 99, got.Courses[2].Progress)

	require.Len(t, got.Certificates, 1)
	assert.Equal(t, "FX-1", got.Certificates[0].CertificateNumber)
}

func TestBuildLearnerDashboardEmpty(t *testing.T) {
	got := BuildLearnerDashboard(nil, nil, nil)
	assert.Zero(t, got.Stats.TotalEnrolled)
	assert.Zero(t, got.Stats.CompletionRate)
	assert.NotNil(t, got.Courses)
	assert.NotNil(t, got.Certificates)
}

func newDashboardFixture(cacheRepo *fakeCacheRepo) (*DashboardService, *fakeEnrollments) {
	enrollments := &fakeEnrollments{details: dashboardEnrollments()}
	var cache *CacheService
	if cacheRepo != nil {
		cache = NewCacheService(cacheRepo, NewMetricsService(), time.Minute, nil, true)
	}
	svc := NewDashboardService(DashboardServiceParams{
		Enrollments:  enrollments,
		Certificates: &fakeCertificates{},
		Progress:     &fakeProgress{rows: dashboardProgress()},
		Cache:        cache,
	})
	return svc, enrollments
}

func TestDashboardLearnerCachesAndInvalidates(t *testing.T) {
	cacheRepo := newFakeCacheRepo()
	svc, _ := newDashboardFixture(cacheRepo)
	ctx := context.Background()

	first, hit, err := svc.Learner(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "u1", first.UserID)
	assert.True(t, cacheRepo.has(learnerCacheKey("u1")))

	second, hit, err := svc.Learner(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first.Stats, second.Stats)

	svc.InvalidateLearner(ctx, "u1")
	assert.False(t, cacheRepo.has(learnerCacheKey("u1")))
}

func TestDashboardLearnerDegradesOnCacheError(t *testing.T) {
	cacheRepo := newFakeCacheRepo()
	cacheRepo.getErr = errors.New("redis timeout")
	svc, _ := newDashboardFixture(cacheRepo)

	got, hit, err := svc.Learner(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 3, got.Stats.TotalEnrolled)
}

func TestDashboardLearnerFailsWhenSourceFails(t *testing.T) {
	svc, enrollments := newDashboardFixture(nil)
	enrollments.listErr = errors.New("db down")

	_, _, err := svc.Learner(context.Background(), "u1")
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, appErrors.FromError(err).Status)

	_, _, err = svc.Learner(context.Background(), "")
	assert.ErrorIs(t, err, appErrors.ErrAuthRequired)
}
