package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/faxlab-academy-api/internal/models"
	"github.com/noah-isme/faxlab-academy-api/internal/repository"
	appErrors "github.com/noah-isme/faxlab-academy-api/pkg/errors"
)

func enrollmentFixture() (*EnrollmentService, *fakeEnrollments, *fakeInvalidator) {
	courses := &fakeCourses{courses: []models.Course{
		{ID: "1", Title: "AI Basics", Price: 0, IsFree: true},
		{ID: "2", Title: "Deep Learning", Price: 1999, ImageURL: "/img/dl.png"},
	}}
	store := &fakeEnrollments{}
	inv := &fakeInvalidator{}
	return NewEnrollmentService(courses, store, inv, NewMetricsService(), nil), store, inv
}

func TestEnrollRequiresSession(t *testing.T) {
	svc, store, _ := enrollmentFixture()

	decision, err := svc.Enroll(context.Background(), nil, "1")
	require.Error(t, err)
	assert.Nil(t, decision)

	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
	assert.Equal(t, NoticeSignInToEnroll, appErr.Message)
	assert.Equal(t, RedirectAuth, appErr.Redirect)
	assert.Zero(t, store.count())
}

func TestEnrollFreeCourseTwiceKeepsOneRow(t *testing.T) {
	svc, store, inv := enrollmentFixture()
	session := &models.Session{UserID: "u1", Email: "a@b.io"}

	first, err := svc.Enroll(context.Background(), session, "1")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeEnrolled, first.Outcome)
	assert.Equal(t, "Successfully enrolled in AI Basics!", first.Notice)
	assert.Equal(t, RedirectDashboard, first.Redirect)
	require.NotNil(t, first.Enrollment)

	second, err := svc.Enroll(context.Background(), session, "1")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAlreadyEnrolled, second.Outcome)
	assert.Equal(t, NoticeAlreadyEnrolled, second.Notice)

	assert.Equal(t, 1, store.count())
	assert.Equal(t, []string{"u1"}, inv.users)
}

func TestEnrollUniqueViolationResolvesToAlreadyEnrolled(t *testing.T) {
	svc, store, inv := enrollmentFixture()
	// A concurrent request inserted the row after our lookup.
	store.createErr = repository.ErrEnrollmentExists

	decision, err := svc.Enroll(context.Background(), &models.Session{UserID: "u1"}, "1")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAlreadyEnrolled, decision.Outcome)
	assert.Equal(t, NoticeAlreadyEnrolled, decision.Notice)
	assert.Empty(t, inv.users)
}

func TestEnrollPaidCourseRequiresCheckout(t *testing.T) {
	svc, store, _ := enrollmentFixture()

	decision, err := svc.Enroll(context.Background(), &models.Session{UserID: "u1"}, "2")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeCheckoutRequired, decision.Outcome)
	assert.Equal(t, RedirectCheckout, decision.Redirect)
	require.NotNil(t, decision.Checkout)
	assert.Equal(t, models.CourseSummary{ID: "2", Title: "Deep Learning", Price: 1999, Image: "/img/dl.png"}, *decision.Checkout)
	assert.Zero(t, store.count())
}

func TestEnrollUnknownCourse(t *testing.T) {
	svc, _, _ := enrollmentFixture()

	_, err := svc.Enroll(context.Background(), &models.Session{UserID: "u1"}, "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, RedirectCourses, appErr.Redirect)
}

func TestEnrollBackendFailure(t *testing.T) {
	svc, store, inv := enrollmentFixture()
	store.createErr = errors.New("connection reset")

	_, err := svc.Enroll(context.Background(), &models.Session{UserID: "u1"}, "1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Equal(t, NoticeEnrollFailed, appErr.Message)
	assert.Empty(t, inv.users)
}

func TestListMineDefaultsToEmpty(t *testing.T) {
	svc, _, _ := enrollmentFixture()

	list, err := svc.ListMine(context.Background(), &models.Session{UserID: "u1"})
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	_, err = svc.ListMine(context.Background(), nil)
	assert.ErrorIs(t, err, appErrors.ErrAuthRequired)
}
