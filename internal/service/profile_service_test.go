package service

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/faxlab-academy-api/internal/models"
	appErrors "github.com/noah-isme/faxlab-academy-api/pkg/errors"
	"github.com/noah-isme/faxlab-academy-api/pkg/export"
)

func newProfileFixture() (*ProfileService, *fakeProfiles, *fakeAudit) {
	profiles := &fakeProfiles{profiles: map[string]models.Profile{
		"u1": {ID: "u1", Email: "ada@example.com", FullName: "Ada"},
	}}
	completedAt := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)
	enrollments := &fakeEnrollments{details: []models.EnrollmentDetail{
		{Enrollment: models.Enrollment{UserID: "u1", CourseID: "c1", EnrolledAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Completed: true, CompletedAt: &completedAt}, CourseTitle: "AI Basics", CourseLevel: "Beginner", CourseDuration: "4 weeks"},
		{Enrollment: models.Enrollment{UserID: "u1", CourseID: "c2", EnrolledAt: time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)}, CourseTitle: "Deep Learning, Part 1"},
	}}
	audit := &fakeAudit{}
	return NewProfileService(profiles, enrollments, audit, nil, nil, nil), profiles, audit
}

func TestProfileUpdateNameTrimsAndAudits(t *testing.T) {
	svc, profiles, audit := newProfileFixture()
	session := &models.Session{UserID: "u1"}

	updated, err := svc.UpdateName(context.Background(), session, models.UpdateProfileRequest{FullName: "  Ada Lovelace  "})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", updated.FullName)
	assert.Equal(t, "Ada Lovelace", profiles.profiles["u1"].FullName)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionProfileUpdate, audit.logs[0].Action)
}

func TestProfileUpdateNameValidation(t *testing.T) {
	svc, profiles, _ := newProfileFixture()
	session := &models.Session{UserID: "u1"}

	_, err := svc.UpdateName(context.Background(), session, models.UpdateProfileRequest{FullName: "   "})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)

	_, err = svc.UpdateName(context.Background(), session, models.UpdateProfileRequest{FullName: strings.Repeat("a", 121)})
	require.Error(t, err)
	assert.Equal(t, "Ada", profiles.profiles["u1"].FullName)

	_, err = svc.UpdateName(context.Background(), nil, models.UpdateProfileRequest{FullName: "x"})
	assert.ErrorIs(t, err, appErrors.ErrAuthRequired)
}

func TestProfileGetMissing(t *testing.T) {
	svc, _, _ := newProfileFixture()

	_, err := svc.Get(context.Background(), &models.Session{UserID: "ghost"})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

func TestProfileExportEnrollments(t *testing.T) {
	svc, _, _ := newProfileFixture()

	out, err := svc.ExportEnrollments(context.Background(), &models.Session{UserID: "u1"}, "")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out.Filename, ".csv"))
	assert.Contains(t, out.ContentType, "text/csv")

	text := strings.TrimPrefix(string(out.Data), "\ufeff")
	lines := strings.Split(strings.TrimSpace(text), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "course_id,course,level,duration,enrolled_at,status,completed_at", lines[0])
	assert.Equal(t, "c1,AI Basics,Beginner,4 weeks,2024-05-01T00:00:00Z,completed,2024-06-02T09:00:00Z", lines[1])
	assert.Equal(t, `c2,"Deep Learning, Part 1",,,2024-05-03T00:00:00Z,in_progress,`, lines[2])
}

func TestProfileExportFormats(t *testing.T) {
	profiles := &fakeProfiles{profiles: map[string]models.Profile{"u1": {ID: "u1"}}}
	enrollments := &fakeEnrollments{details: []models.EnrollmentDetail{
		{Enrollment: models.Enrollment{UserID: "u1", CourseID: "c1", EnrolledAt: time.Now()}, CourseTitle: "AI Basics"},
	}}
	svc := NewProfileService(profiles, enrollments, &fakeAudit{}, []TableRenderer{export.NewCSVExporter(), export.NewPDFExporter("")}, nil, nil)

	pdf, err := svc.ExportEnrollments(context.Background(), &models.Session{UserID: "u1"}, "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdf.ContentType)
	assert.True(t, strings.HasSuffix(pdf.Filename, ".pdf"))
	assert.True(t, strings.HasPrefix(string(pdf.Data), "%PDF"))

	_, err = svc.ExportEnrollments(context.Background(), &models.Session{UserID: "u1"}, "xlsx")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)

	_, err = svc.ExportEnrollments(context.Background(), nil, "csv")
	assert.ErrorIs(t, err, appErrors.ErrAuthRequired)
}
