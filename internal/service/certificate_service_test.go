package service

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/faxlab-academy-api/internal/models"
	appErrors "github.com/noah-isme/faxlab-academy-api/pkg/errors"
	"github.com/noah-isme/faxlab-academy-api/pkg/storage"
)

func newCertificateFixture(t *testing.T) (*CertificateService, string) {
	t.Helper()
	dir := t.TempDir()
	files, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)

	svc := NewCertificateService(CertificateServiceParams{
		Certificates: &fakeCertificates{certs: []models.CertificateDetail{
			{Certificate: models.Certificate{ID: "cert-1", UserID: "u1", CourseID: "c1", CertificateNumber: "FX-2024-0001", IssuedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}, CourseTitle: "AI Basics", CourseDuration: "4 weeks"},
		}},
		Profiles: &fakeProfiles{profiles: map[string]models.Profile{"u1": {ID: "u1", FullName: "Ada Lovelace"}}},
		Files:    files,
		Signer:   storage.NewSignedURLSigner("test-secret", time.Minute),
		Metrics:  NewMetricsService(),
		Config:   CertificateServiceConfig{APIPrefix: "/api/v1/", FileTTL: time.Hour},
	})
	return svc, dir
}

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	parsed, err := url.Parse(link)
	require.NoError(t, err)
	return parsed.Query().Get("token")
}

func TestCertificateLinkRendersAndSigns(t *testing.T) {
	svc, dir := newCertificateFixture(t)

	link, err := svc.Link(context.Background(), &models.Session{UserID: "u1"}, "cert-1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link.URL, "/api/v1/certificates/download?token="))
	assert.Equal(t, "cert-1", link.CertificateID)
	assert.True(t, link.ExpiresAt.After(time.Now()))

	_, err = os.Stat(filepath.Join(dir, "u1", "cert-1.pdf"))
	require.NoError(t, err)

	file, name, err := svc.Open(context.Background(), tokenFromLink(t, link.URL))
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, "cert-1.pdf", name)
	head := make([]byte, 4)
	_, err = io.ReadFull(file, head)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(head))
}

func TestCertificateLinkHidesOtherLearners(t *testing.T) {
	svc, _ := newCertificateFixture(t)

	_, err := svc.Link(context.Background(), &models.Session{UserID: "u2"}, "cert-1")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)

	_, err = svc.Link(context.Background(), nil, "cert-1")
	assert.ErrorIs(t, err, appErrors.ErrAuthRequired)
}

func TestCertificateOpenRerendersAfterCleanup(t *testing.T) {
	svc, dir := newCertificateFixture(t)
	link, err := svc.Link(context.Background(), &models.Session{UserID: "u1"}, "cert-1")
	require.NoError(t, err)

	stored := filepath.Join(dir, "u1", "cert-1.pdf")
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stored, old, old))
	require.NoError(t, svc.Cleanup(context.Background()))
	_, err = os.Stat(stored)
	require.True(t, os.IsNotExist(err))

	file, _, err := svc.Open(context.Background(), tokenFromLink(t, link.URL))
	require.NoError(t, err)
	file.Close()
	_, err = os.Stat(stored)
	assert.NoError(t, err)
}

func TestCertificateOpenRejectsBadToken(t *testing.T) {
	svc, _ := newCertificateFixture(t)

	_, _, err := svc.Open(context.Background(), "cert-1.123.abc.deadbeef")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, appErrors.FromError(err).Status)
}

func TestCertificateList(t *testing.T) {
	svc, _ := newCertificateFixture(t)

	mine, err := svc.List(context.Background(), &models.Session{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "AI Basics", mine[0].CourseTitle)

	none, err := svc.List(context.Background(), &models.Session{UserID: "u2"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
