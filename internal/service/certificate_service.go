package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/faxlab-academy-api/internal/models"
	appErrors "github.com/noah-isme/faxlab-academy-api/pkg/errors"
	"github.com/noah-isme/faxlab-academy-api/pkg/export"
	"github.com/noah-isme/faxlab-academy-api/pkg/storage"
)

type certificateStore interface {
	ListByUser(ctx context.Context, userID string) ([]models.CertificateDetail, error)
	FindByID(ctx context.Context, id string) (*models.CertificateDetail, error)
}

type learnerProfileReader interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
}

type certificateRenderer interface {
	RenderCertificate(doc export.CertificateDocument) ([]byte, error)
}

type certificateFiles interface {
	Save(filename string, data []byte) (string, error)
	Exists(filename string) bool
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type certificateSigner interface {
	Generate(subject, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (string, string, time.Time, error)
}

// CertificateServiceConfig configures link building and file retention.
type CertificateServiceConfig struct {
	APIPrefix string
	FileTTL   time.Duration
}

// CertificateServiceParams groups constructor dependencies.
type CertificateServiceParams struct {
	Certificates certificateStore
	Profiles     learnerProfileReader
	Renderer     certificateRenderer
	Files        certificateFiles
	Signer       certificateSigner
	Metrics      *MetricsService
	Logger       *zap.Logger
	Config       CertificateServiceConfig
}

// CertificateService lists certificates and hands out signed PDF downloads.
type CertificateService struct {
	certificates certificateStore
	profiles     learnerProfileReader
	renderer     certificateRenderer
	files        certificateFiles
	signer       certificateSigner
	metrics      *MetricsService
	logger       *zap.Logger
	cfg          CertificateServiceConfig
}

// NewCertificateService constructs a CertificateService.
func NewCertificateService(params CertificateServiceParams) *CertificateService {
	cfg := params.Config
	if cfg.FileTTL <= 0 {
		cfg.FileTTL = 24 * time.Hour
	}
	cfg.APIPrefix = strings.TrimRight(cfg.APIPrefix, "/")
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	renderer := params.Renderer
	if renderer == nil {
		renderer = export.NewPDFExporter("")
	}
	return &CertificateService{
		certificates: params.Certificates,
		profiles:     params.Profiles,
		renderer:     renderer,
		files:        params.Files,
		signer:       params.Signer,
		metrics:      params.Metrics,
		logger:       logger,
		cfg:          cfg,
	}
}

// List returns the caller's certificates, newest first.
func (s *CertificateService) List(ctx context.Context, session *models.Session) ([]models.CertificateDetail, error) {
	if session == nil {
		return nil, appErrors.ErrAuthRequired
	}
	list, err := s.certificates.ListByUser(ctx, session.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list certificates")
	}
	if list == nil {
		list = []models.CertificateDetail{}
	}
	return list, nil
}

// Link renders the certificate PDF on first use and returns a signed download URL.
func (s *CertificateService) Link(ctx context.Context, session *models.Session, certificateID string) (*models.CertificateLink, error) {
	if session == nil {
		return nil, appErrors.ErrAuthRequired
	}
	cert, err := s.lookup(ctx, certificateID)
	if err != nil {
		return nil, err
	}
	if cert.UserID != session.UserID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
	}

	relPath := certificatePath(cert)
	if !s.files.Exists(relPath) {
		if err := s.render(ctx, cert, relPath); err != nil {
			return nil, err
		}
	}

	token, expiresAt, err := s.signer.Generate(cert.ID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign certificate link")
	}
	s.metrics.RecordCertificateEvent("link", 1)

	return &models.CertificateLink{
		CertificateID: cert.ID,
		URL:           fmt.Sprintf("%s/certificates/download?token=%s", s.cfg.APIPrefix, url.QueryEscape(token)),
		ExpiresAt:     expiresAt,
	}, nil
}

// Open resolves a signed token to the stored PDF, re-rendering it if cleanup removed the file.
func (s *CertificateService) Open(ctx context.Context, token string) (*os.File, string, error) {
	certificateID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "download link expired")
		}
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid download link")
	}

	if !s.files.Exists(relPath) {
		cert, err := s.lookup(ctx, certificateID)
		if err != nil {
			return nil, "", err
		}
		if certificatePath(cert) != relPath {
			return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid download link")
		}
		if err := s.render(ctx, cert, relPath); err != nil {
			return nil, "", err
		}
	}

	file, err := s.files.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open certificate")
	}
	s.metrics.RecordCertificateEvent("download", 1)
	return file, path.Base(relPath), nil
}

// Cleanup removes rendered PDFs older than the configured TTL.
func (s *CertificateService) Cleanup(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	removed, err := s.files.CleanupOlderThan(s.cfg.FileTTL)
	if len(removed) > 0 {
		s.metrics.RecordCertificateEvent("cleanup", len(removed))
		s.logger.Info("certificate files removed", zap.Int("count", len(removed)))
	}
	if err != nil {
		return fmt.Errorf("cleanup certificates: %w", err)
	}
	return nil
}

func (s *CertificateService) lookup(ctx context.Context, id string) (*models.CertificateDetail, error) {
	if strings.TrimSpace(id) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "certificate id is required")
	}
	cert, err := s.certificates.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate")
	}
	return cert, nil
}

func (s *CertificateService) render(ctx context.Context, cert *models.CertificateDetail, relPath string) error {
	learner := ""
	if s.profiles != nil {
		profile, err := s.profiles.FindByID(ctx, cert.UserID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load learner profile")
		}
		if profile != nil {
			learner = strings.TrimSpace(profile.FullName)
			if learner == "" {
				learner = profile.Email
			}
		}
	}
	if learner == "" {
		learner = "Learner"
	}

	pdf, err := s.renderer.RenderCertificate(export.CertificateDocument{
		CertificateNumber: cert.CertificateNumber,
		LearnerName:       learner,
		CourseTitle:       cert.CourseTitle,
		Duration:          cert.CourseDuration,
		IssuedAt:          cert.IssuedAt,
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
	}
	if _, err := s.files.Save(relPath, pdf); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store certificate")
	}
	s.metrics.RecordCertificateEvent("render", 1)
	s.logger.Debug("certificate rendered", zap.String("certificate_id", cert.ID), zap.String("path", relPath))
	return nil
}

func certificatePath(cert *models.CertificateDetail) string {
	return path.Join(cert.UserID, cert.ID+".pdf")
}
