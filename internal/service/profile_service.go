package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/faxlab-academy-api/internal/models"
	appErrors "github.com/noah-isme/faxlab-academy-api/pkg/errors"
	"github.com/noah-isme/faxlab-academy-api/pkg/export"
)

type profileStore interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
	UpdateFullName(ctx context.Context, id, fullName string, updatedAt time.Time) error
}

type enrollmentLister interface {
	ListByUser(ctx context.Context, userID string) ([]models.EnrollmentDetail, error)
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// TableRenderer turns a dataset into one downloadable format keyed by Extension.
type TableRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// TranscriptExport is a rendered enrollment transcript ready for download.
type TranscriptExport struct {
	Filename    string
	ContentType string
	Data        []byte
}

var transcriptColumns = []export.Column{
	{Key: "course_id", Title: "Course ID"},
	{Key: "course", Title: "Course"},
	{Key: "level", Title: "Level"},
	{Key: "duration", Title: "Duration"},
	{Key: "enrolled_at", Title: "Enrolled"},
	{Key: "status", Title: "Status"},
	{Key: "completed_at", Title: "Completed"},
}

// ProfileService reads and edits the learner's own profile.
type ProfileService struct {
	profiles    profileStore
	enrollments enrollmentLister
	audit       auditRecorder
	renderers   map[string]TableRenderer
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewProfileService constructs a ProfileService. Transcripts default to CSV when no renderers are given.
func NewProfileService(profiles profileStore, enrollments enrollmentLister, audit auditRecorder, renderers []TableRenderer, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if len(renderers) == 0 {
		renderers = []TableRenderer{export.NewCSVExporter()}
	}
	byFormat := make(map[string]TableRenderer, len(renderers))
	for _, r := range renderers {
		byFormat[r.Extension()] = r
	}
	return &ProfileService{profiles: profiles, enrollments: enrollments, audit: audit, renderers: byFormat, validator: validate, logger: logger, now: time.Now}
}

// Get returns the caller's profile.
func (s *ProfileService) Get(ctx context.Context, session *models.Session) (*models.Profile, error) {
	if session == nil {
		return nil, appErrors.ErrAuthRequired
	}
	profile, err := s.profiles.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return profile, nil
}

// UpdateName sets the display name after trimming.
func (s *ProfileService) UpdateName(ctx context.Context, session *models.Session, req models.UpdateProfileRequest) (*models.Profile, error) {
	if session == nil {
		return nil, appErrors.ErrAuthRequired
	}
	req.FullName = strings.TrimSpace(req.FullName)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "full name is required and must be at most 120 characters")
	}

	if err := s.profiles.UpdateFullName(ctx, session.UserID, req.FullName, s.now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}

	if s.audit != nil {
		values, _ := json.Marshal(map[string]string{"full_name": req.FullName})
		userID := session.UserID
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &userID,
			Action:     models.AuditActionProfileUpdate,
			Resource:   models.AuditResourceProfile,
			ResourceID: &userID,
			NewValues:  values,
		}); err != nil {
			s.logger.Warn("failed to record profile audit log", zap.Error(err))
		}
	}

	return s.Get(ctx, session)
}

// ExportEnrollments renders the learner's enrollments as a transcript. format is a
// renderer extension such as "csv" or "pdf"; empty means csv.
func (s *ProfileService) ExportEnrollments(ctx context.Context, session *models.Session, format string) (*TranscriptExport, error) {
	if session == nil {
		return nil, appErrors.ErrAuthRequired
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format "+format)
	}
	list, err := s.enrollments.ListByUser(ctx, session.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}

	data := export.Dataset{Title: "Enrollment transcript", Columns: transcriptColumns}
	for _, e := range list {
		status := "in_progress"
		completedAt := ""
		if e.Completed {
			status = "completed"
			if e.CompletedAt != nil {
				completedAt = e.CompletedAt.UTC().Format(time.RFC3339)
			}
		}
		data.Rows = append(data.Rows, export.Row{
			"course_id":    e.CourseID,
			"course":       e.CourseTitle,
			"level":        e.CourseLevel,
			"duration":     e.CourseDuration,
			"enrolled_at":  e.EnrolledAt.UTC().Format(time.RFC3339),
			"status":       status,
			"completed_at": completedAt,
		})
	}

	out, err := renderer.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript")
	}
	s.logger.Debug("transcript exported", zap.String("user_id", session.UserID), zap.String("format", format), zap.Int("rows", len(list)))
	return &TranscriptExport{
		Filename:    fmt.Sprintf("enrollments-%s.%s", s.now().UTC().Format("20060102"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Data:        out,
	}, nil
}
