package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/faxlab-academy-api/internal/models"
)

// pgUniqueViolation is the SQLSTATE raised by a unique constraint.
const pgUniqueViolation = "23505"

// ErrEnrollmentExists signals the (user_id, course_id) pair is already enrolled.
var ErrEnrollmentExists = errors.New("enrollment already exists")

// EnrollmentRepository manages learner enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs a new EnrollmentRepository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByUserAndCourse returns the enrollment for the pair or sql.ErrNoRows.
func (r *EnrollmentRepository) FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	const query = `SELECT id, user_id, course_id, enrolled_at, COALESCE(completed, FALSE) AS completed, completed_at, payment_id FROM enrollments WHERE user_id = $1 AND course_id = $2 LIMIT 1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, userID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &enrollment, nil
}

// Create inserts a new enrollment. A duplicate pair yields ErrEnrollmentExists.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	return insertEnrollment(ctx, r.db, enrollment)
}

// ListByUser returns the learner's enrollments with course details, most recent first.
func (r *EnrollmentRepository) ListByUser(ctx context.Context, userID string) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.user_id, e.course_id, e.enrolled_at, COALESCE(e.completed, FALSE) AS completed, e.completed_at, e.payment_id,
		c.title AS course_title, COALESCE(c.image_url, '') AS course_image_url, COALESCE(c.level, '') AS course_level,
		COALESCE(c.duration, '') AS course_duration, COALESCE(c.modules, 0) AS course_modules
		FROM enrollments e
		JOIN courses c ON c.id = e.course_id
		WHERE e.user_id = $1
		ORDER BY e.enrolled_at DESC`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, userID); err != nil {
		return nil, fmt.Errorf("list enrollments by user: %w", err)
	}
	return enrollments, nil
}

func insertEnrollment(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now().UTC()
	}
	const query = `INSERT INTO enrollments (id, user_id, course_id, enrolled_at, completed, completed_at, payment_id) VALUES (:id, :user_id, :course_id, :enrolled_at, :completed, :completed_at, :payment_id)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, enrollment); err != nil {
		if isUniqueViolation(err) {
			return ErrEnrollmentExists
		}
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}
