package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/faxlab-academy-api/internal/models"
)

// Nullable catalog columns are coalesced so models.Course stays free of sql.Null* wrappers.
const courseSelect = `SELECT c.id, c.title, COALESCE(c.description, '') AS description, c.price,
	COALESCE(c.is_free, FALSE) AS is_free, COALESCE(c.duration, '') AS duration, COALESCE(c.modules, 0) AS modules,
	COALESCE(c.rating, 0) AS rating, COALESCE(c.category, '') AS category, COALESCE(c.level, '') AS level,
	COALESCE(c.image_url, '') AS image_url, COALESCE(s.total_enrollments, 0) AS enrollments,
	COALESCE(c.created_at, NOW()) AS created_at
	FROM courses c
	LEFT JOIN (SELECT course_id, COUNT(*) AS total_enrollments FROM enrollments GROUP BY course_id) s ON s.course_id = c.id`

// CourseRepository reads the course catalog.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new instance of CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns every course, newest first, decorated with its popularity figure.
func (r *CourseRepository) List(ctx context.Context) ([]models.Course, error) {
	query := courseSelect + ` ORDER BY c.created_at DESC NULLS LAST, c.id`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByID returns a single course or sql.ErrNoRows. Ids that are not UUIDs never match.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if !validID(id) {
		return nil, sql.ErrNoRows
	}
	query := courseSelect + ` WHERE c.id = $1 LIMIT 1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find course by id: %w", err)
	}
	return &course, nil
}

// validID reports whether id can be compared against a uuid column without a cast error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
