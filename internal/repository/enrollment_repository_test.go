package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/faxlab-academy-api/internal/models"
)

func TestEnrollmentRepositoryFindByUserAndCourse(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "course_id", "enrolled_at", "completed", "completed_at", "payment_id"}).
		AddRow("enr-1", "user-1", "5", time.Now(), false, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollments WHERE user_id = $1 AND course_id = $2")).
		WithArgs("user-1", "5").
		WillReturnRows(rows)

	enrollment, err := repo.FindByUserAndCourse(context.Background(), "user-1", "5")
	require.NoError(t, err)
	assert.Equal(t, "enr-1", enrollment.ID)
	assert.Nil(t, enrollment.PaymentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryFindMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery("FROM enrollments").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByUserAndCourse(context.Background(), "user-1", "5")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestEnrollmentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("INSERT INTO enrollments").WillReturnResult(sqlmock.NewResult(1, 1))

	enrollment := &models.Enrollment{UserID: "user-1", CourseID: "5"}
	require.NoError(t, repo.Create(context.Background(), enrollment))
	assert.NotEmpty(t, enrollment.ID)
	assert.False(t, enrollment.EnrolledAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("INSERT INTO enrollments").WillReturnError(&pq.Error{Code: "23505", Constraint: "enrollments_user_id_course_id_key"})

	err := repo.Create(context.Background(), &models.Enrollment{UserID: "user-1", CourseID: "5"})
	assert.ErrorIs(t, err, ErrEnrollmentExists)
}

func TestEnrollmentRepositoryCreateOtherFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("INSERT INTO enrollments").WillReturnError(&pq.Error{Code: "23503"})

	err := repo.Create(context.Background(), &models.Enrollment{UserID: "user-1", CourseID: "404"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrEnrollmentExists))
}

func TestEnrollmentRepositoryListByUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "course_id", "enrolled_at", "completed", "completed_at", "payment_id", "course_title", "course_image_url", "course_level", "course_duration", "course_modules"}).
		AddRow("enr-2", "user-1", "2", now, false, nil, nil, "Deep Learning", "dl.png", "Advanced", "20h", 10).
		AddRow("enr-1", "user-1", "5", now.Add(-time.Hour), true, now, nil, "AI Basics", "ai.png", "Beginner", "4h", 5)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY e.enrolled_at DESC")).WithArgs("user-1").WillReturnRows(rows)

	list, err := repo.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Deep Learning", list[0].CourseTitle)
	assert.True(t, list[1].Completed)
	require.NoError(t, mock.ExpectationsWereMet())
}
