package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileRepositoryUpdateFullName(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	now := time.Now()
	mock.ExpectExec("UPDATE profiles SET full_name").WithArgs("user-1", "Ana Souza", now).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateFullName(context.Background(), "user-1", "Ana Souza", now))

	mock.ExpectExec("UPDATE profiles SET full_name").WithArgs("ghost", "Ana", now).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.UpdateFullName(context.Background(), "ghost", "Ana", now), sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
