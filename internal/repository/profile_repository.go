package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/faxlab-academy-api/internal/models"
)

// ProfileRepository reads and edits learner profiles.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs a ProfileRepository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// FindByID returns the profile or sql.ErrNoRows.
func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	const query = `SELECT id, email, COALESCE(full_name, '') AS full_name, COALESCE(avatar_url, '') AS avatar_url, COALESCE(created_at, NOW()) AS created_at, COALESCE(updated_at, NOW()) AS updated_at FROM profiles WHERE id = $1 LIMIT 1`
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return &profile, nil
}

// UpdateFullName changes the display name. A missing profile yields sql.ErrNoRows.
func (r *ProfileRepository) UpdateFullName(ctx context.Context, id, fullName string, updatedAt time.Time) error {
	const query = `UPDATE profiles SET full_name = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, fullName, updatedAt)
	if err != nil {
		return fmt.Errorf("update profile name: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update profile rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
