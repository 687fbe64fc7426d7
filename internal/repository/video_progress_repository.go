package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/faxlab-academy-api/internal/models"
)

// VideoProgressRepository reads playback progress.
type VideoProgressRepository struct {
	db *sqlx.DB
}

// NewVideoProgressRepository constructs a VideoProgressRepository.
func NewVideoProgressRepository(db *sqlx.DB) *VideoProgressRepository {
	return &VideoProgressRepository{db: db}
}

// ListByUser returns every progress row for the learner.
func (r *VideoProgressRepository) ListByUser(ctx context.Context, userID string) ([]models.VideoProgress, error) {
	const query = `SELECT id, user_id, course_id, module_id, COALESCE(video_position, 0) AS video_position, COALESCE(duration, 0) AS duration, COALESCE(completed, FALSE) AS completed, last_watched FROM video_progress WHERE user_id = $1`
	var progress []models.VideoProgress
	if err := r.db.SelectContext(ctx, &progress, query, userID); err != nil {
		return nil, fmt.Errorf("list video progress: %w", err)
	}
	return progress, nil
}
