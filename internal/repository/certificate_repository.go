package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/faxlab-academy-api/internal/models"
)

const certificateSelect = `SELECT ce.id, ce.user_id, ce.course_id, ce.certificate_number, COALESCE(ce.issued_at, NOW()) AS issued_at,
	c.title AS course_title, COALESCE(c.duration, '') AS course_duration
	FROM certificates ce
	JOIN courses c ON c.id = ce.course_id`

// CertificateRepository reads issued certificates.
type CertificateRepository struct {
	db *sqlx.DB
}

// NewCertificateRepository constructs a CertificateRepository.
func NewCertificateRepository(db *sqlx.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

// ListByUser returns the learner's certificates, newest first.
func (r *CertificateRepository) ListByUser(ctx context.Context, userID string) ([]models.CertificateDetail, error) {
	query := certificateSelect + ` WHERE ce.user_id = $1 ORDER BY ce.issued_at DESC NULLS LAST`
	var certificates []models.CertificateDetail
	if err := r.db.SelectContext(ctx, &certificates, query, userID); err != nil {
		return nil, fmt.Errorf("list certificates by user: %w", err)
	}
	return certificates, nil
}

// FindByID returns one certificate or sql.ErrNoRows.
func (r *CertificateRepository) FindByID(ctx context.Context, id string) (*models.CertificateDetail, error) {
	if !validID(id) {
		return nil, sql.ErrNoRows
	}
	query := certificateSelect + ` WHERE ce.id = $1 LIMIT 1`
	var certificate models.CertificateDetail
	if err := r.db.GetContext(ctx, &certificate, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find certificate: %w", err)
	}
	return &certificate, nil
}
