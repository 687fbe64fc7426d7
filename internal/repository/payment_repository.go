package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/faxlab-academy-api/internal/models"
)

// PaymentRepository persists purchase records.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs a PaymentRepository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// RecordPurchase writes the payment and its enrollment in one transaction.
// When the learner is already enrolled the payment is kept and ErrEnrollmentExists is returned.
func (r *PaymentRepository) RecordPurchase(ctx context.Context, payment *models.Payment, enrollment *models.Enrollment) (err error) {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin purchase tx: %w", err)
	}
	defer func() {
		if err != nil && !errors.Is(err, ErrEnrollmentExists) {
			_ = tx.Rollback()
		}
	}()

	const insertPayment = `INSERT INTO payments (id, user_id, course_id, amount, currency, status, stripe_payment_id, created_at) VALUES (:id, :user_id, :course_id, :amount, :currency, :status, :stripe_payment_id, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertPayment, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}

	enrollment.PaymentID = &payment.ID
	if _, err = tx.ExecContext(ctx, `SAVEPOINT enroll`); err != nil {
		return fmt.Errorf("savepoint enrollment: %w", err)
	}
	if insertErr := insertEnrollment(ctx, tx, enrollment); insertErr != nil {
		if !errors.Is(insertErr, ErrEnrollmentExists) {
			err = insertErr
			return err
		}
		if _, err = tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT enroll`); err != nil {
			return fmt.Errorf("rollback enrollment savepoint: %w", err)
		}
		if err = tx.Commit(); err != nil {
			return fmt.Errorf("commit purchase tx: %w", err)
		}
		return ErrEnrollmentExists
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit purchase tx: %w", err)
	}
	return nil
}

// CountByUserAndCourse reports how many payments exist for the pair.
func (r *PaymentRepository) CountByUserAndCourse(ctx context.Context, userID, courseID string) (int, error) {
	const query = `SELECT COUNT(*) FROM payments WHERE user_id = $1 AND course_id = $2`
	var total int
	if err := r.db.GetContext(ctx, &total, query, userID, courseID); err != nil {
		return 0, fmt.Errorf("count payments: %w", err)
	}
	return total, nil
}
