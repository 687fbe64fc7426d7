package models

import "time"

// PaymentStatusSimulated marks payments recorded by the simulated checkout.
const PaymentStatusSimulated = "simulated"

// Payment is a purchase record. Reference maps to the legacy stripe_payment_id column.
type Payment struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Amount    float64   `db:"amount" json:"amount"`
	Currency  string    `db:"currency" json:"currency"`
	Status    string    `db:"status" json:"status"`
	Reference string    `db:"stripe_payment_id" json:"reference"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
