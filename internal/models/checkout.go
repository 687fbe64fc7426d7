package models

import (
	"strings"
	"time"
	"unicode"
)

// CheckoutState is a step in the simulated checkout.
type CheckoutState string

// Checkout states. There is no failed state: submission always settles as succeeded.
const (
	CheckoutIdle       CheckoutState = "idle"
	CheckoutEditing    CheckoutState = "editing"
	CheckoutSubmitting CheckoutState = "submitting"
	CheckoutSucceeded  CheckoutState = "succeeded"
)

// CheckoutForm holds the payment form fields after masking. The CVV itself is never kept.
type CheckoutForm struct {
	CardNumber     string `json:"card_number"`
	CardName       string `json:"card_name"`
	ExpiryDate     string `json:"expiry_date"`
	CVVProvided    bool   `json:"cvv_provided"`
	Email          string `json:"email"`
	BillingAddress string `json:"billing_address"`
	City           string `json:"city"`
	State          string `json:"state"`
	ZipCode        string `json:"zip_code"`
}

// Redacted returns the form with the card number reduced to its last four digits.
func (f CheckoutForm) Redacted() CheckoutForm {
	compact := []rune(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, f.CardNumber))
	if len(compact) == 0 {
		return f
	}
	if len(compact) > 4 {
		compact = compact[len(compact)-4:]
	}
	f.CardNumber = "•••• " + string(compact)
	return f
}

// CheckoutSession is the transient record of one checkout attempt.
type CheckoutSession struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	Course      CourseSummary `json:"course"`
	State       CheckoutState `json:"state"`
	Form        CheckoutForm  `json:"form"`
	Currency    string        `json:"currency"`
	PaymentID   string        `json:"payment_id,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	SubmittedAt *time.Time    `json:"submitted_at,omitempty"`
	SettledAt   *time.Time    `json:"settled_at,omitempty"`
}
