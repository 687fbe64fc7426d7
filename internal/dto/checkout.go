package dto

import "github.com/noah-isme/faxlab-academy-api/internal/models"

// StartCheckoutRequest opens a checkout for a paid course.
type StartCheckoutRequest struct {
	CourseID string `json:"course_id" validate:"required"`
}

// CheckoutFormPatch carries the fields being edited. Nil fields are left unchanged.
type CheckoutFormPatch struct {
	CardNumber     *string `json:"card_number"`
	CardName       *string `json:"card_name"`
	ExpiryDate     *string `json:"expiry_date"`
	CVV            *string `json:"cvv"`
	Email          *string `json:"email"`
	BillingAddress *string `json:"billing_address"`
	City           *string `json:"city"`
	State          *string `json:"state"`
	ZipCode        *string `json:"zip_code"`
}

// CheckoutView is a redacted checkout session plus the view the client should show next.
type CheckoutView struct {
	*models.CheckoutSession
	Notice   string `json:"notice,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// NewCheckoutView copies session with its card number masked.
func NewCheckoutView(session *models.CheckoutSession) *CheckoutView {
	redacted := *session
	redacted.Form = session.Form.Redacted()
	return &CheckoutView{CheckoutSession: &redacted}
}
