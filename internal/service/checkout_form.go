package service

import (
	"strings"
	"unicode"

	"github.com/noah-isme/faxlab-academy-api/internal/dto"
	"github.com/noah-isme/faxlab-academy-api/internal/models"
)

// FormatCardNumber drops whitespace, groups the rest in fours and caps the result at 19 characters.
// Non-digits are not rejected; the form is cosmetic only.
func FormatCardNumber(raw string) string {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)

	var b strings.Builder
	for i, r := range []rune(compact) {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return truncateRunes(strings.TrimSpace(b.String()), 19)
}

// FormatExpiry keeps digits only and inserts a slash after the month, giving MM/YY.
func FormatExpiry(raw string) string {
	digits := digitsOnly(raw)
	if len(digits) >= 2 {
		digits = digits[:2] + "/" + digits[2:]
	}
	return truncateRunes(digits, 5)
}

// FormatCVV keeps at most three digits.
func FormatCVV(raw string) string {
	return truncateRunes(digitsOnly(raw), 3)
}

// ApplyCheckoutPatch merges the non-nil patch fields into form, masking the card fields.
// Only the presence of a CVV is recorded.
func ApplyCheckoutPatch(form models.CheckoutForm, patch dto.CheckoutFormPatch) models.CheckoutForm {
	if patch.CardNumber != nil {
		form.CardNumber = FormatCardNumber(*patch.CardNumber)
	}
	if patch.ExpiryDate != nil {
		form.ExpiryDate = FormatExpiry(*patch.ExpiryDate)
	}
	if patch.CVV != nil {
		form.CVVProvided = FormatCVV(*patch.CVV) != ""
	}
	if patch.CardName != nil {
		form.CardName = *patch.CardName
	}
	if patch.Email != nil {
		form.Email = *patch.Email
	}
	if patch.BillingAddress != nil {
		form.BillingAddress = *patch.BillingAddress
	}
	if patch.City != nil {
		form.City = *patch.City
	}
	if patch.State != nil {
		form.State = *patch.State
	}
	if patch.ZipCode != nil {
		form.ZipCode = *patch.ZipCode
	}
	return form
}

// missingCheckoutFields lists the json names of empty required fields, in form order.
func missingCheckoutFields(form models.CheckoutForm) []string {
	fields := []struct {
		name  string
		value string
	}{
		{"card_number", form.CardNumber},
		{"card_name", form.CardName},
		{"expiry_date", form.ExpiryDate},
		{"cvv", presence(form.CVVProvided)},
		{"email", form.Email},
		{"billing_address", form.BillingAddress},
		{"city", form.City},
		{"state", form.State},
		{"zip_code", form.ZipCode},
	}
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func presence(ok bool) string {
	if ok {
		return "set"
	}
	return ""
}

func digitsOnly(raw string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
