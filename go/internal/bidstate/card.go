package bidstate

import (
	"regexp"
	"strings"
)

// Card holds the payment fields entered by a winning bidder.
type Card struct {
	Number       string
	HolderName   string
	ExpiryDate   string
	SecurityCode string
}

var (
	cardNumberPattern   = regexp.MustCompile(`^\d{16}$`)
	cardExpiryPattern   = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	securityCodePattern = regexp.MustCompile(`^\d{3}$`)
)

// Validate checks the card fields locally before any network call. The
// backend performs its own verification; this is a fast-fail for obviously
// malformed input.
func (c Card) Validate() error {
	if !cardNumberPattern.MatchString(c.Number) {
		return &ValidationError{Reason: "card number must be 16 digits"}
	}
	if strings.TrimSpace(c.HolderName) == "" {
		return &ValidationError{Reason: "name on card is required"}
	}
	if !cardExpiryPattern.MatchString(c.ExpiryDate) {
		return &ValidationError{Reason: "expiration date must be in MM/YY format"}
	}
	if !securityCodePattern.MatchString(c.SecurityCode) {
		return &ValidationError{Reason: "security code must be 3 digits"}
	}
	return nil
}
