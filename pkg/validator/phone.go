package validator

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyPhone indicates phone number is empty
	ErrEmptyPhone = errors.New("phone number cannot be empty")

	// ErrInvalidFormat indicates phone number contains invalid characters
	ErrInvalidFormat = errors.New("phone number can only contain digits and separators")

	// ErrInvalidLength indicates the national number is not 10 digits
	ErrInvalidLength = errors.New("phone number must have 10 digits (0X XX XX XX XX)")

	// ErrInvalidPrefix indicates the number does not start with 01-09
	ErrInvalidPrefix = errors.New("phone number must start with 01 to 09")
)

// PhoneValidator validates French phone numbers
type PhoneValidator struct{}

// NewPhoneValidator creates a new phone validator instance
func NewPhoneValidator() *PhoneValidator {
	return &PhoneValidator{}
}

// Validate accepts 0612345678, 06 12 34 56 78, 06.12.34.56.78, +33 6 12 34 56 78 or 0033612345678
// and returns the number in E.164 form (+33612345678).
func (v *PhoneValidator) Validate(phone string) (string, error) {
	if strings.TrimSpace(phone) == "" {
		return "", ErrEmptyPhone
	}

	national, err := v.national(phone)
	if err != nil {
		return "", err
	}

	return "+33" + national[1:], nil
}

// national returns the 10-digit national form (0XXXXXXXXX)
func (v *PhoneValidator) national(phone string) (string, error) {
	sanitized := v.Sanitize(phone)

	plus := strings.HasPrefix(sanitized, "+")
	digits := strings.TrimPrefix(sanitized, "+")
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", ErrInvalidFormat
		}
	}

	switch {
	case plus && strings.HasPrefix(digits, "33"):
		digits = "0" + strings.TrimPrefix(digits[2:], "0")
	case plus:
		return "", ErrInvalidPrefix
	case strings.HasPrefix(digits, "0033"):
		digits = "0" + strings.TrimPrefix(digits[4:], "0")
	}

	if len(digits) != 10 {
		return "", ErrInvalidLength
	}
	if digits[0] != '0' || digits[1] == '0' {
		return "", ErrInvalidPrefix
	}

	return digits, nil
}

// Sanitize removes spaces, dashes, dots and parentheses, keeping a leading +
func (v *PhoneValidator) Sanitize(phone string) string {
	replacer := strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "", " ", "")
	return replacer.Replace(strings.TrimSpace(phone))
}

// IsValid is a convenience method that returns true if phone is valid
func (v *PhoneValidator) IsValid(phone string) bool {
	_, err := v.Validate(phone)
	return err == nil
}
