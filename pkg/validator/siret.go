package validator

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidSIRET indicates a malformed or non-checksumming SIRET
	ErrInvalidSIRET = errors.New("SIRET must be 14 digits with a valid checksum")
)

// laPosteSIREN establishments use a digit-sum rule instead of Luhn
const laPosteSIREN = "356000000"

// NormalizeSIRET strips spaces and validates a French establishment number
func NormalizeSIRET(siret string) (string, error) {
	s := strings.ReplaceAll(strings.TrimSpace(siret), " ", "")
	if len(s) != 14 {
		return "", ErrInvalidSIRET
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", ErrInvalidSIRET
		}
	}

	if strings.HasPrefix(s, laPosteSIREN) {
		sum := 0
		for _, r := range s {
			sum += int(r - '0')
		}
		if sum%5 != 0 {
			return "", ErrInvalidSIRET
		}
		return s, nil
	}

	if !luhn(s) {
		return "", ErrInvalidSIRET
	}
	return s, nil
}

// IsValidSIRET reports whether siret is well formed
func IsValidSIRET(siret string) bool {
	_, err := NormalizeSIRET(siret)
	return err == nil
}

func luhn(digits string) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
