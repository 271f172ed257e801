package services

import "errors"

var (
	// ErrPaymentProvider wraps failures of the payment provider
	ErrPaymentProvider = errors.New("payment provider error")
	// ErrUnknownJob is returned when a background job name is not registered
	ErrUnknownJob = errors.New("unknown job")
)
