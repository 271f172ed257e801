package services

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shadikamal997/cheesemap-sub001/internal/database"
)

// RateLimitService throttles failed logins per email and per client IP
type RateLimitService struct {
	db     database.DB
	config RateLimitConfig
	now    func() time.Time
}

// NewRateLimitService creates a new rate limit service
func NewRateLimitService(db database.DB, config RateLimitConfig) *RateLimitService {
	if config.MaxEmailAttempts <= 0 || config.MaxIPAttempts <= 0 {
		config = DefaultRateLimitConfig()
	}
	return &RateLimitService{
		db:     db,
		config: config,
		now:    time.Now,
	}
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	MaxEmailAttempts int           // Max failed logins per email
	EmailWindow      time.Duration // Time window for the email limit
	MaxIPAttempts    int           // Max failed logins per IP
	IPWindow         time.Duration // Time window for the IP limit
}

// DefaultRateLimitConfig returns the default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxEmailAttempts: 5,                // 5 failures
		EmailWindow:      15 * time.Minute, // per 15 minutes
		MaxIPAttempts:    20,               // 20 failures
		IPWindow:         1 * time.Hour,    // per hour
	}
}

// RateLimitError represents a rate limit exceeded error
type RateLimitError struct {
	Message    string
	RetryAfter time.Time
	Type       string // "email" or "ip"
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// CheckLogin returns a RateLimitError when the email or IP has too many recent failures
func (s *RateLimitService) CheckLogin(email, ip string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	checks := []struct {
		identifier string
		kind       string
		max        int
		window     time.Duration
		message    string
	}{
		{email, "email", s.config.MaxEmailAttempts, s.config.EmailWindow, "Too many failed logins for this account"},
		{ip, "ip", s.config.MaxIPAttempts, s.config.IPWindow, "Too many failed logins from this IP address"},
	}

	for _, c := range checks {
		if c.identifier == "" {
			continue
		}

		count, lastAttempt, err := s.getAttemptCount(c.identifier, c.kind, c.window)
		if err != nil {
			return fmt.Errorf("failed to check %s rate limit: %w", c.kind, err)
		}

		if count >= c.max {
			retryAfter := lastAttempt.Add(c.window)
			return &RateLimitError{
				Message:    fmt.Sprintf("%s. Please try again after %s", c.message, retryAfter.UTC().Format("15:04:05")),
				RetryAfter: retryAfter,
				Type:       c.kind,
			}
		}
	}

	return nil
}

// getAttemptCount gets the number of failures within the time window
func (s *RateLimitService) getAttemptCount(identifier, identifierType string, window time.Duration) (int, time.Time, error) {
	windowStart := s.now().Add(-window)

	query := `
		SELECT COUNT(*), COALESCE(MAX(created_at), NOW())
		FROM login_attempts
		WHERE identifier = $1
		  AND identifier_type = $2
		  AND created_at > $3
	`

	var count int
	var lastAttempt time.Time

	err := s.db.QueryRow(query, identifier, identifierType, windowStart).Scan(&count, &lastAttempt)
	if err != nil && err != sql.ErrNoRows {
		return 0, time.Time{}, err
	}

	return count, lastAttempt, nil
}

// RecordFailedLogin records a failure against the email and the IP
func (s *RateLimitService) RecordFailedLogin(email, ip string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	if email != "" {
		if err := s.recordAttempt(email, "email"); err != nil {
			return fmt.Errorf("failed to record email attempt: %w", err)
		}
	}

	if ip != "" {
		if err := s.recordAttempt(ip, "ip"); err != nil {
			return fmt.Errorf("failed to record IP attempt: %w", err)
		}
	}

	return nil
}

// recordAttempt inserts a rate limit record
func (s *RateLimitService) recordAttempt(identifier, identifierType string) error {
	query := `
		INSERT INTO login_attempts (identifier, identifier_type, created_at)
		VALUES ($1, $2, NOW())
	`

	_, err := s.db.Exec(query, identifier, identifierType)
	return err
}

// ResetEmail forgets an account's failures after a successful login
func (s *RateLimitService) ResetEmail(email string) error {
	query := `
		DELETE FROM login_attempts
		WHERE identifier = $1 AND identifier_type = 'email'
	`

	if _, err := s.db.Exec(query, strings.ToLower(strings.TrimSpace(email))); err != nil {
		return fmt.Errorf("failed to reset login attempts: %w", err)
	}
	return nil
}

// CleanupExpiredRateLimits removes records older than the longest window
func (s *RateLimitService) CleanupExpiredRateLimits() (int64, error) {
	maxWindow := s.config.IPWindow
	if s.config.EmailWindow > maxWindow {
		maxWindow = s.config.EmailWindow
	}

	cutoffTime := s.now().Add(-maxWindow)

	query := `
		DELETE FROM login_attempts
		WHERE created_at < $1
	`

	result, err := s.db.Exec(query, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup rate limits: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
