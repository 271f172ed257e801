package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shadikamal997/cheesemap-sub001/internal/database"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/shadikamal997/cheesemap-sub001/internal/utils"
)

// Audit actions
const (
	AuditRegister             = "register"
	AuditLogin                = "login"
	AuditLoginFailed          = "login_failed"
	AuditLogout               = "logout"
	AuditTokenRefresh         = "token_refresh_success"
	AuditTokenRefreshFailed   = "token_refresh_failed"
	AuditVerificationApproved = "verification_approved"
	AuditVerificationRejected = "verification_rejected"
	AuditUserStatusChanged    = "user_status_changed"
)

// ClientInfo identifies where a request came from
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// AuditService handles audit logging for security and admin events
type AuditService struct {
	db database.DB
}

// NewAuditService creates a new audit service
func NewAuditService(db database.DB) *AuditService {
	return &AuditService{
		db: db,
	}
}

// AuditEvent represents an event to be logged
type AuditEvent struct {
	UserID     *uuid.UUID // nil for pre-authentication events
	Action     string
	EntityType string // e.g. "user", "token", "verification_request"
	EntityID   *uuid.UUID
	Client     ClientInfo
	Details    map[string]interface{}
}

// LogRegister logs a new account
func (s *AuditService) LogRegister(userID uuid.UUID, email, accountType string, client ClientInfo) error {
	return s.logEvent(AuditEvent{
		UserID:     &userID,
		Action:     AuditRegister,
		EntityType: "user",
		EntityID:   &userID,
		Client:     client,
		Details: map[string]interface{}{
			"email":        email,
			"account_type": accountType,
		},
	})
}

// LogLogin logs a login attempt. userID is nil when the email is unknown.
func (s *AuditService) LogLogin(userID *uuid.UUID, email string, success bool, reason string, client ClientInfo) error {
	details := map[string]interface{}{
		"email":   email,
		"success": success,
	}
	if reason != "" {
		details["reason"] = reason
	}

	action := AuditLoginFailed
	if success {
		action = AuditLogin
	}

	return s.logEvent(AuditEvent{
		UserID:     userID,
		Action:     action,
		EntityType: "user",
		EntityID:   userID,
		Client:     client,
		Details:    details,
	})
}

// LogLogout logs a logout event
func (s *AuditService) LogLogout(userID uuid.UUID, logoutAll bool, client ClientInfo) error {
	return s.logEvent(AuditEvent{
		UserID:     &userID,
		Action:     AuditLogout,
		EntityType: "user",
		EntityID:   &userID,
		Client:     client,
		Details:    map[string]interface{}{"logout_all": logoutAll},
	})
}

// LogTokenRefresh logs a refresh token usage event
func (s *AuditService) LogTokenRefresh(userID uuid.UUID, success bool, client ClientInfo) error {
	action := AuditTokenRefreshFailed
	if success {
		action = AuditTokenRefresh
	}

	return s.logEvent(AuditEvent{
		UserID:     &userID,
		Action:     action,
		EntityType: "token",
		Client:     client,
		Details:    map[string]interface{}{"success": success},
	})
}

// LogVerificationDecision logs an admin approving or rejecting a business
func (s *AuditService) LogVerificationDecision(adminID uuid.UUID, req *models.VerificationRequest, client ClientInfo) error {
	action := AuditVerificationRejected
	if req.Status == models.RequestStatusApproved {
		action = AuditVerificationApproved
	}

	return s.logEvent(AuditEvent{
		UserID:     &adminID,
		Action:     action,
		EntityType: "verification_request",
		EntityID:   &req.ID,
		Client:     client,
		Details: map[string]interface{}{
			"business_id": req.BusinessID,
			"siret":       req.SIRET,
			"notes":       req.ReviewNotes.String,
		},
	})
}

// LogUserStatusChange logs an admin suspending or reactivating an account
func (s *AuditService) LogUserStatusChange(adminID, userID uuid.UUID, status, reason string, client ClientInfo) error {
	return s.logEvent(AuditEvent{
		UserID:     &adminID,
		Action:     AuditUserStatusChanged,
		EntityType: "user",
		EntityID:   &userID,
		Client:     client,
		Details: map[string]interface{}{
			"status": status,
			"reason": reason,
		},
	})
}

// logEvent writes to the audit_logs table
func (s *AuditService) logEvent(event AuditEvent) error {
	if event.Details == nil {
		event.Details = map[string]interface{}{}
	}
	event.Details["device_info"] = utils.ParseUserAgent(event.Client.UserAgent)

	details, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}

	query := `
		INSERT INTO audit_logs (user_id, action, entity_type, entity_id, ip_address, user_agent, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`

	_, err = s.db.Exec(
		query,
		nullUUID(event.UserID),
		event.Action,
		models.NewNullString(event.EntityType),
		nullUUID(event.EntityID),
		models.NewNullString(event.Client.IPAddress),
		models.NewNullString(event.Client.UserAgent),
		string(details),
	)
	if err != nil {
		return fmt.Errorf("failed to log audit event: %w", err)
	}

	return nil
}

// ListForUser returns the newest events a user performed or that targeted their
// account, such as an admin suspending it
func (s *AuditService) ListForUser(userID uuid.UUID, limit int) ([]*models.AuditLog, error) {
	query := `
		SELECT id, user_id, action, entity_type, entity_id, ip_address, user_agent, details::text AS details, created_at
		FROM audit_logs
		WHERE user_id = $1 OR (entity_type = 'user' AND entity_id = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	events := []*models.AuditLog{}
	if err := s.db.Select(&events, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}

	return events, nil
}

// CleanupOldAuditLogs removes audit logs older than the specified duration
func (s *AuditService) CleanupOldAuditLogs(olderThan time.Duration) (int64, error) {
	cutoffTime := time.Now().Add(-olderThan)

	result, err := s.db.Exec(`DELETE FROM audit_logs WHERE created_at < $1`, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old audit logs: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
