package services

import (
	"github.com/google/uuid"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/sirupsen/logrus"
)

// AdminService holds platform administration operations
type AdminService struct {
	users  UserStore
	tokens TokenStore
	stats  StatsStore
	audit  *AuditService // nil when audit logging is disabled
	logger *logrus.Logger
}

// NewAdminService creates a new AdminService
func NewAdminService(users UserStore, tokens TokenStore, stats StatsStore, audit *AuditService, logger *logrus.Logger) *AdminService {
	return &AdminService{
		users:  users,
		tokens: tokens,
		stats:  stats,
		audit:  audit,
		logger: logger,
	}
}

// ListUsers pages through accounts, optionally by role, with the total matching count
func (s *AdminService) ListUsers(role string, limit, offset int) ([]*models.User, int, error) {
	switch role {
	case "", models.RoleConsumer, models.RoleProducer, models.RoleAdmin:
	default:
		return nil, 0, models.NewValidationError("role", "must be consumer, producer or admin")
	}
	limit, offset = clampPage(limit, offset)

	users, err := s.users.ListUsers(role, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.users.CountUsers(role)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// UserAudit returns the newest audit events by or about a user
func (s *AdminService) UserAudit(userID uuid.UUID, limit int) ([]*models.AuditLog, error) {
	if _, err := requireFound(s.users.GetUserByID(userID)); err != nil {
		return nil, err
	}
	if s.audit == nil {
		return []*models.AuditLog{}, nil
	}
	limit, _ = clampPage(limit, 0)
	return s.audit.ListForUser(userID, limit)
}

// SetUserStatus suspends or reactivates an account. Suspension revokes every
// refresh token so the user is signed out once the access token expires.
func (s *AdminService) SetUserStatus(actor Actor, userID uuid.UUID, req *models.UpdateUserStatusRequest, client ClientInfo) (*models.User, error) {
	if userID == actor.UserID {
		return nil, models.NewValidationError("id", "admins cannot change their own status")
	}

	if err := s.users.UpdateUserStatus(userID, req.Status); err != nil {
		return nil, err
	}

	if req.Status == models.UserStatusSuspended {
		if err := s.tokens.RevokeAllUserTokens(userID); err != nil {
			return nil, err
		}
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"admin_id": actor.UserID,
		"status":   req.Status,
	}).Info("User status changed")

	if s.audit != nil {
		if err := s.audit.LogUserStatusChange(actor.UserID, userID, req.Status, req.Reason, client); err != nil {
			s.logger.WithError(err).Warn("Failed to write audit log")
		}
	}

	return requireFound(s.users.GetUserByID(userID))
}

// Stats returns the dashboard counters
func (s *AdminService) Stats() (*models.DashboardStats, error) {
	return s.stats.Dashboard()
}
