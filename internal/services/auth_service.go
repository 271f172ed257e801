package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shadikamal997/cheesemap-sub001/internal/database"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/shadikamal997/cheesemap-sub001/internal/utils"
	"github.com/shadikamal997/cheesemap-sub001/pkg/jwt"
	"github.com/shadikamal997/cheesemap-sub001/pkg/validator"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration, login and token lifecycle
type AuthService struct {
	users      UserStore
	tokens     TokenStore
	jwtService *jwt.Service
	audit      *AuditService     // nil when audit logging is disabled
	limiter    *RateLimitService // nil disables login throttling
	phones     *validator.PhoneValidator
	bcryptCost int
	logger     *logrus.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	users UserStore,
	tokens TokenStore,
	jwtService *jwt.Service,
	audit *AuditService,
	bcryptCost int,
	logger *logrus.Logger,
) *AuthService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:      users,
		tokens:     tokens,
		jwtService: jwtService,
		audit:      audit,
		phones:     validator.NewPhoneValidator(),
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// SetRateLimiter enables failed-login throttling
func (s *AuthService) SetRateLimiter(limiter *RateLimitService) {
	s.limiter = limiter
}

// Register creates a consumer account, with the producer role when requested
func (s *AuthService) Register(req *models.RegisterRequest, client ClientInfo) (*models.AuthResponse, error) {
	phone := ""
	if req.Phone != "" {
		normalized, err := s.phones.Validate(req.Phone)
		if err != nil {
			return nil, models.NewValidationError("phone", err.Error())
		}
		phone = normalized
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	roles := []string{models.RoleConsumer}
	accountType := models.RoleConsumer
	if req.AccountType == models.RoleProducer {
		roles = append(roles, models.RoleProducer)
		accountType = models.RoleProducer
	}

	user, err := s.users.CreateUser(req.Email, string(hash), strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName), phone, roles)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":      user.ID,
		"account_type": accountType,
	}).Info("User registered")
	s.recordAudit(func(a *AuditService) error { return a.LogRegister(user.ID, user.Email, accountType, client) })

	return s.issueTokens(user, client)
}

// Login checks credentials and issues a new token pair
func (s *AuthService) Login(req *models.LoginRequest, client ClientInfo) (*models.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if s.limiter != nil {
		if err := s.limiter.CheckLogin(email, client.IPAddress); err != nil {
			var rlErr *RateLimitError
			if errors.As(err, &rlErr) {
				s.logger.WithFields(logrus.Fields{
					"email": email,
					"ip":    client.IPAddress,
					"type":  rlErr.Type,
				}).Warn("Login throttled")
			}
			return nil, err
		}
	}

	user, err := s.users.GetUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.recordFailure(email, client)
		s.recordAudit(func(a *AuditService) error { return a.LogLogin(nil, email, false, "unknown_email", client) })
		return nil, models.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.recordFailure(email, client)
		s.recordAudit(func(a *AuditService) error { return a.LogLogin(&user.ID, email, false, "bad_password", client) })
		return nil, models.ErrInvalidCredentials
	}

	if user.Status == models.UserStatusSuspended {
		s.recordAudit(func(a *AuditService) error { return a.LogLogin(&user.ID, email, false, "suspended", client) })
		return nil, models.ErrAccountSuspended
	}

	if err := s.users.UpdateLastLogin(user.ID); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to update last login")
	}
	if s.limiter != nil {
		if err := s.limiter.ResetEmail(email); err != nil {
			s.logger.WithError(err).Warn("Failed to reset login attempts")
		}
	}
	s.recordAudit(func(a *AuditService) error { return a.LogLogin(&user.ID, email, true, "", client) })

	return s.issueTokens(user, client)
}

// recordFailure counts a failed login towards throttling
func (s *AuthService) recordFailure(email string, client ClientInfo) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.RecordFailedLogin(email, client.IPAddress); err != nil {
		s.logger.WithError(err).Warn("Failed to record login attempt")
	}
}

// Refresh rotates a refresh token: the presented token is revoked and a new pair issued
func (s *AuthService) Refresh(refreshToken string, client ClientInfo) (*models.AuthResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, models.ErrInvalidToken
	}

	stored, err := s.tokens.GetRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if stored != nil && stored.Revoked && stored.UserID == claims.UserID {
		// a rotated token came back: assume it leaked and end every session
		s.logger.WithField("user_id", stored.UserID).Warn("Refresh token reuse detected, revoking all sessions")
		if err := s.tokens.RevokeAllUserTokens(stored.UserID); err != nil {
			return nil, err
		}
		s.recordAudit(func(a *AuditService) error { return a.LogTokenRefresh(claims.UserID, false, client) })
		return nil, models.ErrInvalidToken
	}
	if stored == nil || stored.Revoked || time.Now().After(stored.ExpiresAt) || stored.UserID != claims.UserID {
		s.recordAudit(func(a *AuditService) error { return a.LogTokenRefresh(claims.UserID, false, client) })
		return nil, models.ErrInvalidToken
	}

	user, err := s.users.GetUserByID(claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.ErrInvalidToken
	}
	if user.Status == models.UserStatusSuspended {
		return nil, models.ErrAccountSuspended
	}

	if err := s.tokens.RevokeToken(refreshToken); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// lost a race with a concurrent refresh of the same token
			return nil, models.ErrInvalidToken
		}
		return nil, err
	}
	s.recordAudit(func(a *AuditService) error { return a.LogTokenRefresh(user.ID, true, client) })

	return s.issueTokens(user, client)
}

// Logout revokes one of the actor's refresh tokens, or all of them
func (s *AuthService) Logout(actor Actor, refreshToken string, all bool, client ClientInfo) error {
	if all {
		if err := s.tokens.RevokeAllUserTokens(actor.UserID); err != nil {
			return err
		}
	} else {
		if refreshToken == "" {
			return models.NewValidationError("refresh_token", "required unless logout_all is set")
		}
		stored, err := s.tokens.GetRefreshToken(refreshToken)
		if err != nil {
			return err
		}
		if stored != nil {
			if stored.UserID != actor.UserID {
				return models.ErrForbidden
			}
			if err := s.tokens.RevokeToken(refreshToken); err != nil && !errors.Is(err, models.ErrNotFound) {
				return err
			}
		}
	}

	s.recordAudit(func(a *AuditService) error { return a.LogLogout(actor.UserID, all, client) })
	return nil
}

// Sessions lists the actor's active refresh tokens
func (s *AuthService) Sessions(actor Actor) ([]*models.RefreshToken, error) {
	return s.tokens.ListActiveForUser(actor.UserID)
}

// RevokeSession ends one of the actor's sessions
func (s *AuthService) RevokeSession(actor Actor, sessionID uuid.UUID) error {
	if err := s.tokens.RevokeSession(actor.UserID, sessionID); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"user_id":    actor.UserID,
		"session_id": sessionID,
	}).Info("Session revoked")
	return nil
}

// EnsureAdmin creates an admin account, or grants the admin role and resets
// the password of an existing account with that email
func (s *AuthService) EnsureAdmin(email, password, firstName, lastName string) (*models.User, error) {
	if len(password) < 8 {
		return nil, models.NewValidationError("password", "must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	existing, err := s.users.GetUserByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return s.users.CreateUser(email, string(hash), firstName, lastName, "", []string{models.RoleConsumer, models.RoleAdmin})
	}

	if err := s.users.AddUserRole(existing.ID, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.users.UpdatePassword(existing.ID, string(hash)); err != nil {
		return nil, err
	}
	return s.users.GetUserByID(existing.ID)
}

// issueTokens creates an access/refresh pair and stores the refresh token hash
func (s *AuthService) issueTokens(user *models.User, client ClientInfo) (*models.AuthResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, user.Roles)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, expiresAt, err := s.jwtService.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	device := utils.ParseUserAgent(client.UserAgent)
	if err := s.tokens.StoreRefreshToken(user.ID, refreshToken, database.DeviceInfo{
		DeviceType: device.DeviceType,
		DeviceOS:   device.OS,
		IPAddress:  client.IPAddress,
		UserAgent:  client.UserAgent,
	}, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &models.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtService.AccessTokenExpiry().Seconds()),
		TokenType:    "Bearer",
		User:         user,
	}, nil
}

// recordAudit writes an audit entry when auditing is enabled. Failures are
// logged and never fail the request.
func (s *AuthService) recordAudit(write func(*AuditService) error) {
	if s.audit == nil {
		return
	}
	if err := write(s.audit); err != nil {
		s.logger.WithError(err).Warn("Failed to write audit log")
	}
}

// ============================================================================
// PROFILE
// ============================================================================

// Me returns the actor's account
func (s *AuthService) Me(actor Actor) (*models.User, error) {
	return requireFound(s.users.GetUserByID(actor.UserID))
}

// UpdateProfile edits the actor's name and phone
func (s *AuthService) UpdateProfile(actor Actor, req *models.UpdateProfileRequest) (*models.User, error) {
	phone := ""
	if req.Phone != "" {
		normalized, err := s.phones.Validate(req.Phone)
		if err != nil {
			return nil, models.NewValidationError("phone", err.Error())
		}
		phone = normalized
	}

	if err := s.users.UpdateProfile(actor.UserID, strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName), phone); err != nil {
		return nil, err
	}

	return s.Me(actor)
}
