package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// NullString wraps sql.NullString to provide proper JSON marshaling
type NullString struct {
	sql.NullString
}

// NewNullString builds a NullString that is valid only for non-empty input
func NewNullString(s string) NullString {
	return NullString{sql.NullString{String: s, Valid: s != ""}}
}

// MarshalJSON implements json.Marshaler
func (ns NullString) MarshalJSON() ([]byte, error) {
	if ns.Valid {
		return json.Marshal(ns.String)
	}
	return json.Marshal(nil)
}

// UnmarshalJSON implements json.Unmarshaler
func (ns *NullString) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s != nil {
		ns.Valid = true
		ns.String = *s
	} else {
		ns.Valid = false
	}
	return nil
}

// NullTime wraps sql.NullTime to provide proper JSON marshaling
type NullTime struct {
	sql.NullTime
}

// MarshalJSON implements json.Marshaler
func (nt NullTime) MarshalJSON() ([]byte, error) {
	if nt.Valid {
		return json.Marshal(nt.Time)
	}
	return json.Marshal(nil)
}

// UnmarshalJSON implements json.Unmarshaler
func (nt *NullTime) UnmarshalJSON(data []byte) error {
	var t *time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	if t != nil {
		nt.Valid = true
		nt.Time = *t
	} else {
		nt.Valid = false
	}
	return nil
}

// User roles
const (
	RoleConsumer = "consumer"
	RoleProducer = "producer"
	RoleAdmin    = "admin"
)

// User statuses
const (
	UserStatusActive    = "active"
	UserStatusSuspended = "suspended"
)

// User represents a CheeseMap account (consumer, producer or admin)
type User struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	Email        string         `json:"email" db:"email"`
	PasswordHash string         `json:"-" db:"password_hash"`
	FirstName    NullString     `json:"first_name" db:"first_name"`
	LastName     NullString     `json:"last_name" db:"last_name"`
	Phone        NullString     `json:"phone" db:"phone"`
	Roles        pq.StringArray `json:"roles" db:"roles"`
	Status       string         `json:"status" db:"status"`
	LastLoginAt  NullTime       `json:"last_login_at" db:"last_login_at"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// HasRole reports whether the user holds the given role
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RefreshToken represents a stored (hashed) JWT refresh token
type RefreshToken struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	UserID     uuid.UUID  `json:"user_id" db:"user_id"`
	TokenHash  string     `json:"-" db:"token_hash"` // Never expose
	DeviceType NullString `json:"device_type,omitempty" db:"device_type"`
	DeviceOS   NullString `json:"device_os,omitempty" db:"device_os"`
	IPAddress  NullString `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent  NullString `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at" db:"expires_at"`
	LastUsedAt NullTime   `json:"last_used_at,omitempty" db:"last_used_at"`
	Revoked    bool       `json:"revoked" db:"revoked"`
	RevokedAt  NullTime   `json:"revoked_at,omitempty" db:"revoked_at"`
}

// AuditLog represents an audit log entry
type AuditLog struct {
	ID         int64         `json:"id" db:"id"`
	UserID     uuid.NullUUID `json:"user_id,omitempty" db:"user_id"`
	Action     string        `json:"action" db:"action"`
	EntityType NullString    `json:"entity_type,omitempty" db:"entity_type"`
	EntityID   uuid.NullUUID `json:"entity_id,omitempty" db:"entity_id"`
	IPAddress  NullString    `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent  NullString    `json:"user_agent,omitempty" db:"user_agent"`
	Details    NullString    `json:"details,omitempty" db:"details"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
}

// RegisterRequest creates a consumer or producer account
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email,max=254"`
	Password    string `json:"password" binding:"required,min=8,max=72"`
	FirstName   string `json:"first_name" binding:"max=100"`
	LastName    string `json:"last_name" binding:"max=100"`
	Phone       string `json:"phone" binding:"omitempty,frphone"`
	AccountType string `json:"account_type" binding:"omitempty,oneof=consumer producer"`
}

// LoginRequest authenticates with email and password
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest exchanges a refresh token for a new pair
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest revokes one refresh token, or all of the user's tokens
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
	LogoutAll    bool   `json:"logout_all"`
}

// AuthResponse is returned by register, login and refresh
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // seconds
	TokenType    string `json:"token_type"`
	User         *User  `json:"user"`
}

// UpdateProfileRequest edits the caller's profile
type UpdateProfileRequest struct {
	FirstName string `json:"first_name" binding:"max=100"`
	LastName  string `json:"last_name" binding:"max=100"`
	Phone     string `json:"phone" binding:"omitempty,frphone"`
}

// UpdateUserStatusRequest is used by admins to suspend or reactivate accounts
type UpdateUserStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active suspended"`
	Reason string `json:"reason" binding:"max=500"`
}
