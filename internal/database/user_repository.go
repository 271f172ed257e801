package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
)

const userColumns = `id, email, password_hash, first_name, last_name, phone,
		       roles, status, last_login_at, created_at, updated_at`

// UserRepository handles user database operations
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// CreateUser inserts a new account. Emails are stored lowercased.
// Returns models.ErrEmailTaken when the email is already registered.
func (r *UserRepository) CreateUser(email, passwordHash, firstName, lastName, phone string, roles []string) (*models.User, error) {
	if len(roles) == 0 {
		roles = []string{models.RoleConsumer}
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		FirstName:    models.NewNullString(firstName),
		LastName:     models.NewNullString(lastName),
		Phone:        models.NewNullString(phone),
		Roles:        roles,
		Status:       models.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	query := `
		INSERT INTO users (
			id, email, password_hash, first_name, last_name, phone,
			roles, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(
		query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Phone,
		pq.Array([]string(user.Roles)),
		user.Status,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, models.ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email (case-insensitive)
func (r *UserRepository) GetUserByEmail(email string) (*models.User, error) {
	var user models.User

	query := `SELECT ` + userColumns + `
		FROM users
		WHERE email = $1
	`

	err := r.db.Get(&user, query, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(id uuid.UUID) (*models.User, error) {
	var user models.User

	query := `SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`

	err := r.db.Get(&user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return &user, nil
}

// UpdateProfile updates the editable profile fields
func (r *UserRepository) UpdateProfile(id uuid.UUID, firstName, lastName, phone string) error {
	query := `
		UPDATE users
		SET first_name = $1,
		    last_name = $2,
		    phone = $3,
		    updated_at = $4
		WHERE id = $5
	`

	result, err := r.db.Exec(query,
		models.NewNullString(firstName),
		models.NewNullString(lastName),
		models.NewNullString(phone),
		time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return models.ErrNotFound
	}

	return nil
}

// UpdatePassword replaces the stored bcrypt hash
func (r *UserRepository) UpdatePassword(id uuid.UUID, passwordHash string) error {
	_, err := r.db.Exec(`UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`,
		passwordHash, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// UpdateLastLogin stamps last_login_at
func (r *UserRepository) UpdateLastLogin(id uuid.UUID) error {
	_, err := r.db.Exec(`UPDATE users SET last_login_at = $1 WHERE id = $2`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// UpdateUserStatus updates user status
func (r *UserRepository) UpdateUserStatus(id uuid.UUID, status string) error {
	if status != models.UserStatusActive && status != models.UserStatusSuspended {
		return models.NewValidationError("status", "must be active or suspended")
	}

	query := `
		UPDATE users
		SET status = $1,
		    updated_at = $2
		WHERE id = $3
	`

	result, err := r.db.Exec(query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return models.ErrNotFound
	}

	return nil
}

// AddUserRole adds a role to user
func (r *UserRepository) AddUserRole(id uuid.UUID, role string) error {
	switch role {
	case models.RoleConsumer, models.RoleProducer, models.RoleAdmin:
	default:
		return fmt.Errorf("invalid role: %s", role)
	}

	query := `
		UPDATE users
		SET roles = array_append(roles, $1),
		    updated_at = $2
		WHERE id = $3
		  AND NOT ($1 = ANY(roles))
	`

	_, err := r.db.Exec(query, role, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to add user role: %w", err)
	}

	return nil
}

// ListUsers retrieves users with pagination, optionally filtered by role
func (r *UserRepository) ListUsers(role string, limit, offset int) ([]*models.User, error) {
	users := []*models.User{}

	query := `SELECT ` + userColumns + `
		FROM users
		WHERE ($1 = '' OR $1 = ANY(roles))
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	err := r.db.Select(&users, query, role, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

// CountUsers returns how many users ListUsers pages over for role
func (r *UserRepository) CountUsers(role string) (int, error) {
	var count int

	query := `SELECT COUNT(*) FROM users WHERE ($1 = '' OR $1 = ANY(roles))`

	err := r.db.QueryRow(query, role).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}

	return count, nil
}
