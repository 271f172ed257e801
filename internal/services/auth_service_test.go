package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shadikamal997/cheesemap-sub001/internal/database"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/shadikamal997/cheesemap-sub001/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

func newTestAuthService(t *testing.T, audit *AuditService) (*AuthService, *fakeUserStore, *fakeTokenStore) {
	t.Helper()
	logger, _ := newTestLogger()
	users := newFakeUserStore()
	tokens := newFakeTokenStore()
	jwtSvc := jwt.NewService("test-access-secret-0123456789abcdef", "test-refresh-secret-0123456789abcdef", 15*time.Minute, 24*time.Hour)
	return NewAuthService(users, tokens, jwtSvc, audit, bcrypt.MinCost, logger), users, tokens
}

func registerRequest(email string) *models.RegisterRequest {
	return &models.RegisterRequest{
		Email:     email,
		Password:  "camembert-42",
		FirstName: " Marie ",
		LastName:  "Dupont",
		Phone:     "06 12 34 56 78",
	}
}

func TestAuthService_Register(t *testing.T) {
	svc, _, tokens := newTestAuthService(t, nil)
	client := ClientInfo{IPAddress: "203.0.113.7", UserAgent: testUA}

	res, err := svc.Register(registerRequest("marie@example.fr"), client)
	require.NoError(t, err)

	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, int64(900), res.ExpiresIn)
	assert.Equal(t, []string{models.RoleConsumer}, []string(res.User.Roles))
	assert.Equal(t, "Marie", res.User.FirstName.String)
	assert.Equal(t, "+33612345678", res.User.Phone.String)
	assert.NotEqual(t, "camembert-42", res.User.PasswordHash)

	require.Len(t, tokens.devices, 1)
	assert.Equal(t, "mobile", tokens.devices[0].DeviceType)
	assert.Equal(t, "203.0.113.7", tokens.devices[0].IPAddress)
}

func TestAuthService_Register_Producer(t *testing.T) {
	svc, _, _ := newTestAuthService(t, nil)
	req := registerRequest("ferme@example.fr")
	req.AccountType = models.RoleProducer

	res, err := svc.Register(req, ClientInfo{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{models.RoleConsumer, models.RoleProducer}, []string(res.User.Roles))
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc, _, _ := newTestAuthService(t, nil)

	_, err := svc.Register(registerRequest("marie@example.fr"), ClientInfo{})
	require.NoError(t, err)

	_, err = svc.Register(registerRequest("marie@example.fr"), ClientInfo{})
	assert.ErrorIs(t, err, models.ErrEmailTaken)
}

func TestAuthService_Register_InvalidPhone(t *testing.T) {
	svc, _, _ := newTestAuthService(t, nil)
	req := registerRequest("marie@example.fr")
	req.Phone = "+44 20 7946 0958"

	_, err := svc.Register(req, ClientInfo{})
	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "phone", vErr.Field)
}

func TestAuthService_Login(t *testing.T) {
	svc, users, _ := newTestAuthService(t, nil)
	_, err := svc.Register(registerRequest("marie@example.fr"), ClientInfo{})
	require.NoError(t, err)

	res, err := svc.Login(&models.LoginRequest{Email: "  MARIE@example.fr ", Password: "camembert-42"}, ClientInfo{})
	require.NoError(t, err)
	assert.Equal(t, "marie@example.fr", res.User.Email)

	_, err = svc.Login(&models.LoginRequest{Email: "marie@example.fr", Password: "brie"}, ClientInfo{})
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	_, err = svc.Login(&models.LoginRequest{Email: "nobody@example.fr", Password: "camembert-42"}, ClientInfo{})
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	users.users[res.User.ID].Status = models.UserStatusSuspended
	_, err = svc.Login(&models.LoginRequest{Email: "marie@example.fr", Password: "camembert-42"}, ClientInfo{})
	assert.ErrorIs(t, err, models.ErrAccountSuspended)
}

func TestAuthService_Login_AuditsFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	audit := NewAuditService(&database.PostgresDB{DB: sqlx.NewDb(mockDB, "sqlmock")})
	svc, _, _ := newTestAuthService(t, audit)

	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(nil, AuditLoginFailed, "user", nil, "198.51.100.1", testUA, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	_, err = svc.Login(&models.LoginRequest{Email: "ghost@example.fr", Password: "x"}, ClientInfo{IPAddress: "198.51.100.1", UserAgent: testUA})
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthService_Refresh_Rotates(t *testing.T) {
	svc, _, tokens := newTestAuthService(t, nil)
	first, err := svc.Register(registerRequest("marie@example.fr"), ClientInfo{})
	require.NoError(t, err)

	second, err := svc.Refresh(first.RefreshToken, ClientInfo{})
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.True(t, tokens.tokens[first.RefreshToken].Revoked)

	_, err = svc.Refresh(first.RefreshToken, ClientInfo{})
	assert.ErrorIs(t, err, models.ErrInvalidToken, "a rotated token cannot be reused")
	assert.Equal(t, []uuid.UUID{first.User.ID}, tokens.revokedAll)
	assert.True(t, tokens.tokens[second.RefreshToken].Revoked, "reuse ends every session")

	_, err = svc.Refresh(first.AccessToken, ClientInfo{})
	assert.ErrorIs(t, err, models.ErrInvalidToken, "access tokens are not refresh tokens")

	_, err = svc.Refresh("garbage", ClientInfo{})
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}

func TestAuthService_Logout(t *testing.T) {
	svc, _, tokens := newTestAuthService(t, nil)
	res, err := svc.Register(registerRequest("marie@example.fr"), ClientInfo{})
	require.NoError(t, err)
	actor := Actor{UserID: res.User.ID}

	err = svc.Logout(Actor{UserID: uuid.New()}, res.RefreshToken, false, ClientInfo{})
	assert.ErrorIs(t, err, models.ErrForbidden)

	require.NoError(t, svc.Logout(actor, res.RefreshToken, false, ClientInfo{}))
	assert.True(t, tokens.tokens[res.RefreshToken].Revoked)

	// already revoked is not an error
	assert.NoError(t, svc.Logout(actor, res.RefreshToken, false, ClientInfo{}))

	require.NoError(t, svc.Logout(actor, "", true, ClientInfo{}))
	assert.Equal(t, []uuid.UUID{actor.UserID}, tokens.revokedAll)

	var vErr *models.ValidationError
	assert.ErrorAs(t, svc.Logout(actor, "", false, ClientInfo{}), &vErr)
}

func TestAuthService_Sessions(t *testing.T) {
	svc, _, _ := newTestAuthService(t, nil)
	first, err := svc.Register(registerRequest("marie@example.fr"), ClientInfo{})
	require.NoError(t, err)
	actor := Actor{UserID: first.User.ID}

	_, err = svc.Login(&models.LoginRequest{Email: "marie@example.fr", Password: "camembert-42"}, ClientInfo{})
	require.NoError(t, err)

	sessions, err := svc.Sessions(actor)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	require.NoError(t, svc.RevokeSession(actor, sessions[0].ID))
	remaining, err := svc.Sessions(actor)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)

	assert.ErrorIs(t, svc.RevokeSession(Actor{UserID: uuid.New()}, remaining[0].ID), models.ErrNotFound)
	assert.ErrorIs(t, svc.RevokeSession(actor, sessions[0].ID), models.ErrNotFound)
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	svc, users, _ := newTestAuthService(t, nil)

	created, err := svc.EnsureAdmin("admin@cheesemap.fr", "s3cret-pass", "Ada", "Admin")
	require.NoError(t, err)
	assert.True(t, created.HasRole(models.RoleAdmin))

	res, err := svc.Register(registerRequest("marie@example.fr"), ClientInfo{})
	require.NoError(t, err)

	promoted, err := svc.EnsureAdmin("marie@example.fr", "new-password-1", "", "")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, promoted.ID)
	assert.True(t, users.users[res.User.ID].HasRole(models.RoleAdmin))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users.users[res.User.ID].PasswordHash), []byte("new-password-1")))

	_, err = svc.EnsureAdmin("x@cheesemap.fr", "short", "", "")
	var vErr *models.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestAuthService_UpdateProfile(t *testing.T) {
	svc, _, _ := newTestAuthService(t, nil)
	res, err := svc.Register(registerRequest("marie@example.fr"), ClientInfo{})
	require.NoError(t, err)

	user, err := svc.UpdateProfile(Actor{UserID: res.User.ID}, &models.UpdateProfileRequest{FirstName: "Marie-Claire", Phone: "+33 7 98 76 54 32"})
	require.NoError(t, err)
	assert.Equal(t, "Marie-Claire", user.FirstName.String)
	assert.False(t, user.LastName.Valid)
	assert.Equal(t, "+33798765432", user.Phone.String)
}
