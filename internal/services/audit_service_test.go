package services

import (
	"database/sql/driver"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shadikamal997/cheesemap-sub001/internal/database"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockAudit(t *testing.T) (*AuditService, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return NewAuditService(&database.PostgresDB{DB: sqlx.NewDb(mockDB, "sqlmock")}), mock
}

// detailsArg captures the JSON details argument for inspection
type detailsArg struct {
	got map[string]interface{}
}

func (d *detailsArg) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(s), &d.got) == nil
}

func TestAuditService_LogVerificationDecision(t *testing.T) {
	audit, mock := newMockAudit(t)
	adminID := uuid.New()
	req := &models.VerificationRequest{
		ID:          uuid.New(),
		BusinessID:  uuid.New(),
		SIRET:       "73282932000074",
		Status:      models.RequestStatusApproved,
		ReviewNotes: models.NewNullString("documents ok"),
	}

	details := &detailsArg{}
	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(sqlmock.AnyArg(), AuditVerificationApproved, "verification_request", sqlmock.AnyArg(), nil, nil, details).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, audit.LogVerificationDecision(adminID, req, ClientInfo{}))
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, "73282932000074", details.got["siret"])
	assert.Equal(t, "documents ok", details.got["notes"])
	assert.Contains(t, details.got, "device_info")
}

func TestAuditService_LogUserStatusChange(t *testing.T) {
	audit, mock := newMockAudit(t)

	details := &detailsArg{}
	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(sqlmock.AnyArg(), AuditUserStatusChanged, "user", sqlmock.AnyArg(), "192.0.2.10", testUA, details).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := audit.LogUserStatusChange(uuid.New(), uuid.New(), "suspended", "fraud", ClientInfo{IPAddress: "192.0.2.10", UserAgent: testUA})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, "suspended", details.got["status"])
}

func TestAuditService_LogEvent_Error(t *testing.T) {
	audit, mock := newMockAudit(t)

	mock.ExpectExec("INSERT INTO audit_logs").WillReturnError(errStore)

	err := audit.LogLogout(uuid.New(), true, ClientInfo{})
	assert.ErrorIs(t, err, errStore)
}

func TestAuditService_ListForUser(t *testing.T) {
	audit, mock := newMockAudit(t)
	userID := uuid.New()
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "user_id", "action", "entity_type", "entity_id", "ip_address", "user_agent", "details", "created_at"}).
		AddRow(2, userID.String(), AuditLogin, "user", userID.String(), "203.0.113.7", testUA, `{"success":true}`, now).
		AddRow(1, userID.String(), AuditRegister, "user", userID.String(), nil, nil, `{}`, now.Add(-time.Hour))

	mock.ExpectQuery(`FROM audit_logs\s+WHERE user_id = \$1 OR \(entity_type = 'user' AND entity_id = \$1\)`).
		WithArgs(userID, 10).
		WillReturnRows(rows)

	events, err := audit.ListForUser(userID, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, AuditLogin, events[0].Action)
	assert.Equal(t, "203.0.113.7", events[0].IPAddress.String)
	assert.False(t, events[1].IPAddress.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditService_CleanupOldAuditLogs(t *testing.T) {
	audit, mock := newMockAudit(t)

	mock.ExpectExec("DELETE FROM audit_logs WHERE created_at").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 42))

	n, err := audit.CleanupOldAuditLogs(auditRetention)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}
