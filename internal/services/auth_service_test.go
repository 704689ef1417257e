package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"ginvault/internal/models"
	apperrors "ginvault/pkg/errors"
	"ginvault/pkg/jwt"
	"ginvault/pkg/tokenstore"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) (*AuthService, sqlmock.Sqlmock, *tokenstore.MemoryStore) {
	db, mock := newMockDB(t)
	store := tokenstore.NewMemoryStore()
	manager := jwt.NewJWTManager("test-secret", "GinVault", 15*time.Minute)
	return NewAuthService(db, manager, store, time.Hour), mock, store
}

func userRows(id, tenantID uint, email, hash, role string, active bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "tenant_id", "email", "password_hash", "name", "role", "is_active", "is_platform_admin"}).
		AddRow(id, tenantID, email, hash, "Collector", role, active, false)
}

func TestAuthService_RefreshRotatesAndRejectsReuse(t *testing.T) {
	svc, mock, store := newAuthService(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "old-token", tokenstore.Session{UserID: 7, TenantID: 3}, time.Hour))

	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(userRows(7, 3, "a@b.c", "x", models.RoleOwner, true))
	mock.ExpectQuery(`SELECT \* FROM "tenants"`).WillReturnRows(tenantRows(3, "juniper", models.TierBasic, models.TenantStatusActive))

	result, err := svc.Refresh(ctx, "old-token", ClientMeta{})
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEqual(t, "old-token", result.RefreshToken)
	assert.Equal(t, "Bearer", result.TokenType)
	assert.Equal(t, int64(900), result.ExpiresIn)
	assert.Equal(t, "juniper", result.Tenant.Subdomain)
	assert.Equal(t, 1, store.Len())

	claims, err := jwt.NewJWTManager("test-secret", "GinVault", time.Minute).VerifyToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, uint(3), claims.TenantID)

	_, err = svc.Refresh(ctx, "old-token", ClientMeta{})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthService_RefreshRejectsInactiveUser(t *testing.T) {
	svc, mock, store := newAuthService(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "tok", tokenstore.Session{UserID: 7, TenantID: 3}, time.Hour))

	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(userRows(7, 3, "a@b.c", "x", models.RoleMember, false))
	mock.ExpectQuery(`SELECT \* FROM "tenants"`).WillReturnRows(tenantRows(3, "juniper", models.TierFree, models.TenantStatusActive))

	_, err := svc.Refresh(ctx, "tok", ClientMeta{})
	assert.True(t, apperrors.Is(err, apperrors.ErrUserInactive))
	assert.Equal(t, 0, store.Len())
}

func TestAuthService_LoginWrongPassword(t *testing.T) {
	svc, mock, store := newAuthService(t)
	u := &models.User{}
	require.NoError(t, u.SetPassword("correct-horse"))

	mock.ExpectQuery(`SELECT \* FROM "tenants"`).WillReturnRows(tenantRows(3, "juniper", models.TierFree, models.TenantStatusActive))
	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(userRows(7, 3, "a@b.c", u.PasswordHash, models.RoleOwner, true))

	_, err := svc.Login(context.Background(), LoginInput{Subdomain: "juniper", Email: "A@b.c", Password: "battery-staple"})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidCredentials))
	assert.Equal(t, 0, store.Len())
}

func TestAuthService_LoginSuccess(t *testing.T) {
	svc, mock, store := newAuthService(t)
	u := &models.User{}
	require.NoError(t, u.SetPassword("correct-horse"))

	mock.ExpectQuery(`SELECT \* FROM "tenants"`).WillReturnRows(tenantRows(3, "juniper", models.TierFree, models.TenantStatusActive))
	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(userRows(7, 3, "a@b.c", u.PasswordHash, models.RoleOwner, true))
	mock.ExpectExec(`UPDATE "users" SET "last_login_at"`).WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := svc.Login(context.Background(), LoginInput{Subdomain: "Juniper", Email: "a@b.c", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.RefreshToken)
	assert.NotNil(t, result.User.LastLoginAt)
	assert.Equal(t, 1, store.Len())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthService_LoginSuspendedTenant(t *testing.T) {
	svc, mock, _ := newAuthService(t)
	mock.ExpectQuery(`SELECT \* FROM "tenants"`).WillReturnRows(tenantRows(3, "juniper", models.TierFree, models.TenantStatusSuspended))

	_, err := svc.Login(context.Background(), LoginInput{Subdomain: "juniper", Email: "a@b.c", Password: "whatever1"})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, appErr.Status)
}

func TestAuthService_RegisterDuplicateSubdomain(t *testing.T) {
	svc, mock, _ := newAuthService(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "tenants"`).WillReturnRows(countRows(1))
	mock.ExpectRollback()

	_, err := svc.Register(context.Background(), RegisterInput{
		TenantName: "Juniper Club",
		Subdomain:  "juniper",
		Email:      "owner@juniper.club",
		Password:   "long-enough",
		Name:       "Owner",
	}, ClientMeta{})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthService_RegisterCreatesTenantOwnerAndSubscription(t *testing.T) {
	svc, mock, store := newAuthService(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "tenants"`).WillReturnRows(countRows(0))
	mock.ExpectQuery(`INSERT INTO "tenants"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectQuery(`INSERT INTO "users"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(21))
	mock.ExpectQuery(`INSERT INTO "subscriptions"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(31))
	mock.ExpectCommit()

	result, err := svc.Register(context.Background(), RegisterInput{
		TenantName: "Juniper Club",
		Subdomain:  "Juniper",
		Email:      "Owner@Juniper.club",
		Password:   "long-enough",
		Name:       "Owner",
	}, ClientMeta{ClientIP: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, uint(11), result.Tenant.ID)
	assert.Equal(t, "juniper", result.Tenant.Subdomain)
	assert.Equal(t, models.TierFree, result.Tenant.Tier)
	assert.Equal(t, uint(21), result.User.ID)
	assert.Equal(t, models.RoleOwner, result.User.Role)
	assert.Equal(t, "owner@juniper.club", result.User.Email)
	assert.Equal(t, 1, store.Len())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthService_RegisterUniqueViolationIsConflict(t *testing.T) {
	svc, mock, store := newAuthService(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "tenants"`).WillReturnRows(countRows(0))
	// 并发注册：计数通过，但插入时撞上唯一索引
	mock.ExpectQuery(`INSERT INTO "tenants"`).WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_tenants_subdomain"})
	mock.ExpectRollback()

	_, err := svc.Register(context.Background(), RegisterInput{
		TenantName: "Juniper Club",
		Subdomain:  "juniper",
		Email:      "owner@juniper.club",
		Password:   "long-enough",
		Name:       "Owner",
	}, ClientMeta{})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.Equal(t, 0, store.Len())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthService_RegisterInvalidSubdomain(t *testing.T) {
	svc, mock, _ := newAuthService(t)
	_, err := svc.Register(context.Background(), RegisterInput{Subdomain: "-bad-", Password: "long-enough"}, ClientMeta{})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthService_LogoutIsIdempotent(t *testing.T) {
	svc, _, store := newAuthService(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "tok", tokenstore.Session{UserID: 1}, time.Hour))

	assert.NoError(t, svc.Logout(ctx, "tok"))
	assert.NoError(t, svc.Logout(ctx, "tok"))
	assert.NoError(t, svc.Logout(ctx, ""))
	assert.Equal(t, 0, store.Len())
}
