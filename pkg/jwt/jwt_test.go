package jwt

import (
	"testing"
	"time"

	apperrors "ginvault/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify(t *testing.T) {
	m := NewJWTManager("secret", "GinVault", 15*time.Minute)

	token, expiresAt, err := m.GenerateAccessToken(Subject{
		UserID:    7,
		TenantID:  3,
		Subdomain: "juniper",
		Role:      "owner",
	})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := m.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, uint(3), claims.TenantID)
	assert.Equal(t, "juniper", claims.Subdomain)
	assert.Equal(t, "owner", claims.Role)
	assert.Equal(t, "7", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestVerifyExpired(t *testing.T) {
	m := NewJWTManager("secret", "GinVault", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, _, err := m.GenerateAccessToken(Subject{UserID: 1, TenantID: 1})
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.VerifyToken(token)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestVerifyWrongSecretOrIssuer(t *testing.T) {
	a := NewJWTManager("secret-a", "GinVault", time.Minute)
	b := NewJWTManager("secret-b", "GinVault", time.Minute)
	c := NewJWTManager("secret-a", "Other", time.Minute)

	token, _, err := a.GenerateAccessToken(Subject{UserID: 1})
	require.NoError(t, err)

	_, err = b.VerifyToken(token)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
	_, err = c.VerifyToken(token)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
	_, err = a.VerifyToken("not-a-token")
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	m := NewJWTManager("secret", "GinVault", time.Minute)
	claims := Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "GinVault",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.VerifyToken(unsigned)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}
