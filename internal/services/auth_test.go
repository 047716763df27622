package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthService(t *testing.T) *AuthServiceImpl {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewAuthService("test-secret", string(hash), time.Hour)
}

func TestHashPassphrase(t *testing.T) {
	hash, err := HashPassphrase("exam season")
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "exam season"))
	assert.False(t, VerifyPassword(hash, "exam seasons"))
}

func TestLoginAndValidate(t *testing.T) {
	svc := newTestAuthService(t)

	token, expiresIn, err := svc.Login("correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, int64(3600), expiresIn)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, TokenIssuer, claims.Issuer)
	assert.Equal(t, "owner", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestLogin_WrongPassphrase(t *testing.T) {
	svc := newTestAuthService(t)

	_, _, err := svc.Login("battery staple")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	empty := NewAuthService("test-secret", "", time.Hour)
	_, _, err = empty.Login("")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateToken_Rejects(t *testing.T) {
	svc := newTestAuthService(t)
	token, _, err := svc.Login("correct horse")
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { svc.now = time.Now }()

		_, err := svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewAuthService("other-secret", svc.passphraseHash, time.Hour)
		_, err := other.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Issuer:    "taskify-backend",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		signed, err := forged.SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = svc.ValidateToken(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
