package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestHMACValidator_ValidToken(t *testing.T) {
	validate := HMACValidator(testSecret)
	tokenString := signToken(t, testSecret, jwt.MapClaims{
		"user_id": "user-456",
		"email":   "maria@example.com",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	claims, err := validate(tokenString)

	require.NoError(t, err)
	assert.Equal(t, "user-456", claims.UserID)
	assert.Equal(t, "maria@example.com", claims.Email)
}

func TestHMACValidator_SubFallback(t *testing.T) {
	validate := HMACValidator(testSecret)
	tokenString := signToken(t, testSecret, jwt.MapClaims{
		"sub": "user-456",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	claims, err := validate(tokenString)

	require.NoError(t, err)
	assert.Equal(t, "user-456", claims.UserID)
}

func TestHMACValidator_WrongSecret(t *testing.T) {
	validate := HMACValidator(testSecret)
	tokenString := signToken(t, "other-secret", jwt.MapClaims{
		"user_id": "user-456",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	_, err := validate(tokenString)
	assert.Error(t, err)
}

func TestHMACValidator_ExpiredToken(t *testing.T) {
	validate := HMACValidator(testSecret)
	tokenString := signToken(t, testSecret, jwt.MapClaims{
		"user_id": "user-456",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	_, err := validate(tokenString)
	assert.Error(t, err)
}

func TestHMACValidator_NoIdentity(t *testing.T) {
	validate := HMACValidator(testSecret)
	tokenString := signToken(t, testSecret, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := validate(tokenString)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no user identity")
}

func TestHMACValidator_Garbage(t *testing.T) {
	validate := HMACValidator(testSecret)

	_, err := validate("not.a.jwt")
	assert.Error(t, err)
}
