package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	userID := uuid.New()

	token, err := svc.GenerateToken(userID)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	svc := NewJWTService("test-secret", time.Minute)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := svc.GenerateToken(uuid.New())
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_RejectsForeignSecret(t *testing.T) {
	token, err := NewJWTService("secret-a", time.Hour).GenerateToken(uuid.New())
	require.NoError(t, err)

	_, err = NewJWTService("secret-b", time.Hour).ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_RejectsNoneAlgorithm(t *testing.T) {
	claims := CustomClaims{
		UserID: uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWTService("test-secret", time.Hour).ValidateToken(unsigned)
	assert.Error(t, err)
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasherWithCost(4)

	hash, err := h.Hash("Sup3r$ecret")
	require.NoError(t, err)

	assert.NotEqual(t, "Sup3r$ecret", hash)
	assert.True(t, h.Check("Sup3r$ecret", hash))
	assert.False(t, h.Check("sup3r$ecret", hash))
}

func TestNewPasswordHasher_UsesCost12(t *testing.T) {
	assert.Equal(t, 12, NewPasswordHasher().cost)
}

func TestResetToken(t *testing.T) {
	token, digest, err := NewResetToken()
	require.NoError(t, err)

	assert.Len(t, token, 64)
	assert.NotEqual(t, token, digest)
	assert.Equal(t, digest, DigestResetToken(token))

	other, _, err := NewResetToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}
