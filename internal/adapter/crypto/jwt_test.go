package crypto

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/magneto-ui.net/internal/config"
)

func newService(t *testing.T) *JWTServiceImpl {
	t.Helper()
	return NewJWTService(&config.JwtConfig{Secret: "s3cret", Expiry: time.Hour})
}

func TestGenerateAndParseTokenHMAC(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	userID := uuid.New()

	token, err := svc.GenerateTokenHMAC(ctx, jwt.SigningMethodHS256.Name, map[string]interface{}{
		"sub":   userID.String(),
		"email": "a@example.com",
	})
	require.NoError(t, err)

	payload, err := svc.ParseTokenHMAC(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, userID, payload.UserID)
	assert.Equal(t, "a@example.com", payload.Email)
}

func TestParseTokenHMAC_Expired(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	token, err := svc.GenerateTokenHMAC(ctx, jwt.SigningMethodHS256.Name, map[string]interface{}{
		"sub": uuid.NewString(),
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	require.NoError(t, err)

	_, err = svc.ParseTokenHMAC(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenHMAC_WrongSecret(t *testing.T) {
	ctx := context.Background()
	other := NewJWTService(&config.JwtConfig{Secret: "other", Expiry: time.Hour})
	token, err := other.GenerateTokenHMAC(ctx, jwt.SigningMethodHS256.Name, map[string]interface{}{"sub": uuid.NewString()})
	require.NoError(t, err)

	_, err = newService(t).ParseTokenHMAC(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	hash, err := svc.EncryptPassword(ctx, "correct horse")
	require.NoError(t, err)

	ok, err := svc.VerifyPassword(ctx, hash, "correct horse")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.VerifyPassword(ctx, hash, "wrong")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestDecodeTokenPayload_BadFormat(t *testing.T) {
	_, err := newService(t).DecodeTokenPayload(context.Background(), "not-a-token")
	assert.Error(t, err)
}
