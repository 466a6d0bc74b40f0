package auth

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/golang-jwt/jwt/v5"

	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/domain"
	"gitlab.com/magneto-ui.net/internal/global/logger"
	"gitlab.com/magneto-ui.net/internal/static/errs"
)

type IAuthService interface {
	ProviderName() domain.Provider
	Login(ctx context.Context, creds domain.Credentials) (string, error)
}

// ILocalAuthService adds the email and password account lifecycle
type ILocalAuthService interface {
	IAuthService
	Register(ctx context.Context, creds domain.Credentials) (*domain.Users, error)
	VerifyEmail(ctx context.Context, email string, code string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token string, newPassword string) error
}

func generateToken(ctx context.Context, jwtProvider primary.JWTService, user *domain.Users) (string, error) {
	authPayload := domain.AuthPayload{
		UserID: user.ID,
		Email:  user.Email,
	}
	var buf bytes.Buffer

	err := json.NewEncoder(&buf).Encode(authPayload)
	if err != nil {
		return "", errs.InternalError
	}
	var payload map[string]interface{}
	err = json.Unmarshal(buf.Bytes(), &payload)
	if err != nil {
		logger.Error("Failed to unmarshal auth payload", "error", err)
		return "", errs.InternalError
	}
	token, err := jwtProvider.GenerateTokenHMAC(ctx, jwt.SigningMethodHS256.Name, payload)
	if err != nil {
		return "", errs.GeneratingToken
	}
	return token, nil
}
