package primary

import (
	"context"

	"gitlab.com/magneto-ui.net/internal/domain"
)

type JWTService interface {
	GenerateTokenHMAC(ctx context.Context, method string, claims map[string]interface{}) (string, error)
	// ParseTokenHMAC verifies the token and decodes its payload
	ParseTokenHMAC(ctx context.Context, token string) (domain.AuthPayload, error)
	DecodeTokenPayload(ctx context.Context, token string) (domain.AuthPayload, error)
	EncryptPassword(ctx context.Context, password string) (string, error)
	VerifyPassword(ctx context.Context, passwordHash string, pwd string) (bool, error)
}
