package crypto

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"gitlab.com/magneto-ui.net/internal/config"
	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/domain"
)

var _ primary.JWTService = (*JWTServiceImpl)(nil)

var (
	ErrInvalidToken = fmt.Errorf("invalid token")
)

type JWTServiceImpl struct {
	HMACSecretKey string
	Expiry        time.Duration
	now           func() time.Time
}

func NewJWTService(jwtConfig *config.JwtConfig) *JWTServiceImpl {
	expiry := jwtConfig.Expiry
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &JWTServiceImpl{
		HMACSecretKey: jwtConfig.Secret,
		Expiry:        expiry,
		now:           time.Now,
	}
}

func (J JWTServiceImpl) GenerateTokenHMAC(ctx context.Context, method string, claims map[string]interface{}) (string, error) {
	signingMethod := jwt.GetSigningMethod(method)
	if signingMethod == nil {
		return "", fmt.Errorf("unsupported signing method: %s", method)
	}

	// Ensure the claims map contains an expiration time
	if _, exists := claims["exp"]; !exists {
		claims["exp"] = J.now().Add(J.Expiry).Unix()
	}
	if _, exists := claims["iat"]; !exists {
		claims["iat"] = J.now().Unix()
	}

	tok := jwt.NewWithClaims(signingMethod, jwt.MapClaims(claims))
	return tok.SignedString([]byte(J.HMACSecretKey))
}

func (J JWTServiceImpl) parse(token string) (*jwt.Token, error) {
	return jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(J.HMACSecretKey), nil
	}, jwt.WithTimeFunc(J.now), jwt.WithExpirationRequired())
}

func (J JWTServiceImpl) ParseTokenHMAC(ctx context.Context, token string) (domain.AuthPayload, error) {
	parsedToken, err := J.parse(token)
	if err != nil {
		return domain.AuthPayload{}, errors.Join(ErrInvalidToken, err)
	}
	if !parsedToken.Valid {
		return domain.AuthPayload{}, ErrInvalidToken
	}
	return J.DecodeTokenPayload(ctx, token)
}

func (JWTServiceImpl) VerifyPassword(ctx context.Context, passwordHash string, pwd string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(pwd))
	if err != nil {
		return false, err
	}
	return true, nil
}

func (J JWTServiceImpl) EncryptPassword(ctx context.Context, password string) (string, error) {
	pwd, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func decodeSeg(signature string) (string, error) {
	sig, err := jwt.NewParser().DecodeSegment(signature)
	if err != nil {
		return "", err
	}
	return string(sig), nil
}

// DecodeTokenPayload reads the claims without verifying the signature
func (J JWTServiceImpl) DecodeTokenPayload(ctx context.Context, token string) (domain.AuthPayload, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return domain.AuthPayload{}, fmt.Errorf("invalid token format")
	}

	payloadData, err := decodeSeg(parts[1])
	if err != nil {
		return domain.AuthPayload{}, fmt.Errorf("failed to decode token payload: %w", err)
	}

	var authPayload domain.AuthPayload
	if err := json.Unmarshal([]byte(payloadData), &authPayload); err != nil {
		return domain.AuthPayload{}, fmt.Errorf("failed to parse AuthPayload: %w", err)
	}

	return authPayload, nil
}
