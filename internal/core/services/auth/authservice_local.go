package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/core/ports/secondary"
	"gitlab.com/magneto-ui.net/internal/domain"
	"gitlab.com/magneto-ui.net/internal/static/errs"
)

const (
	minPasswordLength     = 8
	verificationCodeTTL   = 24 * time.Hour
	resetTokenTTL         = time.Hour
	verificationCodeSpace = 1000000
	resetTokenBytes       = 32
)

var _ ILocalAuthService = &localAuthService{}

type localAuthService struct {
	userPort    secondary.UserPort
	jwtProvider primary.JWTService
	mailer      secondary.Mailer
	logger      primary.Logger
	now         func() time.Time
}

func NewLocalAuthService(
	userPort secondary.UserPort,
	jwtProvider primary.JWTService,
	mailer secondary.Mailer,
	logger primary.Logger,
) ILocalAuthService {
	return &localAuthService{
		userPort:    userPort,
		jwtProvider: jwtProvider,
		mailer:      mailer,
		logger:      logger,
		now:         time.Now,
	}
}

func (g localAuthService) ProviderName() domain.Provider {
	return domain.ProviderLocal
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (g localAuthService) Register(ctx context.Context, creds domain.Credentials) (*domain.Users, error) {
	email := normalizeEmail(creds.Email)
	if email == "" {
		return nil, errs.EmailRequired
	}
	if len(creds.Password) < minPasswordLength {
		return nil, errs.WeakPassword
	}

	existing, err := g.userPort.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errs.EmailTaken
	}

	hash, err := g.jwtProvider.EncryptPassword(ctx, creds.Password)
	if err != nil {
		g.logger.Error("Failed to hash password", "error", err)
		return nil, errs.InternalError
	}
	code, err := verificationCode()
	if err != nil {
		g.logger.Error("Failed to generate verification code", "error", err)
		return nil, errs.InternalError
	}
	expires := g.now().Add(verificationCodeTTL)

	user := &domain.Users{
		Email:                 email,
		PasswordHash:          &hash,
		FirstName:             strings.TrimSpace(creds.FirstName),
		LastName:              strings.TrimSpace(creds.LastName),
		AuthProvider:          string(domain.ProviderLocal),
		VerificationCode:      &code,
		VerificationExpiresAt: &expires,
	}
	if err := g.userPort.Create(ctx, user); err != nil {
		return nil, errs.FailedToCreateUser
	}

	body := fmt.Sprintf("Welcome to MAGNETO.\n\nYour verification code is %s. It expires in 24 hours.\n", code)
	if err := g.mailer.Send(ctx, email, "Verify your MAGNETO account", body); err != nil {
		g.logger.Warn("Verification mail not delivered", "email", email, "error", err)
	}
	return user, nil
}

func (g localAuthService) VerifyEmail(ctx context.Context, email string, code string) error {
	user, err := g.userPort.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		return errs.InvalidCode
	}
	if user.IsVerified {
		return nil
	}
	if user.VerificationCode == nil || *user.VerificationCode != strings.TrimSpace(code) {
		return errs.InvalidCode
	}
	if user.VerificationExpiresAt == nil || g.now().After(*user.VerificationExpiresAt) {
		return errs.InvalidCode
	}

	user.IsVerified = true
	user.VerificationCode = nil
	user.VerificationExpiresAt = nil
	return g.userPort.Save(ctx, user)
}

func (g localAuthService) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	usr, err := g.userPort.GetByEmail(ctx, normalizeEmail(creds.Email))
	if err != nil {
		return "", err
	}
	if usr == nil || usr.PasswordHash == nil {
		return "", errs.InvalidCredentials
	}
	valid, err := g.jwtProvider.VerifyPassword(ctx, *usr.PasswordHash, creds.Password)
	if err != nil {
		return "", errs.InvalidCredentials
	}
	if !valid {
		return "", errs.InvalidCredentials
	}
	if !usr.IsVerified {
		return "", errs.EmailNotVerified
	}

	return generateToken(ctx, g.jwtProvider, usr)
}

// ForgotPassword reports success for unknown emails so accounts cannot be probed
func (g localAuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := g.userPort.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		g.logger.Debug("Password reset requested for unknown email")
		return nil
	}

	token, err := resetToken()
	if err != nil {
		g.logger.Error("Failed to generate reset token", "error", err)
		return errs.InternalError
	}
	expires := g.now().Add(resetTokenTTL)
	user.ResetToken = &token
	user.ResetExpiresAt = &expires
	if err := g.userPort.Save(ctx, user); err != nil {
		return err
	}

	body := fmt.Sprintf("A password reset was requested for your MAGNETO account.\n\nReset token: %s\nIt expires in 1 hour.\n", token)
	if err := g.mailer.Send(ctx, user.Email, "Reset your MAGNETO password", body); err != nil {
		return err
	}
	return nil
}

func (g localAuthService) ResetPassword(ctx context.Context, token string, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return errs.WeakPassword
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return errs.InvalidResetToken
	}

	user, err := g.userPort.GetByResetToken(ctx, token)
	if err != nil {
		return err
	}
	if user == nil || user.ResetExpiresAt == nil || g.now().After(*user.ResetExpiresAt) {
		return errs.InvalidResetToken
	}

	hash, err := g.jwtProvider.EncryptPassword(ctx, newPassword)
	if err != nil {
		g.logger.Error("Failed to hash password", "error", err)
		return errs.InternalError
	}
	user.PasswordHash = &hash
	user.ResetToken = nil
	user.ResetExpiresAt = nil
	return g.userPort.Save(ctx, user)
}

func verificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(verificationCodeSpace))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func resetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
