package auth

import (
	"context"
	"strings"

	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/core/ports/secondary"
	"gitlab.com/magneto-ui.net/internal/domain"
	"gitlab.com/magneto-ui.net/internal/static/errs"
)

var _ IAuthService = &googleAuthService{}

type googleAuthService struct {
	userPort    secondary.UserPort
	jwtProvider primary.JWTService
	logger      primary.Logger
}

func NewGoogleAuthService(userPort secondary.UserPort, jwtProvider primary.JWTService, logger primary.Logger) IAuthService {
	return &googleAuthService{
		userPort:    userPort,
		jwtProvider: jwtProvider,
		logger:      logger,
	}
}

func (g googleAuthService) ProviderName() domain.Provider {
	return domain.ProviderGoogle
}

// Login finds the account by Google id, links an existing account with the
// same email, or creates a verified Google account. Linking and creating both
// require an email address verified by Google.
func (g googleAuthService) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	if creds.GoogleID == nil || *creds.GoogleID == "" {
		return "", errs.InvalidCredentials
	}
	email := normalizeEmail(creds.Email)
	if email == "" {
		return "", errs.EmailRequired
	}

	usr, err := g.userPort.GetByGoogleID(ctx, *creds.GoogleID)
	if err != nil {
		return "", err
	}
	if usr != nil {
		return generateToken(ctx, g.jwtProvider, usr)
	}
	if !creds.EmailVerified {
		g.logger.Warn("Rejected Google login with unverified email", "googleID", *creds.GoogleID)
		return "", errs.EmailNotVerified
	}

	usr, err = g.userPort.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if usr != nil {
		usr.GoogleID = creds.GoogleID
		usr.IsVerified = true
		if err := g.userPort.Save(ctx, usr); err != nil {
			return "", err
		}
		g.logger.Info("Linked Google account", "userID", usr.ID)
		return generateToken(ctx, g.jwtProvider, usr)
	}

	firstName := strings.TrimSpace(creds.FirstName)
	if firstName == "" {
		firstName = strings.Split(email, "@")[0]
	}
	usr = &domain.Users{
		Email:        email,
		FirstName:    firstName,
		LastName:     strings.TrimSpace(creds.LastName),
		AuthProvider: string(domain.ProviderGoogle),
		GoogleID:     creds.GoogleID,
		IsVerified:   true,
	}
	if err := g.userPort.Create(ctx, usr); err != nil {
		return "", errs.FailedToCreateUser
	}

	return generateToken(ctx, g.jwtProvider, usr)
}
