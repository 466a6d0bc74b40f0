package auth

import (
	"context"
	"time"

	"gitlab.com/magneto-ui.net/internal/adapter/crypto"
	"gitlab.com/magneto-ui.net/internal/adapter/logging"
	"gitlab.com/magneto-ui.net/internal/config"
	"gitlab.com/magneto-ui.net/internal/core/services/servicetest"
)

type memUsers = servicetest.Users

func newMemUsers() *memUsers {
	return servicetest.NewDB().Users()
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, subject, body})
	return nil
}

func newJWT() *crypto.JWTServiceImpl {
	return crypto.NewJWTService(&config.JwtConfig{Secret: "test-secret", Expiry: time.Hour})
}

func newLocal(users *memUsers, mailer *fakeMailer) *localAuthService {
	return NewLocalAuthService(users, newJWT(), mailer, logging.NewZapLoggerWithLevel("error")).(*localAuthService)
}
