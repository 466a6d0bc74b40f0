package errs

import "errors"

var InvalidCredentials = errors.New("invalid credentials")

var (
	InternalError      = errors.New("internal error")
	GeneratingToken    = errors.New("error generating token")
	EmailRequired      = errors.New("email is required")
	EmailTaken         = errors.New("an account with this email already exists")
	WeakPassword       = errors.New("password must be at least 8 characters")
	EmailNotVerified   = errors.New("email address is not verified")
	InvalidCode        = errors.New("invalid or expired verification code")
	InvalidResetToken  = errors.New("invalid or expired reset token")
	FailedToCreateUser = errors.New("failed to create user")
	MissingToken       = errors.New("authorization header missing")
	InvalidToken       = errors.New("invalid or expired token")
)
