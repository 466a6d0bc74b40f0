package domain

import "github.com/google/uuid"

type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderLocal  Provider = "local"
)

// AuthPayload is the claim set carried by access tokens
type AuthPayload struct {
	UserID uuid.UUID `json:"sub"`
	Email  string    `json:"email"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

// Credentials is what a login or registration supplies. GoogleID is only set by the OAuth callback.
type Credentials struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	GoogleID  *string
	// EmailVerified is the identity provider's claim about Email
	EmailVerified bool
}
