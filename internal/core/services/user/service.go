package user

import (
	"context"

	"github.com/google/uuid"

	"gitlab.com/magneto-ui.net/internal/domain"
)

type IUserService interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.Users, error)

	// Delete removes the account with every app and test it owns
	Delete(ctx context.Context, userID uuid.UUID) error
}
