package secondary

import (
	"context"

	"github.com/google/uuid"

	"gitlab.com/magneto-ui.net/internal/domain"
)

// UserPort lookups return nil, nil when no user matches
type UserPort interface {
	Create(ctx context.Context, user *domain.Users) error
	Save(ctx context.Context, user *domain.Users) error
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Users, error)
	GetByEmail(ctx context.Context, email string) (*domain.Users, error)
	GetByGoogleID(ctx context.Context, googleID string) (*domain.Users, error)
	GetByResetToken(ctx context.Context, token string) (*domain.Users, error)
}
