package secondary

import (
	"context"

	"github.com/google/uuid"

	"gitlab.com/magneto-ui.net/internal/domain"
)

type AppRepository interface {
	// Create inserts a new app
	Create(ctx context.Context, app *domain.App) error

	// Get retrieves an app by ID, nil if it does not exist
	Get(ctx context.Context, appID uuid.UUID) (*domain.App, error)

	// ListByUser retrieves a user's apps with their test ids
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.App, error)

	UpdateName(ctx context.Context, appID uuid.UUID, name string) (*domain.App, error)
	UpdateDescription(ctx context.Context, appID uuid.UUID, description string) (*domain.App, error)

	Delete(ctx context.Context, appID uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}
