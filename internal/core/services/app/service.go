package app

import (
	"context"

	"github.com/google/uuid"

	"gitlab.com/magneto-ui.net/internal/domain"
)

// IAppService manages the apps of the calling user. Apps owned by someone
// else are reported as errs.ErrAppNotFound.
type IAppService interface {
	Create(ctx context.Context, userID uuid.UUID, name, description string) (*domain.App, error)
	List(ctx context.Context, userID uuid.UUID) ([]*domain.App, error)
	Rename(ctx context.Context, userID, appID uuid.UUID, name string) (*domain.App, error)
	UpdateDescription(ctx context.Context, userID, appID uuid.UUID, description string) (*domain.App, error)

	// Delete removes the app and its tests, then purges their blobs and working directories
	Delete(ctx context.Context, userID, appID uuid.UUID) error
}
