package test

import (
	"context"
	"io"

	"github.com/google/uuid"

	"gitlab.com/magneto-ui.net/internal/domain"
)

type CreateTestRequest struct {
	Name   string
	Oracle string
}

// ITestService manages tests of the calling user's apps
type ITestService interface {
	// Create adds a pending test. Oracle is a display name or an oracle type.
	Create(ctx context.Context, userID, appID uuid.UUID, req CreateTestRequest) (*domain.Test, error)

	// ListByApp lists an app's tests with their input file names
	ListByApp(ctx context.Context, userID, appID uuid.UUID) ([]*domain.Test, error)

	UpdateNotes(ctx context.Context, userID, testID uuid.UUID, notes string) (*domain.Test, error)
	Delete(ctx context.Context, userID, testID uuid.UUID) error

	// DownloadResult opens the newest result document of a test
	DownloadResult(ctx context.Context, userID, testID uuid.UUID) (*domain.BlobInfo, io.ReadCloser, error)

	// DownloadInput opens the archive last uploaded for a test
	DownloadInput(ctx context.Context, userID, testID uuid.UUID) (*domain.BlobInfo, io.ReadCloser, error)
}
