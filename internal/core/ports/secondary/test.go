package secondary

import (
	"context"

	"github.com/google/uuid"

	"gitlab.com/magneto-ui.net/internal/domain"
)

type TestRepository interface {
	// Create inserts a new test
	Create(ctx context.Context, test *domain.Test) error

	// Get retrieves a test by ID, nil if it does not exist
	Get(ctx context.Context, testID uuid.UUID) (*domain.Test, error)

	// ListByApp retrieves the tests of an app joined with their input file name
	ListByApp(ctx context.Context, appID uuid.UUID) ([]*domain.Test, error)

	// ListByUser retrieves every test owned by a user
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Test, error)

	UpdateNotes(ctx context.Context, testID uuid.UUID, notes string) (*domain.Test, error)
	UpdateFile(ctx context.Context, testID uuid.UUID, fileID uuid.UUID) error

	// Complete writes the result and status of a finished run and returns the
	// updated test. It fails with errs.ErrTestNotFound for unknown ids.
	Complete(ctx context.Context, testID uuid.UUID, completion domain.TestCompletion) (*domain.Test, error)

	Delete(ctx context.Context, testID uuid.UUID) error
	DeleteByApp(ctx context.Context, appID uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error

	// ExistingIDs returns the subset of ids that belong to a stored test
	ExistingIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error)
}
