package file

import (
	"context"
	"io"

	"github.com/google/uuid"

	"gitlab.com/magneto-ui.net/internal/domain"
)

type IFileService interface {
	// Upload stores a zipped trace as the input of a test and extracts it into
	// the test's working directory. It returns the stored blob.
	Upload(ctx context.Context, userID, testID uuid.UUID, filename string, r io.Reader) (*domain.BlobInfo, error)
}
