package secondary

import (
	"context"
	"io"

	"github.com/google/uuid"

	"gitlab.com/magneto-ui.net/internal/domain"
)

// BlobStore is one bucket of binary payloads
type BlobStore interface {
	// Store consumes r to completion and returns the new blob id once fully written
	Store(ctx context.Context, r io.Reader, filename string, meta domain.BlobMeta) (uuid.UUID, error)

	// Retrieve opens a stored blob. It fails with errs.ErrBlobNotFound for unknown ids.
	Retrieve(ctx context.Context, blobID uuid.UUID) (*domain.BlobInfo, io.ReadCloser, error)

	// Query lists blob metadata matching the query
	Query(ctx context.Context, query domain.BlobQuery) ([]*domain.BlobInfo, error)

	// DeleteMany removes the metadata and payload of every listed blob
	DeleteMany(ctx context.Context, ids []uuid.UUID) error
}
