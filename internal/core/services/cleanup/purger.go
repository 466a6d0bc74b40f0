package cleanup

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/core/ports/secondary"
	"gitlab.com/magneto-ui.net/internal/domain"
)

// Purger removes what deleted tests leave behind outside the relational store:
// input and result blobs plus the extracted working directory. Every step is
// best-effort; failures are logged and left to the reconciler.
type Purger struct {
	files     secondary.BlobStore
	results   secondary.BlobStore
	unzipRoot string
	logger    primary.Logger
}

func NewPurger(files, results secondary.BlobStore, unzipRoot string, logger primary.Logger) *Purger {
	return &Purger{files: files, results: results, unzipRoot: unzipRoot, logger: logger}
}

// WorkDir is the extraction directory of a test
func WorkDir(unzipRoot string, testID uuid.UUID) string {
	return filepath.Join(unzipRoot, testID.String())
}

// Purge must be called after the transaction deleting tests has committed
func (p *Purger) Purge(ctx context.Context, tests []*domain.Test) {
	if len(tests) == 0 {
		return
	}

	var inputs []uuid.UUID
	for _, t := range tests {
		if t.FileID != nil {
			inputs = append(inputs, *t.FileID)
		}
	}

	for _, t := range tests {
		inputs = append(inputs, p.blobsOf(ctx, p.files, t.ID)...)
		p.deleteBlobs(ctx, p.results, p.blobsOf(ctx, p.results, t.ID))

		dir := WorkDir(p.unzipRoot, t.ID)
		if err := os.RemoveAll(dir); err != nil {
			p.logger.Warn("Failed to remove working dir", "testId", t.ID, "dir", dir, "error", err)
		}
	}
	p.deleteBlobs(ctx, p.files, dedupe(inputs))
}

func (p *Purger) blobsOf(ctx context.Context, bucket secondary.BlobStore, testID uuid.UUID) []uuid.UUID {
	infos, err := bucket.Query(ctx, domain.BlobQuery{Filter: domain.BlobFilter{TestID: &testID}})
	if err != nil {
		p.logger.Warn("Failed to list blobs of deleted test", "testId", testID, "error", err)
		return nil
	}
	ids := make([]uuid.UUID, 0, len(infos))
	for _, info := range infos {
		ids = append(ids, info.ID)
	}
	return ids
}

func (p *Purger) deleteBlobs(ctx context.Context, bucket secondary.BlobStore, ids []uuid.UUID) {
	if len(ids) == 0 {
		return
	}
	if err := bucket.DeleteMany(ctx, ids); err != nil {
		p.logger.Error("Failed to delete blobs of deleted tests", "count", len(ids), "error", err)
		return
	}
	p.logger.Debug("Deleted blobs of deleted tests", "count", len(ids))
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
