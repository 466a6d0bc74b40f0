package schedulerengine

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"gitlab.com/magneto-ui.net/internal/config"
	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/core/ports/secondary"
	"gitlab.com/magneto-ui.net/internal/domain"
)

// Report counts what one reconciliation pass removed
type Report struct {
	Dirs  int
	Blobs int
}

// Reconciler garbage-collects working directories and blobs whose test is gone
type Reconciler struct {
	cfg       *config.ReconcileCfg
	tests     secondary.TestRepository
	buckets   map[domain.Bucket]secondary.BlobStore
	unzipRoot string
	logger    primary.Logger
	now       func() time.Time
	wg        sync.WaitGroup
}

func NewReconciler(
	cfg *config.ReconcileCfg,
	tests secondary.TestRepository,
	buckets map[domain.Bucket]secondary.BlobStore,
	unzipRoot string,
	logger primary.Logger,
) *Reconciler {
	return &Reconciler{
		cfg:       cfg,
		tests:     tests,
		buckets:   buckets,
		unzipRoot: unzipRoot,
		logger:    logger,
		now:       time.Now,
	}
}

// Start runs a pass every interval until ctx is done
func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := r.RunOnce(ctx); err != nil {
					r.logger.Error("Reconciliation failed", "error", err)
				}
			}
		}
	}()
}

// Wait blocks until the loop started by Start has returned
func (r *Reconciler) Wait() {
	r.wg.Wait()
}

func (r *Reconciler) RunOnce(ctx context.Context) (Report, error) {
	var report Report

	dirs, err := r.sweepDirs(ctx)
	report.Dirs = dirs
	if err != nil {
		return report, err
	}

	cutoff := r.now().Add(-r.cfg.GracePeriod)
	for bucket, store := range r.buckets {
		n, err := r.sweepBucket(ctx, bucket, store, cutoff)
		report.Blobs += n
		if err != nil {
			return report, err
		}
	}

	r.logger.Info("Reconciliation finished", "dirs", report.Dirs, "blobs", report.Blobs)
	return report, nil
}

func (r *Reconciler) sweepDirs(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(r.unzipRoot)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		r.logger.Error("Failed to list unzip root", "dir", r.unzipRoot, "error", err)
		return 0, err
	}

	var ids []uuid.UUID
	for _, e := range entries {
		// entries that are not test directories belong to someone else
		if id, err := uuid.Parse(e.Name()); err == nil && e.IsDir() {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	existing, err := r.tests.ExistingIDs(ctx, ids)
	if err != nil {
		r.logger.Error("Failed to check tests of working dirs", "error", err)
		return 0, err
	}

	removed := 0
	for _, id := range ids {
		if existing[id] {
			continue
		}
		dir := filepath.Join(r.unzipRoot, id.String())
		if err := os.RemoveAll(dir); err != nil {
			r.logger.Warn("Failed to remove orphaned working dir", "dir", dir, "error", err)
			continue
		}
		r.logger.Debug("Removed orphaned working dir", "dir", dir)
		removed++
	}
	return removed, nil
}

func (r *Reconciler) sweepBucket(ctx context.Context, bucket domain.Bucket, store secondary.BlobStore, cutoff time.Time) (int, error) {
	infos, err := store.Query(ctx, domain.BlobQuery{Filter: domain.BlobFilter{UploadedBefore: &cutoff}})
	if err != nil {
		r.logger.Error("Failed to list blobs", "bucket", bucket, "error", err)
		return 0, err
	}
	if len(infos) == 0 {
		return 0, nil
	}

	var testIDs []uuid.UUID
	for _, info := range infos {
		if info.TestID != nil {
			testIDs = append(testIDs, *info.TestID)
		}
	}
	existing := map[uuid.UUID]bool{}
	if len(testIDs) > 0 {
		if existing, err = r.tests.ExistingIDs(ctx, testIDs); err != nil {
			r.logger.Error("Failed to check tests of blobs", "bucket", bucket, "error", err)
			return 0, err
		}
	}

	var orphans []uuid.UUID
	for _, info := range infos {
		if info.TestID == nil || !existing[*info.TestID] {
			orphans = append(orphans, info.ID)
		}
	}
	if len(orphans) == 0 {
		return 0, nil
	}
	if err := store.DeleteMany(ctx, orphans); err != nil {
		r.logger.Error("Failed to delete orphaned blobs", "bucket", bucket, "count", len(orphans), "error", err)
		return 0, err
	}
	return len(orphans), nil
}
