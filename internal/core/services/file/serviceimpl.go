package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/core/ports/secondary"
	"gitlab.com/magneto-ui.net/internal/core/services/cleanup"
	"gitlab.com/magneto-ui.net/internal/domain"
	"gitlab.com/magneto-ui.net/internal/static/errs"
)

const zipContentType = "application/zip"

var _ IFileService = (*FileService)(nil)

type FileService struct {
	tests     secondary.TestRepository
	files     secondary.BlobStore
	stager    secondary.ArchiveStager
	lock      secondary.RunLock
	unzipRoot string
	// tempDir holds uploads while they are staged, os.TempDir() when empty
	tempDir string
	logger  primary.Logger
}

func NewFileService(
	tests secondary.TestRepository,
	files secondary.BlobStore,
	stager secondary.ArchiveStager,
	lock secondary.RunLock,
	unzipRoot string,
	logger primary.Logger,
) *FileService {
	return &FileService{
		tests:     tests,
		files:     files,
		stager:    stager,
		lock:      lock,
		unzipRoot: unzipRoot,
		logger:    logger,
	}
}

func (s *FileService) Upload(ctx context.Context, userID, testID uuid.UUID, filename string, r io.Reader) (*domain.BlobInfo, error) {
	if testID == uuid.Nil {
		return nil, errs.TestIDRequired
	}
	filename = filepath.Base(strings.TrimSpace(filename))
	if !strings.EqualFold(filepath.Ext(filename), ".zip") {
		return nil, errs.NotAZipArchive
	}

	test, err := s.tests.Get(ctx, testID)
	if err != nil {
		s.logger.Error("Failed to get test", "testId", testID, "error", err)
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	if test == nil || test.UserID != userID {
		return nil, errs.ErrTestNotFound
	}

	// re-staging replaces the directory an oracle run reads from
	release, err := s.lock.Acquire(ctx, testID.String())
	if err != nil {
		s.logger.Warn("Upload rejected", "testId", testID, "error", err)
		return nil, err
	}
	defer release()

	spool, err := os.CreateTemp(s.tempDir, "upload-*.zip")
	if err != nil {
		s.logger.Error("Failed to create upload spool", "error", err)
		return nil, fmt.Errorf("failed to create upload spool: %w", err)
	}
	defer func() {
		_ = spool.Close()
		if err := os.Remove(spool.Name()); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("Failed to remove upload spool", "path", spool.Name(), "error", err)
		}
	}()

	if _, err := io.Copy(spool, r); err != nil {
		s.logger.Error("Failed to spool upload", "testId", testID, "error", err)
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	if err := s.stager.Stage(spool.Name(), cleanup.WorkDir(s.unzipRoot, testID)); err != nil {
		s.logger.Warn("Failed to stage upload", "testId", testID, "filename", filename, "error", err)
		return nil, err
	}

	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind upload spool: %w", err)
	}
	blobID, err := s.files.Store(ctx, spool, filename, domain.BlobMeta{ContentType: zipContentType, TestID: &testID})
	if err != nil {
		s.logger.Error("Failed to store upload", "testId", testID, "error", err)
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	if err := s.tests.UpdateFile(ctx, testID, blobID); err != nil {
		s.logger.Error("Failed to attach upload to test", "testId", testID, "fileId", blobID, "error", err)
		s.discard(ctx, blobID)
		return nil, fmt.Errorf("failed to attach upload: %w", err)
	}
	if test.FileID != nil && *test.FileID != blobID {
		s.discard(ctx, *test.FileID)
	}

	infos, err := s.files.Query(ctx, domain.BlobQuery{Filter: domain.BlobFilter{IDs: []uuid.UUID{blobID}}})
	if err != nil || len(infos) == 0 {
		s.logger.Warn("Failed to read back stored upload", "fileId", blobID, "error", err)
		return &domain.BlobInfo{ID: blobID, Filename: filename, ContentType: zipContentType, TestID: &testID}, nil
	}

	s.logger.Info("Upload staged", "testId", testID, "fileId", blobID, "length", infos[0].Length)
	return infos[0], nil
}

func (s *FileService) discard(ctx context.Context, blobID uuid.UUID) {
	if err := s.files.DeleteMany(ctx, []uuid.UUID{blobID}); err != nil {
		s.logger.Warn("Failed to delete replaced upload", "fileId", blobID, "error", err)
	}
}
