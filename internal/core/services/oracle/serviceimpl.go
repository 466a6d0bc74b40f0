package oracle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/core/ports/secondary"
	"gitlab.com/magneto-ui.net/internal/core/services/cleanup"
	"gitlab.com/magneto-ui.net/internal/domain"
	"gitlab.com/magneto-ui.net/internal/static/errs"
)

const reportContentType = "application/pdf"

var _ IOracleService = (*OracleService)(nil)

type OracleService struct {
	tests     secondary.TestRepository
	results   secondary.BlobStore
	copier    secondary.DependencyCopier
	runner    secondary.ScriptRunner
	lock      secondary.RunLock
	unzipRoot string
	logger    primary.Logger
}

func NewOracleService(
	tests secondary.TestRepository,
	results secondary.BlobStore,
	copier secondary.DependencyCopier,
	runner secondary.ScriptRunner,
	lock secondary.RunLock,
	unzipRoot string,
	logger primary.Logger,
) *OracleService {
	return &OracleService{
		tests:     tests,
		results:   results,
		copier:    copier,
		runner:    runner,
		lock:      lock,
		unzipRoot: unzipRoot,
		logger:    logger,
	}
}

func (s *OracleService) Definitions() []domain.OracleDefinition {
	return domain.OracleDefinitions()
}

func (s *OracleService) Run(ctx context.Context, userID uuid.UUID, oracle string, req domain.RunRequest) (string, error) {
	def, ok := domain.LookupOracle(oracle)
	if !ok {
		return "", fmt.Errorf("%w: %q", errs.ErrUnknownOracle, oracle)
	}
	if req.TestID == uuid.Nil {
		return "", errs.TestIDRequired
	}

	test, err := s.tests.Get(ctx, req.TestID)
	if err != nil {
		s.logger.Error("Failed to get test", "testId", req.TestID, "error", err)
		return "", fmt.Errorf("failed to get test: %w", err)
	}
	if test == nil || test.UserID != userID {
		return "", errs.ErrTestNotFound
	}

	release, err := s.lock.Acquire(ctx, test.ID.String())
	if err != nil {
		s.logger.Warn("Oracle run rejected", "testId", test.ID, "oracle", def.Type, "error", err)
		return "", err
	}
	defer release()

	extracted, err := s.extractedDir(test.ID)
	if err != nil {
		return "", err
	}

	workDir := filepath.Join(extracted, def.WorkingSubdir)
	if err := s.copier.CopyDependencies(def, workDir); err != nil {
		return "", err
	}

	s.logger.Info("Running oracle", "testId", test.ID, "oracle", def.Type)
	output, err := s.runner.Run(ctx, domain.ScriptSpec{
		Script: def.Script,
		Args:   []string{"-a", req.ArgA, "-b", req.ArgB, "--unzip-dir", extracted},
		Dir:    workDir,
	})
	if err != nil {
		s.logger.Warn("Oracle run failed", "testId", test.ID, "oracle", def.Type, "error", err)
		return "", err
	}

	if _, err := s.tests.Complete(ctx, test.ID, domain.TestCompletion{
		Result: output,
		Status: domain.TestStatusCompleted,
	}); err != nil {
		s.logger.Error("Failed to record oracle result", "testId", test.ID, "error", err)
		return "", fmt.Errorf("failed to record result: %w", err)
	}

	s.storeReports(ctx, test.ID, workDir)
	s.logger.Info("Oracle run completed", "testId", test.ID, "oracle", def.Type)
	return output, nil
}

// extractedDir returns the absolute path of a test's extracted trace
func (s *OracleService) extractedDir(testID uuid.UUID) (string, error) {
	dir, err := filepath.Abs(cleanup.WorkDir(s.unzipRoot, testID))
	if err != nil {
		return "", fmt.Errorf("failed to resolve unzipped dir: %w", err)
	}
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.IsDir()) {
		return "", fmt.Errorf("%w: %s", errs.ErrUnzippedDirNotFound, dir)
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat unzipped dir: %w", err)
	}
	return dir, nil
}

// storeReports moves the PDF reports a script left in workDir into the results bucket
func (s *OracleService) storeReports(ctx context.Context, testID uuid.UUID, workDir string) {
	reports, err := filepath.Glob(filepath.Join(workDir, "*.pdf"))
	if err != nil {
		s.logger.Warn("Failed to list reports", "testId", testID, "error", err)
		return
	}
	for _, path := range reports {
		if err := s.storeReport(ctx, testID, path); err != nil {
			s.logger.Error("Failed to store report", "testId", testID, "report", path, "error", err)
			continue
		}
		if err := os.Remove(path); err != nil {
			s.logger.Warn("Failed to remove stored report", "report", path, "error", err)
		}
	}
}

func (s *OracleService) storeReport(ctx context.Context, testID uuid.UUID, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	id, err := s.results.Store(ctx, f, filepath.Base(path), domain.BlobMeta{ContentType: reportContentType, TestID: &testID})
	if err != nil {
		return err
	}
	s.logger.Debug("Stored report", "testId", testID, "resultId", id)
	return nil
}
