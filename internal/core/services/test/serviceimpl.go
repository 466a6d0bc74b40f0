package test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/core/ports/secondary"
	"gitlab.com/magneto-ui.net/internal/core/services/cleanup"
	"gitlab.com/magneto-ui.net/internal/domain"
	"gitlab.com/magneto-ui.net/internal/static/errs"
)

const maxNotesLength = 10000

var _ ITestService = (*TestService)(nil)

type TestService struct {
	apps    secondary.AppRepository
	tests   secondary.TestRepository
	files   secondary.BlobStore
	results secondary.BlobStore
	tx      secondary.Transactor
	lock    secondary.RunLock
	purger  *cleanup.Purger
	logger  primary.Logger
}

func NewTestService(
	apps secondary.AppRepository,
	tests secondary.TestRepository,
	files secondary.BlobStore,
	results secondary.BlobStore,
	tx secondary.Transactor,
	lock secondary.RunLock,
	purger *cleanup.Purger,
	logger primary.Logger,
) *TestService {
	return &TestService{
		apps:    apps,
		tests:   tests,
		files:   files,
		results: results,
		tx:      tx,
		lock:    lock,
		purger:  purger,
		logger:  logger,
	}
}

func (s *TestService) Create(ctx context.Context, userID, appID uuid.UUID, req CreateTestRequest) (*domain.Test, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errs.NameRequired
	}
	def, ok := domain.LookupOracle(req.Oracle)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrUnknownOracle, req.Oracle)
	}

	var test *domain.Test
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		app, err := s.apps.Get(ctx, appID)
		if err != nil {
			return fmt.Errorf("failed to get app: %w", err)
		}
		if app == nil || app.UserID != userID {
			return errs.ErrAppNotFound
		}

		test = domain.NewTest(app, name, def.DisplayName, nil)
		return s.tests.Create(ctx, test)
	})
	if err != nil {
		s.logger.Error("Failed to create test", "appId", appID, "error", err)
		return nil, err
	}

	s.logger.Info("Test created", "testId", test.ID, "appId", appID, "oracle", def.Type)
	return test, nil
}

func (s *TestService) ListByApp(ctx context.Context, userID, appID uuid.UUID) ([]*domain.Test, error) {
	app, err := s.apps.Get(ctx, appID)
	if err != nil {
		s.logger.Error("Failed to get app", "appId", appID, "error", err)
		return nil, fmt.Errorf("failed to get app: %w", err)
	}
	if app == nil || app.UserID != userID {
		return nil, errs.ErrAppNotFound
	}

	tests, err := s.tests.ListByApp(ctx, appID)
	if err != nil {
		s.logger.Error("Failed to list tests", "appId", appID, "error", err)
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}
	return tests, nil
}

func (s *TestService) UpdateNotes(ctx context.Context, userID, testID uuid.UUID, notes string) (*domain.Test, error) {
	if utf8.RuneCountInString(notes) > maxNotesLength {
		return nil, errs.NotesTooLong
	}
	if _, err := s.owned(ctx, userID, testID); err != nil {
		return nil, err
	}

	test, err := s.tests.UpdateNotes(ctx, testID, notes)
	if err != nil {
		s.logger.Error("Failed to update notes", "testId", testID, "error", err)
		return nil, fmt.Errorf("failed to update notes: %w", err)
	}
	if test == nil {
		return nil, errs.ErrTestNotFound
	}
	return test, nil
}

// Delete waits for no running oracle: a held run lock fails with errs.ErrRunInProgress
func (s *TestService) Delete(ctx context.Context, userID, testID uuid.UUID) error {
	if _, err := s.owned(ctx, userID, testID); err != nil {
		return err
	}
	release, err := s.lock.Acquire(ctx, testID.String())
	if err != nil {
		s.logger.Warn("Test deletion rejected", "testId", testID, "error", err)
		return err
	}
	defer release()

	var deleted *domain.Test
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		test, err := s.owned(ctx, userID, testID)
		if err != nil {
			return err
		}
		if err := s.tests.Delete(ctx, testID); err != nil {
			return fmt.Errorf("failed to delete test: %w", err)
		}
		deleted = test
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Test deleted", "testId", testID)
	s.purger.Purge(ctx, []*domain.Test{deleted})
	return nil
}

func (s *TestService) DownloadResult(ctx context.Context, userID, testID uuid.UUID) (*domain.BlobInfo, io.ReadCloser, error) {
	if _, err := s.owned(ctx, userID, testID); err != nil {
		return nil, nil, err
	}

	latest, err := s.results.Query(ctx, domain.BlobQuery{
		Filter:      domain.BlobFilter{TestID: &testID},
		NewestFirst: true,
		Limit:       1,
	})
	if err != nil {
		s.logger.Error("Failed to query results", "testId", testID, "error", err)
		return nil, nil, fmt.Errorf("failed to query results: %w", err)
	}
	if len(latest) == 0 {
		return nil, nil, errs.ErrNoResult
	}
	return s.results.Retrieve(ctx, latest[0].ID)
}

func (s *TestService) DownloadInput(ctx context.Context, userID, testID uuid.UUID) (*domain.BlobInfo, io.ReadCloser, error) {
	test, err := s.owned(ctx, userID, testID)
	if err != nil {
		return nil, nil, err
	}
	if test.FileID == nil {
		return nil, nil, errs.ErrBlobNotFound
	}
	return s.files.Retrieve(ctx, *test.FileID)
}

func (s *TestService) owned(ctx context.Context, userID, testID uuid.UUID) (*domain.Test, error) {
	test, err := s.tests.Get(ctx, testID)
	if err != nil {
		s.logger.Error("Failed to get test", "testId", testID, "error", err)
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	if test == nil || test.UserID != userID {
		return nil, errs.ErrTestNotFound
	}
	return test, nil
}
