package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/core/ports/secondary"
	"gitlab.com/magneto-ui.net/internal/core/services/cleanup"
	"gitlab.com/magneto-ui.net/internal/domain"
	"gitlab.com/magneto-ui.net/internal/static/errs"
)

var _ IUserService = (*UserService)(nil)

type UserService struct {
	users  secondary.UserPort
	apps   secondary.AppRepository
	tests  secondary.TestRepository
	tx     secondary.Transactor
	purger *cleanup.Purger
	logger primary.Logger
}

func NewUserService(
	users secondary.UserPort,
	apps secondary.AppRepository,
	tests secondary.TestRepository,
	tx secondary.Transactor,
	purger *cleanup.Purger,
	logger primary.Logger,
) *UserService {
	return &UserService{
		users:  users,
		apps:   apps,
		tests:  tests,
		tx:     tx,
		purger: purger,
		logger: logger,
	}
}

func (s *UserService) Get(ctx context.Context, userID uuid.UUID) (*domain.Users, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to get user", "userId", userID, "error", err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, errs.ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, userID uuid.UUID) error {
	var deleted []*domain.Test
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.Get(ctx, userID); err != nil {
			return err
		}

		tests, err := s.tests.ListByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to list tests: %w", err)
		}
		if err := s.tests.DeleteByUser(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete tests: %w", err)
		}
		if err := s.apps.DeleteByUser(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete apps: %w", err)
		}
		if err := s.users.Delete(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		deleted = tests
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("User deleted", "userId", userID, "tests", len(deleted))
	s.purger.Purge(ctx, deleted)
	return nil
}
