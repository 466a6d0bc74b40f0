package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/core/ports/secondary"
	"gitlab.com/magneto-ui.net/internal/core/services/cleanup"
	"gitlab.com/magneto-ui.net/internal/domain"
	"gitlab.com/magneto-ui.net/internal/static/errs"
)

var _ IAppService = (*AppService)(nil)

type AppService struct {
	apps   secondary.AppRepository
	tests  secondary.TestRepository
	tx     secondary.Transactor
	purger *cleanup.Purger
	logger primary.Logger
}

func NewAppService(
	apps secondary.AppRepository,
	tests secondary.TestRepository,
	tx secondary.Transactor,
	purger *cleanup.Purger,
	logger primary.Logger,
) *AppService {
	return &AppService{
		apps:   apps,
		tests:  tests,
		tx:     tx,
		purger: purger,
		logger: logger,
	}
}

func (s *AppService) Create(ctx context.Context, userID uuid.UUID, name, description string) (*domain.App, error) {
	name, description = strings.TrimSpace(name), strings.TrimSpace(description)
	if name == "" {
		return nil, errs.NameRequired
	}
	if description == "" {
		return nil, errs.DescriptionEmpty
	}

	app := domain.NewApp(userID, name, description)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.apps.Create(ctx, app)
	})
	if err != nil {
		s.logger.Error("Failed to create app", "userId", userID, "error", err)
		return nil, fmt.Errorf("failed to create app: %w", err)
	}

	s.logger.Info("App created", "appId", app.ID, "userId", userID)
	return app, nil
}

func (s *AppService) List(ctx context.Context, userID uuid.UUID) ([]*domain.App, error) {
	apps, err := s.apps.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list apps", "userId", userID, "error", err)
		return nil, fmt.Errorf("failed to list apps: %w", err)
	}
	return apps, nil
}

func (s *AppService) Rename(ctx context.Context, userID, appID uuid.UUID, name string) (*domain.App, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.NameRequired
	}
	if _, err := s.owned(ctx, userID, appID); err != nil {
		return nil, err
	}

	app, err := s.apps.UpdateName(ctx, appID, name)
	if err != nil {
		s.logger.Error("Failed to rename app", "appId", appID, "error", err)
		return nil, fmt.Errorf("failed to rename app: %w", err)
	}
	if app == nil {
		return nil, errs.ErrAppNotFound
	}
	return app, nil
}

func (s *AppService) UpdateDescription(ctx context.Context, userID, appID uuid.UUID, description string) (*domain.App, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, errs.DescriptionEmpty
	}
	if _, err := s.owned(ctx, userID, appID); err != nil {
		return nil, err
	}

	app, err := s.apps.UpdateDescription(ctx, appID, description)
	if err != nil {
		s.logger.Error("Failed to update app description", "appId", appID, "error", err)
		return nil, fmt.Errorf("failed to update app description: %w", err)
	}
	if app == nil {
		return nil, errs.ErrAppNotFound
	}
	return app, nil
}

func (s *AppService) Delete(ctx context.Context, userID, appID uuid.UUID) error {
	var deleted []*domain.Test
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.owned(ctx, userID, appID); err != nil {
			return err
		}

		tests, err := s.tests.ListByApp(ctx, appID)
		if err != nil {
			return fmt.Errorf("failed to list tests: %w", err)
		}
		if err := s.tests.DeleteByApp(ctx, appID); err != nil {
			return fmt.Errorf("failed to delete tests: %w", err)
		}
		if err := s.apps.Delete(ctx, appID); err != nil {
			return fmt.Errorf("failed to delete app: %w", err)
		}
		deleted = tests
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("App deleted", "appId", appID, "tests", len(deleted))
	s.purger.Purge(ctx, deleted)
	return nil
}

func (s *AppService) owned(ctx context.Context, userID, appID uuid.UUID) (*domain.App, error) {
	app, err := s.apps.Get(ctx, appID)
	if err != nil {
		s.logger.Error("Failed to get app", "appId", appID, "error", err)
		return nil, fmt.Errorf("failed to get app: %w", err)
	}
	if app == nil || app.UserID != userID {
		return nil, errs.ErrAppNotFound
	}
	return app, nil
}
