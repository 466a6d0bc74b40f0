package apprepository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"gitlab.com/magneto-ui.net/internal/adapter/postgres/dbx"
	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/core/ports/secondary"
	"gitlab.com/magneto-ui.net/internal/domain"
	querybuilder "gitlab.com/magneto-ui.net/internal/utils"
)

var _ secondary.AppRepository = (*appRepo)(nil)

type appRepo struct {
	db     *sqlx.DB
	logger primary.Logger
	schema string
}

func New(db *sqlx.DB, logger primary.Logger, schema string) secondary.AppRepository {
	return &appRepo{db: db, logger: logger, schema: schema}
}

func (r *appRepo) Create(ctx context.Context, app *domain.App) error {
	appTbl := domain.GetAppTable()
	query, args := querybuilder.NewQueryBuilder(r.schema).
		Insert(appTbl.Columns()...).
		Into(appTbl.GetTableName()).
		Values(app.ID, app.UserID, app.Name, app.Description, app.CreatedAt, app.UpdatedAt).
		Build()

	query = sqlx.Rebind(sqlx.DOLLAR, query)
	if _, err := dbx.Conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to insert app", "appID", app.ID, "error", err)
		return fmt.Errorf("failed to insert app: %w", err)
	}
	return nil
}

func (r *appRepo) Get(ctx context.Context, appID uuid.UUID) (*domain.App, error) {
	appTbl := domain.GetAppTable()
	query, args := querybuilder.NewQueryBuilder(r.schema).
		Select(appTbl.Columns()...).
		From(appTbl.GetTableName()).
		Where(fmt.Sprintf("%s = ?", appTbl.ID), appID).
		Build()

	query = sqlx.Rebind(sqlx.DOLLAR, query)
	var app domain.App
	if err := dbx.Conn(ctx, r.db).GetContext(ctx, &app, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get app", "appID", appID, "error", err)
		return nil, fmt.Errorf("failed to get app: %w", err)
	}

	if err := r.attachTests(ctx, []*domain.App{&app}); err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *appRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.App, error) {
	appTbl := domain.GetAppTable()
	query, args := querybuilder.NewQueryBuilder(r.schema).
		Select(appTbl.Columns()...).
		From(appTbl.GetTableName()).
		Where(fmt.Sprintf("%s = ?", appTbl.UserID), userID).
		OrderBy(appTbl.CreatedAt, true).
		Build()

	query = sqlx.Rebind(sqlx.DOLLAR, query)
	apps := make([]*domain.App, 0)
	if err := dbx.Conn(ctx, r.db).SelectContext(ctx, &apps, query, args...); err != nil {
		r.logger.Error("Failed to list apps", "userID", userID, "error", err)
		return nil, fmt.Errorf("failed to list apps: %w", err)
	}

	if err := r.attachTests(ctx, apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// attachTests fills App.Tests with the ids of each app's tests in creation order
func (r *appRepo) attachTests(ctx context.Context, apps []*domain.App) error {
	if len(apps) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*domain.App, len(apps))
	ids := make([]uuid.UUID, 0, len(apps))
	for _, app := range apps {
		app.Tests = []uuid.UUID{}
		byID[app.ID] = app
		ids = append(ids, app.ID)
	}

	testTbl := domain.GetTestTable()
	query, args := querybuilder.NewQueryBuilder(r.schema).
		Select(testTbl.ID, testTbl.AppID).
		From(testTbl.GetTableName()).
		Where(fmt.Sprintf("%s = ANY(?)", testTbl.AppID), dbx.UUIDArray(ids)).
		OrderBy(testTbl.CreatedAt, true).
		Build()

	query = sqlx.Rebind(sqlx.DOLLAR, query)
	var rows []struct {
		ID    uuid.UUID `db:"id"`
		AppID uuid.UUID `db:"app_id"`
	}
	if err := dbx.Conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.Error("Failed to list app tests", "error", err)
		return fmt.Errorf("failed to list app tests: %w", err)
	}
	for _, row := range rows {
		if app, ok := byID[row.AppID]; ok {
			app.Tests = append(app.Tests, row.ID)
		}
	}
	return nil
}

func (r *appRepo) UpdateName(ctx context.Context, appID uuid.UUID, name string) (*domain.App, error) {
	return r.update(ctx, appID, domain.GetAppTable().Name, name)
}

func (r *appRepo) UpdateDescription(ctx context.Context, appID uuid.UUID, description string) (*domain.App, error) {
	return r.update(ctx, appID, domain.GetAppTable().Description, description)
}

func (r *appRepo) update(ctx context.Context, appID uuid.UUID, col string, value string) (*domain.App, error) {
	appTbl := domain.GetAppTable()
	query, args := querybuilder.NewQueryBuilder(r.schema).
		Update(appTbl.GetTableName(), querybuilder.UpdateData{
			col:              value,
			appTbl.UpdatedAt: time.Now().UTC(),
		}).
		Where(fmt.Sprintf("%s = ?", appTbl.ID), appID).
		Returning(appTbl.Columns()...).
		Build()

	query = sqlx.Rebind(sqlx.DOLLAR, query)
	var app domain.App
	if err := dbx.Conn(ctx, r.db).GetContext(ctx, &app, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to update app", "appID", appID, "column", col, "error", err)
		return nil, fmt.Errorf("failed to update app: %w", err)
	}

	if err := r.attachTests(ctx, []*domain.App{&app}); err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *appRepo) Delete(ctx context.Context, appID uuid.UUID) error {
	return r.deleteWhere(ctx, domain.GetAppTable().ID, appID)
}

func (r *appRepo) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.deleteWhere(ctx, domain.GetAppTable().UserID, userID)
}

func (r *appRepo) deleteWhere(ctx context.Context, col string, id uuid.UUID) error {
	appTbl := domain.GetAppTable()
	query, args := querybuilder.NewQueryBuilder(r.schema).
		Delete(appTbl.GetTableName()).
		Where(fmt.Sprintf("%s = ?", col), id).
		Build()

	query = sqlx.Rebind(sqlx.DOLLAR, query)
	if _, err := dbx.Conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to delete apps", "by", col, "id", id, "error", err)
		return fmt.Errorf("failed to delete apps: %w", err)
	}
	return nil
}
