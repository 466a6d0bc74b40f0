package testrepository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"gitlab.com/magneto-ui.net/internal/adapter/postgres/dbx"
	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/core/ports/secondary"
	"gitlab.com/magneto-ui.net/internal/domain"
	"gitlab.com/magneto-ui.net/internal/static/errs"
	querybuilder "gitlab.com/magneto-ui.net/internal/utils"
)

var _ secondary.TestRepository = (*testRepo)(nil)

type testRepo struct {
	db     *sqlx.DB
	logger primary.Logger
	schema string
}

func New(db *sqlx.DB, logger primary.Logger, schema string) secondary.TestRepository {
	return &testRepo{db: db, logger: logger, schema: schema}
}

func (r *testRepo) qualify(table string) string {
	if r.schema == "" {
		return table
	}
	return r.schema + "." + table
}

func (r *testRepo) Create(ctx context.Context, test *domain.Test) error {
	tbl := domain.GetTestTable()
	query, args := querybuilder.NewQueryBuilder(r.schema).
		Insert(tbl.Columns()...).
		Into(tbl.GetTableName()).
		Values(
			test.ID, test.AppID, test.UserID, test.Name, test.Oracle,
			test.Status, test.Result, test.Notes, test.FileID, test.CreatedAt,
		).
		Build()

	query = sqlx.Rebind(sqlx.DOLLAR, query)
	if _, err := dbx.Conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to insert test", "testID", test.ID, "error", err)
		return fmt.Errorf("failed to insert test: %w", err)
	}
	return nil
}

func (r *testRepo) Get(ctx context.Context, testID uuid.UUID) (*domain.Test, error) {
	tbl := domain.GetTestTable()
	query, args := querybuilder.NewQueryBuilder(r.schema).
		Select(tbl.Columns()...).
		From(tbl.GetTableName()).
		Where(fmt.Sprintf("%s = ?", tbl.ID), testID).
		Build()

	query = sqlx.Rebind(sqlx.DOLLAR, query)
	var test domain.Test
	if err := dbx.Conn(ctx, r.db).GetContext(ctx, &test, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get test", "testID", testID, "error", err)
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	return &test, nil
}

// ListByApp left-joins the input file so fileName is set when a zip was uploaded
func (r *testRepo) ListByApp(ctx context.Context, appID uuid.UUID) ([]*domain.Test, error) {
	tbl := domain.GetTestTable()
	blobTbl := domain.GetBlobTable()

	cols := make([]string, 0, len(tbl.Columns())+1)
	for _, col := range tbl.Columns() {
		cols = append(cols, "t."+col)
	}
	cols = append(cols, fmt.Sprintf("f.%s AS file_name", blobTbl.Filename))

	query, args := querybuilder.NewQueryBuilder(r.schema).
		Select(cols...).
		From(tbl.GetTableName()+" t").
		Join(querybuilder.JoinTypeLeft, r.qualify(domain.BucketFiles.MetadataTable()), "f",
			fmt.Sprintf("f.%s = t.%s", blobTbl.ID, tbl.FileID)).
		Where(fmt.Sprintf("t.%s = ?", tbl.AppID), appID).
		OrderBy("t."+tbl.CreatedAt, true).
		Build()

	query = sqlx.Rebind(sqlx.DOLLAR, query)
	tests := make([]*domain.Test, 0)
	if err := dbx.Conn(ctx, r.db).SelectContext(ctx, &tests, query, args...); err != nil {
		r.logger.Error("Failed to list tests", "appID", appID, "error", err)
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}
	return tests, nil
}

func (r *testRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Test, error) {
	tbl := domain.GetTestTable()
	query, args := querybuilder.NewQueryBuilder(r.schema).
		Select(tbl.Columns()...).
		From(tbl.GetTableName()).
		Where(fmt.Sprintf("%s = ?", tbl.UserID), userID).
		Build()

	query = sqlx.Rebind(sqlx.DOLLAR, query)
	tests := make([]*domain.Test, 0)
	if err := dbx.Conn(ctx, r.db).SelectContext(ctx, &tests, query, args...); err != nil {
		r.logger.Error("Failed to list user tests", "userID", userID, "error", err)
		return nil, fmt.Errorf("failed to list user tests: %w", err)
	}
	return tests, nil
}

func (r *testRepo) UpdateNotes(ctx context.Context, testID uuid.UUID, notes string) (*domain.Test, error) {
	test, err := r.updateReturning(ctx, testID, querybuilder.UpdateData{domain.GetTestTable().Notes: notes})
	if err != nil {
		r.logger.Error("Failed to update test notes", "testID", testID, "error", err)
		return nil, fmt.Errorf("failed to update test notes: %w", err)
	}
	return test, nil
}

func (r *testRepo) UpdateFile(ctx context.Context, testID uuid.UUID, fileID uuid.UUID) error {
	tbl := domain.GetTestTable()
	query, args := querybuilder.NewQueryBuilder(r.schema).
		Update(tbl.GetTableName(), querybuilder.UpdateData{tbl.FileID: fileID}).
		Where(fmt.Sprintf("%s = ?", tbl.ID), testID).
		Build()

	query = sqlx.Rebind(sqlx.DOLLAR, query)
	res, err := dbx.Conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to set test file", "testID", testID, "error", err)
		return fmt.Errorf("failed to set test file: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.ErrTestNotFound
	}
	return nil
}

// Complete is a single unguarded update, the last writer wins
func (r *testRepo) Complete(ctx context.Context, testID uuid.UUID, completion domain.TestCompletion) (*domain.Test, error) {
	tbl := domain.GetTestTable()
	test, err := r.updateReturning(ctx, testID, querybuilder.UpdateData{
		tbl.Result: completion.Result,
		tbl.Status: completion.Status,
	})
	if err != nil {
		r.logger.Error("Failed to complete test", "testID", testID, "error", err)
		return nil, fmt.Errorf("failed to complete test: %w", err)
	}
	if test == nil {
		return nil, errs.ErrTestNotFound
	}
	return test, nil
}

func (r *testRepo) updateReturning(ctx context.Context, testID uuid.UUID, data querybuilder.UpdateData) (*domain.Test, error) {
	tbl := domain.GetTestTable()
	query, args := querybuilder.NewQueryBuilder(r.schema).
		Update(tbl.GetTableName(), data).
		Where(fmt.Sprintf("%s = ?", tbl.ID), testID).
		Returning(tbl.Columns()...).
		Build()

	query = sqlx.Rebind(sqlx.DOLLAR, query)
	var test domain.Test
	if err := dbx.Conn(ctx, r.db).GetContext(ctx, &test, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &test, nil
}

func (r *testRepo) Delete(ctx context.Context, testID uuid.UUID) error {
	return r.deleteWhere(ctx, domain.GetTestTable().ID, testID)
}

func (r *testRepo) DeleteByApp(ctx context.Context, appID uuid.UUID) error {
	return r.deleteWhere(ctx, domain.GetTestTable().AppID, appID)
}

func (r *testRepo) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.deleteWhere(ctx, domain.GetTestTable().UserID, userID)
}

func (r *testRepo) deleteWhere(ctx context.Context, col string, id uuid.UUID) error {
	tbl := domain.GetTestTable()
	query, args := querybuilder.NewQueryBuilder(r.schema).
		Delete(tbl.GetTableName()).
		Where(fmt.Sprintf("%s = ?", col), id).
		Build()

	query = sqlx.Rebind(sqlx.DOLLAR, query)
	if _, err := dbx.Conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to delete tests", "by", col, "id", id, "error", err)
		return fmt.Errorf("failed to delete tests: %w", err)
	}
	return nil
}

func (r *testRepo) ExistingIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	existing := make(map[uuid.UUID]bool, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}

	tbl := domain.GetTestTable()
	query, args := querybuilder.NewQueryBuilder(r.schema).
		Select(tbl.ID).
		From(tbl.GetTableName()).
		Where(fmt.Sprintf("%s = ANY(?)", tbl.ID), dbx.UUIDArray(ids)).
		Build()

	query = sqlx.Rebind(sqlx.DOLLAR, query)
	var found []uuid.UUID
	if err := dbx.Conn(ctx, r.db).SelectContext(ctx, &found, query, args...); err != nil {
		r.logger.Error("Failed to look up test ids", "error", err)
		return nil, fmt.Errorf("failed to look up test ids: %w", err)
	}
	for _, id := range found {
		existing[id] = true
	}
	return existing, nil
}
