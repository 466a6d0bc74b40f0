package apprepository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/magneto-ui.net/internal/adapter/logging"
	"gitlab.com/magneto-ui.net/internal/domain"
)

var appCols = []string{"id", "user_id", "name", "description", "created_at", "updated_at"}

func newRepo(t *testing.T) (*appRepo, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	return New(sqlx.NewDb(raw, "postgres"), logging.NewZapLoggerWithLevel("error"), "public").(*appRepo), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newRepo(t)
	app := domain.NewApp(uuid.New(), "Calc", "A calculator")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO public.apps (id, user_id, name, description, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)")).
		WithArgs(app.ID.String(), app.UserID.String(), "Calc", "A calculator", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), app))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByUser_AttachesTestIDs(t *testing.T) {
	repo, mock := newRepo(t)
	userID := uuid.New()
	app1, app2 := uuid.New(), uuid.New()
	test1, test2 := uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, name, description, created_at, updated_at FROM public.apps WHERE user_id = $1 ORDER BY created_at ASC")).
		WithArgs(userID.String()).
		WillReturnRows(sqlmock.NewRows(appCols).
			AddRow(app1.String(), userID.String(), "one", "first", now, now).
			AddRow(app2.String(), userID.String(), "two", "second", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, app_id FROM public.tests WHERE app_id = ANY($1) ORDER BY created_at ASC")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "app_id"}).
			AddRow(test1.String(), app1.String()).
			AddRow(test2.String(), app1.String()))

	apps, err := repo.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, []uuid.UUID{test1, test2}, apps[0].Tests)
	assert.Equal(t, []uuid.UUID{}, apps[1].Tests)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByUser_EmptySkipsTestQuery(t *testing.T) {
	repo, mock := newRepo(t)
	userID := uuid.New()

	mock.ExpectQuery("FROM public.apps").WillReturnRows(sqlmock.NewRows(appCols))

	apps, err := repo.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, apps)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_NotFound(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("FROM public.apps WHERE id").WillReturnRows(sqlmock.NewRows(appCols))

	app, err := repo.Get(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, app)
}

func TestUpdateName_ReturnsUpdatedRow(t *testing.T) {
	repo, mock := newRepo(t)
	appID, userID := uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE public.apps SET name = $1, updated_at = $2 WHERE id = $3 RETURNING id, user_id, name, description, created_at, updated_at")).
		WithArgs("renamed", sqlmock.AnyArg(), appID.String()).
		WillReturnRows(sqlmock.NewRows(appCols).AddRow(appID.String(), userID.String(), "renamed", "d", now, now))
	mock.ExpectQuery("FROM public.tests").WillReturnRows(sqlmock.NewRows([]string{"id", "app_id"}))

	app, err := repo.UpdateName(context.Background(), appID, "renamed")
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, "renamed", app.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByUser(t *testing.T) {
	repo, mock := newRepo(t)
	userID := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM public.apps WHERE user_id = $1")).
		WithArgs(userID.String()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.DeleteByUser(context.Background(), userID))
	require.NoError(t, mock.ExpectationsWereMet())
}
