package app

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/magneto-ui.net/internal/adapter/logging"
	"gitlab.com/magneto-ui.net/internal/core/services/cleanup"
	"gitlab.com/magneto-ui.net/internal/core/services/servicetest"
	"gitlab.com/magneto-ui.net/internal/static/errs"
)

type fixture struct {
	svc     *AppService
	db      *servicetest.DB
	tx      *servicetest.Tx
	files   *servicetest.Blobs
	results *servicetest.Blobs
	root    string
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		db:      servicetest.NewDB(),
		tx:      &servicetest.Tx{},
		files:   servicetest.NewBlobs(),
		results: servicetest.NewBlobs(),
		root:    t.TempDir(),
	}
	logger := logging.NewZapLoggerWithLevel("error")
	purger := cleanup.NewPurger(f.files, f.results, f.root, logger)
	f.svc = NewAppService(f.db.Apps(), f.db.Tests(), f.tx, purger, logger)
	return f
}

func TestCreate_StartsWithNoTests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	app, err := f.svc.Create(ctx, userID, " Demo ", "x")
	require.NoError(t, err)
	assert.Equal(t, "Demo", app.Name)
	assert.Empty(t, app.Tests)
	assert.Equal(t, 1, f.tx.Calls)

	apps, err := f.svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, app.ID, apps[0].ID)
	assert.Empty(t, apps[0].Tests)
}

func TestCreate_RejectsBlankFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, uuid.New(), "  ", "x")
	assert.ErrorIs(t, err, errs.NameRequired)

	_, err = f.svc.Create(ctx, uuid.New(), "Demo", "\t")
	assert.ErrorIs(t, err, errs.DescriptionEmpty)
	assert.Zero(t, f.tx.Calls)
}

func TestRenameAndDescription(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	app := f.db.AddApp(owner, "Demo")

	renamed, err := f.svc.Rename(ctx, owner, app.ID, "Renamed")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", renamed.Name)

	updated, err := f.svc.UpdateDescription(ctx, owner, app.ID, "new description")
	require.NoError(t, err)
	assert.Equal(t, "new description", updated.Description)

	_, err = f.svc.Rename(ctx, owner, app.ID, "")
	assert.ErrorIs(t, err, errs.NameRequired)
}

func TestOtherUsersAppIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	app := f.db.AddApp(uuid.New(), "Demo")
	stranger := uuid.New()

	_, err := f.svc.Rename(ctx, stranger, app.ID, "Mine")
	assert.ErrorIs(t, err, errs.ErrAppNotFound)

	_, err = f.svc.UpdateDescription(ctx, stranger, app.ID, "Mine")
	assert.ErrorIs(t, err, errs.ErrAppNotFound)

	err = f.svc.Delete(ctx, stranger, app.ID)
	assert.ErrorIs(t, err, errs.ErrAppNotFound)
	assert.NotNil(t, f.db.App(app.ID))
}

func TestDelete_CascadesTestsAndBlobs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	app := f.db.AddApp(owner, "Demo")
	other := f.db.AddApp(owner, "Other")

	fileID := f.files.Put(nil, "trace.zip", []byte("zip"), time.Now())
	first := f.db.AddTest(app, "t1", &fileID)
	second := f.db.AddTest(app, "t2", nil)
	report := f.results.Put(&second.ID, "report.pdf", []byte("pdf"), time.Now())
	survivor := f.db.AddTest(other, "t3", nil)
	require.NoError(t, os.MkdirAll(cleanup.WorkDir(f.root, first.ID), 0o755))

	require.NoError(t, f.svc.Delete(ctx, owner, app.ID))

	assert.Nil(t, f.db.App(app.ID))
	assert.Nil(t, f.db.Test(first.ID))
	assert.Nil(t, f.db.Test(second.ID))
	assert.NotNil(t, f.db.Test(survivor.ID))
	assert.False(t, f.files.Has(fileID))
	assert.False(t, f.results.Has(report))
	assert.NoDirExists(t, cleanup.WorkDir(f.root, first.ID))

	apps, err := f.svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, other.ID, apps[0].ID)
}

func TestDelete_BlobFailureStillDeletesRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	app := f.db.AddApp(owner, "Demo")
	fileID := f.files.Put(nil, "trace.zip", []byte("zip"), time.Now())
	test := f.db.AddTest(app, "t1", &fileID)
	f.files.DeleteErr = assert.AnError

	require.NoError(t, f.svc.Delete(ctx, owner, app.ID))
	assert.Nil(t, f.db.App(app.ID))
	assert.Nil(t, f.db.Test(test.ID))
	assert.True(t, f.files.Has(fileID))
}
