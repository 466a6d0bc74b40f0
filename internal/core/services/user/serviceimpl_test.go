package user

import (
	"context"
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

func TestDelete_CascadesEverythingOwned(t *testing.T) {
	db := servicetest.NewDB()
	files, results := servicetest.NewBlobs(), servicetest.NewBlobs()
	logger := logging.NewZapLoggerWithLevel("error")
	svc := NewUserService(db.Users(), db.Apps(), db.Tests(), &servicetest.Tx{},
		cleanup.NewPurger(files, results, t.TempDir(), logger), logger)
	ctx := context.Background()

	user := db.AddUser("ada@example.com")
	other := db.AddUser("bob@example.com")
	app := db.AddApp(user.ID, "Demo")
	fileID := files.Put(nil, "trace.zip", []byte("zip"), time.Now())
	test := db.AddTest(app, "t1", &fileID)
	report := results.Put(&test.ID, "report.pdf", []byte("pdf"), time.Now())
	otherApp := db.AddApp(other.ID, "Theirs")

	require.NoError(t, svc.Delete(ctx, user.ID))

	assert.Nil(t, db.User(user.ID))
	assert.Nil(t, db.App(app.ID))
	assert.Nil(t, db.Test(test.ID))
	assert.False(t, files.Has(fileID))
	assert.False(t, results.Has(report))
	assert.NotNil(t, db.User(other.ID))
	assert.NotNil(t, db.App(otherApp.ID))
}

func TestDelete_UnknownUser(t *testing.T) {
	db := servicetest.NewDB()
	logger := logging.NewZapLoggerWithLevel("error")
	svc := NewUserService(db.Users(), db.Apps(), db.Tests(), &servicetest.Tx{},
		cleanup.NewPurger(servicetest.NewBlobs(), servicetest.NewBlobs(), t.TempDir(), logger), logger)

	assert.ErrorIs(t, svc.Delete(context.Background(), uuid.New()), errs.ErrUserNotFound)
	_, err := svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, errs.ErrUserNotFound)
}
