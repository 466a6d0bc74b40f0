package oracle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/magneto-ui.net/internal/adapter/executor"
	"gitlab.com/magneto-ui.net/internal/adapter/filesystem"
	"gitlab.com/magneto-ui.net/internal/adapter/logging"
	"gitlab.com/magneto-ui.net/internal/adapter/memory"
	"gitlab.com/magneto-ui.net/internal/core/services/cleanup"
	"gitlab.com/magneto-ui.net/internal/core/services/servicetest"
	"gitlab.com/magneto-ui.net/internal/domain"
	"gitlab.com/magneto-ui.net/internal/static/errs"
)

type fixture struct {
	svc     *OracleService
	db      *servicetest.DB
	results *servicetest.Blobs
	lock    *memory.RunLock
	library string
	root    string
	owner   uuid.UUID
	test    *domain.Test
}

func newFixture(t *testing.T, timeout time.Duration) *fixture {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts stand in for oracle scripts")
	}
	f := &fixture{
		db:      servicetest.NewDB(),
		results: servicetest.NewBlobs(),
		lock:    memory.NewRunLock(time.Minute),
		library: t.TempDir(),
		root:    t.TempDir(),
		owner:   uuid.New(),
	}
	f.test = f.db.AddTest(f.db.AddApp(f.owner, "Demo"), "t1", nil)

	logger := logging.NewZapLoggerWithLevel("error")
	f.svc = NewOracleService(
		f.db.Tests(),
		f.results,
		filesystem.NewCopier(f.library, logger),
		executor.NewRunner([]string{"sh"}, timeout, logger),
		f.lock,
		f.root,
		logger,
	)
	return f
}

// script installs body as the theme-check oracle in the library
func (f *fixture) script(t *testing.T, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.library, "theme_check_oracle.py"), []byte(body), 0o755))
}

func (f *fixture) extract(t *testing.T) string {
	t.Helper()
	dir := cleanup.WorkDir(f.root, f.test.ID)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	return dir
}

func (f *fixture) request() domain.RunRequest {
	return domain.RunRequest{ArgA: "12", ArgB: "1", TestID: f.test.ID}
}

func TestRun_SuccessCompletesTest(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.script(t, "echo OK\n")
	f.extract(t)

	out, err := f.svc.Run(context.Background(), f.owner, "theme-check", f.request())
	require.NoError(t, err)
	assert.Equal(t, "OK", out)

	stored := f.db.Test(f.test.ID)
	assert.Equal(t, domain.TestStatusCompleted, stored.Status)
	assert.Equal(t, "OK", stored.Result)
}

func TestRun_FailureLeavesTestPending(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.script(t, "echo boom >&2\nexit 1\n")
	f.extract(t)

	_, err := f.svc.Run(context.Background(), f.owner, "Theme Check", f.request())
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())

	stored := f.db.Test(f.test.ID)
	assert.Equal(t, domain.TestStatusPending, stored.Status)
	assert.Empty(t, stored.Result)
}

func TestRun_PassesArgumentsAndStagesDependencies(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.script(t, `test -f oracle_utils.py || exit 7`+"\n"+`echo "$@"`+"\n")
	require.NoError(t, os.WriteFile(filepath.Join(f.library, "oracle_utils.py"), []byte("# utils"), 0o644))
	dir := f.extract(t)

	out, err := f.svc.Run(context.Background(), f.owner, "theme-check", f.request())
	require.NoError(t, err)

	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, "-a 12 -b 1 --unzip-dir "+abs, out)
	assert.FileExists(t, filepath.Join(dir, "theme_check", "oracle_utils.py"))
}

func TestRun_BlankArgumentsArePassedThrough(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.script(t, `printf '[%s]' "$@"`+"\n")
	dir := f.extract(t)

	out, err := f.svc.Run(context.Background(), f.owner, "theme-check", domain.RunRequest{TestID: f.test.ID})
	require.NoError(t, err)

	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, "[-a][][-b][][--unzip-dir]["+abs+"]", out)
}

func TestRun_MissingExtractedDir(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.script(t, "echo OK\n")

	_, err := f.svc.Run(context.Background(), f.owner, "theme-check", f.request())
	assert.ErrorIs(t, err, errs.ErrUnzippedDirNotFound)
	assert.Equal(t, domain.TestStatusPending, f.db.Test(f.test.ID).Status)
}

func TestRun_ConcurrentRunIsRejected(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.script(t, "echo OK\n")
	f.extract(t)

	release, err := f.lock.Acquire(context.Background(), f.test.ID.String())
	require.NoError(t, err)

	_, err = f.svc.Run(context.Background(), f.owner, "theme-check", f.request())
	assert.ErrorIs(t, err, errs.ErrRunInProgress)

	release()
	_, err = f.svc.Run(context.Background(), f.owner, "theme-check", f.request())
	assert.NoError(t, err)
}

func TestRun_TimeoutKillsScript(t *testing.T) {
	f := newFixture(t, 200*time.Millisecond)
	f.script(t, "sleep 30\n")
	f.extract(t)

	started := time.Now()
	_, err := f.svc.Run(context.Background(), f.owner, "theme-check", f.request())
	assert.ErrorIs(t, err, errs.ErrScriptTimeout)
	assert.Less(t, time.Since(started), 10*time.Second)
	assert.Equal(t, domain.TestStatusPending, f.db.Test(f.test.ID).Status)
}

func TestRun_StoresReports(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.script(t, "printf '%%PDF-1.4' > report.pdf\necho OK\n")
	dir := f.extract(t)

	_, err := f.svc.Run(context.Background(), f.owner, "theme-check", f.request())
	require.NoError(t, err)

	infos, err := f.results.Query(context.Background(), domain.BlobQuery{Filter: domain.BlobFilter{TestID: &f.test.ID}})
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "report.pdf", infos[0].Filename)
	assert.Equal(t, "application/pdf", infos[0].ContentType)
	assert.NoFileExists(t, filepath.Join(dir, "theme_check", "report.pdf"))
}

func TestRun_Validation(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()

	_, err := f.svc.Run(ctx, f.owner, "contrast", f.request())
	assert.ErrorIs(t, err, errs.ErrUnknownOracle)

	_, err = f.svc.Run(ctx, f.owner, "theme-check", domain.RunRequest{ArgA: "1", ArgB: "1"})
	assert.ErrorIs(t, err, errs.TestIDRequired)

	_, err = f.svc.Run(ctx, uuid.New(), "theme-check", f.request())
	assert.True(t, errors.Is(err, errs.ErrTestNotFound))
}
