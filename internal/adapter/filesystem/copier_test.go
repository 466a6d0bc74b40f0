package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/magneto-ui.net/internal/adapter/logging"
	"gitlab.com/magneto-ui.net/internal/domain"
)

func newLibrary(t *testing.T) string {
	t.Helper()
	lib := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(lib, "theme_check_oracle.py"), []byte("print('OK')"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(lib, "Pipfile"), []byte("[packages]"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(lib, "models", "theme"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(lib, "models", "theme", "weights.bin"), []byte{1, 2, 3}, 0o644))
	return lib
}

func TestCopyDependencies_CopiesByBasenameAndSkipsMissing(t *testing.T) {
	lib := newLibrary(t)
	work := filepath.Join(t.TempDir(), "42", "theme_check")
	c := NewCopier(lib, logging.NewZapLoggerWithLevel("error"))

	def := domain.OracleDefinition{
		Type:         domain.OracleThemeCheck,
		Dependencies: []string{"theme_check_oracle.py", "Pipfile", "Pipfile.lock", "models/theme"},
	}
	require.NoError(t, c.CopyDependencies(def, work))

	assert.FileExists(t, filepath.Join(work, "theme_check_oracle.py"))
	assert.FileExists(t, filepath.Join(work, "Pipfile"))
	assert.NoFileExists(t, filepath.Join(work, "Pipfile.lock"))
	assert.FileExists(t, filepath.Join(work, "theme", "weights.bin"))

	// the library is left untouched
	assert.FileExists(t, filepath.Join(lib, "Pipfile"))
	_, err := os.Stat(filepath.Join(lib, "Pipfile.lock"))
	assert.True(t, os.IsNotExist(err))
}

func TestCopyDependencies_OverwritesStaleCopies(t *testing.T) {
	lib := newLibrary(t)
	work := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(work, "Pipfile"), []byte("stale"), 0o644))

	c := NewCopier(lib, logging.NewZapLoggerWithLevel("error"))
	require.NoError(t, c.CopyDependencies(domain.OracleDefinition{Dependencies: []string{"Pipfile"}}, work))

	data, err := os.ReadFile(filepath.Join(work, "Pipfile"))
	require.NoError(t, err)
	assert.Equal(t, "[packages]", string(data))
}

func TestCopyDependencies_UnwritableDestination(t *testing.T) {
	lib := newLibrary(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	c := NewCopier(lib, logging.NewZapLoggerWithLevel("error"))
	err := c.CopyDependencies(domain.OracleDefinition{Dependencies: []string{"Pipfile"}}, filepath.Join(blocker, "work"))
	assert.Error(t, err)
}
