package archive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/magneto-ui.net/internal/adapter/logging"
	"gitlab.com/magneto-ui.net/internal/static/errs"
)

func writeZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for name, body := range entries {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func newStager() *ZipStager {
	return NewZipStager(logging.NewZapLoggerWithLevel("error"))
}

func TestStage_ExtractsAndStripsArtifacts(t *testing.T) {
	zipPath := writeZip(t, map[string]string{
		"screens/1.png":          "png",
		"screens/.thumb":         "hidden",
		"__MACOSX/screens/._1":   "resource fork",
		".DS_Store":              "finder",
		"trace/.git/config":      "hidden dir",
		"trace/events.json":      "{}",
		"nested/__MACOSX/x.json": "nested",
	})
	dest := filepath.Join(t.TempDir(), "42")

	require.NoError(t, newStager().Stage(zipPath, dest))

	assert.FileExists(t, filepath.Join(dest, "screens", "1.png"))
	assert.FileExists(t, filepath.Join(dest, "trace", "events.json"))
	assert.NoFileExists(t, filepath.Join(dest, "screens", ".thumb"))
	assert.NoFileExists(t, filepath.Join(dest, ".DS_Store"))
	assert.NoDirExists(t, filepath.Join(dest, "__MACOSX"))
	assert.NoDirExists(t, filepath.Join(dest, "trace", ".git"))
	assert.NoDirExists(t, filepath.Join(dest, "nested", "__MACOSX"))
}

func TestStage_OverwritesExistingFiles(t *testing.T) {
	dest := t.TempDir()
	require.NoError(t, newStager().Stage(writeZip(t, map[string]string{"a.txt": "old"}), dest))
	require.NoError(t, newStager().Stage(writeZip(t, map[string]string{"a.txt": "new"}), dest))

	data, err := os.ReadFile(filepath.Join(dest, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestStage_CorruptArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.zip")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a zip"), 0o644))

	err := newStager().Stage(path, t.TempDir())
	assert.ErrorIs(t, err, errs.ErrExtraction)
}

func TestStage_RejectsZipSlip(t *testing.T) {
	zipPath := writeZip(t, map[string]string{"../../escape.txt": "evil"})
	parent := t.TempDir()
	dest := filepath.Join(parent, "inner")

	err := newStager().Stage(zipPath, dest)
	assert.ErrorIs(t, err, errs.ErrExtraction)
	assert.NoFileExists(t, filepath.Join(parent, "escape.txt"))
}

func TestStage_DotPrefixedDestinationIsKept(t *testing.T) {
	base := t.TempDir()
	dest := filepath.Join(base, ".staging", "7")

	require.NoError(t, newStager().Stage(writeZip(t, map[string]string{"a.txt": "x"}), dest))
	assert.FileExists(t, filepath.Join(dest, "a.txt"))
}
