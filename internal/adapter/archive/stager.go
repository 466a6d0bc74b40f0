package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/core/ports/secondary"
	"gitlab.com/magneto-ui.net/internal/static/errs"
)

// maxEntrySize caps the decompressed size of a single entry
const maxEntrySize = 2 << 30

const macOSMetadataDir = "__MACOSX"

var _ secondary.ArchiveStager = (*ZipStager)(nil)

type ZipStager struct {
	logger primary.Logger
}

func NewZipStager(logger primary.Logger) *ZipStager {
	return &ZipStager{logger: logger}
}

// Stage extracts zipPath into destDir, overwriting what is there, then strips
// __MACOSX folders and dot-prefixed entries at any depth.
func (z *ZipStager) Stage(zipPath string, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		z.logger.Error("Failed to create extraction dir", "dir", destDir, "error", err)
		return fmt.Errorf("failed to create extraction dir: %w", err)
	}

	if err := z.extract(zipPath, destDir); err != nil {
		z.logger.Error("Failed to extract archive", "zip", zipPath, "dir", destDir, "error", err)
		return fmt.Errorf("%w: %v", errs.ErrExtraction, err)
	}

	if err := stripArtifacts(destDir); err != nil {
		z.logger.Error("Failed to strip archive artifacts", "dir", destDir, "error", err)
		return fmt.Errorf("failed to strip archive artifacts: %w", err)
	}

	z.logger.Debug("Staged archive", "zip", zipPath, "dir", destDir)
	return nil
}

func (z *ZipStager) extract(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer r.Close()

	root, err := filepath.Abs(destDir)
	if err != nil {
		return err
	}

	for _, f := range r.File {
		target, err := entryPath(root, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
	}
	return nil
}

// entryPath rejects entries that would land outside root
func entryPath(root, name string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(name))
	if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("entry %q escapes the extraction dir", name)
	}
	return target, nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	lr := &io.LimitedReader{R: rc, N: maxEntrySize + 1}
	n, err := io.Copy(out, lr)

	// Close without defer so the handle is released before the next entry
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if n > maxEntrySize {
		return fmt.Errorf("entry exceeds %d bytes", int64(maxEntrySize))
	}
	return nil
}

func stripArtifacts(destDir string) error {
	return filepath.WalkDir(destDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == destDir {
			return nil
		}
		name := d.Name()
		if name != macOSMetadataDir && !strings.HasPrefix(name, ".") {
			return nil
		}
		if err := os.RemoveAll(path); err != nil {
			return err
		}
		if d.IsDir() {
			return filepath.SkipDir
		}
		return nil
	})
}
