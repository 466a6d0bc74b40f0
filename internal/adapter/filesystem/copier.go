package filesystem

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/core/ports/secondary"
	"gitlab.com/magneto-ui.net/internal/domain"
)

var _ secondary.DependencyCopier = (*Copier)(nil)

// Copier stages files from the shared oracle library. The library itself is never written.
type Copier struct {
	libraryDir string
	logger     primary.Logger
}

func NewCopier(libraryDir string, logger primary.Logger) *Copier {
	return &Copier{libraryDir: libraryDir, logger: logger}
}

// CopyDependencies copies each dependency by basename into workDir. Missing
// sources are skipped; only an unwritable destination is an error.
func (c *Copier) CopyDependencies(def domain.OracleDefinition, workDir string) error {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		c.logger.Error("Failed to create working dir", "dir", workDir, "error", err)
		return fmt.Errorf("failed to create working dir: %w", err)
	}

	for _, dep := range def.Dependencies {
		src := filepath.Join(c.libraryDir, dep)
		info, err := os.Stat(src)
		if errors.Is(err, fs.ErrNotExist) {
			c.logger.Debug("Skipping missing dependency", "oracle", def.Type, "dependency", dep)
			continue
		}
		if err != nil {
			c.logger.Warn("Skipping unreadable dependency", "oracle", def.Type, "dependency", dep, "error", err)
			continue
		}

		dst := filepath.Join(workDir, filepath.Base(dep))
		if info.IsDir() {
			err = copyTree(src, dst)
		} else {
			err = copyFile(src, dst, info.Mode().Perm())
		}
		if err != nil {
			c.logger.Error("Failed to copy dependency", "oracle", def.Type, "dependency", dep, "error", err)
			return fmt.Errorf("failed to copy dependency %s: %w", dep, err)
		}
	}
	return nil
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return copyFile(path, target, info.Mode().Perm())
	})
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm|0o200)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
