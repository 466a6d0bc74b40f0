package secondary

import (
	"context"

	"gitlab.com/magneto-ui.net/internal/domain"
)

// ArchiveStager extracts an uploaded archive into a working directory
type ArchiveStager interface {
	Stage(zipPath string, destDir string) error
}

// DependencyCopier stages an oracle's support files into a working directory
type DependencyCopier interface {
	CopyDependencies(def domain.OracleDefinition, workDir string) error
}

// ScriptRunner executes an oracle script and returns its trimmed standard output
type ScriptRunner interface {
	Run(ctx context.Context, spec domain.ScriptSpec) (string, error)
}

// RunLock grants at most one holder per key
type RunLock interface {
	// Acquire fails with errs.ErrRunInProgress while another holder owns key
	Acquire(ctx context.Context, key string) (release func(), err error)
}
