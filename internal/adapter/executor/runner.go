package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/core/ports/secondary"
	"gitlab.com/magneto-ui.net/internal/domain"
	"gitlab.com/magneto-ui.net/internal/static/errs"
)

// waitDelay bounds how long Wait blocks on pipes held open by orphaned children
const waitDelay = 5 * time.Second

var _ secondary.ScriptRunner = (*Runner)(nil)

type Runner struct {
	interpreter []string
	timeout     time.Duration
	logger      primary.Logger
}

// NewRunner runs scripts as `<interpreter...> <script> <args...>`, e.g. `pipenv run python x.py`
func NewRunner(interpreter []string, timeout time.Duration, logger primary.Logger) *Runner {
	if len(interpreter) == 0 {
		interpreter = []string{"python3"}
	}
	return &Runner{interpreter: interpreter, timeout: timeout, logger: logger}
}

func (r *Runner) Run(ctx context.Context, spec domain.ScriptSpec) (string, error) {
	defer removeAll(r.logger, spec.RemoveAfterExit)

	dir, err := filepath.Abs(spec.Dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve working dir: %w", err)
	}

	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	args := make([]string, 0, len(r.interpreter)+len(spec.Args))
	args = append(args, r.interpreter[1:]...)
	args = append(args, spec.Script)
	args = append(args, spec.Args...)

	cmd := exec.CommandContext(runCtx, r.interpreter[0], args...)
	cmd.Dir = dir
	cmd.Env = append(withPythonPath(os.Environ(), dir), spec.Env...)
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	r.logger.Info("Running oracle script", "script", spec.Script, "dir", dir)
	err = cmd.Run()
	elapsed := time.Since(started)

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		r.logger.Warn("Oracle script timed out", "script", spec.Script, "timeout", r.timeout)
		return "", fmt.Errorf("%w after %s", errs.ErrScriptTimeout, r.timeout)
	}
	if ctx.Err() != nil {
		return "", fmt.Errorf("script cancelled: %w", ctx.Err())
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			scriptErr := &errs.ScriptError{ExitCode: exitErr.ExitCode(), Stderr: text(stderr.Bytes())}
			r.logger.Warn("Oracle script failed", "script", spec.Script, "exitCode", scriptErr.ExitCode, "elapsed", elapsed)
			return "", scriptErr
		}
		r.logger.Error("Failed to start oracle script", "script", spec.Script, "error", err)
		return "", fmt.Errorf("failed to start script: %w", err)
	}

	r.logger.Info("Oracle script finished", "script", spec.Script, "elapsed", elapsed)
	return text(stdout.Bytes()), nil
}

// text decodes script output for storage in a TEXT column: invalid UTF-8 becomes
// U+FFFD and NUL bytes are dropped.
func text(b []byte) string {
	s := strings.ToValidUTF8(string(b), "\uFFFD")
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}

// withPythonPath puts dir first on PYTHONPATH, keeping any inherited entries
func withPythonPath(env []string, dir string) []string {
	const key = "PYTHONPATH="
	out := make([]string, 0, len(env)+1)
	value := dir
	for _, kv := range env {
		if strings.HasPrefix(kv, key) {
			if prev := strings.TrimPrefix(kv, key); prev != "" {
				value = dir + string(os.PathListSeparator) + prev
			}
			continue
		}
		out = append(out, kv)
	}
	return append(out, key+value)
}

func removeAll(logger primary.Logger, paths []string) {
	for _, p := range paths {
		if err := os.RemoveAll(p); err != nil {
			logger.Warn("Failed to remove script artifact", "path", p, "error", err)
		}
	}
}
