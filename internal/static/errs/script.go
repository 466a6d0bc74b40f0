package errs

import (
	"fmt"
	"strings"
)

// ScriptError is returned when an oracle script exits with a nonzero status
type ScriptError struct {
	ExitCode int
	Stderr   string
}

func (e *ScriptError) Error() string {
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		return msg
	}
	return fmt.Sprintf("script exited with code %d", e.ExitCode)
}
