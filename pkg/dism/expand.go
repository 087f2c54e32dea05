package dism

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	DefaultExpandBinary  = "expand.exe"
	DefaultExpandTimeout = 10 * time.Minute
)

// ExpandExec unpacks .cab and .msu archives with the Windows expand tool
// so their contents can be inspected before they are handed to dism.
type ExpandExec struct {
	Binary  string
	Timeout time.Duration
	Log     Logger
}

func NewExpandExec(binary string, timeout time.Duration, log Logger) *ExpandExec {
	if binary == "" {
		binary = DefaultExpandBinary
	}
	if timeout <= 0 {
		timeout = DefaultExpandTimeout
	}
	if log == nil {
		log = nopLogger{}
	}
	return &ExpandExec{Binary: binary, Timeout: timeout, Log: log}
}

// Expand extracts every file of archive into dest, which must exist.
func (e *ExpandExec) Expand(ctx context.Context, archive, dest string) error {
	runCtx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	args := ExpandArgs(archive, dest)
	cmd := exec.CommandContext(runCtx, e.Binary, args...)
	e.Log.Debugf("Running: %s", cmd.String())
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("expand %s failed: %w, output: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

func ExpandArgs(archive, dest string) []string {
	return []string{"-f:*", archive, dest}
}
