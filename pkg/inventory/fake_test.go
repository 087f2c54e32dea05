package inventory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeRunner serves canned dism output keyed by the operation flag
// (e.g. "/Get-Packages") and records every call.
type fakeRunner struct {
	mu      sync.Mutex
	outputs map[string]string
	fail    map[string]error
	calls   [][]string
	onRun   func()

	inFlight int32
	overlap  int32
}

func (f *fakeRunner) op(args []string) string {
	for _, a := range args {
		if strings.HasPrefix(a, "/") && !strings.HasPrefix(a, "/Image:") {
			return a
		}
	}
	return ""
}

func (f *fakeRunner) Capture(_ context.Context, args ...string) ([]byte, error) {
	if atomic.AddInt32(&f.inFlight, 1) > 1 {
		atomic.StoreInt32(&f.overlap, 1)
	}
	defer atomic.AddInt32(&f.inFlight, -1)
	// Give a concurrent caller a chance to show up.
	time.Sleep(time.Millisecond)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, args)
	op := f.op(args)
	if err := f.fail[op]; err != nil {
		return nil, err
	}
	return []byte(f.outputs[op]), nil
}

func (f *fakeRunner) Run(_ context.Context, args ...string) error {
	f.mu.Lock()
	f.calls = append(f.calls, args)
	hook := f.onRun
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	for _, a := range args {
		if err := f.fail[a]; err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeRunner) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// Overlapped reports whether two Capture calls were ever in flight at once.
func (f *fakeRunner) Overlapped() bool {
	return atomic.LoadInt32(&f.overlap) == 1
}

var errDism = errors.New("exit status 87")

// mountedImage returns a directory laid out like a mounted Windows image.
func mountedImage(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Windows"), 0o755))
	return dir
}

type recorder struct {
	mu   sync.Mutex
	rows [][2]string
}

func (r *recorder) RecordRemoval(_ context.Context, identifier, kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, [2]string{identifier, kind})
}
