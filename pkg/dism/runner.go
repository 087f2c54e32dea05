package dism

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	DefaultBinary  = "dism.exe"
	DefaultTimeout = 30 * time.Minute
)

// Runner executes dism with the given arguments.
type Runner interface {
	// Capture runs dism and returns its standard output.
	Capture(ctx context.Context, args ...string) ([]byte, error)
	// Run runs dism for its side effects only.
	Run(ctx context.Context, args ...string) error
}

// Logger is the subset of logrus used by this package.
type Logger interface {
	Debugf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}

// Exec runs the real dism binary.
type Exec struct {
	Binary  string
	Timeout time.Duration
	Log     Logger
}

// NewExec returns an Exec with defaults filled in.
func NewExec(binary string, timeout time.Duration, log Logger) *Exec {
	if binary == "" {
		binary = DefaultBinary
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = nopLogger{}
	}
	return &Exec{Binary: binary, Timeout: timeout, Log: log}
}

func (e *Exec) command(ctx context.Context, args []string) (*exec.Cmd, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(ctx, e.Timeout)
	// Labels are matched in English regardless of the host UI language.
	full := append([]string{"/English"}, args...)
	return exec.CommandContext(runCtx, e.Binary, full...), cancel
}

// Capture runs dism and returns stdout. On failure both streams are
// folded into the error; dism prints most of its diagnostics to stdout.
func (e *Exec) Capture(ctx context.Context, args ...string) ([]byte, error) {
	cmd, cancel := e.command(ctx, args)
	defer cancel()

	e.Log.Debugf("Running: %s", cmd.String())
	output, err := cmd.Output()
	if err != nil {
		var stderr []byte
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			stderr = exitErr.Stderr
		}
		return output, captureError(args, err, output, stderr)
	}
	e.Log.Debugf("Output (%d bytes)", len(output))
	return output, nil
}

// Run runs dism and discards its output unless it fails.
func (e *Exec) Run(ctx context.Context, args ...string) error {
	cmd, cancel := e.command(ctx, args)
	defer cancel()

	e.Log.Debugf("Running: %s", cmd.String())
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("dism %s failed: %w, output: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

func captureError(args []string, err error, stdout, stderr []byte) error {
	var extra string
	if s := strings.TrimSpace(string(stderr)); s != "" {
		extra = "\nStderr: " + s
	}
	return fmt.Errorf("dism %s failed: %w, output: %s%s", strings.Join(args, " "), err, strings.TrimSpace(string(stdout)), extra)
}

func imageArg(image string) string {
	return "/Image:" + image
}

func GetAppsArgs(image string) []string {
	return []string{imageArg(image), "/Get-ProvisionedAppxPackages"}
}

func GetPackagesArgs(image string) []string {
	return []string{imageArg(image), "/Get-Packages"}
}

func GetDriversArgs(image string) []string {
	return []string{imageArg(image), "/Get-Drivers"}
}

func GetFeaturesArgs(image string) []string {
	return []string{imageArg(image), "/Get-Features"}
}

func GetWimInfoArgs(wimFile string) []string {
	return []string{"/Get-WimInfo", "/WimFile:" + wimFile}
}

func RemoveAppArgs(image, name string) []string {
	return []string{imageArg(image), "/Remove-ProvisionedAppxPackage", "/PackageName:" + name}
}

func RemovePackageArgs(image, name string) []string {
	return []string{imageArg(image), "/Remove-Package", "/PackageName:" + name}
}

func RemoveDriverArgs(image, name string) []string {
	return []string{imageArg(image), "/Remove-Driver", "/Driver:" + name}
}

// EnableFeatureArgs enables a feature with all its parents. When source
// is set, payloads are taken from it and Windows Update is not contacted.
func EnableFeatureArgs(image, name, source string) []string {
	args := []string{imageArg(image), "/Enable-Feature", "/FeatureName:" + name, "/All"}
	if source != "" {
		args = append(args, "/Source:"+source, "/LimitAccess")
	}
	return args
}

// AddAppArgs provisions an appx or msix bundle without a license file.
func AddAppArgs(image, path string) []string {
	return []string{imageArg(image), "/Add-ProvisionedAppxPackage", "/PackagePath:" + path, "/SkipLicense"}
}

// AddPackageArgs installs a servicing package from a .cab, .msu or an
// extracted folder.
func AddPackageArgs(image, path, scratch string) []string {
	return withScratch([]string{imageArg(image), "/Add-Package", "/PackagePath:" + path}, scratch)
}

// AddDriverArgs installs every driver found below path.
func AddDriverArgs(image, path, scratch string) []string {
	return withScratch([]string{imageArg(image), "/Add-Driver", "/Driver:" + path, "/Recurse"}, scratch)
}

func withScratch(args []string, scratch string) []string {
	if scratch != "" {
		args = append(args, "/ScratchDir:"+scratch)
	}
	return args
}

func DisableFeatureArgs(image, name string) []string {
	return []string{imageArg(image), "/Disable-Feature", "/FeatureName:" + name}
}
