package inventory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/modwin/modwin/pkg/dism"
)

// Expander extracts an archive into an existing directory.
type Expander interface {
	Expand(ctx context.Context, archive, dest string) error
}

// PackageType tells which dism command installs an extracted archive.
type PackageType int

const (
	PackageUnknown PackageType = iota
	PackageUpdate
	PackageDriver
)

func (t PackageType) String() string {
	switch t {
	case PackageUpdate:
		return "update"
	case PackageDriver:
		return "driver"
	default:
		return "unknown"
	}
}

// DetectPackageType walks dir and classifies its contents. Servicing
// manifests or nested cabinets make it an update; otherwise any .inf
// makes it a driver.
func DetectPackageType(dir string) (PackageType, error) {
	var hasUpdate, hasInf bool
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".mum", ".cab", ".msu":
			hasUpdate = true
		case ".inf":
			hasInf = true
		}
		return nil
	})
	switch {
	case err != nil:
		return PackageUnknown, err
	case hasUpdate:
		return PackageUpdate, nil
	case hasInf:
		return PackageDriver, nil
	}
	return PackageUnknown, nil
}

// AddApp provisions an appx or msix bundle into the image.
func (a *Actions) AddApp(ctx context.Context, path string) error {
	if err := a.checkInstall(path); err != nil {
		return err
	}
	logOrNop(a.Log).Infof("Installing app: %s", path)
	if err := a.Runner.Run(ctx, dism.AddAppArgs(a.Image, path)...); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// AddPackage extracts a .cab or .msu, decides from its contents whether
// it is an update or a driver bundle and installs it accordingly.
// Archives of unknown shape are handed to /Add-Package.
func (a *Actions) AddPackage(ctx context.Context, path string) error {
	log := logOrNop(a.Log)
	if err := a.checkInstall(path); err != nil {
		return err
	}
	if a.Expander == nil {
		return errors.New("no archive expander configured")
	}

	work := a.workDir()
	scratch := filepath.Join(work, "scratch")
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	extract, err := os.MkdirTemp(work, "pkg-extract-")
	if err != nil {
		return fmt.Errorf("create extract dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(extract); err != nil {
			log.Warnf("Could not clean up %s: %v", extract, err)
		}
	}()

	log.Infof("Extracting package: %s", path)
	if err := a.Expander.Expand(ctx, path, extract); err != nil {
		return fmt.Errorf("extract %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	kind, err := DetectPackageType(extract)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", path, err)
	}
	log.Infof("Detected %s package: %s", kind, filepath.Base(path))

	var args []string
	if kind == PackageDriver {
		args = dism.AddDriverArgs(a.Image, extract, scratch)
	} else {
		args = dism.AddPackageArgs(a.Image, extract, scratch)
	}
	if err := a.Runner.Run(ctx, args...); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func (a *Actions) checkInstall(path string) error {
	if err := CheckMounted(a.Image); err != nil {
		return err
	}
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

func (a *Actions) workDir() string {
	if a.WorkDir != "" {
		return a.WorkDir
	}
	return filepath.Join(os.TempDir(), "modwin")
}
