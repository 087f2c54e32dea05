package inventory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/modwin/modwin/pkg/dism"
)

// Recorder receives removal history. *knowledge.Resolver satisfies it.
type Recorder interface {
	RecordRemoval(ctx context.Context, identifier, kind string)
}

// Actions applies changes to a mounted image, one dism call per item.
type Actions struct {
	Runner  dism.Runner
	History Recorder
	Image   string
	// Sources are directories searched for a sources/sxs payload folder
	// when enabling features, in order.
	Sources []string
	// Expander unpacks archives for AddPackage.
	Expander Expander
	// WorkDir holds scratch and extraction folders for AddPackage.
	// Defaults to a modwin folder under the system temp directory.
	WorkDir string
	Log     Logger
}

func (a *Actions) RemoveApps(ctx context.Context, names []string) error {
	return a.each(ctx, names, "Removing", func(name string) []string {
		a.record(ctx, name, historyType(dism.KindApp, name))
		return dism.RemoveAppArgs(a.Image, name)
	})
}

// RemovePackages removes servicing packages. Names ending in .inf are
// third-party drivers and go through /Remove-Driver instead.
func (a *Actions) RemovePackages(ctx context.Context, names []string) error {
	return a.each(ctx, names, "Removing", func(name string) []string {
		a.record(ctx, name, historyType(dism.KindPackage, name))
		if IsDriver(name) {
			return dism.RemoveDriverArgs(a.Image, name)
		}
		return dism.RemovePackageArgs(a.Image, name)
	})
}

func (a *Actions) EnableFeatures(ctx context.Context, names []string) error {
	log := logOrNop(a.Log)
	source := a.SxsSource()
	if source == "" && len(names) > 0 {
		log.Warnf("No sources/sxs folder found; features that need external payloads will fail")
	} else if source != "" {
		log.Infof("Using payload source %s", source)
	}
	return a.each(ctx, names, "Enabling", func(name string) []string {
		return dism.EnableFeatureArgs(a.Image, name, source)
	})
}

func (a *Actions) DisableFeatures(ctx context.Context, names []string) error {
	return a.each(ctx, names, "Disabling", func(name string) []string {
		return dism.DisableFeatureArgs(a.Image, name)
	})
}

// SxsSource returns the first existing payload folder among Sources. A
// source may be the media root (containing sources/sxs) or the sxs
// folder itself.
func (a *Actions) SxsSource() string {
	for _, root := range a.Sources {
		if root == "" {
			continue
		}
		candidates := []string{filepath.Join(root, "sources", "sxs")}
		if strings.EqualFold(filepath.Base(root), "sxs") {
			candidates = append(candidates, root)
		}
		for _, c := range candidates {
			if fi, err := os.Stat(c); err == nil && fi.IsDir() {
				return c
			}
		}
	}
	return ""
}

func (a *Actions) record(ctx context.Context, name, kind string) {
	if a.History != nil {
		a.History.RecordRemoval(ctx, name, kind)
	}
}

// each runs one dism call per name. It stops early only when ctx is
// cancelled; individual failures are collected and returned together.
func (a *Actions) each(ctx context.Context, names []string, verb string, args func(string) []string) error {
	log := logOrNop(a.Log)
	if err := CheckMounted(a.Image); err != nil {
		return err
	}

	var result *multierror.Error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			result = multierror.Append(result, err)
			break
		}
		log.Infof("%s: %s", verb, name)
		if err := a.Runner.Run(ctx, args(name)...); err != nil {
			log.Errorf("%s %s failed: %v", verb, name, err)
			result = multierror.Append(result, fmt.Errorf("%s: %w", name, err))
		}
	}
	return result.ErrorOrNil()
}
