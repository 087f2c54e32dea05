package inventory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modwin/modwin/pkg/dism"
	"github.com/modwin/modwin/pkg/knowledge"
)

// ErrNotMounted is returned when the image directory has no Windows tree.
var ErrNotMounted = errors.New("image is not mounted")

// Logger abstracts logging so callers can plug in logrus or anything else.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

func logOrNop(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}

// Scanner runs dism inventories against a mounted image and publishes
// annotated results into Repo.
type Scanner struct {
	Runner   dism.Runner
	Resolver *knowledge.Resolver
	Repo     *Repository
	Image    string
	Log      Logger
}

// CheckMounted returns ErrNotMounted unless image contains a Windows directory.
func CheckMounted(image string) error {
	if image == "" {
		return ErrNotMounted
	}
	fi, err := os.Stat(filepath.Join(image, "Windows"))
	if err != nil || !fi.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotMounted, image)
	}
	return nil
}

func (s *Scanner) ScanApps(ctx context.Context) ([]Item, error) {
	return s.scan(ctx, dism.KindApp, "apps", func(ctx context.Context, coll *dism.Collection) error {
		out, err := s.Runner.Capture(ctx, dism.GetAppsArgs(s.Image)...)
		if err != nil {
			return err
		}
		return dism.ParseApps(dism.Decode(out), coll)
	})
}

// ScanPackages lists servicing packages and third-party drivers as one
// list. dism refuses a second servicing session on an image that is
// already in use, so the two inventories run one after the other.
// Drivers are merged last so they win on a name collision.
func (s *Scanner) ScanPackages(ctx context.Context) ([]Item, error) {
	return s.scan(ctx, dism.KindPackage, "packages and drivers", func(ctx context.Context, coll *dism.Collection) error {
		out, err := s.Runner.Capture(ctx, dism.GetPackagesArgs(s.Image)...)
		if err != nil {
			return err
		}
		if err := dism.ParsePackages(dism.Decode(out), coll); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		out, err = s.Runner.Capture(ctx, dism.GetDriversArgs(s.Image)...)
		if err != nil {
			return err
		}
		return dism.ParseDrivers(dism.Decode(out), coll)
	})
}

func (s *Scanner) ScanFeatures(ctx context.Context) ([]Item, error) {
	return s.scan(ctx, dism.KindFeature, "features", func(ctx context.Context, coll *dism.Collection) error {
		out, err := s.Runner.Capture(ctx, dism.GetFeaturesArgs(s.Image)...)
		if err != nil {
			return err
		}
		return dism.ParseFeatures(dism.Decode(out), coll)
	})
}

func (s *Scanner) scan(ctx context.Context, kind dism.Kind, what string, fill func(context.Context, *dism.Collection) error) ([]Item, error) {
	log := logOrNop(s.Log)
	if err := CheckMounted(s.Image); err != nil {
		return nil, err
	}
	log.Infof("Scanning for %s...", what)

	coll := dism.NewCollection()
	if err := fill(ctx, coll); err != nil {
		return nil, fmt.Errorf("scan %s: %w", what, err)
	}
	items, err := s.Import(ctx, kind, coll)
	if err != nil {
		return nil, err
	}
	log.Infof("Found %d %s.", len(items), what)
	return items, nil
}

// Import annotates an already parsed collection and, unless ctx was
// cancelled in the meantime, publishes it as the new list for kind.
func (s *Scanner) Import(ctx context.Context, kind dism.Kind, coll *dism.Collection) ([]Item, error) {
	items := s.Annotate(ctx, kind, coll)
	if err := ctx.Err(); err != nil {
		logOrNop(s.Log).Warnf("Scan stopped, keeping previous %s list", kind)
		return nil, err
	}
	if s.Repo != nil {
		s.Repo.Replace(kind, items)
	}
	return items, nil
}

// Annotate resolves every record in coll and returns the items sorted
// by name, ignoring case.
func (s *Scanner) Annotate(ctx context.Context, kind dism.Kind, coll *dism.Collection) []Item {
	records := coll.Sorted()
	items := make([]Item, 0, len(records))
	for _, rec := range records {
		info := s.Resolver.Resolve(ctx, rec.Identifier)
		if kind == dism.KindFeature && info.Description == knowledge.DefaultDescription {
			info.Description = "Status: " + rec.State
		}
		items = append(items, Item{
			Name:  rec.Identifier,
			State: rec.State,
			Title: SimplifyName(rec.Identifier),
			Info:  info,
		})
	}
	return items
}
