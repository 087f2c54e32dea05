package cmd

import (
	"context"
	"fmt"

	"github.com/modwin/modwin/internal/utils"
	"github.com/modwin/modwin/pkg/dism"
	"github.com/modwin/modwin/pkg/inventory"
	"github.com/modwin/modwin/pkg/knowledge"
	"github.com/modwin/modwin/pkg/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var kindArgs = map[string]dism.Kind{
	"apps":     dism.KindApp,
	"packages": dism.KindPackage,
	"features": dism.KindFeature,
}

func parseKind(arg string) (dism.Kind, error) {
	kind, ok := kindArgs[arg]
	if !ok {
		return "", fmt.Errorf("unknown list %q (want apps, packages or features)", arg)
	}
	return kind, nil
}

func imagePath() string {
	return utils.ExpandPath(viper.GetString("image"))
}

func newRunner() dism.Runner {
	return dism.NewExec(viper.GetString("dism.binary"), viper.GetDuration("dism.timeout"), utils.Log)
}

// openDB opens the knowledge database and refreshes its reference table
// from the embedded dataset. The refresh runs under the cross-process lock.
func openDB(ctx context.Context) (*storage.DB, error) {
	path, err := utils.EnsureDBDir(viper.GetString("dbpath"))
	if err != nil {
		return nil, err
	}
	lock, err := utils.NewDBLock(path)
	if err != nil {
		return nil, err
	}
	if err := lock.Lock(); err != nil {
		return nil, err
	}
	defer lock.Unlock()

	db, err := storage.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defs, err := knowledge.Dataset()
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := db.ReloadDefinitions(ctx, defs.Definitions); err != nil {
		db.Close()
		return nil, fmt.Errorf("load definitions: %w", err)
	}
	utils.Log.Debugf("Loaded %d definitions (dataset %s) into %s", len(defs.Definitions), defs.Version, path)
	return db, nil
}

// openResolver never fails: without a database every lookup returns the
// default answer and removals go unrecorded.
func openResolver(ctx context.Context) (*knowledge.Resolver, func()) {
	db, err := openDB(ctx)
	if err != nil {
		utils.Log.Errorf("Knowledge base unavailable, descriptions will be missing: %v", err)
		return knowledge.NewResolver(nil, knowledge.WithLogger(utils.Log)), func() {}
	}
	r := knowledge.NewResolver(db, knowledge.WithHistory(db), knowledge.WithLogger(utils.Log))
	return r, func() { db.Close() }
}

func newScanner(resolver *knowledge.Resolver) *inventory.Scanner {
	return &inventory.Scanner{
		Runner:   newRunner(),
		Resolver: resolver,
		Repo:     inventory.NewRepository(),
		Image:    imagePath(),
		Log:      utils.Log,
	}
}

// scanKind refreshes one list of s.Repo from the live image.
func scanKind(cmd *cobra.Command, s *inventory.Scanner, kind dism.Kind) ([]inventory.Item, error) {
	switch kind {
	case dism.KindApp:
		return s.ScanApps(cmd.Context())
	case dism.KindPackage:
		return s.ScanPackages(cmd.Context())
	default:
		return s.ScanFeatures(cmd.Context())
	}
}
