package cmd

import (
	"errors"
	"fmt"

	"github.com/modwin/modwin/internal/utils"
	"github.com/modwin/modwin/pkg/dism"
	"github.com/modwin/modwin/pkg/inventory"
	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove {apps|packages} [NAME...]",
	Short: "Remove provisioned apps, or packages and drivers, from the image",
	Long: `Remove provisioned apps, or servicing packages and third-party drivers, from
the image. Items are picked by exact name and/or with --filter. Every removal is
recorded in the knowledge database before dism runs.`,
	Args:      cobra.MinimumNArgs(1),
	ValidArgs: []string{"apps", "packages"},
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		if kind == dism.KindFeature {
			return errors.New("features are not removed, use 'modwin features disable'")
		}

		resolver, closeDB := openResolver(cmd.Context())
		defer closeDB()
		s := newScanner(resolver)

		names, err := selectItems(cmd, s, kind, args[1:])
		if err != nil || names == nil {
			return err
		}

		a := &inventory.Actions{Runner: s.Runner, History: resolver, Image: s.Image, Log: utils.Log}
		if kind == dism.KindApp {
			err = a.RemoveApps(cmd.Context(), names)
		} else {
			err = a.RemovePackages(cmd.Context(), names)
		}
		refresh(cmd, s, kind)
		return err
	},
}

// selectItems scans kind, selects the named items plus everything matching
// --filter and returns the selection. A nil result with no error means the
// caller should stop (dry run).
func selectItems(cmd *cobra.Command, s *inventory.Scanner, kind dism.Kind, names []string) ([]string, error) {
	filter, _ := cmd.Flags().GetString("filter")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if len(names) == 0 && filter == "" {
		return nil, errors.New("name at least one item or pass --filter")
	}

	if _, err := scanKind(cmd, s, kind); err != nil {
		return nil, err
	}
	for _, name := range names {
		if !s.Repo.SetSelected(kind, name, true) {
			utils.Log.Warnf("%s was not found in the image, skipping", name)
		}
	}
	if filter != "" {
		n := s.Repo.SelectAll(kind, filter, true)
		utils.Log.Debugf("Filter %q selected %d item(s)", filter, n)
	}

	selected := s.Repo.Selected(kind)
	if len(selected) == 0 {
		return nil, errors.New("nothing selected")
	}
	if dryRun {
		for _, name := range selected {
			fmt.Println(name)
		}
		utils.Log.Infof("Dry run: %d item(s) would be processed", len(selected))
		return nil, nil
	}
	return selected, nil
}

// refresh rescans kind after a batch so the log reflects the new state.
func refresh(cmd *cobra.Command, s *inventory.Scanner, kind dism.Kind) {
	utils.Log.Info("Refreshing list...")
	if _, err := scanKind(cmd, s, kind); err != nil {
		utils.Log.Warnf("Refresh failed: %v", err)
	}
}

func init() {
	rootCmd.AddCommand(removeCmd)
	removeCmd.Flags().StringP("filter", "f", "", "Also select every item whose name contains this text (case-insensitive)")
	removeCmd.Flags().Bool("dry-run", false, "Only print what would be removed")
}
