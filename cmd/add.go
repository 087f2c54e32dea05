package cmd

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/modwin/modwin/internal/utils"
	"github.com/modwin/modwin/pkg/dism"
	"github.com/modwin/modwin/pkg/inventory"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Install apps, updates or driver bundles into the image",
}

var addAppCmd = &cobra.Command{
	Use:   "app FILE...",
	Short: "Provision .appx, .appxbundle, .msix or .msixbundle files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return addFiles(cmd, dism.KindApp, args)
	},
}

var addPackageCmd = &cobra.Command{
	Use:   "package FILE...",
	Short: "Install .cab or .msu files; driver bundles are detected and added as drivers",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return addFiles(cmd, dism.KindPackage, args)
	},
}

func addFiles(cmd *cobra.Command, kind dism.Kind, files []string) error {
	resolver, closeDB := openResolver(cmd.Context())
	defer closeDB()
	s := newScanner(resolver)

	workDir, _ := cmd.Flags().GetString("workdir")
	if workDir == "" {
		workDir = viper.GetString("workdir")
	}
	a := &inventory.Actions{
		Runner:   s.Runner,
		Image:    s.Image,
		Expander: dism.NewExpandExec(viper.GetString("expand.binary"), 0, utils.Log),
		WorkDir:  utils.ExpandPath(workDir),
		Log:      utils.Log,
	}

	install := a.AddPackage
	if kind == dism.KindApp {
		install = a.AddApp
	}
	err := installFiles(cmd.Context(), files, install)
	refresh(cmd, s, kind)
	return err
}

// installFiles installs each file in turn. A failure does not stop the
// remaining files; all errors are returned together.
func installFiles(ctx context.Context, files []string, install func(context.Context, string) error) error {
	var result *multierror.Error
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			result = multierror.Append(result, err)
			break
		}
		path := utils.ExpandPath(f)
		if err := install(ctx, path); err != nil {
			utils.Log.Errorf("Install %s failed: %v", path, err)
			result = multierror.Append(result, err)
			continue
		}
		fmt.Printf("Installed %s\n", path)
	}
	return result.ErrorOrNil()
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.AddCommand(addAppCmd)
	addCmd.AddCommand(addPackageCmd)

	addPackageCmd.Flags().String("workdir", "", "Folder for scratch space and extracted archives (default: system temp)")
}
