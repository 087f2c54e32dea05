package cmd

import (
	"github.com/modwin/modwin/internal/utils"
	"github.com/modwin/modwin/pkg/dism"
	"github.com/modwin/modwin/pkg/inventory"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Enable or disable optional features of the image",
}

var featuresEnableCmd = &cobra.Command{
	Use:   "enable [NAME...]",
	Short: "Enable features, taking payloads from a sources/sxs folder when one is found",
	RunE: func(cmd *cobra.Command, args []string) error {
		return toggleFeatures(cmd, args, true)
	},
}

var featuresDisableCmd = &cobra.Command{
	Use:   "disable [NAME...]",
	Short: "Disable features",
	RunE: func(cmd *cobra.Command, args []string) error {
		return toggleFeatures(cmd, args, false)
	},
}

func toggleFeatures(cmd *cobra.Command, args []string, enable bool) error {
	resolver, closeDB := openResolver(cmd.Context())
	defer closeDB()
	s := newScanner(resolver)

	names, err := selectItems(cmd, s, dism.KindFeature, args)
	if err != nil || names == nil {
		return err
	}

	sources, _ := cmd.Flags().GetStringSlice("source")
	if cfg := viper.GetString("source"); cfg != "" {
		sources = append(sources, cfg)
	}
	for i := range sources {
		sources[i] = utils.ExpandPath(sources[i])
	}

	a := &inventory.Actions{Runner: s.Runner, Image: s.Image, Sources: sources, Log: utils.Log}
	if enable {
		err = a.EnableFeatures(cmd.Context(), names)
	} else {
		err = a.DisableFeatures(cmd.Context(), names)
	}
	refresh(cmd, s, dism.KindFeature)
	return err
}

func init() {
	rootCmd.AddCommand(featuresCmd)
	featuresCmd.AddCommand(featuresEnableCmd)
	featuresCmd.AddCommand(featuresDisableCmd)

	featuresCmd.PersistentFlags().StringP("filter", "f", "", "Also select every feature whose name contains this text (case-insensitive)")
	featuresCmd.PersistentFlags().Bool("dry-run", false, "Only print what would be changed")
	featuresEnableCmd.Flags().StringSlice("source", nil, "Installation media root or sxs folder to take payloads from (repeatable)")
}
