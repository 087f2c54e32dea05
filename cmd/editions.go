package cmd

import (
	"fmt"

	"github.com/modwin/modwin/internal/utils"
	"github.com/modwin/modwin/pkg/dism"
	"github.com/spf13/cobra"
)

var editionsCmd = &cobra.Command{
	Use:   "editions WIMFILE",
	Short: "List the editions stored in a .wim or .esd file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wim := utils.ExpandPath(args[0])
		out, err := newRunner().Capture(cmd.Context(), dism.GetWimInfoArgs(wim)...)
		if err != nil {
			return err
		}
		images, err := dism.ParseWimInfo(dism.Decode(out))
		if err != nil {
			return err
		}
		if len(images) == 0 {
			return fmt.Errorf("no editions found in %s", wim)
		}

		verbose, _ := cmd.Flags().GetBool("verbose")
		for _, img := range images {
			fmt.Println(img.Label())
			if verbose {
				if img.Description != "" {
					fmt.Printf("   %s\n", img.Description)
				}
				if img.Size != "" {
					fmt.Printf("   %s\n", img.Size)
				}
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(editionsCmd)
	editionsCmd.Flags().BoolP("verbose", "v", false, "Also print description and size")
}
