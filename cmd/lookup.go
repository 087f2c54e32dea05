package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup IDENTIFIER...",
	Short: "Tell what is known about component identifiers, no image needed",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver, closeDB := openResolver(cmd.Context())
		defer closeDB()

		for i, id := range args {
			if i > 0 {
				fmt.Println()
			}
			info := resolver.Resolve(cmd.Context(), id)
			fmt.Printf("%s\n", id)
			fmt.Printf("  Rating:   %d (%s)\n", int(info.SafetyRating), info.SafetyRating)
			fmt.Printf("  Category: %s\n", info.Category)
			fmt.Printf("  %s\n", info.Description)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}
