package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/modwin/modwin/internal/utils"
	"github.com/modwin/modwin/pkg/dism"
	"github.com/modwin/modwin/pkg/inventory"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:       "scan {apps|packages|features}",
	Short:     "List the apps, packages and drivers, or features of the image",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"apps", "packages", "features"},
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		input, _ := cmd.Flags().GetString("input")
		filter, _ := cmd.Flags().GetString("filter")
		details, _ := cmd.Flags().GetBool("details")
		show, _ := cmd.Flags().GetStringSlice("show")

		resolver, closeDB := openResolver(cmd.Context())
		defer closeDB()
		s := newScanner(resolver)

		if input != "" {
			if _, err := importFile(cmd.Context(), s, kind, input); err != nil {
				return err
			}
		} else if _, err := scanKind(cmd, s, kind); err != nil {
			return err
		}

		for _, name := range show {
			if !s.Repo.ToggleDetails(kind, name) {
				utils.Log.Warnf("%s is not in the %s list", name, args[0])
			}
		}
		items := s.Repo.Filter(kind, filter)
		printItems(os.Stdout, items, details)
		return nil
	},
}

// importFile annotates dism output saved earlier (for example with
// "dism /Get-Packages > packages.txt") instead of running dism.
func importFile(ctx context.Context, s *inventory.Scanner, kind dism.Kind, path string) ([]inventory.Item, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	coll := dism.NewCollection()
	r := dism.Decode(raw)
	switch kind {
	case dism.KindApp:
		err = dism.ParseApps(r, coll)
	case dism.KindPackage:
		err = dism.ParsePackages(r, coll)
		if err == nil {
			// a saved /Get-Drivers listing parses into the same list
			err = dism.ParseDrivers(dism.Decode(raw), coll)
		}
	default:
		err = dism.ParseFeatures(r, coll)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return s.Import(ctx, kind, coll)
}

func printItems(out io.Writer, items []inventory.Item, details bool) {
	if len(items) == 0 {
		fmt.Fprintln(out, "Nothing found.")
		return
	}
	if details {
		for _, it := range items {
			printDetails(out, it)
		}
	} else {
		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "NAME\tSTATE\tRATING\tCATEGORY\t")
		for _, it := range items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", it.Name, displayState(it.State), it.Info.SafetyRating, it.Info.Category)
		}
		w.Flush()
		fmt.Fprintln(out)
		for _, it := range items {
			if it.ShowDetails {
				printDetails(out, it)
			}
		}
	}
	fmt.Fprintf(out, "%d item(s)\n", len(items))
}

func printDetails(out io.Writer, it inventory.Item) {
	fmt.Fprintf(out, "%s\n", it.Title)
	fmt.Fprintf(out, "  Name:     %s\n", it.Name)
	fmt.Fprintf(out, "  State:    %s\n", displayState(it.State))
	fmt.Fprintf(out, "  Rating:   %s\n", it.Info.SafetyRating)
	fmt.Fprintf(out, "  Category: %s\n", it.Info.Category)
	fmt.Fprintf(out, "  %s\n\n", it.Info.Description)
}

func displayState(state string) string {
	if state == "" {
		return "-"
	}
	return state
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().String("input", "", "Read saved dism output from this file instead of running dism")
	scanCmd.Flags().StringP("filter", "f", "", "Only show items whose name contains this text (case-insensitive)")
	scanCmd.Flags().BoolP("details", "d", false, "Show the display name and description of every item")
	scanCmd.Flags().StringSlice("show", nil, "Show the description of these items below the table")
}
