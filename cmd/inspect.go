// =============================================================================
// EFD Converter - Inspect Command
// =============================================================================
//
// This file defines the 'inspect' command. It runs the pipeline on one file
// without writing anything and prints what a real run would produce.
//
// COMMAND USAGE:
//   efdconv inspect <file>
//
// OUTPUT:
//   Lines:         1234
//   Rows:          310
//     C100         300
//     F100         10
//   Participants:  12
//   Products:      40
//   Skipped lines: 880
//   Completed with 2 issue(s): ...
//
// =============================================================================

package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/converter"
	"github.com/ginjaninja78/EFD-to-XLSX-conversion/internal/validation"
)

// inspectCmd represents the 'inspect' command.
var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Resolve a file and print row counts and issues",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conv, err := converter.New(mainConfig, logger, converter.Options{DryRun: true})
		if err != nil {
			return err
		}

		result := conv.Run(cmd.Context(), args[0])
		if result.Error != nil {
			return result.Error
		}

		out := cmd.OutOrStdout()
		stats := result.Stats
		fmt.Fprintf(out, "Lines:         %d\n", stats.LinesRead)
		fmt.Fprintf(out, "Rows:          %d\n", stats.RowsEmitted)

		families := make([]string, 0, len(stats.RowsByFamily))
		for family := range stats.RowsByFamily {
			families = append(families, family)
		}
		sort.Strings(families)
		for _, family := range families {
			fmt.Fprintf(out, "  %-12s %d\n", family, stats.RowsByFamily[family])
		}

		fmt.Fprintf(out, "Participants:  %d\n", stats.Participants)
		fmt.Fprintf(out, "Products:      %d\n", stats.Products)
		fmt.Fprintf(out, "Skipped lines: %d\n", stats.SkippedLines)
		if result.NoData {
			fmt.Fprintln(out, "No data processed.")
		}
		fmt.Fprintln(out, validation.FormatIssues(result.Issues))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
