package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nadmax/ganttline/internal/csvio"
)

func (a *app) newImportCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Create tasks from a CSV file",
		Long: "Create one task per CSV row. The header must name a milestone column; " +
			"stage, startDate, endDate, completed and the note columns are optional. " +
			"Rows that fail validation are reported and skipped.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			tasks, rowErrs, err := csvio.ReadTasks(f)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			for _, re := range rowErrs {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped: %v\n", re)
			}

			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "%d tasks valid, %d rows rejected (dry run)\n", len(tasks), len(rowErrs))
				return nil
			}

			c := a.client()
			imported := 0
			for _, t := range tasks {
				if _, err := c.CreateTask(cmd.Context(), t); err != nil {
					return fmt.Errorf("imported %d of %d tasks: %q: %w", imported, len(tasks), t.Milestone, err)
				}
				imported++
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks, %d rows rejected\n", imported, len(rowErrs))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the file without creating tasks")
	return cmd
}
