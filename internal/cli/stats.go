package cli

import (
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nadmax/ganttline/internal/dashboard"
)

func (a *app) newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show schedule statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := a.client().Stats(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			return writeStats(cmd.OutOrStdout(), stats)
		},
	}
}

func writeStats(out io.Writer, s *dashboard.Stats) error {
	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "Tasks:\t%d\n", s.TotalTasks)
	fmt.Fprintf(w, "Completed:\t%d (%.1f%%)\n", s.CompletedTasks, s.CompletionRate*100)
	fmt.Fprintf(w, "Incomplete:\t%d\n", s.IncompleteTasks)
	fmt.Fprintf(w, "Overdue:\t%d\n", s.OverdueTasks)
	if s.InvalidDates > 0 {
		fmt.Fprintf(w, "Invalid dates:\t%d\n", s.InvalidDates)
	}
	fmt.Fprintf(w, "Range:\t%s → %s\n", s.RangeStart, s.RangeEnd)

	stages := make([]string, 0, len(s.TasksByStage))
	for stage := range s.TasksByStage {
		stages = append(stages, stage)
	}
	slices.Sort(stages)
	for _, stage := range stages {
		fmt.Fprintf(w, "  %s:\t%d\n", stage, s.TasksByStage[stage])
	}

	return w.Flush()
}
