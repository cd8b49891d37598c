package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/nadmax/ganttline/internal/client"
	"github.com/nadmax/ganttline/internal/task"
	"github.com/nadmax/ganttline/internal/timeline"
	"github.com/nadmax/ganttline/internal/tui"
)

func (a *app) newViewCmd() *cobra.Command {
	var (
		opts   tui.Options
		policy string
	)

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Open the interactive terminal timeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Buffer.Policy = timeline.BufferPolicy(policy)
			if err := opts.Buffer.Policy.Validate(); err != nil {
				return err
			}

			c := a.client()
			palette, err := c.Stages(cmd.Context())
			if err != nil {
				return err
			}
			opts.Palette = palette

			load := func(ctx context.Context) ([]task.Task, error) {
				return c.ListTasks(ctx, client.ListOptions{})
			}
			return tui.Run(cmd.Context(), load, opts)
		},
	}

	cmd.Flags().Float64Var(&opts.Zoom, "zoom", 1, "initial zoom, in terminal columns per day")
	cmd.Flags().BoolVarP(&opts.OnlyIncomplete, "incomplete", "i", false, "start with completed tasks hidden")
	cmd.Flags().StringVar(&policy, "buffer-policy", string(timeline.BufferDays), "range padding: days or months")
	cmd.Flags().IntVar(&opts.Buffer.Days, "buffer-days", timeline.DefaultBufferDays, "days of padding with the days policy")
	return cmd
}
