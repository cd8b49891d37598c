package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nadmax/ganttline/internal/client"
	"github.com/nadmax/ganttline/internal/csvio"
)

func (a *app) newRenderCmd() *cobra.Command {
	var (
		output string
		format string
		opts   client.ChartOptions
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the timeline to a file",
		Long:  "Render the timeline as SVG, as the JSON chart geometry, or as a CSV schedule. Use -o - for stdout.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = strings.TrimPrefix(filepath.Ext(output), ".")
			}
			switch format {
			case "svg", "json", "csv":
			default:
				return fmt.Errorf("unsupported format %q (want svg, json or csv)", format)
			}

			var out io.Writer = cmd.OutOrStdout()
			if output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}

			c := a.client()
			switch format {
			case "svg":
				svg, err := c.TimelineSVG(cmd.Context(), opts)
				if err != nil {
					return err
				}
				if _, err := out.Write(svg); err != nil {
					return err
				}
			case "json":
				chart, err := c.Timeline(cmd.Context(), opts)
				if err != nil {
					return err
				}
				if err := writeJSON(out, chart); err != nil {
					return err
				}
			case "csv":
				chart, err := c.Timeline(cmd.Context(), opts)
				if err != nil {
					return err
				}
				if err := csvio.WriteSchedule(out, *chart, time.Now()); err != nil {
					return err
				}
			}

			if output != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "timeline.svg", "output file, - for stdout")
	cmd.Flags().StringVarP(&format, "format", "f", "", "svg, json or csv (default from the output extension)")
	cmd.Flags().Float64Var(&opts.Zoom, "zoom", 0, "zoom factor (server default when 0)")
	cmd.Flags().BoolVarP(&opts.Incomplete, "incomplete", "i", false, "only draw incomplete tasks")
	return cmd
}
