// Package cli implements the ganttline command-line client.
package cli

import (
	"encoding/json"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nadmax/ganttline/internal/client"
	"github.com/nadmax/ganttline/internal/config"
)

// app carries the settings shared by every subcommand.
type app struct {
	v *viper.Viper
}

func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	a := &app{v: viper.New()}

	cmd := &cobra.Command{
		Use:           "ganttline",
		Short:         "Milestone timeline client",
		Long:          "ganttline manages milestone tasks on a ganttline server and renders them as a Gantt timeline.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	flags := cmd.PersistentFlags()
	flags.String("server", client.DefaultServer, "ganttline server URL")
	flags.Duration("timeout", 30*time.Second, "HTTP request timeout")
	flags.Bool("json", false, "print JSON instead of tables")
	flags.String("config", "", "config file (used by the calendar commands)")

	a.v.SetEnvPrefix(config.EnvPrefix)
	for _, name := range []string{"server", "timeout", "json", "config"} {
		_ = a.v.BindPFlag(name, flags.Lookup(name))
		_ = a.v.BindEnv(name)
	}

	cmd.AddCommand(
		a.newTasksCmd(),
		a.newImportCmd(),
		a.newRenderCmd(),
		a.newViewCmd(),
		a.newStatsCmd(),
		a.newCalendarCmd(),
	)

	return cmd
}

func (a *app) client() *client.Client {
	return client.New(a.v.GetString("server"), client.WithTimeout(a.v.GetDuration("timeout")))
}

func (a *app) jsonOutput() bool {
	return a.v.GetBool("json")
}

func (a *app) loadConfig() (*config.Config, error) {
	loader := config.NewLoader()
	if path := a.v.GetString("config"); path != "" {
		loader.SetConfigFile(path)
	}
	return loader.Load()
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
