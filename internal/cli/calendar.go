package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nadmax/ganttline/internal/client"
	"github.com/nadmax/ganttline/internal/gcal"
)

func (a *app) newCalendarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Google Calendar export",
		Long:  "Authorize ganttline against Google Calendar and push tasks as all-day events. Paths come from the calendar section of the config file.",
	}
	cmd.AddCommand(a.newCalendarAuthCmd(), a.newCalendarSyncCmd())
	return cmd
}

func (a *app) newCalendarAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Obtain and store an OAuth token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if !cfg.CalendarEnabled() {
				return errors.New("calendar.credentials_file and calendar.token_file must be set")
			}

			oauthCfg, err := gcal.LoadConfig(cfg.Calendar.CredentialsFile)
			if err != nil {
				return err
			}
			tok, err := gcal.Authorize(cmd.Context(), oauthCfg, cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := gcal.SaveToken(cfg.Calendar.TokenFile, tok); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Token saved to %s\n", cfg.Calendar.TokenFile)
			return nil
		},
	}
}

func (a *app) newCalendarSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push every dated task to the calendar now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if !cfg.CalendarEnabled() {
				return errors.New("calendar.credentials_file and calendar.token_file must be set")
			}

			tasks, err := a.client().ListTasks(cmd.Context(), client.ListOptions{})
			if err != nil {
				return err
			}

			srv, err := gcal.NewService(cmd.Context(), cfg.Calendar.CredentialsFile, cfg.Calendar.TokenFile)
			if err != nil {
				return err
			}
			result, err := gcal.NewExporter(srv, cfg.Calendar.CalendarID).Sync(cmd.Context(), tasks)

			fmt.Fprintf(cmd.OutOrStdout(), "%d created, %d updated, %d unchanged, %d skipped\n",
				result.Created, result.Updated, result.Unchanged, result.Skipped)
			return err
		},
	}
}
