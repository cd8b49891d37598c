package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nadmax/ganttline/internal/client"
	"github.com/nadmax/ganttline/internal/task"
)

func (a *app) newTasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Manage milestone tasks",
	}

	cmd.AddCommand(
		a.newTasksListCmd(),
		a.newTasksShowCmd(),
		a.newTasksAddCmd(),
		a.newTasksUpdateCmd(),
		a.newTasksCompleteCmd(),
		a.newTasksDeleteCmd(),
	)
	return cmd
}

func (a *app) newTasksListCmd() *cobra.Command {
	var opts client.ListOptions

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := a.client().ListTasks(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if a.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), tasks)
			}
			return writeTaskTable(cmd.OutOrStdout(), tasks)
		},
	}

	cmd.Flags().BoolVarP(&opts.Incomplete, "incomplete", "i", false, "only list incomplete tasks")
	cmd.Flags().StringVar(&opts.Stage, "stage", "", "only list tasks of this stage")
	return cmd
}

func (a *app) newTasksShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.client().GetTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), t)
			}
			return writeTaskDetail(cmd.OutOrStdout(), t)
		},
	}
}

// taskFlags registers the editable task fields on a command.
func taskFlags(fs *pflag.FlagSet) {
	fs.String("stage", "", "stage label")
	fs.String("milestone", "", "milestone title")
	fs.String("start", "", "start date (YYYY-MM-DD)")
	fs.String("end", "", "end date (YYYY-MM-DD)")
	fs.String("description", "", "description")
	fs.String("holiday-impact", "", "holiday impact notes")
	fs.String("dependencies", "", "dependencies")
	fs.String("responsible", "", "responsible person")
	fs.String("risks", "", "risks")
}

// patchFromFlags builds a patch from the flags that were explicitly set.
func patchFromFlags(fs *pflag.FlagSet) task.Patch {
	var p task.Patch
	str := func(name string, dst **string) {
		if fs.Changed(name) {
			v, _ := fs.GetString(name)
			*dst = &v
		}
	}

	str("stage", &p.Stage)
	str("milestone", &p.Milestone)
	str("start", &p.StartDate)
	str("end", &p.EndDate)
	str("description", &p.Description)
	str("holiday-impact", &p.HolidayImpact)
	str("dependencies", &p.Dependencies)
	str("responsible", &p.Responsible)
	str("risks", &p.Risks)

	if fs.Changed("completed") {
		v, _ := fs.GetBool("completed")
		p.Completed = &v
	}
	return p
}

func (a *app) newTasksAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := &task.Task{}
			t.Apply(patchFromFlags(cmd.Flags()))

			created, err := a.client().CreateTask(cmd.Context(), t)
			if err != nil {
				return err
			}
			if a.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), created)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Created task %s\n", created.ID)
			return err
		},
	}

	taskFlags(cmd.Flags())
	cmd.Flags().Bool("completed", false, "mark the task completed")
	_ = cmd.MarkFlagRequired("milestone")
	return cmd
}

func (a *app) newTasksUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := patchFromFlags(cmd.Flags())
			if patch == (task.Patch{}) {
				return fmt.Errorf("nothing to update, pass at least one field flag")
			}

			updated, err := a.client().UpdateTask(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			if a.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), updated)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s\n", updated.ID)
			return err
		},
	}

	taskFlags(cmd.Flags())
	cmd.Flags().Bool("completed", false, "set the completion flag")
	return cmd
}

func (a *app) newTasksCompleteCmd() *cobra.Command {
	var undo bool

	cmd := &cobra.Command{
		Use:   "complete <id>...",
		Short: "Mark tasks completed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			done := !undo
			c := a.client()
			for _, id := range args {
				if _, err := c.UpdateTask(cmd.Context(), id, task.Patch{Completed: &done}); err != nil {
					return fmt.Errorf("task %s: %w", id, err)
				}
				verb := "Completed"
				if undo {
					verb = "Reopened"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s task %s\n", verb, id)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&undo, "undo", false, "mark the tasks incomplete again")
	return cmd
}

func (a *app) newTasksDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"rm"},
		Short:   "Delete tasks",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.client()
			for _, id := range args {
				if err := c.DeleteTask(cmd.Context(), id); err != nil {
					return fmt.Errorf("task %s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", id)
			}
			return nil
		},
	}
}

func writeTaskTable(out io.Writer, tasks []task.Task) error {
	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTAGE\tMILESTONE\tSTART\tEND\tDONE")
	for _, t := range tasks {
		done := ""
		if t.Completed {
			done = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.StageOrDefault(), t.Milestone, t.StartDate, t.EndDate, done)
	}
	return w.Flush()
}

func writeTaskDetail(out io.Writer, t *task.Task) error {
	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	rows := [][2]string{
		{"ID", t.ID},
		{"Stage", t.StageOrDefault()},
		{"Milestone", t.Milestone},
		{"Start", t.StartDate},
		{"End", t.EndDate},
		{"Completed", fmt.Sprint(t.Completed)},
		{"Description", t.Description},
		{"Responsible", t.Responsible},
		{"Dependencies", t.Dependencies},
		{"Risks", t.Risks},
		{"Holiday impact", t.HolidayImpact},
	}
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		fmt.Fprintf(w, "%s:\t%s\n", r[0], r[1])
	}
	return w.Flush()
}
