package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nhle/devflow/internal/app"
	"github.com/nhle/devflow/internal/model"
	"github.com/nhle/devflow/internal/status"
	"github.com/nhle/devflow/internal/theme"
)

func checkCmd() *cobra.Command {
	var targets []string

	cmd := &cobra.Command{
		Use:   "check KEY...",
		Short: "Show whether issues are already in a target status",
		Example: `  devflow check ABC-1 ABC-2 --target "In Review" --target "Code Review"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(targets) == 0 {
				return fmt.Errorf("at least one --target is required")
			}
			keys, err := collectKeys(args, "", nil, false)
			if err != nil {
				return err
			}

			return withService(false, func(svc *app.Service) error {
				c := svc.Check(cmd.Context(), model.StatusCheckRequest{
					IssueKeys:      keys,
					TargetStatus:   targets[0],
					TargetStatuses: targets,
				})
				renderStatuses(cmd.OutOrStdout(), c)

				d := status.Decide(c)
				fmt.Fprintf(cmd.OutOrStdout(), "decision: %s\n", d)
				if d == status.Abort {
					return fmt.Errorf("status check failed for %d issue(s)", len(c.Errors))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVar(&targets, "target", nil, "target status name (repeat for equivalent names)")
	return cmd
}

func renderStatuses(w io.Writer, c model.StatusClassification) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Issue", "Status", "In target"})
	for _, s := range c.Statuses {
		in := "no"
		if s.IsInTarget {
			in = "yes"
		}
		tw.AppendRow(table.Row{s.IssueKey, theme.StatusStyle(s.IsInTarget).Render(s.CurrentStatus), in})
	}
	tw.Render()

	for _, e := range c.Errors {
		fmt.Fprintln(w, theme.FailureStyle.Render("✗"), e)
	}
}
