package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nhle/devflow/internal/app"
	"github.com/nhle/devflow/internal/model"
	"github.com/nhle/devflow/internal/store"
	"github.com/nhle/devflow/internal/theme"
)

func historyCmd() *cobra.Command {
	var f store.RunFilter

	cmd := &cobra.Command{
		Use:   "history [ID]",
		Short: "List journaled batch runs, newest first, or show one run",
		Example: `  devflow history --issue ABC-1
  devflow history 0b6f3c1e-8d4a-4f57-9a39-0c2d7f1e5a10`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(true, func(svc *app.Service) error {
				if !svc.Settings().Config().Journal.Enabled {
					return fmt.Errorf("the run journal is disabled (journal.enabled: false)")
				}
				if len(args) == 1 {
					run, err := svc.HistoryRun(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					if run == nil {
						return fmt.Errorf("no run with ID %q", args[0])
					}
					renderRun(cmd.OutOrStdout(), *run)
					return nil
				}

				runs, err := svc.History(cmd.Context(), f)
				if err != nil {
					return err
				}
				renderRuns(cmd.OutOrStdout(), runs)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&f.Limit, "limit", "n", 20, "maximum runs to show")
	cmd.Flags().IntVar(&f.Offset, "offset", 0, "runs to skip")
	cmd.Flags().StringVar(&f.IssueKey, "issue", "", "only runs touching this issue key")
	return cmd
}

func renderRuns(w io.Writer, runs []model.RunRecord) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"ID", "Started", "Button", "Transition", "Issues", "Minutes", "OK", "Failed"})
	for _, r := range runs {
		tw.AppendRow(table.Row{
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Button,
			r.TransitionName,
			strings.ReplaceAll(r.IssueKeys, ",", ", "),
			r.WorklogMinutes,
			r.Success,
			r.Failed,
		})
	}
	tw.Render()
}

// renderRun prints one run with its full error list.
func renderRun(w io.Writer, r model.RunRecord) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendRows([]table.Row{
		{"ID", r.ID},
		{"Started", r.StartedAt.Local().Format("2006-01-02 15:04:05")},
		{"Duration", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond)},
		{"Button", r.Button},
		{"Transition", r.TransitionName},
		{"Issues", strings.ReplaceAll(r.IssueKeys, ",", ", ")},
		{"Minutes", r.WorklogMinutes},
		{"OK", r.Success},
		{"Failed", r.Failed},
	})
	tw.Render()

	for _, e := range strings.Split(r.Errors, "\n") {
		if e != "" {
			fmt.Fprintln(w, theme.FailureStyle.Render("✗"), e)
		}
	}
}
