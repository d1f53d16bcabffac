package main

import (
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nhle/devflow/internal/app"
	"github.com/nhle/devflow/internal/model"
)

func buttonsCmd() *cobra.Command {
	var mrStatus, branch string

	cmd := &cobra.Command{
		Use:   "buttons",
		Short: "List the button presets shown for a merge request",
		Example: `  devflow buttons
  devflow buttons --mr-status merged --branch main`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(false, func(svc *app.Service) error {
				renderButtons(cmd.OutOrStdout(), svc.Buttons(mrStatus, branch))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&mrStatus, "mr-status", "", "merge request state (open, merged, closed, canceled)")
	cmd.Flags().StringVar(&branch, "branch", "", "merge request target branch")
	return cmd
}

func renderButtons(w io.Writer, buttons []model.Button) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Label", "Transition", "Target status", "MR status", "Branches", "Auto on"})
	for _, b := range buttons {
		transition := b.TransitionName
		if transition == "" {
			transition = "(log time only)"
		}
		tw.AppendRow(table.Row{
			b.Label,
			transition,
			b.TargetStatus,
			b.MRStatus,
			strings.ReplaceAll(b.Branches, ",", ", "),
			strings.Join(autoActions(b), ", "),
		})
	}
	tw.Render()
}

// autoActions lists the review actions that fire b.
func autoActions(b model.Button) []string {
	var out []string
	for _, action := range []string{model.ActionApprove, model.ActionMerge, model.ActionSubmitReview} {
		if b.AutoTriggered(action) {
			out = append(out, action)
		}
	}
	return out
}
