package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/devflow/internal/app"
	"github.com/nhle/devflow/internal/crossref"
	"github.com/nhle/devflow/internal/model"
	"github.com/nhle/devflow/internal/status"
	"github.com/nhle/devflow/internal/theme"
	"github.com/nhle/devflow/internal/ui/progress"
	"github.com/nhle/devflow/internal/ui/prompt"
)

// runOptions are the run flags that do not shape the batch itself.
type runOptions struct {
	yes       bool
	skipCheck bool
	on        string
	branch    string
}

func runCmd() *cobra.Command {
	var a app.Action
	var text string
	var opts runOptions
	var noJournal bool

	cmd := &cobra.Command{
		Use:   "run [KEY...]",
		Short: "Transition issues and log work in one batch",
		Long: `Apply a transition to every issue and split the worklog minutes across
them. Issue keys come from the arguments, from --text, or from stdin
(Jira browse links and bare keys are both recognised).

Before a transition, the current statuses are checked; if some issues
are already in the target status you are asked to confirm.

With --on, every preset configured to fire on that review action for the
--branch target branch is run in turn, whatever the merge request state.`,
		Example: `  # Press the "In Review" preset for two issues and log 30 minutes
  devflow run ABC-1 ABC-2 --button "In Review" --minutes 30

  # Transition only, keys taken from a pull request title
  devflow run --transition "Done" --minutes 0 --text "ABC-7: fix login"

  # Keys from stdin, no prompts
  git log -1 --format=%s | devflow run --button Testing --yes

  # Fire the presets bound to a merge into main
  devflow run ABC-1 --on merge --branch main --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.on != "" && (a.Button != "" || a.TransitionName != "") {
				return fmt.Errorf("--on cannot be combined with --button or --transition")
			}

			keys, err := collectKeys(args, text, cmd.InOrStdin(), stdinPiped())
			if err != nil {
				return err
			}
			a.IssueKeys = keys

			return withService(!noJournal, func(svc *app.Service) error {
				if !cmd.Flags().Changed("minutes") {
					a.TotalMinutes = svc.Settings().Config().Worklog.DefaultMinutes
				}
				if opts.on == "" {
					return runAction(cmd, svc, a, opts)
				}

				presets, err := svc.AutoButtons(opts.on, opts.branch)
				if err != nil {
					return err
				}
				if len(presets) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), theme.HelpStyle.Render(
						fmt.Sprintf("No preset fires on %s for branch %q.", opts.on, opts.branch),
					))
					return nil
				}

				var errs []error
				for _, b := range presets {
					act := a
					act.Button = b.Label
					fmt.Fprintln(cmd.OutOrStdout(), theme.HeaderStyle.Render(b.Label))
					if err := runAction(cmd, svc, act, opts); err != nil {
						errs = append(errs, fmt.Errorf("%s: %w", b.Label, err))
					}
				}
				return errors.Join(errs...)
			})
		},
	}

	cmd.Flags().StringVarP(&a.Button, "button", "b", "", "button preset label")
	cmd.Flags().StringVarP(&a.TransitionName, "transition", "t", "", "transition name (overrides the preset)")
	cmd.Flags().IntVarP(&a.TotalMinutes, "minutes", "m", 0, "total minutes to log, split across issues (default from config)")
	cmd.Flags().StringVarP(&a.Comment, "comment", "c", "", "worklog comment (overrides the preset)")
	cmd.Flags().StringVar(&text, "text", "", "free text to extract issue keys from")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "proceed without confirmation")
	cmd.Flags().BoolVar(&opts.skipCheck, "skip-check", false, "skip the status check before transitioning")
	cmd.Flags().StringVar(&opts.on, "on", "", "run the presets fired by a review action (approve, merge, submitReview)")
	cmd.Flags().StringVar(&opts.branch, "branch", "", "merge request target branch, required with --on")
	cmd.Flags().BoolVar(&noJournal, "no-journal", false, "do not record this run in the journal")
	return cmd
}

// runAction plans, checks and submits one action, then prints the
// summary.
func runAction(cmd *cobra.Command, svc *app.Service, a app.Action, opts runOptions) error {
	cfg := svc.Settings().Config()

	req, check, err := svc.Plan(a)
	if err != nil {
		return err
	}

	if check != nil && !opts.skipCheck {
		proceed, err := confirmStatuses(cmd, svc, *check, opts.yes)
		if err != nil {
			return err
		}
		if !proceed {
			fmt.Fprintln(cmd.OutOrStdout(), theme.HelpStyle.Render("Cancelled."))
			return nil
		}
	}

	result, err := progress.Wait(
		cmd.ErrOrStderr(), interactive(), describeBatch(req),
		svc.Submit(cmd.Context(), a.Button, req),
	)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), theme.Summary(result))
	if cfg.AutoOpen && result.Success > 0 {
		printBrowseURLs(cmd.OutOrStdout(), svc, req.IssueKeys)
	}

	switch {
	case result.Attempted() == 0 && len(result.Errors) > 0:
		return errors.New(result.Errors[0])
	case result.Failed > 0:
		return fmt.Errorf("%d of %d operation(s) failed", result.Failed, result.Attempted())
	}
	return nil
}

// collectKeys gathers issue keys from arguments, --text, and stdin, in
// that order of preference. Stdin is read only when readStdin is set.
func collectKeys(args []string, text string, stdin io.Reader, readStdin bool) ([]string, error) {
	var keys []string
	for _, arg := range args {
		if k := strings.ToUpper(strings.TrimSpace(arg)); k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) > 0 {
		return keys, nil
	}

	if text == "" {
		var err error
		if text, err = readText(stdin, readStdin); err != nil {
			return nil, err
		}
	}
	return crossref.ExtractIssueKeys(text), nil
}

// readText returns everything on stdin when enabled.
func readText(stdin io.Reader, enabled bool) (string, error) {
	if !enabled || stdin == nil {
		return "", nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(b), nil
}

// confirmStatuses runs the status check and applies the three-way
// decision. It reports whether the batch should go ahead.
func confirmStatuses(cmd *cobra.Command, svc *app.Service, check model.StatusCheckRequest, yes bool) (bool, error) {
	c := svc.Check(cmd.Context(), check)
	d := status.Decide(c)

	w, warn := status.Describe(d, check.TargetStatus, c)
	if !warn {
		return true, nil
	}
	if d == status.Abort {
		return false, fmt.Errorf("%s:\n%s\n(use --skip-check to transition anyway)", w.Title, w.Message)
	}

	if yes {
		fmt.Fprintln(cmd.ErrOrStderr(), theme.WarningStyle.Render(w.Title))
		return true, nil
	}
	if !interactive() {
		return false, fmt.Errorf("%s (use --yes to proceed)", strings.ToLower(w.Title))
	}
	return prompt.Confirm(w)
}

func describeBatch(req model.BatchRequest) string {
	var parts []string
	if req.TransitionName != "" {
		parts = append(parts, fmt.Sprintf("transitioning %d issue(s) to %q", len(req.IssueKeys), req.TransitionName))
	}
	if n := len(req.Worklogs); n > 0 {
		parts = append(parts, fmt.Sprintf("logging work on %d issue(s)", n))
	}
	if len(parts) == 0 {
		return "Working"
	}
	s := strings.Join(parts, ", ")
	return strings.ToUpper(s[:1]) + s[1:]
}

func printBrowseURLs(w io.Writer, svc *app.Service, keys []string) {
	conn, err := svc.Settings().Connection()
	if err != nil {
		return
	}
	for _, k := range keys {
		fmt.Fprintln(w, conn.BrowseURL(k))
	}
}
