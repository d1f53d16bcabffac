package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/devflow/internal/crossref"
)

// mergeRequest holds the fields of a pull or merge request that issue
// keys are looked up in.
type mergeRequest struct {
	branch      string
	title       string
	description string
	known       []string
}

func (mr mergeRequest) empty() bool {
	return mr.branch == "" && mr.title == "" && mr.description == ""
}

// issueKeys returns the keys referenced by the branch, title, description
// and extra text, in that order. With known keys set, others are dropped.
func (mr mergeRequest) issueKeys(text string) []string {
	var known map[string]bool
	if len(mr.known) > 0 {
		known = make(map[string]bool, len(mr.known))
		for _, k := range mr.known {
			known[strings.ToUpper(strings.TrimSpace(k))] = true
		}
	}
	return crossref.MatchCrossRefs(mr.branch, mr.title, strings.TrimSpace(mr.description+"\n"+text), known)
}

func keysCmd() *cobra.Command {
	var mr mergeRequest

	cmd := &cobra.Command{
		Use:   "keys [TEXT...]",
		Short: "Print the Jira issue keys found in text, a merge request or stdin",
		Example: `  devflow keys "ABC-1: see https://jira.example.com/browse/ABC-2"
  git log -1 --format=%B | devflow keys
  devflow keys --branch feature/ABC-3-login --title "ABC-4: fix login" --known ABC-3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if text == "" && mr.empty() {
				var err error
				if text, err = readText(cmd.InOrStdin(), stdinPiped()); err != nil {
					return err
				}
			}
			for _, k := range mr.issueKeys(text) {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mr.branch, "branch", "", "merge request source branch")
	cmd.Flags().StringVar(&mr.title, "title", "", "merge request title")
	cmd.Flags().StringVar(&mr.description, "description", "", "merge request description")
	cmd.Flags().StringArrayVar(&mr.known, "known", nil, "only print this key if referenced (repeatable)")
	return cmd
}
