// Package prompt holds the interactive forms used by the CLI.
package prompt

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/nhle/devflow/internal/status"
)

// Confirm asks the user whether to proceed after a status warning.
// An aborted form counts as "no".
func Confirm(w status.Warning) (bool, error) {
	proceed := false
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(w.Title).
				Description(w.Message).
				Affirmative("Proceed").
				Negative("Cancel").
				Value(&proceed),
		),
	).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("asking for confirmation: %w", err)
	}
	return proceed, nil
}

// Secret asks for a password or token without echoing it.
func Secret(title, description string) (string, error) {
	var value string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Description(description).
				EchoMode(huh.EchoModePassword).
				Value(&value).
				Validate(validateRequired(title)),
		),
	).Run()
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return value, nil
}

func validateRequired(field string) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}
