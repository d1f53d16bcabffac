package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/devflow/internal/readiness"
	"github.com/nhle/devflow/internal/source"
	"github.com/nhle/devflow/internal/source/jira"
	"github.com/nhle/devflow/internal/theme"
)

func pingCmd() *cobra.Command {
	var retries int
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Test the Jira connection and credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if retries < 0 {
				return fmt.Errorf("--retries must not be negative")
			}
			logger := newLogger()
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			conn, err := settings.Connection()
			if err != nil {
				return err
			}

			adapter := jira.NewAdapter(conn, jira.WithLogger(logger))
			var name string
			err = readiness.Poll(cmd.Context(), retries+1, interval, func(ctx context.Context) error {
				n, err := adapter.ValidateConnection(ctx)
				if err != nil {
					return err
				}
				name = n
				return nil
			})
			if err != nil {
				if source.IsAuthError(err) {
					return fmt.Errorf("credentials rejected by %s: %w", conn.BaseURL, err)
				}
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), theme.SuccessStyle.Render("Connected as "+name))
			return nil
		},
	}

	cmd.Flags().IntVar(&retries, "retries", 0, "extra attempts while the server is not reachable")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "delay between attempts")
	return cmd
}
