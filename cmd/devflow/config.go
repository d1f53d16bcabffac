package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/nhle/devflow/internal/credential"
	"github.com/nhle/devflow/internal/model"
	"github.com/nhle/devflow/internal/ui/prompt"
)

func configCmd() *cobra.Command {
	cfgCmd := &cobra.Command{Use: "config", Short: "Manage devflow configuration"}
	cfgCmd.AddCommand(configShowCmd())
	cfgCmd.AddCommand(configInitCmd())
	cfgCmd.AddCommand(configSetSecretCmd())
	return cfgCmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			newLogger()
			settings, err := loadSettings()
			if err != nil {
				return err
			}

			out, err := yaml.Marshal(settings.Config())
			if err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", settings.Path(), out)

			if _, err := settings.Connection(); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "# connection: %v\n", err)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "# connection: ready")
			}
			return nil
		},
	}
}

func configInitCmd() *cobra.Command {
	var jc model.JiraConfig
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the Jira connection and default presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.GetString("config")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			cfg, err := model.LoadConfig(path)
			if err != nil {
				return err
			}
			cfg.Jira = jc
			if err := model.SaveConfig(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&jc.BaseURL, "base-url", "", "Jira base URL")
	cmd.Flags().StringVar(&jc.Username, "username", "", "Jira username (basic auth)")
	cmd.Flags().StringVar(&jc.Auth, "auth", model.AuthBasic, "authentication: basic or bearer")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	_ = cmd.MarkFlagRequired("base-url")
	return cmd
}

func configSetSecretCmd() *cobra.Command {
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   "set-secret",
		Short: "Store the Jira password or token in the system keyring",
		RunE: func(cmd *cobra.Command, args []string) error {
			newLogger()
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			jc := settings.Config().Jira
			if jc.Auth == model.AuthBasic && strings.TrimSpace(jc.Username) == "" {
				return fmt.Errorf("set jira.username before storing a password")
			}

			var secret string
			if fromStdin {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("reading secret from stdin: %w", err)
				}
				secret = strings.TrimSpace(line)
			} else {
				title := "Jira password"
				if jc.Auth == model.AuthBearer {
					title = "Jira personal access token"
				}
				secret, err = prompt.Secret(title, "Stored in the system keyring, never in the config file")
				if err != nil {
					return err
				}
			}
			if secret == "" {
				return fmt.Errorf("empty secret")
			}

			key := credential.SecretKey(jc)
			if err := (credential.System{}).Set(key, secret); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %s\n", key)
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read the secret from the first line of stdin")
	return cmd
}
