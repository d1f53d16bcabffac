package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Authentication schemes supported for the Jira connection.
const (
	AuthBasic  = "basic"
	AuthBearer = "bearer"
)

// JiraConfig holds the non-secret part of the Jira connection.
type JiraConfig struct {
	// BaseURL is the root URL of the Jira instance.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Username is used for basic authentication and as the keyring
	// lookup key for the password.
	Username string `mapstructure:"username" yaml:"username"`

	// Auth selects "basic" (username + password) or "bearer" (PAT).
	Auth string `mapstructure:"auth" yaml:"auth"`
}

// WorklogConfig controls whether worklogs are posted and their defaults.
type WorklogConfig struct {
	Enabled        bool `mapstructure:"enabled" yaml:"enabled"`
	DefaultMinutes int  `mapstructure:"default_minutes" yaml:"default_minutes"`
}

// JournalConfig controls the local run history.
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Jira     JiraConfig    `mapstructure:"jira" yaml:"jira"`
	Worklog  WorklogConfig `mapstructure:"worklog" yaml:"worklog"`
	Journal  JournalConfig `mapstructure:"journal" yaml:"journal"`
	AutoOpen bool          `mapstructure:"auto_open" yaml:"auto_open"`
	Buttons  []Button      `mapstructure:"buttons" yaml:"buttons"`
}

// BaseURL returns the configured Jira URL without trailing slashes.
func (c *AppConfig) BaseURL() string {
	return strings.TrimRight(strings.TrimSpace(c.Jira.BaseURL), "/")
}

// configDir returns ~/.config/devflow, or the working directory when the
// home directory cannot be determined.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "devflow")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/devflow/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// DefaultJournalPath returns the default location of the run journal.
func DefaultJournalPath() string {
	return filepath.Join(configDir(), "journal.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Jira: JiraConfig{
			Auth: AuthBasic,
		},
		Worklog: WorklogConfig{
			Enabled:        true,
			DefaultMinutes: 5,
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    DefaultJournalPath(),
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Environment variables prefixed with DEVFLOW_ override file values
// (e.g., DEVFLOW_JIRA_BASE_URL). If the file does not exist, defaults
// are used. Missing buttons fall back to the built-in presets.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("DEVFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("jira.base_url", "")
	v.SetDefault("jira.username", "")
	v.SetDefault("jira.auth", AuthBasic)
	v.SetDefault("worklog.enabled", true)
	v.SetDefault("worklog.default_minutes", 5)
	v.SetDefault("journal.enabled", true)
	v.SetDefault("journal.path", DefaultJournalPath())
	v.SetDefault("auto_open", false)

	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, isNotFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !isNotFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.Jira.Auth = strings.ToLower(strings.TrimSpace(cfg.Jira.Auth))
	switch cfg.Jira.Auth {
	case AuthBasic, AuthBearer:
	case "":
		cfg.Jira.Auth = AuthBasic
	default:
		return nil, fmt.Errorf("parsing config %s: unknown jira.auth %q", path, cfg.Jira.Auth)
	}

	if len(cfg.Buttons) == 0 {
		defaults, err := DefaultButtons()
		if err != nil {
			return nil, err
		}
		cfg.Buttons = defaults
	} else {
		for i := range cfg.Buttons {
			cfg.Buttons[i] = cfg.Buttons[i].Normalize()
		}
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("jira", cfg.Jira)
	v.Set("worklog", cfg.Worklog)
	v.Set("journal", cfg.Journal)
	v.Set("auto_open", cfg.AutoOpen)
	v.Set("buttons", cfg.Buttons)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
