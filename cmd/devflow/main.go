package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nhle/devflow/internal/app"
	"github.com/nhle/devflow/internal/credential"
	"github.com/nhle/devflow/internal/model"
	"github.com/nhle/devflow/internal/source/jira"
	"github.com/nhle/devflow/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "devflow",
	Short: "Batch Jira transitions and worklogs",
	Long: `devflow applies one Jira transition to many issues at once and logs work
on them, placing each worklog in a free slot of today's calendar.

Button presets combine a transition with a worklog comment; the built-in
presets are used until the config file defines its own.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("DEVFLOW")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().String("config", model.DefaultConfigPath(), "config file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log diagnostics to stderr")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func registerCommands() {
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(keysCmd())
	rootCmd.AddCommand(buttonsCmd())
	rootCmd.AddCommand(pingCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(configCmd())
}

// newLogger returns the diagnostics logger: stderr with --verbose,
// discarded otherwise.
func newLogger() *log.Logger {
	var out io.Writer = io.Discard
	if viper.GetBool("verbose") {
		out = os.Stderr
	}
	logger := log.New(out, "[devflow] ", log.LstdFlags)
	log.SetOutput(out)
	log.SetPrefix("[devflow] ")
	return logger
}

// loadSettings reads the config file and resolves the connection.
func loadSettings() (*app.Settings, error) {
	settings := app.NewSettings(viper.GetString("config"), credential.System{})
	if err := settings.Load(); err != nil {
		return nil, err
	}
	return settings, nil
}

// withService builds the service for one command invocation. The
// journal is opened only when enabled and journal is true.
func withService(journal bool, fn func(svc *app.Service) error) error {
	logger := newLogger()

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	var runs store.Store
	cfg := settings.Config()
	if journal && cfg.Journal.Enabled {
		s, err := openJournal(cfg.Journal.Path)
		if err != nil {
			logger.Printf("journal disabled: %v", err)
		} else {
			defer s.Close()
			runs = s
		}
	}

	return fn(app.NewService(settings, jira.Factory(jira.WithLogger(logger)), runs, logger))
}

func openJournal(path string) (*store.SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}
	return store.NewSQLiteStore(path)
}

// interactive reports whether prompts and spinners can be shown.
func interactive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stderr.Fd())
}

// stdinPiped reports whether stdin is redirected, whatever stderr is.
func stdinPiped() bool {
	fd := os.Stdin.Fd()
	return !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
}
