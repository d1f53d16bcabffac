package app

import (
	"fmt"
	gosync "sync"

	"github.com/nhle/devflow/internal/credential"
	"github.com/nhle/devflow/internal/model"
	"github.com/nhle/devflow/internal/source"
)

// Settings holds the loaded configuration and the resolved Jira
// connection. It is loaded once before the first batch and refreshed
// only on request; readers never observe a half-refreshed value.
type Settings struct {
	path    string
	secrets credential.Store

	mu      gosync.RWMutex
	cfg     *model.AppConfig
	conn    model.Connection
	connErr error
}

// NewSettings creates Settings reading the config file at path and
// secrets from secrets. Nothing is read until Load is called.
func NewSettings(path string, secrets credential.Store) *Settings {
	return &Settings{path: path, secrets: secrets}
}

// Load reads the configuration if it has not been read yet.
func (s *Settings) Load() error {
	s.mu.RLock()
	loaded := s.cfg != nil
	s.mu.RUnlock()
	if loaded {
		return nil
	}
	return s.Refresh()
}

// Refresh re-reads the configuration file and the secret. A broken file
// is an error; a missing base URL or secret is not, and surfaces later
// from Connection.
func (s *Settings) Refresh() error {
	cfg, err := model.LoadConfig(s.path)
	if err != nil {
		return err
	}

	conn, connErr := resolveConnection(cfg, s.secrets)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	s.conn = conn
	s.connErr = connErr
	return nil
}

// Config returns the loaded configuration. It is nil before Load.
func (s *Settings) Config() *model.AppConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Path returns the configuration file path.
func (s *Settings) Path() string {
	return s.path
}

// Connection returns the resolved Jira connection, or an error matching
// source.ErrConfigurationMissing.
func (s *Settings) Connection() (model.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cfg == nil {
		return model.Connection{}, fmt.Errorf("%w: settings not loaded", source.ErrConfigurationMissing)
	}
	return s.conn, s.connErr
}

func resolveConnection(cfg *model.AppConfig, secrets credential.Store) (model.Connection, error) {
	baseURL := cfg.BaseURL()
	if baseURL == "" {
		return model.Connection{}, fmt.Errorf("%w: jira.base_url is empty", source.ErrConfigurationMissing)
	}

	header, err := credential.ResolveAuthHeader(cfg.Jira, secrets)
	if err != nil {
		return model.Connection{BaseURL: baseURL}, err
	}
	return model.Connection{BaseURL: baseURL, AuthHeader: header}, nil
}
