package credential

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/nhle/devflow/internal/model"
	"github.com/nhle/devflow/internal/source"
)

// BasicAuth builds a basic Authorization header value.
func BasicAuth(username, password string) string {
	raw := username + ":" + password
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))
}

// BearerAuth builds a bearer Authorization header value for a personal
// access token.
func BearerAuth(token string) string {
	return "Bearer " + token
}

// SecretKey returns the keyring key holding the secret for cfg: the
// username for basic auth, a fixed key for bearer tokens.
func SecretKey(cfg model.JiraConfig) string {
	if cfg.Auth == model.AuthBearer {
		return "jira-token"
	}
	return "jira:" + strings.TrimSpace(cfg.Username)
}

// ResolveAuthHeader reads the secret for cfg from secrets and builds the
// Authorization header. A missing username or secret yields an error
// matching source.ErrConfigurationMissing.
func ResolveAuthHeader(cfg model.JiraConfig, secrets Store) (string, error) {
	username := strings.TrimSpace(cfg.Username)
	if cfg.Auth != model.AuthBearer && username == "" {
		return "", fmt.Errorf("%w: jira.username is empty", source.ErrConfigurationMissing)
	}

	secret, err := secrets.Get(SecretKey(cfg))
	if errors.Is(err, ErrNotFound) || (err == nil && secret == "") {
		return "", fmt.Errorf(
			"%w: no secret stored for %s (run 'devflow config set-secret')",
			source.ErrConfigurationMissing, SecretKey(cfg),
		)
	}
	if err != nil {
		return "", err
	}

	if cfg.Auth == model.AuthBearer {
		return BearerAuth(secret), nil
	}
	return BasicAuth(username, secret), nil
}
