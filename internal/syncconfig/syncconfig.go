// Package syncconfig holds the client configuration and the stored
// credentials that decide whether writes go to the remote store.
package syncconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ServerConfig points at the remote task API.
type ServerConfig struct {
	URL     string `json:"url"`
	Timeout string `json:"timeout,omitempty"` // duration string, default "10s"
}

// LocalConfig tunes the on-device store.
type LocalConfig struct {
	Quota *int64 `json:"quota,omitempty"` // bytes, nil = default
}

// Config is the global config stored at ~/.config/tdash/config.json.
type Config struct {
	Server ServerConfig `json:"server"`
	Local  LocalConfig  `json:"local"`
}

// AuthCredentials stores authentication state at ~/.config/tdash/auth.json.
type AuthCredentials struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	ServerURL string `json:"server_url,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

const (
	defaultServerURL     = "http://localhost:8080"
	defaultRemoteTimeout = 10 * time.Second
	defaultLocalQuota    = int64(5 << 20)
)

// ConfigDir returns ~/.config/tdash, creating it if necessary.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".config", "tdash")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// LoadConfig reads the global config.
func LoadConfig() (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig writes the global config.
func SaveConfig(cfg *Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// LoadAuth reads stored credentials. It returns nil, nil when signed out.
func LoadAuth() (*AuthCredentials, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "auth.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var creds AuthCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// SaveAuth writes credentials with 0600 perms.
func SaveAuth(creds *AuthCredentials) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "auth.json"), data, 0600)
}

// ClearAuth removes the credentials file.
func ClearAuth() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(dir, "auth.json"))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// GetServerURL returns the remote API URL.
// Priority: TDASH_SERVER_URL env > auth.json server_url > config.json > default.
func GetServerURL() string {
	if v := os.Getenv("TDASH_SERVER_URL"); v != "" {
		return v
	}
	if creds, err := LoadAuth(); err == nil && creds != nil && creds.ServerURL != "" {
		return creds.ServerURL
	}
	cfg, err := LoadConfig()
	if err == nil && cfg.Server.URL != "" {
		return cfg.Server.URL
	}
	return defaultServerURL
}

// GetRemoteTimeout returns the per-request timeout for remote writes.
// Priority: TDASH_REMOTE_TIMEOUT env > config.json server.timeout > 10s.
func GetRemoteTimeout() time.Duration {
	if v := os.Getenv("TDASH_REMOTE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	cfg, err := LoadConfig()
	if err == nil && cfg.Server.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Server.Timeout); err == nil && d > 0 {
			return d
		}
	}
	return defaultRemoteTimeout
}

// GetLocalQuota returns the local store quota in bytes.
// Priority: TDASH_LOCAL_QUOTA env > config.json local.quota > 5 MiB.
func GetLocalQuota() int64 {
	if v := os.Getenv("TDASH_LOCAL_QUOTA"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			return n
		}
	}
	cfg, err := LoadConfig()
	if err == nil && cfg.Local.Quota != nil && *cfg.Local.Quota >= 0 {
		return *cfg.Local.Quota
	}
	return defaultLocalQuota
}

// GetToken returns the bearer token.
// Priority: TDASH_AUTH_TOKEN env > auth.json.
func GetToken() string {
	if v := os.Getenv("TDASH_AUTH_TOKEN"); v != "" {
		return v
	}
	creds, err := LoadAuth()
	if err == nil && creds != nil {
		return creds.Token
	}
	return ""
}

// GetUserID returns the signed-in user id.
// Priority: TDASH_USER_ID env > auth.json.
func GetUserID() string {
	if v := os.Getenv("TDASH_USER_ID"); v != "" {
		return v
	}
	creds, err := LoadAuth()
	if err == nil && creds != nil {
		return creds.UserID
	}
	return ""
}

// IsAuthenticated returns true when both a token and a user id are available.
func IsAuthenticated() bool {
	return GetToken() != "" && GetUserID() != ""
}

// Session exposes the stored credentials as an authentication signal.
// Every call re-reads the credentials, so signing in or out from another
// process takes effect on the next write.
type Session struct{}

// Authenticated reports whether credentials are present.
func (Session) Authenticated() bool { return IsAuthenticated() }

// UserID returns the signed-in user id, or "".
func (Session) UserID() string { return GetUserID() }

// Token returns the bearer token, or "".
func (Session) Token() string { return GetToken() }
