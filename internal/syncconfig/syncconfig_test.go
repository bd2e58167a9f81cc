package syncconfig

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolate points HOME at a temp dir and clears every TDASH_ variable.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{"TDASH_SERVER_URL", "TDASH_AUTH_TOKEN", "TDASH_USER_ID", "TDASH_LOCAL_QUOTA", "TDASH_REMOTE_TIMEOUT"} {
		t.Setenv(k, "")
	}
	return home
}

func writeTestConfig(t *testing.T, home string, cfg *Config) {
	t.Helper()
	dir := filepath.Join(home, ".config", "tdash")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), data, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestDefaults(t *testing.T) {
	isolate(t)

	if got := GetServerURL(); got != defaultServerURL {
		t.Errorf("server url: got %s, want %s", got, defaultServerURL)
	}
	if got := GetLocalQuota(); got != 5<<20 {
		t.Errorf("quota: got %d, want %d", got, 5<<20)
	}
	if got := GetRemoteTimeout(); got != 10*time.Second {
		t.Errorf("timeout: got %v, want 10s", got)
	}
	if IsAuthenticated() {
		t.Error("no credentials should mean signed out")
	}
}

func TestConfigFileValues(t *testing.T) {
	home := isolate(t)
	q := int64(1024)
	writeTestConfig(t, home, &Config{
		Server: ServerConfig{URL: "https://tasks.example.com", Timeout: "3s"},
		Local:  LocalConfig{Quota: &q},
	})

	if got := GetServerURL(); got != "https://tasks.example.com" {
		t.Errorf("server url: got %s", got)
	}
	if got := GetRemoteTimeout(); got != 3*time.Second {
		t.Errorf("timeout: got %v, want 3s", got)
	}
	if got := GetLocalQuota(); got != 1024 {
		t.Errorf("quota: got %d, want 1024", got)
	}
}

func TestEnvOverridesConfig(t *testing.T) {
	home := isolate(t)
	q := int64(1024)
	writeTestConfig(t, home, &Config{Server: ServerConfig{URL: "https://file"}, Local: LocalConfig{Quota: &q}})

	t.Setenv("TDASH_SERVER_URL", "https://env")
	t.Setenv("TDASH_LOCAL_QUOTA", "2048")
	t.Setenv("TDASH_REMOTE_TIMEOUT", "250ms")

	if got := GetServerURL(); got != "https://env" {
		t.Errorf("server url: got %s, want https://env", got)
	}
	if got := GetLocalQuota(); got != 2048 {
		t.Errorf("quota: got %d, want 2048", got)
	}
	if got := GetRemoteTimeout(); got != 250*time.Millisecond {
		t.Errorf("timeout: got %v, want 250ms", got)
	}
}

func TestInvalidEnvFallsThrough(t *testing.T) {
	isolate(t)
	t.Setenv("TDASH_LOCAL_QUOTA", "lots")
	t.Setenv("TDASH_REMOTE_TIMEOUT", "-1s")

	if got := GetLocalQuota(); got != defaultLocalQuota {
		t.Errorf("quota: got %d, want default", got)
	}
	if got := GetRemoteTimeout(); got != defaultRemoteTimeout {
		t.Errorf("timeout: got %v, want default", got)
	}
}

func TestSessionFollowsCredentials(t *testing.T) {
	isolate(t)
	var s Session

	if s.Authenticated() {
		t.Fatal("signed out at start")
	}
	if err := SaveAuth(&AuthCredentials{Token: "tok", UserID: "u1", ServerURL: "https://creds"}); err != nil {
		t.Fatalf("save auth: %v", err)
	}
	if !s.Authenticated() || s.UserID() != "u1" || s.Token() != "tok" {
		t.Fatalf("after login: auth=%v user=%s", s.Authenticated(), s.UserID())
	}
	if got := GetServerURL(); got != "https://creds" {
		t.Errorf("server url from credentials: got %s", got)
	}
	if err := ClearAuth(); err != nil {
		t.Fatalf("clear auth: %v", err)
	}
	if s.Authenticated() {
		t.Fatal("still authenticated after logout")
	}
	if err := ClearAuth(); err != nil {
		t.Fatalf("clear twice: %v", err)
	}
}

func TestAuthFilePermissions(t *testing.T) {
	home := isolate(t)
	if err := SaveAuth(&AuthCredentials{Token: "t", UserID: "u"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(filepath.Join(home, ".config", "tdash", "auth.json"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Fatalf("perm: got %o, want 600", perm)
	}
}

func TestEnvCredentials(t *testing.T) {
	isolate(t)
	t.Setenv("TDASH_AUTH_TOKEN", "envtok")
	if IsAuthenticated() {
		t.Fatal("token without user id is not authenticated")
	}
	t.Setenv("TDASH_USER_ID", "envuser")
	if !IsAuthenticated() {
		t.Fatal("token and user id from env should authenticate")
	}
}
