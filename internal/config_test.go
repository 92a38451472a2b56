package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/vaultgate/internal/commands"
	"github.com/starford/vaultgate/internal/periodic"
	pkgconfig "github.com/starford/vaultgate/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}
}

func TestHTTPConfig_Addresses(t *testing.T) {
	cfg := NewDefaultConfig().App.HTTP
	if got := cfg.Address(); got != "127.0.0.1:27124" {
		t.Errorf("Address() = %q", got)
	}
	if got := cfg.InsecureAddress(); got != "127.0.0.1:27123" {
		t.Errorf("InsecureAddress() = %q", got)
	}
}

func TestConfigValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown period", func(c *Config) { c.Periodic["hourly"] = periodic.Settings{} }},
		{"command without exec", func(c *Config) { c.Commands = []commands.Command{{ID: "x"}} }},
		{"half tls", func(c *Config) { c.TLS.CertFile = "cert.pem" }},
		{"bad prompt", func(c *Config) { c.Sync.Prompt = "carrier-pigeon" }},
		{"short title timeout", func(c *Config) { c.Sync.TitleTimeout = time.Millisecond }},
		{"poll interval above timeout", func(c *Config) { c.PeriodicPoll.Interval = time.Minute }},
		{"insecure without port", func(c *Config) {
			c.App.HTTP.EnableInsecure = true
			c.App.HTTP.InsecurePort = 0
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestConfigLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("VAULTGATE_TOKEN", "from-env")
	yml := `
app:
  log_level: debug
  http:
    port: 9443
auth:
  mode: token
  token: ${VAULTGATE_TOKEN}
sync:
  title_timeout: 30s
periodic:
  weekly:
    enabled: true
    folder: journal/weeks
commands:
  - id: backup
    name: Backup vault
    exec: [git, commit, -am, backup]
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := NewDefaultConfig()
	if err := pkgconfig.LoadOptional(path, cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.LogLevel != slog.LevelDebug || cfg.App.HTTP.Port != 9443 {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.App.HTTP.Host != "127.0.0.1" {
		t.Errorf("default host lost: %q", cfg.App.HTTP.Host)
	}
	if cfg.Auth.Token != "from-env" {
		t.Errorf("token = %q", cfg.Auth.Token)
	}
	if cfg.Sync.TitleTimeout != 30*time.Second || cfg.Sync.UIDFieldName != "id" {
		t.Errorf("sync = %+v", cfg.Sync)
	}
	if !cfg.Periodic["weekly"].Enabled || cfg.Periodic["weekly"].Folder != "journal/weeks" {
		t.Errorf("weekly = %+v", cfg.Periodic["weekly"])
	}
	if !cfg.Periodic["daily"].Enabled {
		t.Error("daily default lost")
	}
	if len(cfg.Commands) != 1 || cfg.Commands[0].Exec[0] != "git" {
		t.Errorf("commands = %+v", cfg.Commands)
	}
}

func TestConfigLoadMissingFileKeepsDefaults(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := pkgconfig.LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.HTTP.Port != 27124 {
		t.Errorf("port = %d", cfg.App.HTTP.Port)
	}
}
