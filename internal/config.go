package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/vaultgate/internal/commands"
	"github.com/starford/vaultgate/internal/periodic"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Title prompt kinds.
const (
	PromptRemote   = "remote"
	PromptTerminal = "terminal"
)

// Config represents the application configuration.
type Config struct {
	App          ApplicationConfig            `yaml:"app"`
	TLS          TLSConfig                    `yaml:"tls"`
	Vault        VaultConfig                  `yaml:"vault"`
	SQLite       SQLiteConfig                 `yaml:"sqlite"`
	Auth         AuthConfig                   `yaml:"auth"`
	Sync         SyncConfig                   `yaml:"sync"`
	Periodic     map[string]periodic.Settings `yaml:"periodic"`
	PeriodicPoll PollConfig                   `yaml:"periodic_poll"`
	Commands     []commands.Command           `yaml:"commands"`
	Search       SearchConfig                 `yaml:"search"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []interface{ Validate() error }{
		&c.App, &c.TLS, &c.Vault, &c.SQLite, &c.Auth, &c.Sync, &c.PeriodicPoll, &c.Search,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	for name := range c.Periodic {
		if _, ok := periodic.DefaultFormats[name]; !ok {
			return fmt.Errorf("periodic: unknown period %q", name)
		}
	}
	for i := range c.Commands {
		cmd := &c.Commands[i]
		if err := validation.ValidateStruct(cmd,
			validation.Field(&cmd.ID, validation.Required),
			validation.Field(&cmd.Exec, validation.Required),
		); err != nil {
			return fmt.Errorf("commands[%d]: %w", i, err)
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration. Port is the TLS listener;
// InsecurePort serves plain HTTP/2 (h2c) and HTTP/1.1 when EnableInsecure is set.
type HTTPConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	InsecurePort   int    `yaml:"insecure_port"`
	EnableInsecure bool   `yaml:"enable_insecure"`
}

// Address returns the secure server address.
func (c *HTTPConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// InsecureAddress returns the plain-HTTP server address.
func (c *HTTPConfig) InsecureAddress() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.InsecurePort))
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.InsecurePort, validation.When(c.EnableInsecure, validation.Required, validation.Min(1), validation.Max(65535))),
	)
}

// TLSConfig locates the certificate of the secure server. The certificate is
// also downloadable at GET /<CertName>.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
	CertName string `yaml:"cert_name"`
}

// Enabled reports whether both certificate and key are configured.
func (c *TLSConfig) Enabled() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

// Validate validates the TLS configuration.
func (c *TLSConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CertName, validation.Required),
		validation.Field(&c.KeyFile, validation.When(c.CertFile != "", validation.Required)),
		validation.Field(&c.CertFile, validation.When(c.KeyFile != "", validation.Required)),
	)
}

// VaultConfig holds the path to the Markdown vault directory.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// SyncConfig holds the UID sync defaults. SessionFile, when set, points at
// the external editor's key=value state file and overrides the field name,
// delimiter and folder on every request.
type SyncConfig struct {
	UIDFieldName     string        `yaml:"uid_field_name"`
	SectionDelimiter string        `yaml:"section_delimiter"`
	PersistFolder    string        `yaml:"persist_folder"`
	ScratchPath      string        `yaml:"scratch_path"`
	SessionFile      string        `yaml:"session_file"`
	TitleTimeout     time.Duration `yaml:"title_timeout"`
	IndicatorLinger  time.Duration `yaml:"indicator_linger"`
	Prompt           string        `yaml:"prompt"`
}

// Validate validates the sync configuration.
func (c *SyncConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.UIDFieldName, validation.Required),
		validation.Field(&c.SectionDelimiter, validation.Required),
		validation.Field(&c.ScratchPath, validation.Required),
		validation.Field(&c.TitleTimeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.IndicatorLinger, validation.Min(time.Duration(0))),
		validation.Field(&c.Prompt, validation.In(PromptRemote, PromptTerminal)),
	)
}

// PollConfig controls how long the periodic resolver waits for a newly
// created note to be indexed.
type PollConfig struct {
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Validate validates the poll configuration.
func (c *PollConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Interval, validation.Required),
		validation.Field(&c.Timeout, validation.Required),
	); err != nil {
		return err
	}
	if c.Interval > c.Timeout {
		return errors.New("periodic_poll: interval exceeds timeout")
	}
	return nil
}

// SearchConfig holds search settings.
type SearchConfig struct {
	GUIPollInterval time.Duration `yaml:"gui_poll_interval"`
}

// Validate validates the search configuration.
func (c *SearchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.GUIPollInterval, validation.Required),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Host:         "127.0.0.1",
				Port:         27124,
				InsecurePort: 27123,
			},
		},
		TLS: TLSConfig{
			CertName: "obsidian-local-rest-api.crt",
		},
		Vault: VaultConfig{
			Path: "./vault",
		},
		SQLite: SQLiteConfig{
			Path: "./vaultgate.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Sync: SyncConfig{
			UIDFieldName:     "id",
			SectionDelimiter: "---",
			ScratchPath:      "editing.md",
			TitleTimeout:     15 * time.Second,
			IndicatorLinger:  2500 * time.Millisecond,
			Prompt:           PromptRemote,
		},
		Periodic: map[string]periodic.Settings{
			"daily":     {Enabled: true},
			"weekly":    {},
			"monthly":   {},
			"quarterly": {},
			"yearly":    {},
		},
		PeriodicPoll: PollConfig{
			Interval: 100 * time.Millisecond,
			Timeout:  5 * time.Second,
		},
		Search: SearchConfig{
			GUIPollInterval: 2 * time.Second,
		},
	}
}
