package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// APIConfig holds the REST backend settings.
type APIConfig struct {
	BaseURL    string `mapstructure:"base_url" yaml:"base_url"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// Timeout returns the per-request timeout.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// PushConfig holds the push channel settings.
type PushConfig struct {
	// URL is the websocket endpoint, e.g. ws://localhost:8090/ws.
	URL              string `mapstructure:"url" yaml:"url"`
	InitialBackoffMS int    `mapstructure:"initial_backoff_ms" yaml:"initial_backoff_ms"`
	MaxBackoffSec    int    `mapstructure:"max_backoff_sec" yaml:"max_backoff_sec"`
}

// NotificationsConfig controls the in-memory notification store.
type NotificationsConfig struct {
	MaxRetained int `mapstructure:"max_retained" yaml:"max_retained"`
}

// ListConfig controls list view paging.
type ListConfig struct {
	PageSize int `mapstructure:"page_size" yaml:"page_size"`
	// ScrollProximity is how many rows from the end of the list the cursor
	// must be before the next page is requested.
	ScrollProximity int `mapstructure:"scroll_proximity" yaml:"scroll_proximity"`
}

// DashboardConfig controls the dashboard count poller.
type DashboardConfig struct {
	RefreshSec int `mapstructure:"refresh_sec" yaml:"refresh_sec"`
}

// RefreshInterval returns the poll interval.
func (c DashboardConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshSec) * time.Second
}

// LogConfig controls the file logger.
type LogConfig struct {
	File  string `mapstructure:"file" yaml:"file"`
	Level string `mapstructure:"level" yaml:"level"`
}

// DevServerConfig holds settings for the local development backend.
type DevServerConfig struct {
	Addr      string `mapstructure:"addr" yaml:"addr"`
	DBPath    string `mapstructure:"db_path" yaml:"db_path"`
	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API           APIConfig           `mapstructure:"api" yaml:"api"`
	Push          PushConfig          `mapstructure:"push" yaml:"push"`
	Notifications NotificationsConfig `mapstructure:"notifications" yaml:"notifications"`
	List          ListConfig          `mapstructure:"list" yaml:"list"`
	Dashboard     DashboardConfig     `mapstructure:"dashboard" yaml:"dashboard"`
	Log           LogConfig           `mapstructure:"log" yaml:"log"`
	DevServer     DevServerConfig     `mapstructure:"devserver" yaml:"devserver"`
}

// ConfigDir returns ~/.config/certconsole.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "certconsole")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/certconsole/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// defaults lists every key with its fallback value.
func defaults() map[string]any {
	return map[string]any{
		"api.base_url":               "http://localhost:8090",
		"api.timeout_sec":            30,
		"push.url":                   "ws://localhost:8090/ws",
		"push.initial_backoff_ms":    500,
		"push.max_backoff_sec":       30,
		"notifications.max_retained": 100,
		"list.page_size":             20,
		"list.scroll_proximity":      3,
		"dashboard.refresh_sec":      60,
		"log.file":                   filepath.Join(ConfigDir(), "console.log"),
		"log.level":                  "info",
		"devserver.addr":             ":8090",
		"devserver.db_path":          filepath.Join(ConfigDir(), "devserver.db"),
		"devserver.jwt_secret":       "dev-secret-key",
	}
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *AppConfig {
	cfg, err := decode(newViper())
	if err != nil {
		// Defaults are static; a decode failure is a programming error.
		panic(err)
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix("CERTCONSOLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Environment variables prefixed CERTCONSOLE_ override file values, and any
// flags in flags (keyed by their viper key) override both. If the file does
// not exist, defaults are used.
func LoadConfig(path string, flags *pflag.FlagSet) (*AppConfig, error) {
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, isNotFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !isNotFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Notifications.MaxRetained <= 0 {
		cfg.Notifications.MaxRetained = 100
	}
	if cfg.List.PageSize <= 0 {
		cfg.List.PageSize = 20
	}
	if cfg.Dashboard.RefreshSec <= 0 {
		cfg.Dashboard.RefreshSec = 60
	}
	if cfg.List.ScrollProximity < 0 {
		cfg.List.ScrollProximity = 0
	}
	return cfg, nil
}

// bindFlags binds every flag annotated with FlagConfigKey to its viper key.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		keys, ok := f.Annotations[FlagConfigKey]
		if !ok || len(keys) == 0 {
			return
		}
		if err := v.BindPFlag(keys[0], f); err != nil && bindErr == nil {
			bindErr = fmt.Errorf("binding flag --%s: %w", f.Name, err)
		}
	})
	return bindErr
}

// FlagConfigKey is the pflag annotation naming the viper key a flag
// overrides.
const FlagConfigKey = "certconsole_config_key"

// AnnotateFlag marks flag name on fs as overriding the config key.
func AnnotateFlag(fs *pflag.FlagSet, name, key string) {
	_ = fs.SetAnnotation(name, FlagConfigKey, []string{key})
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

	v.Set("api", cfg.API)
	v.Set("push", cfg.Push)
	v.Set("notifications", cfg.Notifications)
	v.Set("list", cfg.List)
	v.Set("dashboard", cfg.Dashboard)
	v.Set("log", cfg.Log)
	v.Set("devserver", cfg.DevServer)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
