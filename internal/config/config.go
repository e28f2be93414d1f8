// Package config loads the ConfSync process configuration. The Config
// value is constructed once at startup and passed into constructors;
// there is no ambient mutable configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides, e.g.
// CONFSYNC_LOG_LEVEL overrides log.level.
const EnvPrefix = "CONFSYNC"

// Log configures structured logging output.
type Log struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // text | json
}

// Client configures outbound HTTP behavior (webhooks).
type Client struct {
	TimeoutSeconds int `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// Config is the full process configuration.
type Config struct {
	// DataDir holds the BadgerDB catalog store.
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	Log    Log    `yaml:"log" mapstructure:"log"`
	Client Client `yaml:"client" mapstructure:"client"`

	// WebHooks maps event codes (or "universal") to URLs.
	WebHooks map[string]string `yaml:"web_hooks" mapstructure:"web_hooks"`

	// WebHookTextTemplates maps event codes to human-readable summary
	// templates; [field] placeholders are filled from the payload.
	WebHookTextTemplates map[string]string `yaml:"web_hook_text_templates" mapstructure:"web_hook_text_templates"`

	// Username is the default author recorded on mutations when the
	// caller does not supply one.
	Username string `yaml:"username" mapstructure:"username"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir:  defaultDataDir(),
		Log:      Log{Level: "info", Format: "text"},
		Client:   Client{TimeoutSeconds: 30},
		WebHooks: map[string]string{},
		WebHookTextTemplates: map[string]string{
			"addGroup":         "Group created: [title] ([id])",
			"updateGroup":      "Group updated: [title] ([id])",
			"deleteGroup":      "Group deleted: [id]",
			"addConfigFile":    "Config file created: [title] ([id])",
			"updateConfigFile": "Config file updated: [title] ([id])",
			"deleteConfigFile": "Config file deleted: [id]",
			"push":             "New revision pushed for [id]: [rev] -- [message]",
			"deploy":           "Revision [rev] of [id] deployed by [username]",
		},
	}
}

func defaultDataDir() string {
	home, _ := os.UserHomeDir()
	if home == "" {
		return "./data"
	}
	return filepath.Join(home, ".confsync", "data")
}

// Load reads the configuration from the given path, falling back to
// confsync.yaml in the working directory or /etc/confsync/. Missing
// files yield the defaults; environment variables with the CONFSYNC
// prefix override individual keys.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("confsync")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/confsync/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Default()
	if err := v.ReadInConfig(); err != nil {
		// a file the caller named explicitly must be readable; the
		// default search locations are optional
		if path != "" {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
