package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Sources  []SourceConfig `yaml:"sources"`
	AI       AI             `yaml:"ai"`
	Digest   DigestConfig   `yaml:"digest"`
	Output   Output         `yaml:"output"`
	Server   Server         `yaml:"server"`
	Schedule Schedule       `yaml:"schedule"`
	Logging  Logging        `yaml:"logging"`
}

// SourceConfig seeds the source registry on init. The id prefix encodes
// the discussion platform: "r-" for Reddit, "hn-" for Hacker News.
type SourceConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	FeedURL  string `yaml:"feed_url"`
	Category string `yaml:"category"`
}

type AI struct {
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
}

type DigestConfig struct {
	ItemsPerCategory int `yaml:"items_per_category"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Schedule struct {
	Time     string `yaml:"time"`     // HH:MM
	Timezone string `yaml:"timezone"` // IANA name
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for aidigest.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "aidigest")
}

// DataDir returns the XDG data directory for aidigest.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "aidigest")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/aidigest/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'aidigest init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		AI: AI{
			Model:     "gemini-2.0-flash",
			APIKeyEnv: "GEMINI_API_KEY",
		},
		Digest: DigestConfig{ItemsPerCategory: 5},
		Server: Server{Port: 8000},
		Schedule: Schedule{
			Time:     "07:00",
			Timezone: "Local",
		},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
