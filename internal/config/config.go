package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FeedConfig describes a single subscription feed source.
type FeedConfig struct {
	// URL is the feed endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for caching and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
	// Kind selects the payload decoder: "json" (default) or "ics".
	Kind string `yaml:"kind" json:"kind"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the widget API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone used as the viewer's wall clock for
	// date bucketing (e.g. "Asia/Shanghai").
	Timezone string `yaml:"timezone" json:"timezone"`

	// Calname is the calendar name emitted in the ICS download.
	Calname string `yaml:"calname" json:"calname"`

	// RefreshCron is a cron-style schedule for re-fetching the loaded
	// window (e.g. "0 */12 * * *").
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// WindowBefore / WindowAfter are the initial day counts loaded
	// around today. The API can widen them at runtime; they never
	// shrink.
	WindowBefore int `yaml:"window_before" json:"window_before"`
	WindowAfter  int `yaml:"window_after" json:"window_after"`

	// Feeds is the list of subscribed sources.
	Feeds []FeedConfig `yaml:"feeds" json:"feeds"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:       "127.0.0.1:8080",
		Timezone:     "Asia/Shanghai",
		Calname:      "Subscription Calendar",
		RefreshCron:  "0 */12 * * *",
		WindowBefore: 7,
		WindowAfter:  14,
		Feeds:        []FeedConfig{},
		BasicAuth:    nil,
	}
}

// Normalize fills in missing/zero values with defaults so partially
// filled configs from older versions still behave.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Shanghai"
	}
	if c.Calname == "" {
		c.Calname = "Subscription Calendar"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "0 */12 * * *"
	}
	if c.WindowBefore < 0 {
		c.WindowBefore = 0
	}
	if c.WindowAfter < 0 {
		c.WindowAfter = 0
	}
	if c.WindowBefore == 0 && c.WindowAfter == 0 {
		c.WindowBefore = 7
		c.WindowAfter = 14
	}
	if c.Feeds == nil {
		c.Feeds = []FeedConfig{}
	}
	for i := range c.Feeds {
		switch c.Feeds[i].Kind {
		case "json", "ics":
			// ok
		default:
			c.Feeds[i].Kind = "json"
		}
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written there
//     (0600) and returned.
//   - Otherwise the YAML is unmarshaled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Return cfg with the error so the caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration to path atomically with 0600 perms,
// creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".subcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

// Location resolves the configured timezone, falling back to the
// process-local zone when the name is empty or unknown.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
