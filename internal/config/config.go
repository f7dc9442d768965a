package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"plancal/internal/engine"
	"plancal/internal/planner"
)

// ICSFeed describes one subscribed ICS calendar.
type ICSFeed struct {
	// ID doubles as the calendar id assigned to events from this feed.
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	// Password is compared verbatim unless it is a bcrypt hash ("$2a$...").
	Password string `yaml:"password" json:"password"`
}

// AutoOffsetConfig controls the automatic conflict nudge.
type AutoOffsetConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	Minutes int  `yaml:"minutes" json:"minutes"`
}

// Duration returns the configured offset.
func (a AutoOffsetConfig) Duration() time.Duration {
	return time.Duration(a.Minutes) * time.Minute
}

// LoggingConfig selects the log level and output format ("console" or "json").
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone used for day boundaries (e.g. "Europe/Berlin").
	// Empty or "Local" means the host clock.
	Timezone string `yaml:"timezone" json:"timezone"`

	// DefaultView is the view the page opens with.
	DefaultView string `yaml:"default_view" json:"default_view"`

	// DefaultCalendar is assigned to quick-add events without a #hint.
	DefaultCalendar string `yaml:"default_calendar" json:"default_calendar"`

	// ColorEncoding picks what drives event colors: calendar, priority,
	// status, type or none.
	ColorEncoding string `yaml:"color_encoding" json:"color_encoding"`

	// SnapMinutes is the drag granularity: 5, 15 or 30.
	SnapMinutes int `yaml:"snap_minutes" json:"snap_minutes"`

	// HistoryLimit bounds the undo and redo stacks.
	HistoryLimit int `yaml:"history_limit" json:"history_limit"`

	AutoOffset AutoOffsetConfig `yaml:"auto_offset" json:"auto_offset"`

	// RefreshCron is a cron schedule (e.g. "*/15 * * * *") for provider
	// refresh. "off" disables periodic refresh.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// DataDir holds the local cache and the sqlite store.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// ICS is the list of subscribed ICS feeds.
	ICS []ICSFeed `yaml:"ics" json:"ics"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// DefaultPath is where the CLI looks for its configuration.
const DefaultPath = "~/.config/plancal/config.yaml"

const (
	defaultListen   = "127.0.0.1:8080"
	defaultCalendar = "calendar.default"
	defaultRefresh  = "*/15 * * * *"
	defaultDataDir  = "./data"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:          defaultListen,
		Timezone:        "Local",
		DefaultView:     string(engine.ViewWeek),
		DefaultCalendar: defaultCalendar,
		ColorEncoding:   string(planner.ColorByCalendar),
		SnapMinutes:     engine.DefaultSnapMinutes,
		HistoryLimit:    engine.DefaultHistoryLimit,
		AutoOffset: AutoOffsetConfig{
			Enabled: false,
			Minutes: int(engine.DefaultAutoOffset / time.Minute),
		},
		RefreshCron: defaultRefresh,
		DataDir:     defaultDataDir,
		ICS:         []ICSFeed{},
		Logging:     LoggingConfig{Level: "info", Format: "console"},
	}
}

// Normalize fills in missing values and repairs invalid ones so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if v, err := engine.ParseViewKind(c.DefaultView); err != nil {
		c.DefaultView = string(engine.ViewWeek)
	} else {
		c.DefaultView = string(v)
	}
	if c.DefaultCalendar == "" {
		c.DefaultCalendar = defaultCalendar
	}
	if enc, err := planner.ParseColorEncoding(c.ColorEncoding); err != nil {
		c.ColorEncoding = string(planner.ColorByCalendar)
	} else {
		c.ColorEncoding = string(enc)
	}
	c.SnapMinutes = engine.NormalizeSnap(c.SnapMinutes)
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = engine.DefaultHistoryLimit
	}
	if c.AutoOffset.Minutes <= 0 {
		c.AutoOffset.Minutes = int(engine.DefaultAutoOffset / time.Minute)
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefresh
	}
	if c.DataDir == "" {
		c.DataDir = defaultDataDir
	}
	if c.ICS == nil {
		c.ICS = []ICSFeed{}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
		c.Logging.Level = strings.ToLower(c.Logging.Level)
	default:
		c.Logging.Level = "info"
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json":
		c.Logging.Format = "json"
	default:
		c.Logging.Format = "console"
	}
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ExpandPath resolves a leading "~" to the user's home directory.
func ExpandPath(p string) (string, error) {
	return homedir.Expand(p)
}

func (c *Config) dataDir() string {
	if dir, err := ExpandPath(c.DataDir); err == nil {
		return dir
	}
	return c.DataDir
}

// CachePath is the directory of the local key-value cache.
func (c *Config) CachePath() string { return filepath.Join(c.dataDir(), "cache") }

// StorePath is the sqlite database file.
func (c *Config) StorePath() string { return filepath.Join(c.dataDir(), "events.db") }

// ICSCachePath is where fetched feed bodies are kept for conditional GETs.
func (c *Config) ICSCachePath() string { return filepath.Join(c.dataDir(), "ics") }

// Load loads configuration from the given YAML path.
//
// A missing file is created with the default configuration (0600) and that
// default is returned. An existing file is unmarshalled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Return cfg with the error so the caller can run unsaved.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return cfg, nil
}

// Save normalizes cfg and writes it atomically (temp file + rename) with
// 0600 permissions, creating the parent directory (0700) if needed.
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

	tmp, err := os.CreateTemp(dir, ".plancal-config-*.tmp")
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

// Save is a convenience method delegating to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
