package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the upload UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration. Values come from the
// YAML file first, then SHIFTCAL_* environment variables override them.
type Config struct {
	// Listen is the HTTP listen address for the upload UI and API.
	Listen string `yaml:"listen" json:"listen" env:"SHIFTCAL_LISTEN"`

	// MaxUploadBytes caps the size of an uploaded schedule document.
	MaxUploadBytes int64 `yaml:"max_upload_bytes" json:"max_upload_bytes" env:"SHIFTCAL_MAX_UPLOAD_BYTES"`

	// DayStartHour / NightStartHour are the day-shift window boundaries
	// used for day/night classification. A shift starting at or after
	// DayStartHour and before NightStartHour counts as a day shift.
	DayStartHour   int `yaml:"day_start_hour" json:"day_start_hour" env:"SHIFTCAL_DAY_START_HOUR"`
	NightStartHour int `yaml:"night_start_hour" json:"night_start_hour" env:"SHIFTCAL_NIGHT_START_HOUR"`

	// Timezone is the TZID label embedded in fixed-offset exports
	// (e.g. "Europe/Brussels"). It is a label only; the actual offset is
	// TZOffsetMinutes.
	Timezone string `yaml:"timezone" json:"timezone" env:"SHIFTCAL_TIMEZONE"`

	// TZOffsetMinutes is the fixed UTC offset used when a conversion
	// requests fixed-offset mode (e.g. 120 for +02:00).
	TZOffsetMinutes int `yaml:"tz_offset_minutes" json:"tz_offset_minutes" env:"SHIFTCAL_TZ_OFFSET_MINUTES"`

	// ExportTTLMinutes is how long a generated .ics stays downloadable.
	ExportTTLMinutes int `yaml:"export_ttl_minutes" json:"export_ttl_minutes" env:"SHIFTCAL_EXPORT_TTL_MINUTES"`

	// PurgeCron is a cron-style schedule for sweeping expired exports
	// out of the in-memory store (e.g. "*/5 * * * *").
	PurgeCron string `yaml:"purge_cron" json:"purge_cron" env:"SHIFTCAL_PURGE_CRON"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:           "127.0.0.1:8080",
		MaxUploadBytes:   8 << 20,
		DayStartHour:     6,
		NightStartHour:   18,
		Timezone:         "Europe/Brussels",
		TZOffsetMinutes:  60,
		ExportTTLMinutes: 15,
		PurgeCron:        "*/5 * * * *",
		BasicAuth:        nil,
	}
}

// Normalize fills in missing/zero values with defaults so partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 8 << 20
	}
	if c.DayStartHour <= 0 || c.DayStartHour > 23 {
		c.DayStartHour = 6
	}
	if c.NightStartHour <= c.DayStartHour || c.NightStartHour > 24 {
		c.NightStartHour = 18
	}
	if c.Timezone == "" {
		c.Timezone = "Europe/Brussels"
	}
	if c.ExportTTLMinutes <= 0 {
		c.ExportTTLMinutes = 15
	}
	if c.PurgeCron == "" {
		c.PurgeCron = "*/5 * * * *"
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written there
//     (0600) and returned.
//   - Otherwise the YAML is unmarshalled, environment overrides are
//     applied, and defaults are normalized in.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	var cfg *Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		cfg = &Config{}
		if uerr := yaml.Unmarshal(data, cfg); uerr != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, uerr)
		}
	case errors.Is(err, fs.ErrNotExist):
		cfg = DefaultConfig()
		if serr := Save(path, cfg); serr != nil {
			// Return cfg with the error so the caller can decide.
			return cfg, serr
		}
	default:
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("apply env overrides: %w", err)
	}
	cfg.Normalize()

	return cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with
// 0600 permissions, creating the parent directory as needed.
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

	tmp, err := os.CreateTemp(dir, ".shiftcal-config-*.tmp")
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
