// Package config provides YAML-based configuration loading for Signalbox.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/zulandar/signalbox/internal/models"
	"github.com/zulandar/signalbox/internal/notify"
	"gopkg.in/yaml.v3"
)

// Default values applied when a key is omitted.
const (
	DefaultModel     = "gemini-2.5-flash"
	DefaultAPIKeyEnv = "GEMINI_API_KEY"
	DefaultTickMS    = 100
	DefaultPort      = 8080
	DefaultSQLite    = "signalbox.db"
)

// Config is the top-level Signalbox configuration, loaded from signalbox.yaml.
type Config struct {
	Model     string          `yaml:"model"`
	APIKeyEnv string          `yaml:"api_key_env"`
	TickMS    int             `yaml:"tick_ms"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Database  DatabaseConfig  `yaml:"database"`
	Notify    NotifyConfig    `yaml:"notify"`
	Seed      SeedConfig      `yaml:"seed"`
}

// DashboardConfig holds the HTTP server settings.
type DashboardConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig selects the audit archive. An empty driver disables it.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "", "sqlite" or "mysql"
	Path   string `yaml:"path"`   // sqlite file
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	User   string `yaml:"user"`
	Name   string `yaml:"name"`
}

// Enabled reports whether an archive is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.Driver != ""
}

// NotifyConfig holds the optional chat and bus targets.
type NotifyConfig struct {
	Slack      *SlackConfig   `yaml:"slack"`
	Discord    *DiscordConfig `yaml:"discord"`
	NATS       *NATSConfig    `yaml:"nats"`
	DigestCron string         `yaml:"digest_cron"`
}

// SlackConfig holds Slack bot credentials. Tokens may reference
// environment variables as ${VAR}.
type SlackConfig struct {
	BotToken string `yaml:"bot_token"`
	Channel  string `yaml:"channel"`
}

// DiscordConfig holds Discord bot credentials.
type DiscordConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// NATSConfig holds the NATS server and subject for event publishing.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// SeedConfig overrides the built-in network. Empty sections keep the
// built-in defaults.
type SeedConfig struct {
	Tracks  []models.Track           `yaml:"tracks"`
	Trains  []models.Train           `yaml:"trains"`
	Alerts  []models.Alert           `yaml:"alerts"`
	Weather []models.WeatherIncident `yaml:"weather"`
	Audit   []models.AuditLogEntry   `yaml:"audit"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.expandEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// LoadDotEnv loads environment variables from a .env file. A missing file
// is not an error. Variables already set in the environment win.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

// APIKey returns the model API key from the configured environment
// variable, falling back to API_KEY.
func (c *Config) APIKey() string {
	if v := os.Getenv(c.APIKeyEnv); v != "" {
		return v
	}
	return os.Getenv("API_KEY")
}

// expandEnv resolves ${VAR} references in credentials.
func (c *Config) expandEnv() {
	if c.Notify.Slack != nil {
		c.Notify.Slack.BotToken = os.ExpandEnv(c.Notify.Slack.BotToken)
	}
	if c.Notify.Discord != nil {
		c.Notify.Discord.BotToken = os.ExpandEnv(c.Notify.Discord.BotToken)
	}
	if c.Notify.NATS != nil {
		c.Notify.NATS.URL = os.ExpandEnv(c.Notify.NATS.URL)
	}
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = DefaultAPIKeyEnv
	}
	if c.TickMS == 0 {
		c.TickMS = DefaultTickMS
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = DefaultPort
	}
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			c.Database.Path = DefaultSQLite
		}
	case "mysql":
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
		if c.Database.Name == "" {
			c.Database.Name = "signalbox"
		}
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.TickMS < 0 {
		errs = append(errs, "tick_ms must be positive")
	}
	if c.Dashboard.Port < 1 || c.Dashboard.Port > 65535 {
		errs = append(errs, fmt.Sprintf("dashboard.port %d out of range", c.Dashboard.Port))
	}
	switch c.Database.Driver {
	case "", "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q must be sqlite or mysql", c.Database.Driver))
	}
	errs = append(errs, c.Notify.validate()...)
	errs = append(errs, c.Seed.validate()...)
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (n NotifyConfig) validate() []string {
	var errs []string
	if n.Slack != nil {
		if n.Slack.BotToken == "" {
			errs = append(errs, "notify.slack.bot_token is required")
		}
		if n.Slack.Channel == "" {
			errs = append(errs, "notify.slack.channel is required")
		}
	}
	if n.Discord != nil {
		if n.Discord.BotToken == "" {
			errs = append(errs, "notify.discord.bot_token is required")
		}
		if n.Discord.ChannelID == "" {
			errs = append(errs, "notify.discord.channel_id is required")
		}
	}
	if n.NATS != nil && n.NATS.URL == "" {
		errs = append(errs, "notify.nats.url is required")
	}
	if n.DigestCron != "" {
		if err := notify.ValidateCron(n.DigestCron); err != nil {
			errs = append(errs, fmt.Sprintf("notify.digest_cron: %v", err))
		}
	}
	return errs
}

func (s SeedConfig) validate() []string {
	var errs []string

	trackIDs := make(map[int]bool)
	for i, t := range s.Tracks {
		if t.ID <= 0 {
			errs = append(errs, fmt.Sprintf("seed.tracks[%d].id must be positive", i))
		}
		if trackIDs[t.ID] {
			errs = append(errs, fmt.Sprintf("seed.tracks[%d].id %d is duplicated", i, t.ID))
		}
		trackIDs[t.ID] = true
		if t.Length <= 0 {
			errs = append(errs, fmt.Sprintf("seed.tracks[%d].length must be positive", i))
		}
	}

	trainIDs := make(map[string]bool)
	for i, t := range s.Trains {
		if t.ID == "" {
			errs = append(errs, fmt.Sprintf("seed.trains[%d].id is required", i))
		} else if trainIDs[t.ID] {
			errs = append(errs, fmt.Sprintf("seed.trains[%d].id %q is duplicated", i, t.ID))
		}
		trainIDs[t.ID] = true
		// Trains may reference the built-in tracks when no tracks are seeded.
		if len(s.Tracks) > 0 && !trackIDs[t.TrackID] {
			errs = append(errs, fmt.Sprintf("seed.trains[%d].track_id %d does not exist", i, t.TrackID))
		}
		if t.Position < 0 || t.Position >= 100 {
			errs = append(errs, fmt.Sprintf("seed.trains[%d].position %v must be in [0,100)", i, t.Position))
		}
		if t.Speed < 0 {
			errs = append(errs, fmt.Sprintf("seed.trains[%d].speed must not be negative", i))
		}
		if !t.Status.Valid() {
			errs = append(errs, fmt.Sprintf("seed.trains[%d].status %q is invalid", i, t.Status))
		}
		if !t.Priority.Valid() {
			errs = append(errs, fmt.Sprintf("seed.trains[%d].priority %q is invalid", i, t.Priority))
		}
	}

	alertIDs := make(map[string]bool)
	for i, a := range s.Alerts {
		if a.ID == "" {
			errs = append(errs, fmt.Sprintf("seed.alerts[%d].id is required", i))
		} else if alertIDs[a.ID] {
			errs = append(errs, fmt.Sprintf("seed.alerts[%d].id %q is duplicated", i, a.ID))
		}
		alertIDs[a.ID] = true
		if !a.Severity.Valid() {
			errs = append(errs, fmt.Sprintf("seed.alerts[%d].severity %q is invalid", i, a.Severity))
		}
	}

	for i, w := range s.Weather {
		if !slices.Contains(models.WeatherTypes, w.Type) {
			errs = append(errs, fmt.Sprintf("seed.weather[%d].type %q is invalid", i, w.Type))
		}
		if !slices.Contains(models.WeatherSeverities, w.Severity) {
			errs = append(errs, fmt.Sprintf("seed.weather[%d].severity %q is invalid", i, w.Severity))
		}
	}

	for i, e := range s.Audit {
		if !e.Author.Valid() {
			errs = append(errs, fmt.Sprintf("seed.audit[%d].author %q is invalid", i, e.Author))
		}
	}
	return errs
}
