// Package models defines the data structures shared across the crawl,
// match, and service layers, plus the YAML/env configuration loader.
package models

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// ScheduleConfig holds the daily comparison schedule.
type ScheduleConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
}

// SMTPConfig holds mail delivery settings. Host and Port have working
// defaults; the remaining fields come from the environment in practice.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// Config is the full runtime configuration: crawlable sources, the pairs
// to reconcile, engine tuning, and the service collaborators.
type Config struct {
	Sources []SourceConfig `yaml:"sources"`
	Pairs   []PairConfig   `yaml:"pairs"`

	Workers   int     `yaml:"workers"`
	MaxPages  int     `yaml:"max_pages"`
	MaxLoads  int     `yaml:"max_loads"`
	DelayMS   int     `yaml:"delay_ms"`
	Threshold float64 `yaml:"threshold"`
	DataDir   string  `yaml:"data_dir"`

	DatabasePath string         `yaml:"database_path"`
	Server       ServerConfig   `yaml:"server"`
	Schedule     ScheduleConfig `yaml:"schedule"`
	SMTP         SMTPConfig     `yaml:"smtp"`
}

// DefaultConfigPath is used when no --config flag is given.
const DefaultConfigPath = "config.yaml"

// DefaultConfig returns the built-in defaults. Sources and Pairs are
// empty; they only come from the config file.
func DefaultConfig() Config {
	return Config{
		Workers:      4,
		MaxPages:     5,
		MaxLoads:     5,
		DelayMS:      1000,
		Threshold:    0.80,
		DataDir:      "data",
		DatabasePath: "data/plugindiff.db",
		Server:       ServerConfig{Addr: ":5000"},
		Schedule:     ScheduleConfig{Enabled: true, Cron: "0 9 * * *"},
		SMTP:         SMTPConfig{Host: "smtp.gmail.com", Port: 587},
	}
}

// LoadConfig builds the effective configuration: defaults, then the YAML
// file, then .env and environment overrides. A missing file is only an
// error when the path was given explicitly.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// no config file, defaults + env only
	default:
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	_ = godotenv.Load()
	applyEnv(&cfg)

	if err := cfg.check(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	envString("SMTP_HOST", &cfg.SMTP.Host)
	envInt("SMTP_PORT", &cfg.SMTP.Port)
	envString("SMTP_USERNAME", &cfg.SMTP.Username)
	envString("SMTP_PASSWORD", &cfg.SMTP.Password)
	envString("SMTP_FROM", &cfg.SMTP.From)
	envString("SMTP_TO", &cfg.SMTP.To)
	envString("PLUGINDIFF_DB", &cfg.DatabasePath)
	envString("PLUGINDIFF_ADDR", &cfg.Server.Addr)
	envString("SCHEDULE_CRON", &cfg.Schedule.Cron)
	if v := os.Getenv("SCHEDULE_ENABLED"); v != "" {
		cfg.Schedule.Enabled = strings.EqualFold(v, "true")
	}
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// check rejects structurally broken configuration. Advisory findings
// (unconfigured mail) are reported by Validate instead.
func (c Config) check() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.MaxPages < 1 {
		return fmt.Errorf("max_pages must be at least 1, got %d", c.MaxPages)
	}
	if c.Threshold <= 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be in (0, 1], got %v", c.Threshold)
	}
	seen := make(map[string]bool, len(c.Sources))
	for _, s := range c.Sources {
		if s.Name == "" {
			return errors.New("every source needs a name")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate source name %q", s.Name)
		}
		seen[s.Name] = true
		if s.BaseURL == "" {
			return fmt.Errorf("source %q has no base_url", s.Name)
		}
		switch s.Strategy {
		case "", StrategyClassic, StrategyLoadMore:
		default:
			return fmt.Errorf("source %q has unknown strategy %q", s.Name, s.Strategy)
		}
	}
	for _, p := range c.Pairs {
		if !seen[p.Ref] {
			return fmt.Errorf("pair %q references unknown source %q", p.Kind, p.Ref)
		}
		if !seen[p.Cand] {
			return fmt.Errorf("pair %q references unknown source %q", p.Kind, p.Cand)
		}
	}
	return nil
}

// Source returns the named source configuration.
func (c Config) Source(name string) (SourceConfig, bool) {
	for _, s := range c.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return SourceConfig{}, false
}

// SMTPConfigured reports whether mail delivery is fully set up.
func (c Config) SMTPConfigured() bool {
	s := c.SMTP
	return s.Host != "" && s.Username != "" && s.Password != "" && s.From != "" && s.To != ""
}

// Validate returns advisory findings about incomplete settings, one
// message per missing mail field. An empty slice means mail is ready.
func (c Config) Validate() []string {
	var findings []string
	if c.SMTP.Username == "" {
		findings = append(findings, "smtp username is not set")
	}
	if c.SMTP.Password == "" {
		findings = append(findings, "smtp password is not set")
	}
	if c.SMTP.From == "" {
		findings = append(findings, "smtp from address is not set")
	}
	if c.SMTP.To == "" {
		findings = append(findings, "smtp to address is not set")
	}
	return findings
}
