// Package config loads the run configuration: team table, seasons, and
// politeness settings.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// BaseURL is the statistics site root; overridable for tests.
	BaseURL string `yaml:"base_url"`
	Teams   []Team `yaml:"teams"`
	// Seasons are requested for every team, in order.
	Seasons []string    `yaml:"seasons"`
	Delay   DelayConfig `yaml:"delay"`
	Fetch   FetchConfig `yaml:"fetch"`
	// DataDir holds the per-team cache artifacts.
	DataDir string `yaml:"data_dir"`
	// Output is the combined training CSV path.
	Output string `yaml:"output"`
}

// Team pairs the display name used in URLs and tags with the site's squad
// identifier.
type Team struct {
	Name string `yaml:"name"`
	ID   string `yaml:"id"`
}

// DelayConfig bounds the random politeness delay applied after every
// successful request.
type DelayConfig struct {
	MinSeconds float64 `yaml:"min_seconds"`
	MaxSeconds float64 `yaml:"max_seconds"`
}

type FetchConfig struct {
	UserAgent                string  `yaml:"user_agent"`
	TimeoutSeconds           float64 `yaml:"timeout_seconds"`
	RateLimitCooldownSeconds float64 `yaml:"rate_limit_cooldown_seconds"`
	MaxRateLimitRetries      int     `yaml:"max_rate_limit_retries"`
	TransportWaitSeconds     float64 `yaml:"transport_wait_seconds"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://fbref.com"
	}
	if c.Delay.MinSeconds == 0 && c.Delay.MaxSeconds == 0 {
		c.Delay.MinSeconds = 2
		c.Delay.MaxSeconds = 6
	}
	if c.Fetch.RateLimitCooldownSeconds == 0 {
		c.Fetch.RateLimitCooldownSeconds = 60
	}
	if c.Fetch.MaxRateLimitRetries == 0 {
		c.Fetch.MaxRateLimitRetries = 5
	}
	if c.Fetch.TransportWaitSeconds == 0 {
		c.Fetch.TransportWaitSeconds = 10
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.Output == "" {
		c.Output = "data/all_teams_training_data.csv"
	}
}

func (c *Config) validate() error {
	if len(c.Teams) == 0 {
		return fmt.Errorf("config: no teams defined")
	}
	for _, t := range c.Teams {
		if t.Name == "" || t.ID == "" {
			return fmt.Errorf("config: team entries need both name and id (got name=%q id=%q)", t.Name, t.ID)
		}
	}
	if len(c.Seasons) == 0 {
		return fmt.Errorf("config: no seasons defined")
	}
	if c.Delay.MinSeconds < 0 || c.Delay.MaxSeconds < c.Delay.MinSeconds {
		return fmt.Errorf("config: invalid delay range [%v, %v]", c.Delay.MinSeconds, c.Delay.MaxSeconds)
	}
	return nil
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// DelayRange converts the configured delay bounds into durations.
func (c *Config) DelayRange() (time.Duration, time.Duration) {
	return seconds(c.Delay.MinSeconds), seconds(c.Delay.MaxSeconds)
}

func (c *Config) Timeout() time.Duration {
	return seconds(c.Fetch.TimeoutSeconds)
}

func (c *Config) RateLimitCooldown() time.Duration {
	return seconds(c.Fetch.RateLimitCooldownSeconds)
}

func (c *Config) TransportWait() time.Duration {
	return seconds(c.Fetch.TransportWaitSeconds)
}
