/*
Package config handles loading and saving the cadence configuration.

Configuration is stored in ~/.cadence.json:

  {
    "activeModel": "classic-25-5",
    "federation": {
      "consent": false,
      "epsilon": 1.0
    },
    "activityCommand": ["my-activity-provider"],
    "settings": {
      "promptTimeoutMinutes": 5,
      "evaluationIntervalMinutes": 10,
      "quickCheckIntervalMinutes": 5
    }
  }
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the root configuration structure.
type Config struct {
	// ActiveModel is the work/rest model id used at startup. Updated on
	// every confirmed model switch.
	ActiveModel string `json:"activeModel"`

	// Federation controls participation in community aggregation.
	Federation *Federation `json:"federation,omitempty"`

	// ActivityCommand is an optional external command (argv) that
	// provides activity signals as line-delimited JSON.
	ActivityCommand []string `json:"activityCommand,omitempty"`

	// Settings contains scheduler tuning options.
	Settings *Settings `json:"settings,omitempty"`
}

// Federation holds consent and privacy parameters for federated
// contributions.
type Federation struct {
	// Consent must be true before any summary leaves the machine.
	Consent bool `json:"consent"`

	// Epsilon is the differential privacy budget for Laplace noise.
	Epsilon float64 `json:"epsilon,omitempty"`
}

// Settings contains scheduler tuning options.
type Settings struct {
	// PromptTimeoutMinutes is how long a work-complete confirmation
	// waits before rest starts automatically.
	PromptTimeoutMinutes int `json:"promptTimeoutMinutes,omitempty"`

	// EvaluationIntervalMinutes is the cadence of the full switch
	// evaluation tick.
	EvaluationIntervalMinutes int `json:"evaluationIntervalMinutes,omitempty"`

	// QuickCheckIntervalMinutes is the cadence of the lighter
	// prompt-only trigger tick.
	QuickCheckIntervalMinutes int `json:"quickCheckIntervalMinutes,omitempty"`
}

// NewConfig creates a new configuration with defaults.
func NewConfig() *Config {
	return &Config{
		ActiveModel: "classic-25-5",
		Federation: &Federation{
			Consent: false,
			Epsilon: 1.0,
		},
		Settings: &Settings{
			PromptTimeoutMinutes:      5,
			EvaluationIntervalMinutes: 10,
			QuickCheckIntervalMinutes: 5,
		},
	}
}

// GetDefaultConfigPath returns the path to ~/.cadence.json
func GetDefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".cadence.json"), nil
}

// Load reads the configuration from the default path.
func Load() (*Config, error) {
	configPath, err := GetDefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadOrCreate reads the configuration from the default path, creating
// a default config file if none exists.
func LoadOrCreate() (*Config, error) {
	configPath, err := GetDefaultConfigPath()
	if err != nil {
		return nil, err
	}

	cfg, err := LoadFrom(configPath)
	if err != nil {
		if _, ok := err.(*ConfigNotFoundError); ok {
			cfg = NewConfig()
			if saveErr := Save(cfg, configPath); saveErr != nil {
				return nil, saveErr
			}
			return cfg, nil
		}
		return nil, err
	}
	return cfg, nil
}

// PromptTimeoutMinutes returns the configured no-answer timeout with
// the default applied.
func (c *Config) PromptTimeoutMinutes() int {
	if c.Settings == nil || c.Settings.PromptTimeoutMinutes <= 0 {
		return 5
	}
	return c.Settings.PromptTimeoutMinutes
}

// EvaluationIntervalMinutes returns the configured evaluation tick
// interval with the default applied.
func (c *Config) EvaluationIntervalMinutes() int {
	if c.Settings == nil || c.Settings.EvaluationIntervalMinutes <= 0 {
		return 10
	}
	return c.Settings.EvaluationIntervalMinutes
}

// QuickCheckIntervalMinutes returns the configured quick check tick
// interval with the default applied.
func (c *Config) QuickCheckIntervalMinutes() int {
	if c.Settings == nil || c.Settings.QuickCheckIntervalMinutes <= 0 {
		return 5
	}
	return c.Settings.QuickCheckIntervalMinutes
}

// Epsilon returns the configured privacy budget with the default
// applied.
func (c *Config) Epsilon() float64 {
	if c.Federation == nil || c.Federation.Epsilon <= 0 {
		return 1.0
	}
	return c.Federation.Epsilon
}

// HasConsent reports whether federation consent has been granted.
func (c *Config) HasConsent() bool {
	return c.Federation != nil && c.Federation.Consent
}
