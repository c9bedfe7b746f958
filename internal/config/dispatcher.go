// Package config loads the dispatcher configuration from YAML. Secrets stay
// out of the file: provider credentials are referenced by environment
// variable name and resolved at wiring time.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DispatcherConfig represents the dispatcher YAML configuration.
type DispatcherConfig struct {
	Dispatcher struct {
		// SweepInterval is the cron spec or @every duration between sweeps
		// for fresh articles.
		SweepInterval string `yaml:"sweep_interval"`

		// SweepLookback bounds how far back a sweep looks for articles
		// that still have no delivery ledger rows.
		SweepLookback time.Duration `yaml:"sweep_lookback"`

		// SweepLimit caps articles picked up per sweep and platform.
		SweepLimit int `yaml:"sweep_limit"`

		// PagePace is the minimum gap between subscriber pages of one run.
		PagePace time.Duration `yaml:"page_pace"`

		Platforms struct {
			Android PlatformConfig `yaml:"android"`
			IOS     PlatformConfig `yaml:"ios"`
		} `yaml:"platforms"`
	} `yaml:"dispatcher"`
}

// PlatformConfig is the per-platform fan-out and provider configuration.
type PlatformConfig struct {
	// Enabled turns dispatch for the platform on. A disabled platform is
	// wired with a no-op gateway so ledger semantics stay intact.
	Enabled bool `yaml:"enabled"`

	// BatchSize is the subscriber page size.
	BatchSize int `yaml:"batch_size"`

	// MaxInFlight caps concurrent provider sends within one page.
	MaxInFlight int `yaml:"max_in_flight"`

	// Endpoint overrides the provider endpoint, mainly for staging.
	Endpoint string `yaml:"endpoint"`

	// CredentialEnv names the environment variable holding the provider
	// credential (FCM server key, APNs provider token).
	CredentialEnv string `yaml:"credential_env"`

	// Topic is the apns-topic value; only meaningful for iOS.
	Topic string `yaml:"topic"`
}

// LoadDispatcherConfig loads and validates the dispatcher configuration.
// The path parameter is expected to come from a trusted source (command-line
// argument or hardcoded default).
func LoadDispatcherConfig(path string) (*DispatcherConfig, error) {
	// #nosec G304 -- path is provided by trusted source (CLI arg or config), not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config DispatcherConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validateDispatcherConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// validateDispatcherConfig validates the loaded configuration.
func validateDispatcherConfig(config *DispatcherConfig) error {
	d := &config.Dispatcher

	if d.SweepInterval == "" {
		return fmt.Errorf("sweep_interval is required")
	}
	if d.SweepLookback <= 0 {
		return fmt.Errorf("sweep_lookback must be positive")
	}
	if d.SweepLimit <= 0 {
		return fmt.Errorf("sweep_limit must be positive")
	}
	if d.PagePace < 0 {
		return fmt.Errorf("page_pace must not be negative")
	}

	if err := validatePlatform("android", d.Platforms.Android); err != nil {
		return err
	}
	if err := validatePlatform("ios", d.Platforms.IOS); err != nil {
		return err
	}

	if !d.Platforms.Android.Enabled && !d.Platforms.IOS.Enabled {
		return fmt.Errorf("at least one platform must be enabled")
	}
	return nil
}

func validatePlatform(name string, p PlatformConfig) error {
	if !p.Enabled {
		return nil
	}
	if p.BatchSize <= 0 {
		return fmt.Errorf("%s batch_size must be positive", name)
	}
	if p.MaxInFlight <= 0 {
		return fmt.Errorf("%s max_in_flight must be positive", name)
	}
	if p.CredentialEnv == "" {
		return fmt.Errorf("%s credential_env is required", name)
	}
	if name == "ios" && p.Topic == "" {
		return fmt.Errorf("ios topic is required")
	}
	return nil
}

// Credential resolves the platform's provider credential from the
// environment variable named in the config.
func (p PlatformConfig) Credential() (string, error) {
	value := os.Getenv(p.CredentialEnv)
	if value == "" {
		return "", fmt.Errorf("credential env %s is empty", p.CredentialEnv)
	}
	return value, nil
}
