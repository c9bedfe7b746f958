package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validDispatcherYAML = `dispatcher:
  sweep_interval: "@every 1m"
  sweep_lookback: 24h
  sweep_limit: 50
  page_pace: 30s
  platforms:
    android:
      enabled: true
      batch_size: 1000
      max_in_flight: 32
      credential_env: "FCM_SERVER_KEY"
    ios:
      enabled: true
      batch_size: 3000
      max_in_flight: 32
      credential_env: "APNS_AUTH_TOKEN"
      topic: "com.example.news"
`

func TestLoadDispatcherConfig(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "dispatcher-config-test")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	tests := []struct {
		name        string
		configYAML  string
		expectError bool
		errorMsg    string
		validate    func(*testing.T, *DispatcherConfig)
	}{
		{
			name:        "valid config",
			configYAML:  validDispatcherYAML,
			expectError: false,
			validate: func(t *testing.T, config *DispatcherConfig) {
				d := config.Dispatcher
				if d.SweepInterval != "@every 1m" {
					t.Errorf("expected sweep_interval '@every 1m', got '%s'", d.SweepInterval)
				}
				if d.SweepLookback != 24*time.Hour {
					t.Errorf("expected sweep_lookback 24h, got %v", d.SweepLookback)
				}
				if d.SweepLimit != 50 {
					t.Errorf("expected sweep_limit 50, got %d", d.SweepLimit)
				}
				if d.PagePace != 30*time.Second {
					t.Errorf("expected page_pace 30s, got %v", d.PagePace)
				}
				if d.Platforms.Android.BatchSize != 1000 {
					t.Errorf("expected android batch_size 1000, got %d", d.Platforms.Android.BatchSize)
				}
				if d.Platforms.IOS.BatchSize != 3000 {
					t.Errorf("expected ios batch_size 3000, got %d", d.Platforms.IOS.BatchSize)
				}
				if d.Platforms.IOS.Topic != "com.example.news" {
					t.Errorf("expected ios topic 'com.example.news', got '%s'", d.Platforms.IOS.Topic)
				}
			},
		},
		{
			name: "missing sweep_interval",
			configYAML: `dispatcher:
  sweep_lookback: 24h
  sweep_limit: 50
  platforms:
    android:
      enabled: true
      batch_size: 1000
      max_in_flight: 32
      credential_env: "FCM_SERVER_KEY"
`,
			expectError: true,
			errorMsg:    "sweep_interval is required",
		},
		{
			name: "zero sweep_limit",
			configYAML: `dispatcher:
  sweep_interval: "@every 1m"
  sweep_lookback: 24h
  sweep_limit: 0
  platforms:
    android:
      enabled: true
      batch_size: 1000
      max_in_flight: 32
      credential_env: "FCM_SERVER_KEY"
`,
			expectError: true,
			errorMsg:    "sweep_limit must be positive",
		},
		{
			name: "enabled platform without batch_size",
			configYAML: `dispatcher:
  sweep_interval: "@every 1m"
  sweep_lookback: 24h
  sweep_limit: 50
  platforms:
    android:
      enabled: true
      max_in_flight: 32
      credential_env: "FCM_SERVER_KEY"
`,
			expectError: true,
			errorMsg:    "android batch_size must be positive",
		},
		{
			name: "enabled platform without credential_env",
			configYAML: `dispatcher:
  sweep_interval: "@every 1m"
  sweep_lookback: 24h
  sweep_limit: 50
  platforms:
    ios:
      enabled: true
      batch_size: 3000
      max_in_flight: 32
      topic: "com.example.news"
`,
			expectError: true,
			errorMsg:    "ios credential_env is required",
		},
		{
			name: "ios without topic",
			configYAML: `dispatcher:
  sweep_interval: "@every 1m"
  sweep_lookback: 24h
  sweep_limit: 50
  platforms:
    ios:
      enabled: true
      batch_size: 3000
      max_in_flight: 32
      credential_env: "APNS_AUTH_TOKEN"
`,
			expectError: true,
			errorMsg:    "ios topic is required",
		},
		{
			name: "all platforms disabled",
			configYAML: `dispatcher:
  sweep_interval: "@every 1m"
  sweep_lookback: 24h
  sweep_limit: 50
  platforms:
    android:
      enabled: false
    ios:
      enabled: false
`,
			expectError: true,
			errorMsg:    "at least one platform must be enabled",
		},
		{
			name: "disabled platform needs no provider settings",
			configYAML: `dispatcher:
  sweep_interval: "@every 1m"
  sweep_lookback: 24h
  sweep_limit: 50
  platforms:
    android:
      enabled: true
      batch_size: 1000
      max_in_flight: 32
      credential_env: "FCM_SERVER_KEY"
    ios:
      enabled: false
`,
			expectError: false,
			validate: func(t *testing.T, config *DispatcherConfig) {
				if config.Dispatcher.Platforms.IOS.Enabled {
					t.Error("expected ios to stay disabled")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(tmpDir, "config.yaml")
			if err := os.WriteFile(configPath, []byte(tt.configYAML), 0644); err != nil {
				t.Fatal(err)
			}

			config, err := LoadDispatcherConfig(configPath)

			if tt.expectError {
				if err == nil {
					t.Error("expected error but got nil")
					return
				}
				if tt.errorMsg != "" && err.Error() != "config validation failed: "+tt.errorMsg {
					t.Errorf("expected error message containing '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else {
				if err != nil {
					t.Errorf("expected no error but got: %v", err)
					return
				}
				if tt.validate != nil {
					tt.validate(t, config)
				}
			}
		})
	}
}

func TestLoadDispatcherConfig_FileNotFound(t *testing.T) {
	_, err := LoadDispatcherConfig("/nonexistent/path/config.yaml")

	if err == nil {
		t.Error("expected error for non-existent file")
	}
}

func TestLoadDispatcherConfig_InvalidYAML(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "dispatcher-config-test")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	configPath := filepath.Join(tmpDir, "invalid.yaml")
	invalidYAML := `
dispatcher:
  sweep_limit: not-a-number
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadDispatcherConfig(configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestPlatformConfig_Credential(t *testing.T) {
	t.Setenv("TEST_FCM_KEY", "secret-key")

	p := PlatformConfig{CredentialEnv: "TEST_FCM_KEY"}
	value, err := p.Credential()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if value != "secret-key" {
		t.Errorf("expected 'secret-key', got '%s'", value)
	}

	p = PlatformConfig{CredentialEnv: "TEST_MISSING_KEY"}
	if _, err := p.Credential(); err == nil {
		t.Error("expected error for empty credential env")
	}
}
