package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8081" {
		t.Fatalf("unexpected default port %q", cfg.Port)
	}
	if cfg.SQLiteDBPath == "" {
		t.Fatalf("expected a default db path")
	}
	if cfg.RatesBaseURL != "https://open.er-api.com" {
		t.Fatalf("unexpected default rates URL %q", cfg.RatesBaseURL)
	}
	if cfg.RatesTimeout != 10*time.Second {
		t.Fatalf("unexpected default timeout %v", cfg.RatesTimeout)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Port:               "8081",
			SQLiteDBPath:       "./test.db",
			RatesBaseURL:       "https://open.er-api.com",
			RatesTimeout:       10 * time.Second,
			RateLimitPerMinute: 60,
		}
	}

	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errorString string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Port = "abc" },
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range",
			mutate:      func(c *Config) { c.Port = "70000" },
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "empty db path",
			mutate:      func(c *Config) { c.SQLiteDBPath = "" },
			wantErr:     true,
			errorString: "SQLite database path cannot be empty",
		},
		{
			name:        "bad rates URL scheme",
			mutate:      func(c *Config) { c.RatesBaseURL = "ftp://rates.example.com" },
			wantErr:     true,
			errorString: "must be 'http' or 'https'",
		},
		{
			name:        "timeout too small",
			mutate:      func(c *Config) { c.RatesTimeout = 100 * time.Millisecond },
			wantErr:     true,
			errorString: "must be at least 1 second",
		},
		{
			name:        "rate limit below one",
			mutate:      func(c *Config) { c.RateLimitPerMinute = 0 },
			wantErr:     true,
			errorString: "invalid rate limit 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("expected ok, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.errorString) {
				t.Fatalf("expected error containing %q, got %q", tt.errorString, err.Error())
			}
		})
	}
}
