package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if c.Server.Port != 5000 || c.Provider != "yahoo" || c.Indicators.Engine != "auto" {
		t.Fatalf("unexpected defaults %+v", c)
	}
	if c.Yahoo.Suffix != ".OL" || c.Yahoo.Timeout != 15*time.Second {
		t.Fatalf("unexpected yahoo defaults %+v", c.Yahoo)
	}
	if !c.Screener.RateLimit.Enabled || c.Screener.Workers != 8 || c.Cache.TTL != 15*time.Minute {
		t.Fatalf("unexpected screener/cache defaults")
	}
	if c.Kafka.Enabled {
		t.Fatalf("kafka should be off by default")
	}
}

func TestLoadOverlaysYAML(t *testing.T) {
	path := writeConfig(t, `
environment: production
server:
  port: 8081
cache:
  type: layered
  ttl: 5m
screener:
  rate_limit:
    enabled: false
kafka:
  enabled: true
  brokers: ["k1:9092", "k2:9092"]
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Environment != "production" || c.Server.Port != 8081 {
		t.Fatalf("yaml values not applied: %+v", c.Server)
	}
	if c.Cache.Type != "layered" || c.Cache.TTL != 5*time.Minute {
		t.Fatalf("cache not applied: %+v", c.Cache)
	}
	if c.Screener.RateLimit.Enabled {
		t.Fatalf("explicit false should override the default")
	}
	if c.Server.ReadTimeout != 10*time.Second {
		t.Fatalf("unset fields should keep defaults, got %v", c.Server.ReadTimeout)
	}
	if len(c.Kafka.Brokers) != 2 || c.Kafka.RequestsTopic != "osloscan.scan.requests" {
		t.Fatalf("unexpected kafka config %+v", c.Kafka)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 7000\n")
	t.Setenv("PYTHON_PORT", "6000")
	t.Setenv("INDICATOR_ENGINE", "fallback")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")
	t.Setenv("CACHE_TTL", "30s")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Server.Port != 6000 {
		t.Fatalf("PYTHON_PORT should override yaml, got %d", c.Server.Port)
	}
	if c.Indicators.Engine != "fallback" || c.Cache.TTL != 30*time.Second {
		t.Fatalf("env overrides not applied: %+v", c)
	}
	if !c.Kafka.Enabled || len(c.Kafka.Brokers) != 2 || c.Kafka.Brokers[1] != "b:9092" {
		t.Fatalf("unexpected kafka brokers %v", c.Kafka.Brokers)
	}

	t.Setenv("PORT", "9090")
	c, err = LoadWithEnv(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Server.Port != 9090 {
		t.Fatalf("PORT should win over PYTHON_PORT, got %d", c.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.Provider = "bloomberg" }},
		{"clickhouse without host", func(c *Config) { c.Provider = "clickhouse" }},
		{"bad engine", func(c *Config) { c.Indicators.Engine = "gpu" }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"kafka without brokers", func(c *Config) { c.Kafka.Enabled = true }},
		{"bad cache type", func(c *Config) { c.Cache.Type = "disk" }},
		{"no workers", func(c *Config) { c.Screener.Workers = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(c)
			if err := c.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
