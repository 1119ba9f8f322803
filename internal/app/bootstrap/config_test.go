package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file must fall back to defaults: %v", err)
	}
	if cfg.HTTPPort != 8080 || cfg.GRPCPort != 9090 {
		t.Fatalf("unexpected default ports: %+v", cfg)
	}
	if cfg.DedupeWindow != 24*time.Hour || cfg.AttributionWindow != 7*24*time.Hour {
		t.Fatalf("unexpected default windows: %+v", cfg)
	}
	if cfg.CommissionPercent != 30 || cfg.PlatformFeePercent != 20 {
		t.Fatalf("unexpected default percents: %+v", cfg)
	}
	if cfg.FreezeAnomalyThreshold != 7 || cfg.ReserveHoldDays != 30 {
		t.Fatalf("unexpected default risk settings: %+v", cfg)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
service:
  id: traffic-settlement-test
  http_port: 9999
dependencies:
  database_url: postgres://file/db
  kafka_brokers: [broker-1:9092]
tracking:
  dedupe_hours: 12
  rate_limit_max: 7
settlement:
  commission_percent: 25
  sweep_seconds: 30
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	// Env wins over the file for deployment-injected values.
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("KAFKA_BROKERS", "broker-2:9092, broker-3:9092")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ServiceID != "traffic-settlement-test" || cfg.HTTPPort != 9999 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.DedupeWindow != 12*time.Hour || cfg.RateLimitMax != 7 {
		t.Fatalf("tracking values not applied: %+v", cfg)
	}
	if cfg.CommissionPercent != 25 || cfg.SweepInterval != 30*time.Second {
		t.Fatalf("settlement values not applied: %+v", cfg)
	}
	if cfg.DatabaseURL != "postgres://env/db" {
		t.Fatalf("env must override the file: %q", cfg.DatabaseURL)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[0] != "broker-2:9092" {
		t.Fatalf("unexpected brokers: %v", cfg.KafkaBrokers)
	}
}
