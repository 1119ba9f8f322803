package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL string
	MaxDBConns  int32
	RedisURL    string

	KafkaBrokers []string

	BudgetGRPCURL  string
	PricingGRPCURL string
	MetricsGRPCURL string

	PixelBaseURL       string
	GeoDefaultCountry  string
	ViewPayoutCents    int64
	DedupeWindow       time.Duration
	VelocityWindow     time.Duration
	RateLimitWindow    time.Duration
	RateLimitMax       int64
	AttributionWindow  time.Duration
	CommissionPercent  int
	PlatformFeePercent int

	FreezeAnomalyThreshold     float64
	ReserveHoldDays            int
	DailyPayoutCapCents        int64
	CreatorFlagFrozenThreshold int
	SweepBatchSize             int
	SweepInterval              time.Duration
	ReserveSweepInterval       time.Duration
}

type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		DatabaseURL    string   `yaml:"database_url"`
		MaxDBConns     int32    `yaml:"max_db_conns"`
		RedisURL       string   `yaml:"redis_url"`
		KafkaBrokers   []string `yaml:"kafka_brokers"`
		BudgetGRPCURL  string   `yaml:"budget_grpc_url"`
		PricingGRPCURL string   `yaml:"pricing_grpc_url"`
		MetricsGRPCURL string   `yaml:"metrics_grpc_url"`
	} `yaml:"dependencies"`
	Tracking struct {
		PixelBaseURL      string `yaml:"pixel_base_url"`
		GeoDefaultCountry string `yaml:"geo_default_country"`
		ViewPayoutCents   int64  `yaml:"view_payout_cents"`
		DedupeHours       int    `yaml:"dedupe_hours"`
		VelocityMinutes   int    `yaml:"velocity_minutes"`
		RateLimitMinutes  int    `yaml:"rate_limit_minutes"`
		RateLimitMax      int64  `yaml:"rate_limit_max"`
		AttributionDays   int    `yaml:"attribution_days"`
	} `yaml:"tracking"`
	Settlement struct {
		CommissionPercent          int     `yaml:"commission_percent"`
		PlatformFeePercent         int     `yaml:"platform_fee_percent"`
		FreezeAnomalyThreshold     float64 `yaml:"freeze_anomaly_threshold"`
		ReserveHoldDays            int     `yaml:"reserve_hold_days"`
		DailyPayoutCapCents        int64   `yaml:"daily_payout_cap_cents"`
		CreatorFlagFrozenThreshold int     `yaml:"creator_flag_frozen_threshold"`
		SweepBatchSize             int     `yaml:"sweep_batch_size"`
		SweepSeconds               int     `yaml:"sweep_seconds"`
		ReserveSweepSeconds        int     `yaml:"reserve_sweep_seconds"`
	} `yaml:"settlement"`
}

func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:                  "M15-Traffic-Settlement-Service",
		HTTPPort:                   8080,
		GRPCPort:                   9090,
		MaxDBConns:                 16,
		PixelBaseURL:               "/track/pixel",
		GeoDefaultCountry:          "US",
		ViewPayoutCents:            5,
		DedupeWindow:               24 * time.Hour,
		VelocityWindow:             time.Hour,
		RateLimitWindow:            time.Hour,
		RateLimitMax:               100,
		AttributionWindow:          7 * 24 * time.Hour,
		CommissionPercent:          30,
		PlatformFeePercent:         20,
		FreezeAnomalyThreshold:     7,
		ReserveHoldDays:            30,
		DailyPayoutCapCents:        100_000,
		CreatorFlagFrozenThreshold: 3,
		SweepBatchSize:             100,
		SweepInterval:              time.Minute,
		ReserveSweepInterval:       time.Hour,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		cfg.DatabaseURL = f.Dependencies.DatabaseURL
		if f.Dependencies.MaxDBConns > 0 {
			cfg.MaxDBConns = f.Dependencies.MaxDBConns
		}
		cfg.RedisURL = f.Dependencies.RedisURL
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = trimNonEmpty(f.Dependencies.KafkaBrokers)
		}
		cfg.BudgetGRPCURL = f.Dependencies.BudgetGRPCURL
		cfg.PricingGRPCURL = f.Dependencies.PricingGRPCURL
		cfg.MetricsGRPCURL = f.Dependencies.MetricsGRPCURL

		if f.Tracking.PixelBaseURL != "" {
			cfg.PixelBaseURL = f.Tracking.PixelBaseURL
		}
		if f.Tracking.GeoDefaultCountry != "" {
			cfg.GeoDefaultCountry = f.Tracking.GeoDefaultCountry
		}
		if f.Tracking.ViewPayoutCents > 0 {
			cfg.ViewPayoutCents = f.Tracking.ViewPayoutCents
		}
		if f.Tracking.DedupeHours > 0 {
			cfg.DedupeWindow = time.Duration(f.Tracking.DedupeHours) * time.Hour
		}
		if f.Tracking.VelocityMinutes > 0 {
			cfg.VelocityWindow = time.Duration(f.Tracking.VelocityMinutes) * time.Minute
		}
		if f.Tracking.RateLimitMinutes > 0 {
			cfg.RateLimitWindow = time.Duration(f.Tracking.RateLimitMinutes) * time.Minute
		}
		if f.Tracking.RateLimitMax > 0 {
			cfg.RateLimitMax = f.Tracking.RateLimitMax
		}
		if f.Tracking.AttributionDays > 0 {
			cfg.AttributionWindow = time.Duration(f.Tracking.AttributionDays) * 24 * time.Hour
		}

		if f.Settlement.CommissionPercent > 0 {
			cfg.CommissionPercent = f.Settlement.CommissionPercent
		}
		if f.Settlement.PlatformFeePercent > 0 {
			cfg.PlatformFeePercent = f.Settlement.PlatformFeePercent
		}
		if f.Settlement.FreezeAnomalyThreshold > 0 {
			cfg.FreezeAnomalyThreshold = f.Settlement.FreezeAnomalyThreshold
		}
		if f.Settlement.ReserveHoldDays > 0 {
			cfg.ReserveHoldDays = f.Settlement.ReserveHoldDays
		}
		if f.Settlement.DailyPayoutCapCents > 0 {
			cfg.DailyPayoutCapCents = f.Settlement.DailyPayoutCapCents
		}
		if f.Settlement.CreatorFlagFrozenThreshold > 0 {
			cfg.CreatorFlagFrozenThreshold = f.Settlement.CreatorFlagFrozenThreshold
		}
		if f.Settlement.SweepBatchSize > 0 {
			cfg.SweepBatchSize = f.Settlement.SweepBatchSize
		}
		if f.Settlement.SweepSeconds > 0 {
			cfg.SweepInterval = time.Duration(f.Settlement.SweepSeconds) * time.Second
		}
		if f.Settlement.ReserveSweepSeconds > 0 {
			cfg.ReserveSweepInterval = time.Duration(f.Settlement.ReserveSweepSeconds) * time.Second
		}
	}

	cfg.DatabaseURL = envOrDefault("DATABASE_URL", cfg.DatabaseURL)
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.BudgetGRPCURL = envOrDefault("BUDGET_GRPC_URL", cfg.BudgetGRPCURL)
	cfg.PricingGRPCURL = envOrDefault("PRICING_GRPC_URL", cfg.PricingGRPCURL)
	cfg.MetricsGRPCURL = envOrDefault("METRICS_GRPC_URL", cfg.MetricsGRPCURL)
	cfg.PixelBaseURL = envOrDefault("PIXEL_BASE_URL", cfg.PixelBaseURL)
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.ViewPayoutCents = int64(envInt("VIEW_PAYOUT_CENTS", int(cfg.ViewPayoutCents)))
	cfg.DailyPayoutCapCents = int64(envInt("DAILY_PAYOUT_CAP_CENTS", int(cfg.DailyPayoutCapCents)))
	cfg.SweepInterval = time.Duration(envInt("SWEEP_SECONDS", int(cfg.SweepInterval.Seconds()))) * time.Second
	cfg.ReserveSweepInterval = time.Duration(envInt("RESERVE_SWEEP_SECONDS", int(cfg.ReserveSweepInterval.Seconds()))) * time.Second

	return cfg, nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envCSV(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	items := strings.Split(raw, ",")
	return trimNonEmpty(items)
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
