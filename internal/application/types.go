package application

import (
	"log/slog"
	"time"

	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/ports"
)

// Config carries every policy knob as explicit state so tests can vary
// policy without global mutable configuration.
type Config struct {
	ServiceName  string
	PixelBaseURL string

	DedupeWindow         time.Duration
	VelocityWindow       time.Duration
	RateLimitWindow      time.Duration
	RateLimitMaxRequests int64

	AttributionWindow time.Duration

	CommissionPercent  int
	PlatformFeePercent int

	FreezeAnomalyThreshold     float64
	ReserveHoldDays            int
	DailyPayoutCapCents        int64
	CreatorFlagFrozenThreshold int
	SweepBatchSize             int

	// ConversionPayout overrides the default percent-of-revenue
	// commission model when set.
	ConversionPayout domain.PayoutCalculator
}

type Actor struct {
	SubjectID string
	Role      string
	RequestID string
}

type TrackViewInput struct {
	CampaignID  string
	CreatorID   string
	LinkID      string
	VisitorID   string
	IP          string
	UserAgent   string
	Referrer    string
	Fingerprint *domain.DeviceFingerprint
}

type TrackViewResult struct {
	VisitID     string
	IsRecorded  bool
	IsValidated bool
	IsBillable  bool
	FraudScore  int
	Reason      domain.RejectReason
	PixelURL    string
}

// PixelOutcome is the closed set of pixel validation results. The
// HTTP adapter renders the same GIF for every one of them.
type PixelOutcome string

const (
	PixelOutcomeNotFound             PixelOutcome = "not_found"
	PixelOutcomeInvalidState         PixelOutcome = "invalid_state"
	PixelOutcomeAlreadyValidated     PixelOutcome = "already_validated"
	PixelOutcomeValidatedNonBillable PixelOutcome = "validated_non_billable"
	PixelOutcomeValidatedBillable    PixelOutcome = "validated_billable"
)

type PixelResult struct {
	Outcome PixelOutcome
	Visit   domain.VisitEvent
}

type TrackConversionInput struct {
	CampaignID   string
	Type         string
	RevenueCents int64
	VisitorID    string
	LastTouch    *domain.LastTouch
}

type TrackConversionResult struct {
	Conversion  domain.ConversionEvent
	PayoutCents int64
}

type SweepResult struct {
	Released int `json:"released"`
	Frozen   int `json:"frozen"`
	Deferred int `json:"deferred"`
	Skipped  int `json:"skipped"`
}

type Service struct {
	cfg Config

	visits      ports.VisitRepository
	conversions ports.ConversionRepository
	payouts     ports.PayoutQueueRepository
	balances    ports.BalanceRepository
	ledger      ports.LedgerRepository
	campaigns   ports.CampaignRepository
	tx          ports.TxManager

	velocity ports.VelocityStore
	budget   ports.BudgetLedger
	pricing  ports.CpmPricing
	metrics  ports.TrafficMetrics
	geo      ports.GeoResolver

	events ports.DomainPublisher
	logger *slog.Logger
	nowFn  func() time.Time
}

type Dependencies struct {
	Config      Config
	Visits      ports.VisitRepository
	Conversions ports.ConversionRepository
	Payouts     ports.PayoutQueueRepository
	Balances    ports.BalanceRepository
	Ledger      ports.LedgerRepository
	Campaigns   ports.CampaignRepository
	Tx          ports.TxManager
	Velocity    ports.VelocityStore
	Budget      ports.BudgetLedger
	Pricing     ports.CpmPricing
	Metrics     ports.TrafficMetrics
	Geo         ports.GeoResolver
	Events      ports.DomainPublisher
	Logger      *slog.Logger
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "M15-Traffic-Settlement-Service"
	}
	if cfg.PixelBaseURL == "" {
		cfg.PixelBaseURL = "/track/pixel"
	}
	if cfg.DedupeWindow <= 0 {
		cfg.DedupeWindow = 24 * time.Hour
	}
	if cfg.VelocityWindow <= 0 {
		cfg.VelocityWindow = time.Hour
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = time.Hour
	}
	if cfg.RateLimitMaxRequests <= 0 {
		cfg.RateLimitMaxRequests = 100
	}
	if cfg.AttributionWindow <= 0 {
		cfg.AttributionWindow = 7 * 24 * time.Hour
	}
	if cfg.CommissionPercent <= 0 {
		cfg.CommissionPercent = 30
	}
	if cfg.PlatformFeePercent <= 0 {
		cfg.PlatformFeePercent = 20
	}
	if cfg.FreezeAnomalyThreshold <= 0 {
		cfg.FreezeAnomalyThreshold = 7
	}
	if cfg.ReserveHoldDays <= 0 {
		cfg.ReserveHoldDays = 30
	}
	if cfg.DailyPayoutCapCents <= 0 {
		cfg.DailyPayoutCapCents = 100_000
	}
	if cfg.CreatorFlagFrozenThreshold <= 0 {
		cfg.CreatorFlagFrozenThreshold = 3
	}
	if cfg.SweepBatchSize <= 0 {
		cfg.SweepBatchSize = 100
	}
	if cfg.ConversionPayout == nil {
		cfg.ConversionPayout = domain.PercentPayoutCalculator(cfg.CommissionPercent)
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:         cfg,
		visits:      deps.Visits,
		conversions: deps.Conversions,
		payouts:     deps.Payouts,
		balances:    deps.Balances,
		ledger:      deps.Ledger,
		campaigns:   deps.Campaigns,
		tx:          deps.Tx,
		velocity:    deps.Velocity,
		budget:      deps.Budget,
		pricing:     deps.Pricing,
		metrics:     deps.Metrics,
		geo:         deps.Geo,
		events:      deps.Events,
		logger:      logger.With("service", cfg.ServiceName, "layer", "application"),
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the clock, used by tests to pin eligibility windows.
func (s *Service) WithNow(nowFn func() time.Time) *Service {
	s.nowFn = nowFn
	return s
}
