package grpc

import (
	"context"
	"net"
	"strings"

	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/ports"
)

// Static upstream clients. The fleet's proto contracts are not vendored
// into this service yet; these stand in for the budget ledger, pricing,
// and anomaly-metric services with permissive defaults so the service
// composes end to end.

type BudgetLedgerClient struct {
	viewPayoutCents int64
}
type CpmPricingClient struct{}
type TrafficMetricsClient struct{}

func NewBudgetLedgerClient(_ string, viewPayoutCents int64) *BudgetLedgerClient {
	if viewPayoutCents <= 0 {
		viewPayoutCents = 5
	}
	return &BudgetLedgerClient{viewPayoutCents: viewPayoutCents}
}
func NewCpmPricingClient(_ string) *CpmPricingClient         { return &CpmPricingClient{} }
func NewTrafficMetricsClient(_ string) *TrafficMetricsClient { return &TrafficMetricsClient{} }

func (c *BudgetLedgerClient) LockCampaignBudget(_ context.Context, campaignID, advertiserID string, amountCents int64) error {
	_ = campaignID
	_ = advertiserID
	_ = amountCents
	return nil
}

func (c *BudgetLedgerClient) ReleaseCampaignBudget(_ context.Context, campaignID, advertiserID string, amountCents int64) error {
	_ = campaignID
	_ = advertiserID
	_ = amountCents
	return nil
}

func (c *BudgetLedgerClient) ComputeCampaignBudget(_ context.Context, campaignID string) (int64, int64, error) {
	_ = campaignID
	return 0, 0, nil
}

func (c *BudgetLedgerClient) RecordValidViewPayout(_ context.Context, campaignID, creatorID, visitID string) (ports.BudgetResult, error) {
	_ = campaignID
	_ = creatorID
	_ = visitID
	return ports.BudgetResult{Success: true, NetPayoutCents: c.viewPayoutCents}, nil
}

func (c *CpmPricingClient) CalculateAdjustedCpm(_ context.Context, campaignID, creatorID string) (ports.CpmQuote, error) {
	_ = campaignID
	_ = creatorID
	return ports.CpmQuote{AppliedMultiplier: 1.0}, nil
}

func (c *TrafficMetricsClient) GetLatestAnomalyScore(_ context.Context, creatorID string) (float64, error) {
	_ = creatorID
	return 0, nil
}

// StaticGeoResolver maps private ranges to empty and everything else to
// a fixed country. A real MaxMind-backed resolver slots in behind the
// same port.
type StaticGeoResolver struct {
	country string
}

func NewStaticGeoResolver(country string) *StaticGeoResolver {
	return &StaticGeoResolver{country: strings.ToUpper(strings.TrimSpace(country))}
}

func (r *StaticGeoResolver) ResolveCountry(_ context.Context, ip string) (string, error) {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil || parsed.IsPrivate() || parsed.IsLoopback() {
		return "", nil
	}
	return r.country, nil
}
