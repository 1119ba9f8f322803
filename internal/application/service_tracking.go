package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/domain"
)

// TrackView is the first-phase recording of a view attempt. Every
// branch persists exactly one VisitEvent, accepted or rejected, so
// rejected traffic stays visible to fraud analytics. Only a storage
// failure is an error; policy rejections are normal outcomes.
func (s *Service) TrackView(ctx context.Context, input TrackViewInput) (TrackViewResult, error) {
	if err := domain.ValidateTrackViewInput(input.CampaignID, input.CreatorID, input.LinkID, input.VisitorID); err != nil {
		return TrackViewResult{}, err
	}

	now := s.nowFn()
	ipHash := domain.HashIdentifier(input.IP)
	uaHash := domain.HashIdentifier(input.UserAgent)
	fingerprintHash := ""
	if input.Fingerprint != nil {
		fingerprintHash = domain.HashFingerprint(*input.Fingerprint)
	}

	signals := s.collectSignals(ctx, input, ipHash, fingerprintHash)
	score := domain.ScoreVisit(signals)

	visit := domain.VisitEvent{
		VisitID:         "ve-" + uuid.NewString(),
		CampaignID:      strings.TrimSpace(input.CampaignID),
		CreatorID:       strings.TrimSpace(input.CreatorID),
		LinkID:          strings.TrimSpace(input.LinkID),
		VisitorID:       strings.TrimSpace(input.VisitorID),
		IPHash:          ipHash,
		UserAgentHash:   uaHash,
		FingerprintHash: fingerprintHash,
		Referrer:        signals.Referrer,
		CountryCode:     signals.CountryCode,
		FraudScore:      score,
		IsSuspicious:    domain.IsViewSuspicious(score),
		IsRecorded:      true,
		OccurredAt:      now,
	}

	campaign, err := s.campaigns.GetByID(ctx, visit.CampaignID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.recordRejected(ctx, visit, domain.RejectReasonCampaignNotFound)
		}
		return TrackViewResult{}, fmt.Errorf("load campaign: %w", err)
	}
	if campaign.Status != domain.CampaignStatusActive {
		return s.recordRejected(ctx, visit, domain.RejectReasonCampaignInactive)
	}

	if signals.IsBot {
		return s.recordRejected(ctx, visit, domain.RejectReasonBotDetected)
	}
	if score >= campaign.EffectiveFraudThreshold() {
		return s.recordRejected(ctx, visit, domain.RejectReasonFraudScoreExceeded)
	}

	duplicate, err := s.visits.HasRecordedVisit(ctx, visit.CampaignID, visit.CreatorID, visit.VisitorID, now.Add(-s.cfg.DedupeWindow))
	if err != nil {
		return TrackViewResult{}, fmt.Errorf("dedupe lookup: %w", err)
	}
	if duplicate {
		return s.recordRejected(ctx, visit, domain.RejectReasonDuplicate)
	}

	if s.isRateLimited(ctx, ipHash) {
		return s.recordRejected(ctx, visit, domain.RejectReasonRateLimited)
	}

	if err := s.visits.Create(ctx, visit); err != nil {
		return TrackViewResult{}, fmt.Errorf("persist visit: %w", err)
	}

	// Accepted views also feed the per-creator spike counter the
	// release sweep reads.
	if _, err := s.velocity.Increment(ctx, creatorViewsKey(visit.CreatorID), s.cfg.VelocityWindow); err != nil {
		s.logger.WarnContext(ctx, "creator view counter unavailable", "operation", "track_view", "error", err.Error())
	}
	return TrackViewResult{
		VisitID:    visit.VisitID,
		IsRecorded: true,
		FraudScore: score,
		PixelURL:   s.cfg.PixelBaseURL + "?visit_id=" + visit.VisitID,
	}, nil
}

// collectSignals gathers the scorer inputs. Everything here is
// best-effort: a failed redis or geo lookup degrades the signal to its
// absent value instead of failing ingestion.
func (s *Service) collectSignals(ctx context.Context, input TrackViewInput, ipHash, fingerprintHash string) domain.FraudSignals {
	signals := domain.FraudSignals{
		IsBot:     domain.DeriveIsBot(input.UserAgent),
		UserAgent: input.UserAgent,
	}
	if ref := strings.TrimSpace(input.Referrer); ref != "" {
		signals.Referrer = &ref
	}

	velocity, err := s.velocity.Increment(ctx, "traffic:velocity:"+ipHash, s.cfg.VelocityWindow)
	if err != nil {
		s.logger.WarnContext(ctx, "velocity counter unavailable", "operation", "track_view", "error", err.Error())
	} else {
		signals.IPVelocity = velocity
	}

	if count, err := s.visits.CountByIPHash(ctx, ipHash); err == nil {
		signals.IPVisitCount = count
	}
	if count, err := s.visits.CountByVisitor(ctx, strings.TrimSpace(input.VisitorID)); err == nil {
		signals.IsNewVisitor = count == 0
	}
	if fingerprintHash != "" {
		if seen, err := s.visits.HasFingerprint(ctx, fingerprintHash); err == nil {
			signals.IsSameDevice = seen
		}
	}

	if country, err := s.geo.ResolveCountry(ctx, input.IP); err == nil && country != "" {
		signals.CountryCode = &country
	}
	return signals
}

func creatorViewsKey(creatorID string) string {
	return "traffic:creator_views:" + creatorID
}

func (s *Service) isRateLimited(ctx context.Context, ipHash string) bool {
	count, err := s.velocity.Increment(ctx, "traffic:ratelimit:"+ipHash, s.cfg.RateLimitWindow)
	if err != nil {
		s.logger.WarnContext(ctx, "rate limit counter unavailable", "operation", "track_view", "error", err.Error())
		return false
	}
	return count > s.cfg.RateLimitMaxRequests
}

func (s *Service) recordRejected(ctx context.Context, visit domain.VisitEvent, reason domain.RejectReason) (TrackViewResult, error) {
	visit.RejectReason = reason
	if err := s.visits.Create(ctx, visit); err != nil {
		return TrackViewResult{}, fmt.Errorf("persist rejected visit: %w", err)
	}
	return TrackViewResult{
		VisitID:    visit.VisitID,
		IsRecorded: true,
		FraudScore: visit.FraudScore,
		Reason:     reason,
	}, nil
}

// GetVisit is an admin/debug read used by the ops surface.
func (s *Service) GetVisit(ctx context.Context, actor Actor, visitID string) (domain.VisitEvent, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.VisitEvent{}, domain.ErrUnauthorized
	}
	if actor.Role != "admin" {
		return domain.VisitEvent{}, domain.ErrForbidden
	}
	return s.visits.GetByID(ctx, strings.TrimSpace(visitID))
}
