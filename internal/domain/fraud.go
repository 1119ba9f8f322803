package domain

import "strings"

// SuspicionCutoff flags views for review UIs. It is independent of the
// per-campaign billing threshold.
const SuspicionCutoff = 70

// FraudSignals are the request-derived inputs to the scorer. Optional
// signals use pointers; a nil country code contributes nothing.
type FraudSignals struct {
	IsBot        bool
	IPVelocity   int64
	IPVisitCount int64
	UserAgent    string
	Referrer     *string
	IsNewVisitor bool
	CountryCode  *string
	IsKnownVPN   bool
	IsDataCenter bool
	IsSameDevice bool
}

// ScoreVisit maps fraud signals to an additive score, higher = more
// suspicious. Deterministic and side-effect free so it can be tested
// against synthetic vectors. IPVelocity (rolling window) and
// IPVisitCount (lifetime) are scored as distinct signals.
func ScoreVisit(sig FraudSignals) int {
	score := 0
	if sig.IsBot {
		score += 80
	}
	switch {
	case sig.IPVelocity > 30:
		score += 25
	case sig.IPVelocity > 10:
		score += 10
	}
	if sig.IPVisitCount > 100 {
		score += 10
	}
	ua := strings.TrimSpace(sig.UserAgent)
	if ua == "" || len(ua) < 20 {
		score += 15
	}
	if sig.Referrer == nil || strings.TrimSpace(*sig.Referrer) == "" {
		score += 5
	}
	if !sig.IsNewVisitor {
		score += 5
	}
	if sig.IsKnownVPN {
		score += 15
	}
	if sig.IsDataCenter {
		score += 20
	}
	if sig.IsSameDevice {
		score += 10
	}
	return score
}

// IsViewSuspicious applies the review cutoff, not the billing threshold.
func IsViewSuspicious(score int) bool {
	return score >= SuspicionCutoff
}

var botMarkers = []string{
	"bot", "crawler", "spider", "headless", "phantomjs", "selenium",
	"curl/", "wget/", "python-requests", "go-http-client", "scrapy",
}

// DeriveIsBot applies user-agent heuristics for the first-phase bot gate.
func DeriveIsBot(userAgent string) bool {
	ua := strings.ToLower(strings.TrimSpace(userAgent))
	if ua == "" {
		return true
	}
	for _, marker := range botMarkers {
		if strings.Contains(ua, marker) {
			return true
		}
	}
	return false
}
