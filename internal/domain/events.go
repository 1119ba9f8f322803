package domain

const (
	CanonicalEventClassDomain        = "domain"
	CanonicalEventClassAnalyticsOnly = "analytics_only"
	CanonicalEventClassOps           = "ops"
)

const (
	EventVelocitySpikeDetected = "traffic.velocity_spike_detected"
	EventCreatorFlagged        = "traffic.creator_flagged"
	EventPayoutReleased        = "traffic.payout_released"
	EventPayoutFrozen          = "traffic.payout_frozen"
	EventConversionAttributed  = "traffic.conversion_attributed"
)
