package contracts

type TrackViewRequest struct {
	CampaignID        string                    `json:"campaign_id"`
	CreatorID         string                    `json:"creator_id"`
	LinkID            string                    `json:"link_id"`
	VisitorID         string                    `json:"visitor_id"`
	DeviceFingerprint *DeviceFingerprintPayload `json:"device_fingerprint,omitempty"`
}

type DeviceFingerprintPayload struct {
	ScreenResolution string `json:"screen_resolution"`
	Timezone         string `json:"timezone"`
	Language         string `json:"language"`
	Platform         string `json:"platform"`
}

type TrackViewResponse struct {
	VisitID     string `json:"visit_id"`
	IsRecorded  bool   `json:"is_recorded"`
	IsValidated bool   `json:"is_validated"`
	IsBillable  bool   `json:"is_billable"`
	FraudScore  int    `json:"fraud_score"`
	Reason      string `json:"reason,omitempty"`
	PixelURL    string `json:"pixel_url,omitempty"`
}

type TrackConversionRequest struct {
	CampaignID   string            `json:"campaign_id"`
	Type         string            `json:"type"`
	RevenueCents int64             `json:"revenue_cents,omitempty"`
	VisitorID    string            `json:"visitor_id,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

type TrackConversionResponse struct {
	ConversionID     string `json:"conversion_id"`
	CampaignID       string `json:"campaign_id"`
	CreatorID        string `json:"creator_id,omitempty"`
	AttributionModel string `json:"attribution_model"`
	IsValid          bool   `json:"is_valid"`
	Reason           string `json:"reason,omitempty"`
	PayoutCents      int64  `json:"payout_cents,omitempty"`
}

type CancelPayoutRequest struct {
	Reason string `json:"reason"`
}

type FreezePayoutRequest struct {
	Reason string `json:"reason"`
}

type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

type SuccessResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Status string       `json:"status"`
	Error  ErrorPayload `json:"error"`
}

type ErrorPayload struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}
