package http

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/application"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/contracts"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/domain"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/ports"
)

const (
	visitorCookieName   = "vf_visitor_id"
	lastTouchCookieName = "vf_last_touch"
	lastTouchTTL        = 7 * 24 * time.Hour
)

func (h *Handler) trackView(w http.ResponseWriter, r *http.Request) {
	var req contracts.TrackViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), requestIDFromContext(r.Context()))
		return
	}

	visitorID := strings.TrimSpace(req.VisitorID)
	if visitorID == "" {
		visitorID = visitorIDFromCookie(r)
	}
	if visitorID == "" {
		visitorID = uuid.NewString()
	}
	setVisitorCookie(w, visitorID)

	input := application.TrackViewInput{
		CampaignID: req.CampaignID,
		CreatorID:  req.CreatorID,
		LinkID:     req.LinkID,
		VisitorID:  visitorID,
		IP:         clientIP(r),
		UserAgent:  r.UserAgent(),
		Referrer:   r.Referer(),
	}
	if req.DeviceFingerprint != nil {
		input.Fingerprint = &domain.DeviceFingerprint{
			ScreenResolution: req.DeviceFingerprint.ScreenResolution,
			Timezone:         req.DeviceFingerprint.Timezone,
			Language:         req.DeviceFingerprint.Language,
			Platform:         req.DeviceFingerprint.Platform,
		}
	}

	out, err := h.service.TrackView(r.Context(), input)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	if out.Reason == "" {
		setLastTouchCookie(w, strings.TrimSpace(req.CampaignID), strings.TrimSpace(req.CreatorID), time.Now().UTC())
	}
	writeSuccess(w, http.StatusCreated, "", contracts.TrackViewResponse{
		VisitID:     out.VisitID,
		IsRecorded:  out.IsRecorded,
		IsValidated: out.IsValidated,
		IsBillable:  out.IsBillable,
		FraudScore:  out.FraudScore,
		Reason:      string(out.Reason),
		PixelURL:    out.PixelURL,
	})
}

// pixelGIF is a constant 1x1 transparent GIF. Every pixel response
// renders it so the caller cannot distinguish outcomes by body.
var pixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
	0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

func (h *Handler) trackPixel(w http.ResponseWriter, r *http.Request) {
	visitID := strings.TrimSpace(r.URL.Query().Get("visit_id"))
	status := http.StatusOK
	if visitID == "" {
		status = http.StatusBadRequest
	} else if result, err := h.service.ValidatePixel(r.Context(), visitID); err != nil || result.Outcome == application.PixelOutcomeNotFound {
		status = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.Header().Set("Content-Length", strconv.Itoa(len(pixelGIF)))
	w.WriteHeader(status)
	_, _ = w.Write(pixelGIF)
}

func (h *Handler) trackConversion(w http.ResponseWriter, r *http.Request) {
	var req contracts.TrackConversionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), requestIDFromContext(r.Context()))
		return
	}
	visitorID := strings.TrimSpace(req.VisitorID)
	if visitorID == "" {
		visitorID = visitorIDFromCookie(r)
	}

	out, err := h.service.TrackConversion(r.Context(), application.TrackConversionInput{
		CampaignID:   req.CampaignID,
		Type:         req.Type,
		RevenueCents: req.RevenueCents,
		VisitorID:    visitorID,
		LastTouch:    lastTouchFromCookie(r),
	})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}

	resp := contracts.TrackConversionResponse{
		ConversionID:     out.Conversion.ConversionID,
		CampaignID:       out.Conversion.CampaignID,
		AttributionModel: out.Conversion.AttributedTo,
		IsValid:          out.Conversion.IsValid,
		PayoutCents:      out.PayoutCents,
	}
	if out.Conversion.CreatorID != nil {
		resp.CreatorID = *out.Conversion.CreatorID
	}
	if !out.Conversion.IsValid {
		resp.Reason = out.Conversion.AttributedTo
		resp.AttributionModel = string(domain.AttributionDirect)
	}
	writeSuccess(w, http.StatusCreated, "", resp)
}

func (h *Handler) getVisit(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	visit, err := h.service.GetVisit(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", visit)
}

func (h *Handler) listPayouts(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	query := ports.PayoutQuery{
		CreatorID: strings.TrimSpace(r.URL.Query().Get("creator_id")),
		Status:    domain.PayoutStatus(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status")))),
		Limit:     parseIntOrDefault(r.URL.Query().Get("limit"), 20),
		Offset:    parseIntOrDefault(r.URL.Query().Get("offset"), 0),
	}
	items, total, err := h.service.ListPayouts(r.Context(), actor, query)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"items": items,
		"pagination": contracts.Pagination{
			Limit:  query.Limit,
			Offset: query.Offset,
			Total:  total,
		},
	})
}

func (h *Handler) getPayout(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	entry, err := h.service.GetPayout(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", entry)
}

func (h *Handler) forceReleasePayout(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	entry, err := h.service.ForceReleasePayout(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", entry)
}

func (h *Handler) cancelPayout(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	var req contracts.CancelPayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), requestIDFromContext(r.Context()))
		return
	}
	entry, err := h.service.CancelPayout(r.Context(), actor, chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", entry)
}

func (h *Handler) freezePayout(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	var req contracts.FreezePayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), requestIDFromContext(r.Context()))
		return
	}
	entry, err := h.service.FreezePayout(r.Context(), actor, chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", entry)
}

// Sweep triggers for operations. The worker runs the same sweeps on
// tickers; these exist for manual intervention.
func (h *Handler) runReleaseSweep(w http.ResponseWriter, r *http.Request) {
	if actorFromContext(r.Context()).Role != "admin" {
		writeError(w, http.StatusForbidden, "forbidden", "admin role required", requestIDFromContext(r.Context()))
		return
	}
	result, err := h.service.ReleaseEligiblePayouts(r.Context())
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", result)
}

func (h *Handler) runReserveSweep(w http.ResponseWriter, r *http.Request) {
	if actorFromContext(r.Context()).Role != "admin" {
		writeError(w, http.StatusForbidden, "forbidden", "admin role required", requestIDFromContext(r.Context()))
		return
	}
	released, err := h.service.ReleaseExpiredReserves(r.Context())
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]int{"reserves_released": released})
}

func (h *Handler) getCreatorBalance(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	balance, err := h.service.GetCreatorBalance(r.Context(), actor, chi.URLParam(r, "creatorId"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", balance)
}

// clientIP trusts the left-most X-Forwarded-For hop when present and
// falls back to the socket address.
func clientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func visitorIDFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(visitorCookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}

func setVisitorCookie(w http.ResponseWriter, visitorID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     visitorCookieName,
		Value:    visitorID,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// The last-touch cookie is campaignID:creatorID:unixSeconds. It is set
// on every accepted view so the newest touch always wins.
func setLastTouchCookie(w http.ResponseWriter, campaignID, creatorID string, at time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     lastTouchCookieName,
		Value:    campaignID + ":" + creatorID + ":" + strconv.FormatInt(at.Unix(), 10),
		Path:     "/",
		MaxAge:   int(lastTouchTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func lastTouchFromCookie(r *http.Request) *domain.LastTouch {
	cookie, err := r.Cookie(lastTouchCookieName)
	if err != nil {
		return nil
	}
	parts := strings.Split(cookie.Value, ":")
	if len(parts) != 3 {
		return nil
	}
	seconds, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return nil
	}
	touch := domain.LastTouch{
		CampaignID: strings.TrimSpace(parts[0]),
		CreatorID:  strings.TrimSpace(parts[1]),
		TouchedAt:  time.Unix(seconds, 0).UTC(),
	}
	if touch.CampaignID == "" || touch.CreatorID == "" {
		return nil
	}
	return &touch
}

func parseIntOrDefault(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
