package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/contracts"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, contracts.SuccessResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

func writeError(w http.ResponseWriter, status int, code, message, requestID string) {
	writeJSON(w, status, contracts.ErrorResponse{
		Status: "error",
		Error: contracts.ErrorPayload{
			Code:      code,
			Message:   message,
			RequestID: requestID,
		},
	})
}

func mapDomainError(err error) (status int, code string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, domain.ErrBalanceMissing):
		return http.StatusConflict, "balance_missing"
	case errors.Is(err, domain.ErrVisitAlreadyPaid):
		return http.StatusConflict, "already_paid"
	case errors.Is(err, domain.ErrInsufficientBudget):
		return http.StatusConflict, "insufficient_budget"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
