package handlers

import (
	"net/http"

	"github.com/nkiryanov/ridehail/internal/apperrors"
	"github.com/nkiryanov/ridehail/internal/handlers/authctx"
	"github.com/nkiryanov/ridehail/internal/handlers/render"
	"github.com/nkiryanov/ridehail/internal/logger"
	"github.com/nkiryanov/ridehail/internal/models"
)

// Seconds client should wait before retrying after infrastructure failure
const retryAfter = "1"

// Render service error with the status matching its category
// Business errors are reported with their message, details of others are only logged
func renderError(w http.ResponseWriter, r *http.Request, l logger.Logger, err error) {
	kind := apperrors.KindOf(err)

	switch kind {
	case apperrors.KindNotFound:
		render.Error(w, string(kind), err.Error(), http.StatusNotFound)
	case apperrors.KindForbidden:
		render.Error(w, string(kind), err.Error(), http.StatusForbidden)
	case apperrors.KindConflict, apperrors.KindInvalidState, apperrors.KindInsufficientFunds, apperrors.KindInvalidInput:
		render.Error(w, string(kind), err.Error(), http.StatusBadRequest)
	case apperrors.KindInfrastructure:
		l.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		w.Header().Set("Retry-After", retryAfter)
		render.Error(w, string(kind), "Service temporarily unavailable", http.StatusServiceUnavailable)
	default:
		l.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		render.Error(w, string(apperrors.KindUnknown), "Internal server error", http.StatusInternalServerError)
	}
}

// Principal set by auth middleware
// Writes 500 if there is none: route is registered without auth
func principal(w http.ResponseWriter, r *http.Request) (models.Principal, bool) {
	p, ok := authctx.FromContext(r.Context())
	if !ok {
		render.Error(w, string(apperrors.KindUnknown), "Internal server error", http.StatusInternalServerError)
	}
	return p, ok
}
