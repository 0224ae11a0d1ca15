package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authsvc "github.com/ivankudzin/loveconnect/backend/internal/services/auth"
	swipesvc "github.com/ivankudzin/loveconnect/backend/internal/services/swipes"
	"github.com/ivankudzin/loveconnect/backend/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/loveconnect/backend/internal/transport/http/errors"
)

type MatchesHandler struct {
	service *swipesvc.Service
	logger  *zap.Logger
}

func NewMatchesHandler(service *swipesvc.Service, logger *zap.Logger) *MatchesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchesHandler{service: service, logger: logger}
}

func (h *MatchesHandler) Matches(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MATCHES_SERVICE_UNAVAILABLE", "matches service is unavailable")
		return
	}

	cards, err := h.service.Matches(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("list matches failed", zap.Int64("user_id", identity.UserID), zap.Error(err))
		writeInternal(w, "INTERNAL_ERROR", "failed to load matches")
		return
	}

	httperrors.Write(w, http.StatusOK, mapCards(cards))
}

func (h *MatchesHandler) Likes(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MATCHES_SERVICE_UNAVAILABLE", "matches service is unavailable")
		return
	}

	cards, err := h.service.IncomingLikes(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("list incoming likes failed", zap.Int64("user_id", identity.UserID), zap.Error(err))
		writeInternal(w, "INTERNAL_ERROR", "failed to load likes")
		return
	}

	httperrors.Write(w, http.StatusOK, mapCards(cards))
}

func (h *MatchesHandler) Status(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MATCHES_SERVICE_UNAVAILABLE", "matches service is unavailable")
		return
	}

	otherID, ok := matchUserIDFromRequest(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "user_id must be a positive integer")
		return
	}

	matched, err := h.service.IsMatch(r.Context(), identity.UserID, otherID)
	if err != nil {
		if errors.Is(err, swipesvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid match request")
			return
		}
		h.logger.Error("match status failed", zap.Int64("user_id", identity.UserID), zap.Int64("other_id", otherID), zap.Error(err))
		writeInternal(w, "INTERNAL_ERROR", "failed to check match")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MatchStatusResponse{UserID: otherID, IsMatch: matched})
}

func matchUserIDFromRequest(r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "user_id"))
	if raw == "" {
		return 0, false
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}
