package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ivankudzin/loveconnect/backend/internal/pkg/validate"
	authsvc "github.com/ivankudzin/loveconnect/backend/internal/services/auth"
	swipesvc "github.com/ivankudzin/loveconnect/backend/internal/services/swipes"
	"github.com/ivankudzin/loveconnect/backend/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/loveconnect/backend/internal/transport/http/errors"
)

type SwipeHandler struct {
	service *swipesvc.Service
	logger  *zap.Logger
}

func NewSwipeHandler(service *swipesvc.Service, logger *zap.Logger) *SwipeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SwipeHandler{service: service, logger: logger}
}

func (h *SwipeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "SWIPE_SERVICE_UNAVAILABLE", "swipe service is unavailable")
		return
	}

	var req dto.SwipeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", err.Error())
		return
	}

	result, err := h.service.Record(r.Context(), identity.UserID, req.SwipedID, req.Action)
	if err != nil {
		if writeRateError(w, err) {
			return
		}
		var matchErr *swipesvc.MatchCheckError
		switch {
		case errors.Is(err, swipesvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid swipe request")
		case errors.Is(err, swipesvc.ErrUnsupportedAction):
			writeBadRequest(w, "VALIDATION_ERROR", "action must be like or dislike")
		case errors.Is(err, swipesvc.ErrTargetNotFound):
			httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: "NOT_FOUND", Message: "swiped user not found"})
		case errors.As(err, &matchErr):
			writeInternal(w, "MATCH_CHECK_FAILED", "Failed to check for match")
		default:
			h.logger.Error("record swipe failed", zap.Int64("user_id", identity.UserID), zap.Error(err))
			writeInternal(w, "INTERNAL_ERROR", "Failed to record swipe action")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SwipeResponse{
		Message: "Swipe recorded successfully",
		IsMatch: result.IsMatch,
	})
}
