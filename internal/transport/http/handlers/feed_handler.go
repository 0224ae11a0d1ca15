package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ivankudzin/loveconnect/backend/internal/domain/model"
	authsvc "github.com/ivankudzin/loveconnect/backend/internal/services/auth"
	feedsvc "github.com/ivankudzin/loveconnect/backend/internal/services/feed"
	"github.com/ivankudzin/loveconnect/backend/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/loveconnect/backend/internal/transport/http/errors"
)

type FeedHandler struct {
	service *feedsvc.Service
	logger  *zap.Logger
}

func NewFeedHandler(service *feedsvc.Service, logger *zap.Logger) *FeedHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedHandler{service: service, logger: logger}
}

func (h *FeedHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "FEED_SERVICE_UNAVAILABLE", "feed service is unavailable")
		return
	}

	cards, err := h.service.Fetch(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("fetch feed failed", zap.Int64("user_id", identity.UserID), zap.Error(err))
		writeInternal(w, "INTERNAL_ERROR", "Error fetching profiles")
		return
	}

	httperrors.Write(w, http.StatusOK, mapCards(cards))
}

func mapCards(cards []model.Card) []dto.CardResponse {
	out := make([]dto.CardResponse, 0, len(cards))
	for _, card := range cards {
		interests := card.Interests
		if interests == nil {
			interests = []string{}
		}
		out = append(out, dto.CardResponse{
			ID:        card.ID,
			Name:      card.Name,
			Age:       card.Age,
			Bio:       card.Bio,
			Interests: interests,
			Image:     card.Image,
		})
	}
	return out
}
