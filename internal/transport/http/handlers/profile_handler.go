package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ivankudzin/loveconnect/backend/internal/pkg/validate"
	authsvc "github.com/ivankudzin/loveconnect/backend/internal/services/auth"
	userssvc "github.com/ivankudzin/loveconnect/backend/internal/services/users"
	"github.com/ivankudzin/loveconnect/backend/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/loveconnect/backend/internal/transport/http/errors"
)

type ProfileHandler struct {
	service        *userssvc.Service
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewProfileHandler(service *userssvc.Service, maxUploadBytes int64, logger *zap.Logger) *ProfileHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileHandler{service: service, maxUploadBytes: maxUploadBytes, logger: logger}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "USERS_SERVICE_UNAVAILABLE", "users service is unavailable")
		return
	}

	profile, err := h.service.Profile(r.Context(), identity.UserID)
	if err != nil {
		handleUsersError(w, h.logger, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ProfileResponse{
		FirstName:    profile.FirstName,
		LastName:     profile.LastName,
		Age:          profile.Age,
		Gender:       string(profile.Gender),
		Email:        profile.Email,
		Bio:          profile.Bio,
		Interests:    profile.Interests,
		ProfileImage: dto.StringOrNull(profile.ProfileImage),
	})
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "USERS_SERVICE_UNAVAILABLE", "users service is unavailable")
		return
	}

	form, err := parseProfileForm(w, r, h.maxUploadBytes)
	if err != nil {
		handleFormError(w, err)
		return
	}
	defer form.Close()

	age, err := form.age()
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", err.Error())
		return
	}
	interests, err := form.interests()
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", err.Error())
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), identity.UserID, userssvc.UpdateInput{
		FirstName: form.optional("firstName"),
		LastName:  form.optional("lastName"),
		Age:       age,
		Gender:    form.optional("gender"),
		Email:     form.optional("email"),
		Bio:       form.present("bio"),
		Interests: interests,
	}, form.image)
	if err != nil {
		handleUsersError(w, h.logger, err)
		return
	}

	resp := dto.UpdateProfileResponse{Message: "Profile updated successfully!"}
	if form.image != nil {
		resp.ProfileImage = dto.StringOrNull(profile.ProfileImage)
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "USERS_SERVICE_UNAVAILABLE", "users service is unavailable")
		return
	}

	var req dto.ChangePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", err.Error())
		return
	}

	if err := h.service.ChangePassword(r.Context(), identity.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		handleUsersError(w, h.logger, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MessageResponse{Message: "Password updated successfully"})
}
