package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/loveconnect/backend/internal/pkg/validate"
	authsvc "github.com/ivankudzin/loveconnect/backend/internal/services/auth"
	mediasvc "github.com/ivankudzin/loveconnect/backend/internal/services/media"
	ratesvc "github.com/ivankudzin/loveconnect/backend/internal/services/rate"
	userssvc "github.com/ivankudzin/loveconnect/backend/internal/services/users"
	"github.com/ivankudzin/loveconnect/backend/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/loveconnect/backend/internal/transport/http/errors"
)

type AuthHandler struct {
	auth           *authsvc.Service
	users          *userssvc.Service
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewAuthHandler(auth *authsvc.Service, users *userssvc.Service, maxUploadBytes int64, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{auth: auth, users: users, maxUploadBytes: maxUploadBytes, logger: logger}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h.users == nil {
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
	if age == nil {
		writeBadRequest(w, "VALIDATION_ERROR", "age is required")
		return
	}
	interests, err := form.interests()
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", err.Error())
		return
	}
	in := userssvc.RegisterInput{
		FirstName: form.text("firstName"),
		LastName:  form.text("lastName"),
		Age:       *age,
		Gender:    form.text("gender"),
		Email:     form.text("email"),
		Password:  form.text("password"),
		Bio:       form.text("bio"),
	}
	if interests != nil {
		in.Interests = *interests
	}

	profile, err := h.users.Register(r.Context(), in, form.image)
	if err != nil {
		handleUsersError(w, h.logger, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.RegisterResponse{
		Message:      "Account registered successfully!",
		ProfileImage: dto.StringOrNull(profile.ProfileImage),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", err.Error())
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if writeRateError(w, err) {
			return
		}
		handleAuthError(w, h.logger, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.LoginResponse{
		Message:      "Login successful!",
		Token:        res.Token,
		ExpiresIn:    maxInt64(0, int64(time.Until(res.ExpiresAt).Seconds())),
		ProfileImage: dto.StringOrNull(res.ProfileImage),
	})
}

func handleAuthError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, authsvc.ErrInvalidInput):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, authsvc.ErrUnauthorized):
		writeUnauthorized(w, "UNAUTHORIZED", "Invalid email or password")
	default:
		logger.Error("login failed", zap.Error(err))
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}

func handleUsersError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, userssvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", validationMessage(err))
	case errors.Is(err, userssvc.ErrUnauthorized):
		writeUnauthorized(w, "UNAUTHORIZED", "Current password is incorrect")
	case errors.Is(err, userssvc.ErrNotFound):
		httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: "NOT_FOUND", Message: "User not found!"})
	case errors.Is(err, userssvc.ErrEmailTaken):
		httperrors.Write(w, http.StatusConflict, httperrors.APIError{Code: "EMAIL_TAKEN", Message: "email is already registered"})
	case errors.Is(err, mediasvc.ErrUnsupportedMedia), errors.Is(err, mediasvc.ErrTooLarge), errors.Is(err, mediasvc.ErrValidation):
		handleFormError(w, err)
	default:
		logger.Error("users operation failed", zap.Error(err))
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}

func handleFormError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errFormTooLarge), errors.Is(err, mediasvc.ErrTooLarge):
		httperrors.Write(w, http.StatusRequestEntityTooLarge, httperrors.APIError{
			Code:    "PAYLOAD_TOO_LARGE",
			Message: "profile image is too large",
		})
	case errors.Is(err, mediasvc.ErrUnsupportedMedia):
		httperrors.Write(w, http.StatusUnsupportedMediaType, httperrors.APIError{
			Code:    "UNSUPPORTED_MEDIA",
			Message: "only JPEG and PNG images are allowed",
		})
	case errors.Is(err, mediasvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "profile image is empty")
	default:
		writeBadRequest(w, "VALIDATION_ERROR", "invalid multipart form")
	}
}

// writeRateError reports whether err was a limiter verdict and has been written.
func writeRateError(w http.ResponseWriter, err error) bool {
	var tooMany *ratesvc.TooManyRequestsError
	if errors.As(err, &tooMany) {
		until := time.Now().UTC().Add(time.Duration(tooMany.RetryAfterSec) * time.Second)
		httperrors.WriteRetry(w, http.StatusTooManyRequests, httperrors.RateLimitError{
			Code:          "TOO_MANY_REQUESTS",
			Message:       "too many requests, slow down",
			RetryAfterSec: tooMany.RetryAfterSec,
			CooldownUntil: &until,
		})
		return true
	}

	var unavailable *ratesvc.TempUnavailableError
	if errors.As(err, &unavailable) {
		httperrors.WriteRetry(w, http.StatusServiceUnavailable, httperrors.RateLimitError{
			Code:          "TEMP_UNAVAILABLE",
			Message:       "service temporarily unavailable",
			RetryAfterSec: unavailable.RetryAfterSec,
		})
		return true
	}

	return false
}

// validationMessage strips the sentinel prefix from a wrapped validation error.
func validationMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 && i+2 < len(msg) {
		return msg[i+2:]
	}
	return "request validation failed"
}

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
