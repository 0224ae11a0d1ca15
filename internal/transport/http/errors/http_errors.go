package errors

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RateLimitError struct {
	Code          string     `json:"code"`
	Message       string     `json:"message"`
	RetryAfterSec int64      `json:"retry_after_sec"`
	CooldownUntil *time.Time `json:"cooldown_until,omitempty"`
}

func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteRetry is Write plus a Retry-After header for 429 and 503 replies.
func WriteRetry(w http.ResponseWriter, status int, payload RateLimitError) {
	if payload.RetryAfterSec > 0 {
		w.Header().Set("Retry-After", strconv.FormatInt(payload.RetryAfterSec, 10))
	}
	Write(w, status, payload)
}
