package auth

import (
	"errors"
	"time"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
)

type Claims struct {
	UserID    int64
	Email     string
	ExpiresAt time.Time
}

type LoginResult struct {
	Token        string
	ExpiresAt    time.Time
	UserID       int64
	ProfileImage string
}
