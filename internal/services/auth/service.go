package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ivankudzin/loveconnect/backend/internal/domain/model"
	"github.com/ivankudzin/loveconnect/backend/internal/domain/rules"
	pgrepo "github.com/ivankudzin/loveconnect/backend/internal/repo/postgres"
)

type UserLookup interface {
	FindByEmail(ctx context.Context, email string) (model.User, error)
}

type PasswordVerifier interface {
	Verify(hash, password string) bool
}

type RateLimiter interface {
	Check(ctx context.Context, subject string) error
}

type ImageLocator interface {
	Locate(ctx context.Context, ref string) string
}

type Dependencies struct {
	JWT         *JWTManager
	Users       UserLookup
	Passwords   PasswordVerifier
	RateLimiter RateLimiter
	Images      ImageLocator
	Logger      *zap.Logger
}

type Service struct {
	jwt         *JWTManager
	users       UserLookup
	passwords   PasswordVerifier
	rateLimiter RateLimiter
	images      ImageLocator
	logger      *zap.Logger
}

func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &Service{
		jwt:         deps.JWT,
		users:       deps.Users,
		passwords:   deps.Passwords,
		rateLimiter: deps.RateLimiter,
		images:      deps.Images,
		logger:      deps.Logger,
	}
}

func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = rules.NormalizeEmail(email)
	if email == "" || password == "" {
		return LoginResult{}, ErrInvalidInput
	}
	if s.users == nil || s.passwords == nil || s.jwt == nil {
		return LoginResult{}, fmt.Errorf("auth dependencies are not configured")
	}

	if s.rateLimiter != nil {
		if err := s.rateLimiter.Check(ctx, email); err != nil {
			return LoginResult{}, err
		}
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return LoginResult{}, ErrUnauthorized
		}
		return LoginResult{}, fmt.Errorf("find user by email: %w", err)
	}

	if !s.passwords.Verify(user.PasswordHash, password) {
		s.logger.Debug("login rejected", zap.Int64("user_id", user.ID))
		return LoginResult{}, ErrUnauthorized
	}

	token, expiresAt, err := s.jwt.Issue(user.ID, user.Email)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}

	image := ""
	if s.images != nil && strings.TrimSpace(user.ProfileImage) != "" {
		image = s.images.Locate(ctx, user.ProfileImage)
	}

	return LoginResult{
		Token:        token,
		ExpiresAt:    expiresAt,
		UserID:       user.ID,
		ProfileImage: image,
	}, nil
}

func (s *Service) ValidateToken(_ context.Context, token string) (Claims, error) {
	if s.jwt == nil {
		return Claims{}, ErrUnauthorized
	}
	return s.jwt.Verify(token)
}
