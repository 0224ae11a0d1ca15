package swipes

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/ivankudzin/loveconnect/backend/internal/domain/enums"
	"github.com/ivankudzin/loveconnect/backend/internal/domain/model"
	pgrepo "github.com/ivankudzin/loveconnect/backend/internal/repo/postgres"
)

const defaultListLimit = 50

var (
	ErrValidation        = errors.New("validation error")
	ErrUnsupportedAction = errors.New("unsupported action")
	ErrTargetNotFound    = errors.New("swipe target not found")
)

type MatchCheckError struct {
	Swipe model.Swipe
	Err   error
}

func (e *MatchCheckError) Error() string {
	return fmt.Sprintf("swipe recorded, match check failed: %v", e.Err)
}

func (e *MatchCheckError) Unwrap() error {
	return e.Err
}

type SwipeStore interface {
	Upsert(ctx context.Context, swiperID, swipedID int64, action enums.SwipeAction) (model.Swipe, error)
	HasLike(ctx context.Context, fromID, toID int64) (bool, error)
	ListMatches(ctx context.Context, userID int64, limit int) ([]model.Card, error)
	ListIncomingLikes(ctx context.Context, userID int64, limit int) ([]model.Card, error)
}

type RateLimiter interface {
	Check(ctx context.Context, subject string) error
}

type ImageLocator interface {
	Locate(ctx context.Context, ref string) string
}

type Recorder interface {
	SwipeRecorded(action string, matched bool)
}

type Dependencies struct {
	Store       SwipeStore
	RateLimiter RateLimiter
	Images      ImageLocator
	Recorder    Recorder
	Logger      *zap.Logger
}

type Config struct {
	ListLimit int
}

type Result struct {
	IsMatch bool
	Swipe   model.Swipe
}

type Service struct {
	store       SwipeStore
	rateLimiter RateLimiter
	images      ImageLocator
	recorder    Recorder
	logger      *zap.Logger
	cfg         Config
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.ListLimit <= 0 || cfg.ListLimit > defaultListLimit {
		cfg.ListLimit = defaultListLimit
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &Service{
		store:       deps.Store,
		rateLimiter: deps.RateLimiter,
		images:      deps.Images,
		recorder:    deps.Recorder,
		logger:      deps.Logger,
		cfg:         cfg,
	}
}

// The upsert and the reverse-like read are separate statements; with
// concurrent mutual likes at least one side observes the match.
func (s *Service) Record(ctx context.Context, swiperID, swipedID int64, rawAction string) (Result, error) {
	if swiperID <= 0 || swipedID <= 0 || swiperID == swipedID {
		return Result{}, ErrValidation
	}
	action, ok := enums.ParseSwipeAction(rawAction)
	if !ok {
		return Result{}, ErrUnsupportedAction
	}
	if s.store == nil {
		return Result{}, fmt.Errorf("swipe store is not configured")
	}

	if s.rateLimiter != nil {
		if err := s.rateLimiter.Check(ctx, strconv.FormatInt(swiperID, 10)); err != nil {
			return Result{}, err
		}
	}

	swipe, err := s.store.Upsert(ctx, swiperID, swipedID, action)
	if err != nil {
		if errors.Is(err, pgrepo.ErrSwipeTargetNotFound) {
			return Result{}, ErrTargetNotFound
		}
		return Result{}, fmt.Errorf("record swipe: %w", err)
	}

	isMatch := false
	if action == enums.SwipeActionLike {
		isMatch, err = s.store.HasLike(ctx, swipedID, swiperID)
		if err != nil {
			s.logger.Error("match check failed after swipe was recorded",
				zap.Int64("swiper_id", swiperID),
				zap.Int64("swiped_id", swipedID),
				zap.Error(err),
			)
			return Result{Swipe: swipe}, &MatchCheckError{Swipe: swipe, Err: err}
		}
	}

	if s.recorder != nil {
		s.recorder.SwipeRecorded(string(action), isMatch)
	}
	if isMatch {
		s.logger.Info("match detected", zap.Int64("user_a", swiperID), zap.Int64("user_b", swipedID))
	}

	return Result{IsMatch: isMatch, Swipe: swipe}, nil
}

func (s *Service) IsMatch(ctx context.Context, a, b int64) (bool, error) {
	if a <= 0 || b <= 0 || a == b {
		return false, ErrValidation
	}
	if s.store == nil {
		return false, fmt.Errorf("swipe store is not configured")
	}

	ab, err := s.store.HasLike(ctx, a, b)
	if err != nil {
		return false, fmt.Errorf("lookup like a->b: %w", err)
	}
	if !ab {
		return false, nil
	}
	ba, err := s.store.HasLike(ctx, b, a)
	if err != nil {
		return false, fmt.Errorf("lookup like b->a: %w", err)
	}
	return ba, nil
}

func (s *Service) Matches(ctx context.Context, userID int64) ([]model.Card, error) {
	if userID <= 0 {
		return nil, ErrValidation
	}
	if s.store == nil {
		return nil, fmt.Errorf("swipe store is not configured")
	}

	cards, err := s.store.ListMatches(ctx, userID, s.cfg.ListLimit)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return s.resolveImages(ctx, cards), nil
}

func (s *Service) IncomingLikes(ctx context.Context, userID int64) ([]model.Card, error) {
	if userID <= 0 {
		return nil, ErrValidation
	}
	if s.store == nil {
		return nil, fmt.Errorf("swipe store is not configured")
	}

	cards, err := s.store.ListIncomingLikes(ctx, userID, s.cfg.ListLimit)
	if err != nil {
		return nil, fmt.Errorf("list incoming likes: %w", err)
	}
	return s.resolveImages(ctx, cards), nil
}

func (s *Service) resolveImages(ctx context.Context, cards []model.Card) []model.Card {
	for i := range cards {
		if s.images == nil {
			cards[i].Image = ""
			continue
		}
		cards[i].Image = s.images.Locate(ctx, cards[i].Image)
	}
	return cards
}
