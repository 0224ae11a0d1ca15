package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/ivankudzin/loveconnect/backend/internal/domain/model"
)

const maxBatchSize = 50

var ErrValidation = errors.New("validation error")

type Repository interface {
	ListCandidates(ctx context.Context, viewerID int64, limit int) ([]model.Card, error)
}

type ImageLocator interface {
	Locate(ctx context.Context, ref string) string
}

type Config struct {
	BatchSize int
}

type Service struct {
	repo   Repository
	images ImageLocator
	cfg    Config
}

func NewService(repo Repository, images ImageLocator, cfg Config) *Service {
	if cfg.BatchSize <= 0 || cfg.BatchSize > maxBatchSize {
		cfg.BatchSize = maxBatchSize
	}

	return &Service{
		repo:   repo,
		images: images,
		cfg:    cfg,
	}
}

func (s *Service) BatchSize() int {
	return s.cfg.BatchSize
}

func (s *Service) Fetch(ctx context.Context, userID int64) ([]model.Card, error) {
	if userID <= 0 {
		return nil, ErrValidation
	}
	if s.repo == nil {
		return nil, fmt.Errorf("feed repository is nil")
	}

	cards, err := s.repo.ListCandidates(ctx, userID, s.cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	if len(cards) > s.cfg.BatchSize {
		cards = cards[:s.cfg.BatchSize]
	}

	out := make([]model.Card, 0, len(cards))
	for _, card := range cards {
		if card.ID == userID {
			continue
		}
		if card.Interests == nil {
			card.Interests = []string{}
		}
		card.Image = s.locate(ctx, card.Image)
		out = append(out, card)
	}

	return out, nil
}

func (s *Service) locate(ctx context.Context, ref string) string {
	if s.images == nil || ref == "" {
		return ""
	}
	return s.images.Locate(ctx, ref)
}
