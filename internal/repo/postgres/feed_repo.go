package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/loveconnect/backend/internal/domain/model"
)

// cardColumns expects the users table aliased as u. The image column holds
// the raw storage reference; callers resolve it to a URL.
const cardColumns = `
	u.id,
	u.first_name,
	u.last_name,
	u.age,
	u.bio,
	u.interests,
	COALESCE(u.profile_image, '')`

type FeedRepo struct {
	pool *pgxpool.Pool
}

func NewFeedRepo(pool *pgxpool.Pool) *FeedRepo {
	return &FeedRepo{pool: pool}
}

// ListCandidates returns up to limit users in random order, excluding the
// viewer and everyone the viewer has already swiped on, whatever the decision.
func (r *FeedRepo) ListCandidates(ctx context.Context, viewerID int64, limit int) ([]model.Card, error) {
	if r.pool == nil {
		return nil, errPoolNil
	}
	if viewerID <= 0 {
		return nil, fmt.Errorf("invalid viewer id")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+cardColumns+`
FROM users u
WHERE u.id <> $1
	AND NOT EXISTS (
		SELECT 1
		FROM swipes s
		WHERE s.swiper_id = $1 AND s.swiped_id = u.id
	)
ORDER BY random()
LIMIT $2
`, viewerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list feed candidates: %w", err)
	}
	return collectCards(rows)
}

func collectCards(rows pgx.Rows) ([]model.Card, error) {
	defer rows.Close()

	cards := make([]model.Card, 0)
	for rows.Next() {
		var (
			card      model.Card
			firstName string
			lastName  string
		)
		if err := rows.Scan(
			&card.ID,
			&firstName,
			&lastName,
			&card.Age,
			&card.Bio,
			&card.Interests,
			&card.Image,
		); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		card.Name = model.User{FirstName: firstName, LastName: lastName}.DisplayName()
		if card.Interests == nil {
			card.Interests = []string{}
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}

	return cards, nil
}
