package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/loveconnect/backend/internal/domain/enums"
	"github.com/ivankudzin/loveconnect/backend/internal/domain/model"
)

var ErrSwipeTargetNotFound = errors.New("swipe target not found")

type SwipeRepo struct {
	pool *pgxpool.Pool
}

func NewSwipeRepo(pool *pgxpool.Pool) *SwipeRepo {
	return &SwipeRepo{pool: pool}
}

// Upsert records the decision for the ordered pair in a single statement.
// A repeated swipe overwrites the previous decision.
func (r *SwipeRepo) Upsert(ctx context.Context, swiperID, swipedID int64, action enums.SwipeAction) (model.Swipe, error) {
	if r.pool == nil {
		return model.Swipe{}, errPoolNil
	}
	if swiperID <= 0 || swipedID <= 0 {
		return model.Swipe{}, fmt.Errorf("invalid swipe payload")
	}

	var (
		rec    model.Swipe
		stored string
	)
	err := r.pool.QueryRow(ctx, `
INSERT INTO swipes (
	swiper_id,
	swiped_id,
	action,
	created_at,
	updated_at
) VALUES ($1, $2, $3, NOW(), NOW())
ON CONFLICT (swiper_id, swiped_id) DO UPDATE SET
	action = EXCLUDED.action,
	updated_at = NOW()
RETURNING swiper_id, swiped_id, action, created_at, updated_at
`, swiperID, swipedID, string(action)).Scan(
		&rec.SwiperID,
		&rec.SwipedID,
		&stored,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return model.Swipe{}, ErrSwipeTargetNotFound
		}
		return model.Swipe{}, fmt.Errorf("upsert swipe: %w", err)
	}
	rec.Action = enums.SwipeAction(stored)

	return rec, nil
}

// HasLike reports whether fromID currently likes toID.
func (r *SwipeRepo) HasLike(ctx context.Context, fromID, toID int64) (bool, error) {
	if r.pool == nil {
		return false, errPoolNil
	}

	var one int
	err := r.pool.QueryRow(ctx, `
SELECT 1
FROM swipes
WHERE swiper_id = $1 AND swiped_id = $2 AND action = 'like'
LIMIT 1
`, fromID, toID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup like: %w", err)
	}
	return true, nil
}

// ListMatches returns users with a mutual like, newest match first.
func (r *SwipeRepo) ListMatches(ctx context.Context, userID int64, limit int) ([]model.Card, error) {
	if r.pool == nil {
		return nil, errPoolNil
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+cardColumns+`
FROM swipes mine
JOIN swipes theirs
	ON theirs.swiper_id = mine.swiped_id
	AND theirs.swiped_id = mine.swiper_id
	AND theirs.action = 'like'
JOIN users u ON u.id = mine.swiped_id
WHERE mine.swiper_id = $1 AND mine.action = 'like'
ORDER BY GREATEST(mine.updated_at, theirs.updated_at) DESC, u.id DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return collectCards(rows)
}

// ListIncomingLikes returns users who like userID and whom userID has not
// swiped on yet.
func (r *SwipeRepo) ListIncomingLikes(ctx context.Context, userID int64, limit int) ([]model.Card, error) {
	if r.pool == nil {
		return nil, errPoolNil
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+cardColumns+`
FROM swipes theirs
JOIN users u ON u.id = theirs.swiper_id
WHERE theirs.swiped_id = $1
	AND theirs.action = 'like'
	AND NOT EXISTS (
		SELECT 1
		FROM swipes mine
		WHERE mine.swiper_id = $1 AND mine.swiped_id = theirs.swiper_id
	)
ORDER BY theirs.updated_at DESC, u.id DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list incoming likes: %w", err)
	}
	return collectCards(rows)
}
