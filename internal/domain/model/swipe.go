package model

import (
	"time"

	"github.com/ivankudzin/loveconnect/backend/internal/domain/enums"
)

// Swipe is the single decision row for an ordered (swiper, swiped) pair.
type Swipe struct {
	SwiperID  int64             `json:"swiper_id"`
	SwipedID  int64             `json:"swiped_id"`
	Action    enums.SwipeAction `json:"action"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
