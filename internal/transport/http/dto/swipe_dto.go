package dto

type SwipeRequest struct {
	SwipedID int64  `json:"swipedId" validate:"required,gt=0"`
	Action   string `json:"action" validate:"required"`
}

type SwipeResponse struct {
	Message string `json:"message"`
	IsMatch bool   `json:"isMatch"`
}

type MatchStatusResponse struct {
	UserID  int64 `json:"userId"`
	IsMatch bool  `json:"isMatch"`
}
