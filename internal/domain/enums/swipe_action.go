package enums

import "strings"

type SwipeAction string

const (
	SwipeActionLike    SwipeAction = "like"
	SwipeActionDislike SwipeAction = "dislike"
)

func ParseSwipeAction(raw string) (SwipeAction, bool) {
	switch a := SwipeAction(strings.ToLower(strings.TrimSpace(raw))); a {
	case SwipeActionLike, SwipeActionDislike:
		return a, true
	default:
		return "", false
	}
}
