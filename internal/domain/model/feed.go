package model

// Card is the public view of another user as shown in the feed,
// the matches list and the incoming likes list.
type Card struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Age       int      `json:"age"`
	Bio       string   `json:"bio"`
	Interests []string `json:"interests"`
	Image     string   `json:"image"`
}
