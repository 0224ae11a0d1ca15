package model

import (
	"time"

	"github.com/ivankudzin/loveconnect/backend/internal/domain/enums"
)

type User struct {
	ID           int64        `json:"id"`
	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name"`
	Age          int          `json:"age"`
	Gender       enums.Gender `json:"gender"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	Bio          string       `json:"bio"`
	Interests    []string     `json:"interests"`
	ProfileImage string       `json:"profile_image"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (u User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
