package dto

type ProfileResponse struct {
	FirstName    string         `json:"first_name"`
	LastName     string         `json:"last_name"`
	Age          int            `json:"age"`
	Gender       string         `json:"gender"`
	Email        string         `json:"email"`
	Bio          string         `json:"bio"`
	Interests    []string       `json:"interests"`
	ProfileImage NullableString `json:"profile_image"`
}

type UpdateProfileResponse struct {
	Message      string         `json:"message"`
	ProfileImage NullableString `json:"profileImage"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}
