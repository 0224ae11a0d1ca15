package dto

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Message      string         `json:"message"`
	Token        string         `json:"token"`
	ExpiresIn    int64          `json:"expiresIn"`
	ProfileImage NullableString `json:"profileImage"`
}

type RegisterResponse struct {
	Message      string         `json:"message"`
	ProfileImage NullableString `json:"profileImage"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	OK bool `json:"ok"`
}
