package auth

import (
	"github.com/AymenMB/autogen-backend/internal/profiles"
	"github.com/AymenMB/autogen-backend/internal/users"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest contains the payload required to create an account.
type RegisterRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Username    string  `json:"username" validate:"required,min=3,max=30,alphanum"`
	Password    string  `json:"password" validate:"required,min=8"`
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,max=80"`
}

// ChangePasswordRequest carries a credential rotation.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// LoginResponse contains the tokens plus the user and profile projections.
type LoginResponse struct {
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
	User         *users.UserDTO       `json:"user"`
	Profile      *profiles.ProfileDTO `json:"profile"`
}
