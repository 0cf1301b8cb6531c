package dto

import "github.com/hongminglow/smartsave/internal/models"

type CreateUserRequest struct {
	UserID             string `json:"userId"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	IncomeBracket      string `json:"income"`
	Goal               string `json:"goal"`
	LockPreferenceDays int    `json:"lockPreference"`
}

type UpdateProfileRequest struct {
	UserID             string  `json:"userId"`
	Name               *string `json:"name"`
	IncomeBracket      *string `json:"income"`
	Goal               *string `json:"goal"`
	LockPreferenceDays *int    `json:"lockPreference"`
}

type SeedUserResponse struct {
	Message string      `json:"message"`
	User    models.User `json:"user"`
	Token   string      `json:"token,omitempty"`
}
