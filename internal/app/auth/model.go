package auth

import "taskboard/internal/models"

type RegisterRequest struct {
	Name     string `json:"name" example:"Ana"`
	Email    string `json:"email" example:"ana@example.com"`
	Password string `json:"password" example:"s3cret"`
}

type LoginRequest struct {
	Email    string `json:"email" example:"ana@example.com"`
	Password string `json:"password" example:"s3cret"`
}

type AuthResponse struct {
	Token string             `json:"token"`
	User  models.UserSummary `json:"user"`
}

type ValidateResponse struct {
	User models.UserSummary `json:"user"`
}
