package handler

import "github.com/recipehub/recipe-api/internal/core/domain"

// registerRequest accepts "name" as an alias of "username".
type registerRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type registerResponse struct {
	Message string      `json:"message"`
	User    userSummary `json:"user"`
	Token   string      `json:"token"`
}

type authResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}
