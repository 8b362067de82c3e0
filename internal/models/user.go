package models

import "time"

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"nome"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	Role         string    `json:"role"` // admin or operador
	CompanyID    string    `json:"empresa_id"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Actor is the identity attached to every mutating queue operation.
// Comes from JWT claims, never from the request body.
type Actor struct {
	ID        string `json:"id"`
	Name      string `json:"nome"`
	CompanyID string `json:"empresa_id"`
}

// SignupRequest represents the request body for signup
type SignupRequest struct {
	Name      string `json:"nome"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	CompanyID string `json:"empresa_id"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse represents the response after successful authentication
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
