package model

import "time"

// User represents a registered contestant account.
type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	Codecoins    int64     `json:"codecoins"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RegisterUserRequest is the payload for creating a new contestant account.
type RegisterUserRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Username string `json:"username" binding:"required,alphanum,min=3,max=30"`
	FullName string `json:"full_name" binding:"required,min=2,max=100"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// UserLoginRequest is the payload for contestant authentication.
type UserLoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// UserLoginResponse is returned after successful contestant login.
type UserLoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// CreateUserRequest is the admin payload for creating a contestant.
type CreateUserRequest struct {
	Email     string `json:"email" binding:"required,email,max=255"`
	Username  string `json:"username" binding:"required,alphanum,min=3,max=30"`
	FullName  string `json:"full_name" binding:"required,min=2,max=100"`
	Password  string `json:"password" binding:"required,min=6,max=128"`
	Codecoins int64  `json:"codecoins" binding:"omitempty,min=0"`
}

// UpdateUserRequest is the admin payload for updating a contestant.
// An empty password leaves the current one in place.
type UpdateUserRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Username string `json:"username" binding:"required,alphanum,min=3,max=30"`
	FullName string `json:"full_name" binding:"required,min=2,max=100"`
	Password string `json:"password" binding:"omitempty,min=6,max=128"`
}

// GrantCodecoinsRequest credits a contestant's balance. Negative
// amounts debit, but never below zero.
type GrantCodecoinsRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}
