package auth

import "time"

type Role string

const (
	RoleRep     Role = "rep"
	RoleManager Role = "manager"
)

// User is the domain representation of an authenticated user. It mirrors
// the users table and carries no JSON annotations so it can be reused by
// different presentation layers.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         Role
	RepName      string
	CreatedAt    time.Time
}

// LoginRequest contains user login credentials.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
