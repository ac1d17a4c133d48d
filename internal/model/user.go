package model

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role separates regular users from administrators
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// UserStatus gates whether an account may log in
type UserStatus string

const (
	UserActive   UserStatus = "Active"
	UserPending  UserStatus = "Pending"
	UserDisabled UserStatus = "Disabled"
)

// User is an account holding submission credits
type User struct {
	UserID           string     `json:"userId" bson:"userId"`
	Name             string     `json:"name" bson:"name"`
	Email            string     `json:"email" bson:"email"`
	Contact          string     `json:"contact" bson:"contact"`
	PasswordHash     string     `json:"-" bson:"passwordHash"`
	Role             Role       `json:"role" bson:"role"`
	Status           UserStatus `json:"status" bson:"status"`
	Plan             string     `json:"plan" bson:"plan"`
	CreditsAvailed   int        `json:"creditsAvailed" bson:"creditsAvailed"`
	CreditsRemaining int        `json:"creditsRemaining" bson:"creditsRemaining"`
	CreatedAt        time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// UserClaims are JWT claims for a logged-in user
type UserClaims struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}

// LoginRequest is the request body for login
type LoginRequest struct {
	UserID   string `json:"userId"`
	Password string `json:"password"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// CreateUserRequest is the admin request body for a new account
type CreateUserRequest struct {
	UserID   string `json:"userId"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Contact  string `json:"contact"`
	Role     Role   `json:"role"`
	Plan     string `json:"plan"`
	Credits  int    `json:"credits"`
}

// UpdateUserRequest changes selected account fields; nil fields are kept
type UpdateUserRequest struct {
	Name       *string     `json:"name,omitempty"`
	Email      *string     `json:"email,omitempty"`
	Contact    *string     `json:"contact,omitempty"`
	Password   *string     `json:"password,omitempty"`
	Role       *Role       `json:"role,omitempty"`
	Status     *UserStatus `json:"status,omitempty"`
	Plan       *string     `json:"plan,omitempty"`
	AddCredits *int        `json:"addCredits,omitempty"`
}
