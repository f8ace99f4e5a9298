package auth

import (
	"context"
	"time"
)

type RegisterRequest struct {
	Email       string `json:"email"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	DateOfBirth string `json:"date_of_birth,omitempty"` // "2006-01-02"
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type User struct {
	ID           string // uuid
	Email        string
	Username     string
	PasswordHash string
	TokenVersion int
	Status       string
	Role         string
	DateOfBirth  *time.Time
	PhotoKey     *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Keep DB details abstract so the handler stays testable with a fake store.
type UserStore interface {
	CreateUser(ctx context.Context, email, username, passwordHash string, dateOfBirth *time.Time) (User, error)
	FindUserByEmail(ctx context.Context, email string) (User, error)
	FindUserByID(ctx context.Context, id string) (User, error)
	UpdateUserPasswordHash(ctx context.Context, userID, newHash string) error
	TokenVersion(ctx context.Context, userID string) (int, error)
	BumpTokenVersion(ctx context.Context, userID string) error
	SetPasswordAndBump(ctx context.Context, userID, newHash string) error
}
