package admin

import (
	"context"
	"time"
)

// ===== DTOs =====

type UserRow struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Username    string     `json:"username"`
	Role        string     `json:"role"`   // "member" | "librarian" | "admin"
	Status      string     `json:"status"` // "active" | "banned"
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type AuditRow struct {
	ID         int64     `json:"id"`
	ActorID    *string   `json:"actor_id,omitempty"`
	Action     string    `json:"action"`
	TargetType string    `json:"target_type"`
	TargetID   *string   `json:"target_id,omitempty"`
	Detail     any       `json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}

// ===== Filters =====

type ListFilter struct {
	Query  string
	Role   string
	Status string
	Page   int
	Size   int
}

type AuditFilter struct {
	ActorID    string
	TargetID   string
	TargetType string
	Action     string
	Since      *time.Time
	Until      *time.Time
	Page       int
	Size       int
}

// ===== Request Bodies =====

type SetRoleRequest struct {
	Role string `json:"role"`
}

type StatsResponse struct {
	UsersTotal     int `json:"users_total"`
	BooksTotal     int `json:"books_total"`
	AuthorsTotal   int `json:"authors_total"`
	LibrariesTotal int `json:"libraries_total"`
	SignupsLast24h int `json:"signups_last_24h"`
}

// ===== Store Interface =====

type Store interface {
	// Users
	ListUsers(ctx context.Context, filter ListFilter) ([]UserRow, int, error)
	GetUser(ctx context.Context, id string) (*UserRow, error)
	SetUserStatus(ctx context.Context, id, status string) error
	SetUserRole(ctx context.Context, id, role string) error
	BumpTokenVersion(ctx context.Context, id string) error

	// Stats
	CountUsers(ctx context.Context) (int, error)
	CountCatalog(ctx context.Context) (books, authors, libraries int, err error)
	CountSignupsLast24h(ctx context.Context) (int, error)
	AdminCount(ctx context.Context) (int, error)

	// Audit
	InsertAudit(ctx context.Context, actorID, action, targetType, targetID string, detail any) error
	ListAudit(ctx context.Context, f AuditFilter) ([]AuditRow, int, error)
}
