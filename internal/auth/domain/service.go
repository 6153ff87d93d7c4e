package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Signup(ctx context.Context, req SignupRequest) (*LoginResult, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	Authenticate(ctx context.Context, rawToken string) (*User, error)
	DeleteAccount(ctx context.Context, userID snowflake.ID) error
	// ListTenantIDs returns every tenant in the system, for callers that
	// iterate all tenants such as the reminder dispatcher.
	ListTenantIDs(ctx context.Context) ([]snowflake.ID, error)
}

type SignupRequest struct {
	Email       string
	Password    string
	DisplayName string
}

type LoginRequest struct {
	Email    string
	Password string
}

type LoginResult struct {
	User      *User
	RawToken  string
	ExpiresAt time.Time
}
