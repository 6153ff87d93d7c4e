package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertUser(ctx context.Context, db *gorm.DB, user *User) error
	FindUserByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*User, error)
	FindUserByEmail(ctx context.Context, db *gorm.DB, email string) (*User, error)
	DeleteUser(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	ListUserIDs(ctx context.Context, db *gorm.DB) ([]snowflake.ID, error)

	InsertSession(ctx context.Context, db *gorm.DB, session *Session) error
	FindSessionByTokenHash(ctx context.Context, db *gorm.DB, tokenHash string) (*Session, error)
	DeleteSession(ctx context.Context, db *gorm.DB, tokenHash string) error
	DeleteExpiredSessions(ctx context.Context, db *gorm.DB, before time.Time) error
}
