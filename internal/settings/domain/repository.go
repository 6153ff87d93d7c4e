package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// InsertIfAbsent creates the row unless one already exists for the
	// tenant, tolerating the concurrent-creation race via the unique
	// constraint on user_id.
	InsertIfAbsent(ctx context.Context, db *gorm.DB, settings *TenantSettings) error
	FindByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*TenantSettings, error)
	Update(ctx context.Context, db *gorm.DB, settings *TenantSettings) error
}
