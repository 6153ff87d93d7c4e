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
	InsertIfAbsent(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	FindByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*Subscription, error)
	FindByCustomerID(ctx context.Context, db *gorm.DB, customerID string) (*Subscription, error)
	Update(ctx context.Context, db *gorm.DB, subscription *Subscription) error
}
