package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *ClientRecord) error
	FindByID(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (*ClientRecord, error)
	List(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]ClientRecord, error)
	Count(ctx context.Context, db *gorm.DB, userID snowflake.ID) (int64, error)
	Update(ctx context.Context, db *gorm.DB, record *ClientRecord) error
	Delete(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) error
	DeleteMany(ctx context.Context, db *gorm.DB, userID snowflake.ID, ids []snowflake.ID) (int64, error)

	// ListDue selects this tenant's unsent records whose reminder date is on
	// or before the window end. There is no lower bound: an overdue record
	// that was never sent stays eligible until it is sent or rescheduled.
	ListDue(ctx context.Context, db *gorm.DB, userID snowflake.ID, until time.Time) ([]ClientRecord, error)

	// MarkSent flips reminder_sent to true only if it is currently false,
	// scoped by record and tenant. Returns whether this call won the flip.
	MarkSent(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (bool, error)
}
