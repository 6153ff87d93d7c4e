package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	List(ctx context.Context) ([]ClientRecord, error)
	Get(ctx context.Context, id snowflake.ID) (*ClientRecord, error)
	Create(ctx context.Context, req CreateRequest) (*ClientRecord, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateRequest) (*ClientRecord, error)
	Delete(ctx context.Context, id snowflake.ID) error
	DeleteMany(ctx context.Context, ids []snowflake.ID) (int64, error)
	Import(ctx context.Context, rows []ImportRow) (ImportResult, error)

	// MarkSent flips the reminder flag after a manual send. Returns false
	// when the flag was already set.
	MarkSent(ctx context.Context, id snowflake.ID) (bool, error)
}
