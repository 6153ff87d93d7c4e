package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// GetOrCreate returns the tenant's settings, creating a defaults row on
	// first access. This is the only place settings rows are created.
	GetOrCreate(ctx context.Context, userID snowflake.ID) (*TenantSettings, error)

	// Find returns the settings row if one exists, without creating it.
	Find(ctx context.Context, userID snowflake.ID) (*TenantSettings, error)

	// Update saves tenant-edited settings. The SMS auth token is encrypted
	// before it reaches the store.
	Update(ctx context.Context, userID snowflake.ID, req UpdateRequest) (*TenantSettings, error)

	// SetManagedSMS flips the managed-SMS entitlement. Enabling creates the
	// settings row if none exists; disabling is a no-op without a row.
	SetManagedSMS(ctx context.Context, userID snowflake.ID, enabled bool) error
}
