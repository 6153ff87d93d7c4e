package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// GetOrCreate returns the tenant's subscription, creating the implicit
	// free/active row on first access. Creation is idempotent under
	// concurrent callers: an insert conflict falls back to re-reading.
	GetOrCreate(ctx context.Context, userID snowflake.ID) (*Subscription, error)

	// CreateCheckout returns a redirect URL for the provider's hosted
	// checkout, targeting the price configured for the requested tier.
	CreateCheckout(ctx context.Context, userID snowflake.ID, req CheckoutRequest) (string, error)

	// CreatePortal returns a redirect URL for the provider's billing portal.
	CreatePortal(ctx context.Context, userID snowflake.ID, returnURL string) (string, error)

	// ChangePlan moves an already-subscribed tenant to another paid tier
	// in place, with proration.
	ChangePlan(ctx context.Context, userID snowflake.ID, tier string) (*Subscription, error)

	// HandleEvent runs one webhook-driven state transition. Events whose
	// customer has no local subscription row are logged and dropped.
	// Handlers are idempotent: re-delivery must not corrupt state.
	HandleEvent(ctx context.Context, event ProviderEvent) error
}

type CheckoutRequest struct {
	Tier       string
	SuccessURL string
	CancelURL  string
}
