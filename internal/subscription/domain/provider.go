package domain

import (
	"context"
	"time"
)

// Event types delivered by the payment provider webhook.
const (
	EventCheckoutCompleted       = "checkout.session.completed"
	EventSubscriptionUpdated     = "customer.subscription.updated"
	EventSubscriptionDeleted     = "customer.subscription.deleted"
	EventInvoicePaymentSucceeded = "invoice.payment_succeeded"
	EventInvoicePaymentFailed    = "invoice.payment_failed"
)

// ProviderEvent is the verified, parsed form of a webhook delivery. Only the
// identifiers are trusted; handlers re-derive full state from the provider
// rather than applying payload deltas, because deliveries can arrive
// duplicated or out of order.
type ProviderEvent struct {
	ID             string
	Type           string
	CustomerID     string
	SubscriptionID string
}

// ProviderSubscription is the provider's view of a subscription.
type ProviderSubscription struct {
	ID                string
	CustomerID        string
	Status            string
	PriceID           string
	CancelAtPeriodEnd bool
	LatestInvoiceID   string
}

// ProviderInvoice carries the fields used for period-end enrichment.
type ProviderInvoice struct {
	ID        string
	PeriodEnd *time.Time
}

// Provider is the payment provider API surface the subscription service
// consumes. Implemented by the Stripe client.
type Provider interface {
	CreateCustomer(ctx context.Context, email, name string) (string, error)
	CreateCheckoutSession(ctx context.Context, customerID, priceID, successURL, cancelURL string) (string, error)
	CreateBillingPortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	RetrieveSubscription(ctx context.Context, id string) (*ProviderSubscription, error)
	RetrieveInvoice(ctx context.Context, id string) (*ProviderInvoice, error)
	// UpdateSubscriptionPrice swaps the subscription onto a new price with
	// proration and returns the refreshed subscription.
	UpdateSubscriptionPrice(ctx context.Context, subscriptionID, priceID string) (*ProviderSubscription, error)
}
