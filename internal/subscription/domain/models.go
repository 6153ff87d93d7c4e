// Package domain contains persistence models and contracts for the
// per-tenant billing state.
package domain

import (
	"time"

	"github.com/autoremind/autoremind/internal/plan"
	"github.com/bwmarrin/snowflake"
)

// SubscriptionStatus represents lifecycle states for a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

// Subscription captures a tenant's billing agreement. Exactly one row exists
// per tenant; a tenant with no row is an implicit free/active subscription
// and the row is created on first access.
type Subscription struct {
	ID                   snowflake.ID       `gorm:"primaryKey"`
	UserID               snowflake.ID       `gorm:"column:user_id;not null;uniqueIndex"`
	Tier                 plan.Tier          `gorm:"type:text;not null;default:'free'"`
	Status               SubscriptionStatus `gorm:"type:text;not null;default:'active'"`
	StripeCustomerID     string             `gorm:"column:stripe_customer_id;type:text;index"`
	StripeSubscriptionID string             `gorm:"column:stripe_subscription_id;type:text"`
	StripePriceID        string             `gorm:"column:stripe_price_id;type:text"`
	CurrentPeriodEnd     *time.Time         `gorm:"column:current_period_end"`
	CancelAtPeriodEnd    bool               `gorm:"column:cancel_at_period_end;not null;default:false"`
	CreatedAt            time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt            time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }
