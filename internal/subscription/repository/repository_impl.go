package repository

import (
	"context"
	"errors"

	"github.com/autoremind/autoremind/internal/subscription/domain"
	"github.com/autoremind/autoremind/pkg/db"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertIfAbsent(ctx context.Context, conn *gorm.DB, subscription *domain.Subscription) error {
	err := conn.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(subscription).Error
	if err != nil && db.IsDuplicateKeyErr(err) {
		return nil
	}
	return err
}

func (r *repo) FindByUserID(ctx context.Context, conn *gorm.DB, userID snowflake.ID) (*domain.Subscription, error) {
	var subscription domain.Subscription
	err := conn.WithContext(ctx).Where("user_id = ?", userID).First(&subscription).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &subscription, nil
}

func (r *repo) FindByCustomerID(ctx context.Context, conn *gorm.DB, customerID string) (*domain.Subscription, error) {
	if customerID == "" {
		return nil, nil
	}
	var subscription domain.Subscription
	err := conn.WithContext(ctx).Where("stripe_customer_id = ?", customerID).First(&subscription).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &subscription, nil
}

func (r *repo) Update(ctx context.Context, conn *gorm.DB, subscription *domain.Subscription) error {
	return conn.WithContext(ctx).
		Model(&domain.Subscription{}).
		Where("id = ? AND user_id = ?", subscription.ID, subscription.UserID).
		Updates(map[string]any{
			"tier":                   subscription.Tier,
			"status":                 subscription.Status,
			"stripe_customer_id":     subscription.StripeCustomerID,
			"stripe_subscription_id": subscription.StripeSubscriptionID,
			"stripe_price_id":        subscription.StripePriceID,
			"current_period_end":     subscription.CurrentPeriodEnd,
			"cancel_at_period_end":   subscription.CancelAtPeriodEnd,
			"updated_at":             subscription.UpdatedAt,
		}).Error
}
