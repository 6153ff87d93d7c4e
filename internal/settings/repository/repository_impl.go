package repository

import (
	"context"
	"errors"

	"github.com/autoremind/autoremind/internal/settings/domain"
	"github.com/autoremind/autoremind/pkg/db"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertIfAbsent(ctx context.Context, conn *gorm.DB, settings *domain.TenantSettings) error {
	err := conn.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(settings).Error
	if err != nil && db.IsDuplicateKeyErr(err) {
		return nil
	}
	return err
}

func (r *repo) FindByUserID(ctx context.Context, conn *gorm.DB, userID snowflake.ID) (*domain.TenantSettings, error) {
	var settings domain.TenantSettings
	err := conn.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *repo) Update(ctx context.Context, conn *gorm.DB, settings *domain.TenantSettings) error {
	return conn.WithContext(ctx).
		Model(&domain.TenantSettings{}).
		Where("id = ? AND user_id = ?", settings.ID, settings.UserID).
		Updates(map[string]any{
			"sms_account_sid":    settings.SMSAccountSID,
			"sms_auth_token":     settings.SMSAuthToken,
			"sms_from_number":    settings.SMSFromNumber,
			"business_name":      settings.BusinessName,
			"business_contact":   settings.BusinessContact,
			"reminder_lead_days": settings.ReminderLeadDays,
			"message_template":   settings.MessageTemplate,
			"managed_sms":        settings.ManagedSMS,
			"updated_at":         settings.UpdatedAt,
		}).Error
}
