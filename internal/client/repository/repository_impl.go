package repository

import (
	"context"
	"errors"
	"time"

	"github.com/autoremind/autoremind/internal/client/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *domain.ClientRecord) error {
	return db.WithContext(ctx).Create(record).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (*domain.ClientRecord, error) {
	var record domain.ClientRecord
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]domain.ClientRecord, error) {
	var records []domain.ClientRecord
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("reminder_date, id").
		Find(&records).Error
	return records, err
}

func (r *repo) Count(ctx context.Context, db *gorm.DB, userID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.ClientRecord{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, record *domain.ClientRecord) error {
	result := db.WithContext(ctx).
		Model(&domain.ClientRecord{}).
		Where("id = ? AND user_id = ?", record.ID, record.UserID).
		Updates(map[string]any{
			"name":          record.Name,
			"phone":         record.Phone,
			"resource":      record.Resource,
			"reminder_date": record.ReminderDate,
			"reminder_sent": record.ReminderSent,
			"updated_at":    record.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) error {
	result := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.ClientRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *repo) DeleteMany(ctx context.Context, db *gorm.DB, userID snowflake.ID, ids []snowflake.ID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Delete(&domain.ClientRecord{})
	return result.RowsAffected, result.Error
}

func (r *repo) ListDue(ctx context.Context, db *gorm.DB, userID snowflake.ID, until time.Time) ([]domain.ClientRecord, error) {
	var records []domain.ClientRecord
	err := db.WithContext(ctx).
		Where("user_id = ? AND reminder_sent = ? AND reminder_date <= ?",
			userID, false, until).
		Order("reminder_date, id").
		Find(&records).Error
	return records, err
}

func (r *repo) MarkSent(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (bool, error) {
	result := db.WithContext(ctx).
		Model(&domain.ClientRecord{}).
		Where("id = ? AND user_id = ? AND reminder_sent = ?", id, userID, false).
		Updates(map[string]any{
			"reminder_sent": true,
			"updated_at":    time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
