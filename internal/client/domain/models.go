// Package domain contains persistence models for client records.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ClientRecord is a reminder subject: a client plus the vehicle or service
// being tracked, with one pending reminder obligation.
type ClientRecord struct {
	ID           snowflake.ID      `gorm:"primaryKey"`
	UserID       snowflake.ID      `gorm:"column:user_id;not null;index"`
	Name         string            `gorm:"type:text;not null"`
	Phone        string            `gorm:"type:text;not null"`
	Resource     string            `gorm:"type:text"`
	ReminderDate time.Time         `gorm:"column:reminder_date;type:date;not null"`
	ReminderSent bool              `gorm:"column:reminder_sent;not null;default:false"`
	Metadata     datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (ClientRecord) TableName() string { return "client_records" }

type CreateRequest struct {
	Name         string
	Phone        string
	Resource     string
	ReminderDate time.Time
}

type UpdateRequest struct {
	Name         *string
	Phone        *string
	Resource     *string
	ReminderDate *time.Time
}

// ImportRow is one parsed row of a bulk import file.
type ImportRow struct {
	Name         string
	Phone        string
	Resource     string
	ReminderDate time.Time
}

// ImportResult reports what a bulk import committed and what it skipped.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}
