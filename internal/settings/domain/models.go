// Package domain contains persistence models and contracts for per-tenant
// configuration.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// TenantSettings is per-tenant configuration. One row per tenant, created
// lazily on first settings save or on plan upgrade. The SMS auth token is
// stored encrypted at rest.
type TenantSettings struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	UserID           snowflake.ID `gorm:"column:user_id;not null;uniqueIndex"`
	SMSAccountSID    string       `gorm:"column:sms_account_sid;type:text"`
	SMSAuthToken     string       `gorm:"column:sms_auth_token;type:text"`
	SMSFromNumber    string       `gorm:"column:sms_from_number;type:text"`
	BusinessName     string       `gorm:"column:business_name;type:text"`
	BusinessContact  string       `gorm:"column:business_contact;type:text"`
	ReminderLeadDays int          `gorm:"column:reminder_lead_days;not null;default:7"`
	MessageTemplate  string       `gorm:"column:message_template;type:text"`
	ManagedSMS       bool         `gorm:"column:managed_sms;not null;default:false"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (TenantSettings) TableName() string { return "tenant_settings" }

// UpdateRequest carries the fields a tenant may change. Nil pointers leave
// the stored value untouched.
type UpdateRequest struct {
	SMSAccountSID    *string
	SMSAuthToken     *string
	SMSFromNumber    *string
	BusinessName     *string
	BusinessContact  *string
	ReminderLeadDays *int
	MessageTemplate  *string
}
