// Package seed bootstraps a demo tenant with sample clients for local
// development. Seeding is idempotent: re-running against a database that
// already holds the demo account changes nothing.
package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	authdomain "github.com/autoremind/autoremind/internal/auth/domain"
	"github.com/autoremind/autoremind/internal/auth/password"
	clientdomain "github.com/autoremind/autoremind/internal/client/domain"
	settingsdomain "github.com/autoremind/autoremind/internal/settings/domain"
)

const (
	demoEmail    = "demo@autoremind.local"
	demoPassword = "demo-password"
	demoDisplay  = "Demo Garage"
)

// EnsureDemoTenant seeds the demo account, its settings and a handful of
// client records with reminder dates spread around today.
func EnsureDemoTenant(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, created, err := ensureDemoUserTx(ctx, tx, node)
		if err != nil {
			return err
		}
		if !created {
			return nil
		}
		if err := seedDemoSettingsTx(ctx, tx, node, user.ID); err != nil {
			return err
		}
		return seedDemoClientsTx(ctx, tx, node, user.ID)
	})
}

func ensureDemoUserTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) (*authdomain.User, bool, error) {
	var user authdomain.User
	err := tx.WithContext(ctx).Where("email = ?", demoEmail).First(&user).Error
	if err == nil {
		return &user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	hashed, err := password.Hash(demoPassword)
	if err != nil {
		return nil, false, err
	}
	now := time.Now().UTC()
	user = authdomain.User{
		ID:           node.Generate(),
		Email:        strings.ToLower(demoEmail),
		PasswordHash: hashed,
		DisplayName:  demoDisplay,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, false, err
	}
	return &user, true, nil
}

func seedDemoSettingsTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, userID snowflake.ID) error {
	now := time.Now().UTC()
	settings := settingsdomain.TenantSettings{
		ID:               node.Generate(),
		UserID:           userID,
		BusinessName:     demoDisplay,
		BusinessContact:  "+351911000000",
		ReminderLeadDays: 7,
		MessageTemplate:  "Hi {client_name}, your {resource} is due on {date}. - {business_name} ({business_contact})",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return tx.WithContext(ctx).Create(&settings).Error
}

func seedDemoClientsTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, userID snowflake.ID) error {
	type sample struct {
		Name        string
		Phone       string
		Resource    string
		DaysFromNow int
	}

	samples := []sample{
		{"Ana Marques", "+351912345001", "Toyota Corolla inspection", 3},
		{"Rui Costa", "+351912345002", "Honda Civic oil change", 5},
		{"Sofia Lopes", "+351912345003", "annual boiler service", 14},
		{"Pedro Nunes", "+351912345004", "Renault Clio inspection", 30},
		{"Marta Silva", "+351912345005", "dental checkup", -2},
	}

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for _, sample := range samples {
		record := clientdomain.ClientRecord{
			ID:           node.Generate(),
			UserID:       userID,
			Name:         sample.Name,
			Phone:        sample.Phone,
			Resource:     sample.Resource,
			ReminderDate: today.AddDate(0, 0, sample.DaysFromNow),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.WithContext(ctx).Create(&record).Error; err != nil {
			return err
		}
	}
	return nil
}
