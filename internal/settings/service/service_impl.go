package service

import (
	"context"
	"strings"
	"time"

	"github.com/autoremind/autoremind/internal/config"
	"github.com/autoremind/autoremind/internal/secrets"
	"github.com/autoremind/autoremind/internal/settings/domain"
	"github.com/autoremind/autoremind/pkg/phone"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        domain.Repository
	Codec       *secrets.Codec
	ReminderCfg *config.ReminderConfigHolder
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        domain.Repository
	codec       *secrets.Codec
	reminderCfg *config.ReminderConfigHolder
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("settings.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		codec:       p.Codec,
		reminderCfg: p.ReminderCfg,
	}
}

func (s *Service) GetOrCreate(ctx context.Context, userID snowflake.ID) (*domain.TenantSettings, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidTenant
	}

	existing, err := s.repo.FindByUserID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	defaults := s.reminderCfg.Get()
	now := time.Now().UTC()
	settings := &domain.TenantSettings{
		ID:               s.genID.Generate(),
		UserID:           userID,
		ReminderLeadDays: defaults.DefaultLeadDays,
		MessageTemplate:  defaults.DefaultMessageTemplate,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.InsertIfAbsent(ctx, s.db, settings); err != nil {
		return nil, err
	}

	// Re-read so a concurrent creator's row wins consistently.
	return s.repo.FindByUserID(ctx, s.db, userID)
}

func (s *Service) Find(ctx context.Context, userID snowflake.ID) (*domain.TenantSettings, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidTenant
	}
	return s.repo.FindByUserID(ctx, s.db, userID)
}

func (s *Service) Update(ctx context.Context, userID snowflake.ID, req domain.UpdateRequest) (*domain.TenantSettings, error) {
	settings, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.SMSAccountSID != nil {
		settings.SMSAccountSID = strings.TrimSpace(*req.SMSAccountSID)
	}
	if req.SMSAuthToken != nil && strings.TrimSpace(*req.SMSAuthToken) != "" {
		encrypted, err := s.codec.Encrypt(strings.TrimSpace(*req.SMSAuthToken))
		if err != nil {
			return nil, err
		}
		settings.SMSAuthToken = encrypted
	}
	if req.SMSFromNumber != nil {
		settings.SMSFromNumber = phone.Normalize(*req.SMSFromNumber)
	}
	if req.BusinessName != nil {
		settings.BusinessName = strings.TrimSpace(*req.BusinessName)
	}
	if req.BusinessContact != nil {
		settings.BusinessContact = strings.TrimSpace(*req.BusinessContact)
	}
	if req.ReminderLeadDays != nil {
		if *req.ReminderLeadDays < 1 {
			return nil, domain.ErrInvalidLeadDays
		}
		settings.ReminderLeadDays = *req.ReminderLeadDays
	}
	if req.MessageTemplate != nil && strings.TrimSpace(*req.MessageTemplate) != "" {
		settings.MessageTemplate = *req.MessageTemplate
	}

	settings.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *Service) SetManagedSMS(ctx context.Context, userID snowflake.ID, enabled bool) error {
	if userID == 0 {
		return domain.ErrInvalidTenant
	}

	if enabled {
		settings, err := s.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		if settings.ManagedSMS {
			return nil
		}
		settings.ManagedSMS = true
		settings.UpdatedAt = time.Now().UTC()
		return s.repo.Update(ctx, s.db, settings)
	}

	// Disabling only applies when a row exists; free tenants without
	// settings have nothing to turn off.
	settings, err := s.repo.FindByUserID(ctx, s.db, userID)
	if err != nil {
		return err
	}
	if settings == nil || !settings.ManagedSMS {
		return nil
	}
	settings.ManagedSMS = false
	settings.UpdatedAt = time.Now().UTC()
	return s.repo.Update(ctx, s.db, settings)
}
