package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/autoremind/autoremind/internal/config"
	"github.com/autoremind/autoremind/internal/secrets"
	settingsdomain "github.com/autoremind/autoremind/internal/settings/domain"
	"github.com/autoremind/autoremind/internal/sms/domain"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Config   config.Config
	Settings settingsdomain.Service
	Codec    *secrets.Codec
	Carrier  domain.Carrier
	Classify domain.Classifier
}

type smsService struct {
	log      *zap.Logger
	cfg      config.Config
	settings settingsdomain.Service
	codec    *secrets.Codec
	carrier  domain.Carrier
	classify domain.Classifier
}

func New(p Params) domain.Service {
	return &smsService{
		log:      p.Log.Named("sms.service"),
		cfg:      p.Config,
		settings: p.Settings,
		codec:    p.Codec,
		carrier:  p.Carrier,
		classify: p.Classify,
	}
}

// Send resolves the tenant's effective credentials, dispatches one message
// and classifies any carrier failure. It never panics past this boundary.
func (s *smsService) Send(ctx context.Context, userID snowflake.ID, toPhone, message string) (*domain.SendResult, *domain.SendError) {
	if strings.TrimSpace(toPhone) == "" {
		return nil, &domain.SendError{
			Category: domain.ErrorCategoryConfig,
			Detail:   "recipient phone number is empty",
		}
	}

	creds, cfgErr := s.resolveCredentials(ctx, userID)
	if cfgErr != nil {
		return nil, cfgErr
	}

	var accountSID, authToken, from string
	switch c := creds.(type) {
	case domain.ManagedCredentials:
		accountSID = s.cfg.PlatformSMSAccountSID
		authToken = s.cfg.PlatformSMSAuthToken
		from = s.cfg.PlatformSMSFrom
	case domain.OwnCredentials:
		accountSID = c.AccountSID
		authToken = c.AuthToken
		from = c.Sender
	}

	messageID, err := s.carrier.Send(ctx, accountSID, authToken, from, toPhone, message)
	if err != nil {
		category := s.classify(err)
		s.log.Warn("carrier send failed",
			zap.String("user_id", userID.String()),
			zap.String("to", toPhone),
			zap.String("category", string(category)),
			zap.Error(err),
		)
		return nil, &domain.SendError{
			Category: category,
			Detail:   err.Error(),
		}
	}

	s.log.Info("sms dispatched",
		zap.String("user_id", userID.String()),
		zap.String("to", toPhone),
		zap.String("message_id", messageID),
	)
	return &domain.SendResult{MessageID: messageID}, nil
}

// resolveCredentials picks platform credentials when the tenant's managed-SMS
// entitlement is on, otherwise the tenant's own stored credentials. Missing
// pieces fail fast as configuration errors before any carrier call.
func (s *smsService) resolveCredentials(ctx context.Context, userID snowflake.ID) (domain.Credentials, *domain.SendError) {
	settings, err := s.settings.Find(ctx, userID)
	if err != nil {
		return nil, &domain.SendError{
			Category: domain.ErrorCategoryConfig,
			Detail:   "failed to load tenant settings: " + err.Error(),
		}
	}

	if settings != nil && settings.ManagedSMS {
		if s.cfg.PlatformSMSAccountSID == "" || s.cfg.PlatformSMSAuthToken == "" || s.cfg.PlatformSMSFrom == "" {
			return nil, &domain.SendError{
				Category: domain.ErrorCategoryConfig,
				Detail:   "platform SMS credentials are not configured",
			}
		}
		return domain.ManagedCredentials{}, nil
	}

	if settings == nil || settings.SMSAccountSID == "" || settings.SMSAuthToken == "" {
		return nil, &domain.SendError{
			Category: domain.ErrorCategoryConfig,
			Detail:   "SMS credentials are not configured for this account",
		}
	}
	if settings.SMSFromNumber == "" {
		return nil, &domain.SendError{
			Category: domain.ErrorCategoryConfig,
			Detail:   "SMS sender number is not configured for this account",
		}
	}

	return domain.OwnCredentials{
		AccountSID: settings.SMSAccountSID,
		AuthToken:  s.codec.Decrypt(settings.SMSAuthToken),
		Sender:     settings.SMSFromNumber,
	}, nil
}
