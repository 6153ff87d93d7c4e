package stripe

import (
	"github.com/autoremind/autoremind/internal/config"
	"github.com/autoremind/autoremind/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("payments.stripe",
	fx.Provide(provideProvider),
	fx.Provide(provideWebhook),
)

func provideProvider(cfg config.Config, log *zap.Logger) domain.Provider {
	if cfg.StripeSecretKey == "" {
		log.Warn("STRIPE_SECRET_KEY is not set; billing operations are disabled")
		return nil
	}
	return NewClient(cfg.StripeSecretKey)
}

func provideWebhook(cfg config.Config) *Webhook {
	return NewWebhook(cfg.StripeWebhookSecret)
}
