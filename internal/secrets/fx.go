package secrets

import (
	"github.com/autoremind/autoremind/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("secrets",
	fx.Provide(provideCodec),
)

func provideCodec(cfg config.Config, log *zap.Logger) *Codec {
	if cfg.CredentialSecret == "" {
		log.Warn("CREDENTIAL_SECRET is not set; stored carrier tokens are encrypted with an empty secret")
	}
	return NewCodec(cfg.CredentialSecret, log)
}
