package lock

import (
	"strings"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/autoremind/autoremind/internal/config"
)

var Module = fx.Module("lock",
	fx.Provide(provideLocker),
)

// provideLocker returns nil when Redis is not configured; a nil Locker
// means single-instance mode and every TryLock caller must handle it.
func provideLocker(cfg config.Config, log *zap.Logger) *Locker {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		log.Warn("REDIS_ADDR is not set; dispatch runs without a distributed lock")
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	return NewLocker(client)
}
