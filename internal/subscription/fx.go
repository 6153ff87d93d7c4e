package subscription

import (
	"github.com/autoremind/autoremind/internal/subscription/repository"
	"github.com/autoremind/autoremind/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
