package settings

import (
	"github.com/autoremind/autoremind/internal/settings/repository"
	"github.com/autoremind/autoremind/internal/settings/service"
	"go.uber.org/fx"
)

var Module = fx.Module("settings.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
