package auth

import (
	"github.com/autoremind/autoremind/internal/auth/repository"
	"github.com/autoremind/autoremind/internal/auth/service"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
