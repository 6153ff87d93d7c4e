package client

import (
	"github.com/autoremind/autoremind/internal/client/repository"
	"github.com/autoremind/autoremind/internal/client/service"
	"go.uber.org/fx"
)

var Module = fx.Module("client.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
