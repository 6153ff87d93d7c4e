package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/autoremind/autoremind/internal/clock"
	"github.com/autoremind/autoremind/internal/migration"
	"github.com/autoremind/autoremind/internal/scheduler"
	"github.com/autoremind/autoremind/internal/seed"
	"github.com/autoremind/autoremind/internal/server"
	"github.com/autoremind/autoremind/pkg/db"
	"github.com/autoremind/autoremind/pkg/log"
)

func main() {
	app := fx.New(
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		seed.Module,
		server.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
