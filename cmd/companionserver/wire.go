//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"github.com/cory-johannsen/mythic/internal/config"
	"github.com/cory-johannsen/mythic/internal/content"
	"github.com/cory-johannsen/mythic/internal/gameserver"
	"github.com/cory-johannsen/mythic/internal/scripting"
	"github.com/cory-johannsen/mythic/internal/storage/memory"
	"github.com/cory-johannsen/mythic/internal/storage/postgres"
)

var commonSet = wire.NewSet(
	provideLogger,
	provideRoller,
	provideClock,
	provideHandlerConfig,
	provideScripts,
	provideHealth,
	provideGRPCServer,
	gameserver.NewCompanionHandler,
	gameserver.NewCompanionService,
	wire.Bind(new(gameserver.Catalog), new(*content.Catalog)),
	wire.Bind(new(gameserver.Reactor), new(*scripting.Manager)),
)

func initPostgresApp(ctx context.Context, cfg config.Config) (*App, func(), error) {
	wire.Build(
		commonSet,
		providePool,
		provideDBCatalog,
		postgres.NewStore,
		wire.Bind(new(gameserver.Store), new(*postgres.Store)),
		newPostgresApp,
	)
	return nil, nil, nil
}

func initMemoryApp(cfg config.Config) (*App, func(), error) {
	wire.Build(
		commonSet,
		provideFileCatalog,
		memory.NewStore,
		wire.Bind(new(gameserver.Store), new(*memory.Store)),
		newApp,
	)
	return nil, nil, nil
}
