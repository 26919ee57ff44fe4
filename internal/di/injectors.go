//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"standbot/internal"
	"standbot/internal/classifier"
	"standbot/internal/clock"
	"standbot/internal/controllers"
	"standbot/internal/live"
	"standbot/internal/providers"
	"standbot/internal/scheduler"
	"standbot/internal/services"
	"standbot/internal/services/interfaces"
	"standbot/internal/storage"
	storageInterfaces "standbot/internal/storage/interfaces"
	"standbot/internal/structures"
	"standbot/internal/transport/telegram"
)

var storageSet = wire.NewSet(
	providers.NewDatabaseProvider,
	providers.NewRedisProvider,
	storage.NewZstdCompressor,
	storage.NewFileManager,
	storage.NewStateStore,
	storage.NewTotalsStore,
	wire.Bind(new(storageInterfaces.TotalsStoreInterface), new(*storage.TotalsStore)),
	wire.Bind(new(controllers.StoragePinger), new(*storage.TotalsStore)),
)

var transportSet = wire.NewSet(
	telegram.NewClient,
	wire.Bind(new(interfaces.Transport), new(*telegram.Client)),
	wire.Bind(new(interfaces.NameResolver), new(*telegram.Client)),
	telegram.NewPoller,
	classifier.NewClassifier,
)

var sessionSet = wire.NewSet(
	live.NewSlot,
	live.NewBroadcaster,
	services.NewRankingService,
	services.NewSessionService,
	wire.Bind(new(services.SessionServiceInterface), new(*services.SessionService)),
	services.NewDispatcher,
	wire.Bind(new(interfaces.EventSink), new(*services.Dispatcher)),
	scheduler.NewScheduler,
)

func InitApp(cfg *structures.CliFlags) (*internal.App, func(), error) {

	wire.Build(
		providers.NewConfigProvider,
		provideLogger,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,
		clock.NewRealClock,

		storageSet,
		transportSet,
		sessionSet,

		controllers.NewApiController,
		controllers.NewHealthController,
		controllers.NewWebhookController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil, nil
}
