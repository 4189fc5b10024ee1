package app

import (
	"go.uber.org/zap"

	"rmultiple-lab/internal/api"
	"rmultiple-lab/internal/config"
	"rmultiple-lab/internal/metrics"
	"rmultiple-lab/internal/observability"
	"rmultiple-lab/internal/service"
	"rmultiple-lab/internal/simulation"
)

// App is the set of components built from one configuration.
type App struct {
	Config   *config.Config
	Stores   *Stores
	Sessions *service.Service
	Runner   *simulation.Runner
	Logger   *zap.Logger
	Metrics  *observability.Metrics
}

// New builds the session service and the simulation runner over stores.
// A nil m uses observability.DefaultMetrics.
func New(cfg *config.Config, stores *Stores, logger *zap.Logger, m *observability.Metrics) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = observability.DefaultMetrics
	}
	engineCfg := cfg.EngineConfig()

	return &App{
		Config: cfg,
		Stores: stores,
		Sessions: service.New(service.Options{
			Store:   stores.Sessions,
			Engine:  engineCfg,
			Logger:  logger.Named("service"),
			Metrics: m,
		}),
		Runner: simulation.NewRunner(simulation.RunnerOptions{
			BatchStore:  stores.Batches,
			ResultStore: stores.Results,
			Aggregator:  metrics.NewAggregator(stores.Results, stores.Aggregates),
			Engine:      engineCfg,
			Workers:     cfg.Simulation.Workers,
			BaseSeed:    cfg.Simulation.BaseSeed,
			Logger:      logger.Named("simulation"),
			Metrics:     m,
		}),
		Logger:  logger,
		Metrics: m,
	}
}

// APIServer returns the HTTP API over the app components.
// /metrics is mounted on the API router when no separate metrics address is set.
func (a *App) APIServer() *api.Server {
	return api.NewServer(api.Options{
		Sessions:     a.Sessions,
		Runner:       a.Runner,
		Batches:      a.Stores.Batches,
		Aggregates:   a.Stores.Aggregates,
		Logger:       a.Logger.Named("api"),
		Metrics:      a.Metrics,
		DefaultChunk: a.Config.Engine.DefaultChunk,
		ServeMetrics: a.Config.Server.MetricsAddr == "",
	})
}
