package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rmultiple-lab/internal/app"
	"rmultiple-lab/internal/config"
	"rmultiple-lab/internal/logger"
	"rmultiple-lab/internal/observability"
)

const shutdownTimeout = 10 * time.Second

type serverFlags struct {
	configPath    string
	addr          string
	metricsAddr   string
	backend       string
	postgresDSN   string
	clickhouseDSN string
	logLevel      string
}

func newRootCmd() (*cobra.Command, *serverFlags) {
	f := &serverFlags{}

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the R-multiple simulation API",
		Long: `Serve trading sessions and simulation batches over HTTP.

Settings come from the config file (YAML or JSON) when given, then from
flags. POSTGRES_DSN and CLICKHOUSE_DSN are read from the environment or a
.env file in the working directory.

Example:
  server --config config.yaml --addr :8080`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.load(cmd)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&f.configPath, "config", "f", "", "path to config file (YAML or JSON)")
	cmd.Flags().StringVar(&f.addr, "addr", "", "HTTP listen address")
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", "", "separate Prometheus metrics address (default: /metrics on --addr)")
	cmd.Flags().StringVar(&f.backend, "storage", "", "session storage backend: memory or postgres")
	cmd.Flags().StringVar(&f.postgresDSN, "postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	cmd.Flags().StringVar(&f.clickhouseDSN, "clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string for simulation results")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")

	return cmd, f
}

// load reads the config file and applies flags that were set explicitly or
// carry an environment default.
func (f *serverFlags) load(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.LoadFromFile(f.configPath); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Server.Addr = f.addr
	}
	if flags.Changed("metrics-addr") {
		cfg.Server.MetricsAddr = f.metricsAddr
	}
	if flags.Changed("storage") {
		cfg.Storage.Backend = f.backend
	}
	if f.postgresDSN != "" {
		cfg.Storage.PostgresDSN = f.postgresDSN
	}
	if f.clickhouseDSN != "" {
		cfg.Storage.ClickhouseDSN = f.clickhouseDSN
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func run(parent context.Context, cfg *config.Config) error {
	log, err := logger.NewLogger(logger.Options{Level: cfg.Log.Level, Encoding: cfg.Log.Encoding})
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := app.OpenStores(ctx, cfg.Storage, log.Logger)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer stores.Close()

	a := app.New(cfg, stores, log.Logger, observability.DefaultMetrics)

	servers := []*http.Server{{
		Addr:              cfg.Server.Addr,
		Handler:           a.APIServer().Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		mux.Handle("/metrics", observability.Handler())
		servers = append(servers, &http.Server{
			Addr:              cfg.Server.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			log.Info("http server listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)

		// Existing variables win
		if _, set := os.LookupEnv(key); !set {
			os.Setenv(key, strings.TrimSpace(value))
		}
	}
}
