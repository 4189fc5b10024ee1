package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rmultiple-lab/internal/app"
	"rmultiple-lab/internal/config"
	"rmultiple-lab/internal/domain"
	"rmultiple-lab/internal/logger"
	"rmultiple-lab/internal/reporting"
)

type backtestFlags struct {
	configPath string
	specsPath  string
	name       string

	strategy    string
	params      map[string]string
	simulations int
	trades      int
	capital     float64
	preset      string

	workers int
	seed    uint64
	format  string
	output  string
}

func newRootCmd() (*cobra.Command, *backtestFlags) {
	f := &backtestFlags{}

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run strategy simulations and print the batch report",
		Long: `Run a batch of independent account simulations and print a report
ranking each strategy configuration by mean performance.

The batch comes from a spec file (YAML or JSON) or from the strategy flags.

Examples:
  backtest --specs sweep.yaml --format csv
  backtest --strategy drawdown_linear --param base_risk=1.5 --simulations 200 --trades 1000`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return f.run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.configPath, "config", "f", "", "path to config file (YAML or JSON)")
	flags.StringVar(&f.specsPath, "specs", "", "path to batch spec file (YAML or JSON)")
	flags.StringVar(&f.name, "name", "", "batch name")
	flags.StringVar(&f.strategy, "strategy", "", "strategy key when no spec file is given")
	flags.StringToStringVar(&f.params, "param", nil, "strategy parameter as name=value, repeatable")
	flags.IntVar(&f.simulations, "simulations", 100, "number of simulations")
	flags.IntVar(&f.trades, "trades", 1000, "trades per simulation")
	flags.Float64Var(&f.capital, "capital", 10000, "initial capital")
	flags.StringVar(&f.preset, "preset", "", "outcome distribution preset")
	flags.IntVar(&f.workers, "workers", 0, "concurrent simulations (default from config)")
	flags.Uint64Var(&f.seed, "seed", 0, "base seed (default from config)")
	flags.StringVar(&f.format, "format", "markdown", "report format: markdown, csv or json")
	flags.StringVarP(&f.output, "output", "o", "", "write the report to a file instead of stdout")

	cmd.MarkFlagsMutuallyExclusive("specs", "strategy")
	cmd.MarkFlagsOneRequired("specs", "strategy")

	return cmd, f
}

func (f *backtestFlags) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.LoadFromFile(f.configPath); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	if f.workers > 0 {
		cfg.Simulation.Workers = f.workers
	}
	if f.seed > 0 {
		cfg.Simulation.BaseSeed = f.seed
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// batch returns the batch name and specs from the spec file or the flags.
func (f *backtestFlags) batch() (string, []domain.SimulationSpec, error) {
	if f.specsPath != "" {
		name, specs, err := loadSpecFile(f.specsPath)
		if err != nil {
			return "", nil, err
		}
		if f.name != "" {
			name = f.name
		}
		return name, specs, nil
	}

	params := make(map[string]float64, len(f.params))
	for k, v := range f.params {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return "", nil, fmt.Errorf("%w: param %s=%q is not a number", domain.ErrInvalidParameter, k, v)
		}
		params[k] = n
	}

	return f.name, []domain.SimulationSpec{{
		StrategyKey:    f.strategy,
		Params:         params,
		NumSimulations: f.simulations,
		NumTrades:      f.trades,
		InitialCapital: decimal.NewFromFloat(f.capital),
		Preset:         f.preset,
	}}, nil
}

func (f *backtestFlags) run(parent context.Context, stdout io.Writer) error {
	switch f.format {
	case "markdown", "md", "csv", "json":
	default:
		return fmt.Errorf("unknown format %q", f.format)
	}

	cfg, err := f.loadConfig()
	if err != nil {
		return err
	}
	name, specs, err := f.batch()
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(logger.Options{Level: cfg.Log.Level, Encoding: "console"})
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

	a := app.New(cfg, stores, log.Logger, nil)

	result, err := a.Runner.Run(ctx, name, specs)
	if err != nil {
		return fmt.Errorf("run batch: %w", err)
	}
	log.Info("batch finished",
		zap.String("batch_id", result.Batch.BatchID),
		zap.String("status", string(result.Batch.Status)),
		zap.Int("simulations", result.Batch.TotalSimulations))

	report, err := reporting.NewGenerator(stores.Batches, stores.Aggregates).Generate(ctx, result.Batch.BatchID)
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	out := stdout
	if f.output != "" {
		file, err := os.Create(f.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer file.Close()
		out = file
	}
	return writeReport(out, f.format, report)
}

func writeReport(w io.Writer, format string, r *reporting.Report) error {
	var err error
	switch format {
	case "csv":
		_, err = io.WriteString(w, reporting.RenderCSV(r.Strategies))
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(r)
	default:
		_, err = io.WriteString(w, reporting.RenderMarkdown(r))
	}
	return err
}
