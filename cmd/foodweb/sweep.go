package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/signalsfoundry/foodweb-simulator/core"
	"github.com/signalsfoundry/foodweb-simulator/internal/config"
	"github.com/signalsfoundry/foodweb-simulator/internal/export"
	"github.com/signalsfoundry/foodweb-simulator/internal/logging"
	"github.com/signalsfoundry/foodweb-simulator/internal/observability"
	"github.com/signalsfoundry/foodweb-simulator/internal/storage"
	"github.com/signalsfoundry/foodweb-simulator/kb"
	"github.com/signalsfoundry/foodweb-simulator/model"
)

func newSweepCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Integrate every nitrate supply level and export the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			applySweepFlags(cmd, c.cfg)
			if err := c.cfg.Validate(); err != nil {
				return err
			}
			return runSweep(cmd.Context(), c.cfg, c.log, cmd)
		},
	}

	f := cmd.Flags()
	f.String("out", "", "summary CSV path (overrides output.summary_path)")
	f.String("series-dir", "", "directory for per-level time series CSVs")
	f.String("plot-dir", "", "directory for per-level biomass PNG plots")
	f.Int("workers", 0, "levels integrated concurrently")
	f.String("metrics-addr", "", "HTTP address for Prometheus /metrics while the sweep runs")
	f.String("store", "", "result store: memory or sqlite")
	f.String("db", "", "sqlite database path")
	return cmd
}

func applySweepFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("out") {
		cfg.Output.SummaryPath, _ = f.GetString("out")
	}
	if f.Changed("series-dir") {
		cfg.Output.SeriesDir, _ = f.GetString("series-dir")
	}
	if f.Changed("plot-dir") {
		cfg.Output.PlotDir, _ = f.GetString("plot-dir")
	}
	if f.Changed("workers") {
		cfg.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("metrics-addr") {
		cfg.Metrics.Addr, _ = f.GetString("metrics-addr")
	}
	if f.Changed("store") {
		cfg.Storage.Kind, _ = f.GetString("store")
	}
	if f.Changed("db") {
		cfg.Storage.Path, _ = f.GetString("db")
	}
}

func runSweep(ctx context.Context, cfg *config.Config, base logging.Logger, cmd *cobra.Command) (err error) {
	ctx, log := logging.WithRunLogger(ctx, base)
	sweepID := logging.RunIDFromContext(ctx)

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	collector, err := observability.NewSweepCollector(prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	if srv := serveMetrics(cfg.Metrics.Addr, collector, log); srv != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	store, err := storage.NewStore(cfg.Storage.Kind, cfg.Storage.Path)
	if err != nil {
		return err
	}
	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("init %s store: %w", cfg.Storage.Kind, err)
	}
	defer func() {
		if cerr := storage.CloseIfSupported(store); err == nil {
			err = cerr
		}
	}()

	params := cfg.Parameters()
	engine, err := core.NewSimulationEngine(params,
		core.WithLogger(log),
		core.WithRecorder(collector),
	)
	if err != nil {
		return err
	}
	logTraits(ctx, log, engine.Web)

	book := kb.NewResultBook()
	unsubscribe := book.Subscribe(func(ev kb.Event) {
		if ev.Type == kb.EventRunFailed {
			log.Warn(ctx, "sweep level failed", logging.Int("level", ev.Level), logging.Err(ev.Err))
		}
	})
	defer unsubscribe()

	driver := core.NewSweepDriver(engine, engine.Levels(),
		core.WithWorkers(cfg.Workers),
		core.WithResultBook(book),
		core.WithSweepLogger(log),
	)
	result, sweepErr := driver.Run(ctx)

	// Outputs go to disk before the sweep is stored.
	outErr := writeOutputs(cfg.Output, result, export.Roles(engine.Web.Groups))

	record := storage.NewSweepRecord(params.Mode, result.Records, levelFailures(book.Failures()))
	record.ID = sweepID
	if err := store.SaveSweep(ctx, record); err != nil {
		return errors.Join(sweepErr, outErr, fmt.Errorf("save sweep: %w", err))
	}
	if outErr != nil {
		return errors.Join(sweepErr, outErr)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "sweep %s: %d/%d levels", sweepID, len(result.Records), engine.Levels())
	if cfg.Output.SummaryPath != "" {
		fmt.Fprintf(cmd.OutOrStdout(), ", summary %s", cfg.Output.SummaryPath)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return sweepErr
}

// writeOutputs writes every configured output even when an earlier one
// fails, and joins the errors.
func writeOutputs(out config.OutputConfig, result core.SweepResult, roles []model.GuildRole) error {
	var errs []error
	if out.SummaryPath != "" {
		if err := export.WriteSummaryFile(out.SummaryPath, result.Records); err != nil {
			errs = append(errs, err)
		}
	}
	if out.SeriesDir != "" {
		if _, err := export.WriteSeriesFiles(out.SeriesDir, result.Runs); err != nil {
			errs = append(errs, err)
		}
	}
	if out.PlotDir != "" {
		if _, err := export.WritePlotFiles(out.PlotDir, result.Runs, roles); err != nil {
			errs = append(errs, fmt.Errorf("plots: %w", err))
		}
	}
	return errors.Join(errs...)
}

func levelFailures(errs []error) []storage.LevelFailure {
	out := make([]storage.LevelFailure, 0, len(errs))
	for _, err := range errs {
		failure := storage.LevelFailure{Level: -1, Error: err.Error()}
		var runErr *core.RunError
		if errors.As(err, &runErr) {
			failure.Level = runErr.Level
		}
		out = append(out, failure)
	}
	return out
}

func logTraits(ctx context.Context, log logging.Logger, web *core.FoodWeb) {
	volumes := make([]float64, len(web.Groups))
	vmax := make([]float64, len(web.Groups))
	specific := make([]float64, len(web.Groups))
	kn := make([]float64, len(web.Groups))
	for i, g := range web.Groups {
		volumes[i] = g.CellVolume
		vmax[i] = g.VmaxUptake
		specific[i] = g.SpecificVmax()
		kn[i] = g.HalfSatUptake
	}
	log.Debug(ctx, "group traits",
		logging.Floats("cell_volume", volumes),
		logging.Floats("vmax", vmax),
		logging.Floats("specific_vmax", specific),
		logging.Floats("kn", kn),
	)
}

func serveMetrics(addr string, collector *observability.SweepCollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
