package core

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/signalsfoundry/foodweb-simulator/internal/logging"
	"github.com/signalsfoundry/foodweb-simulator/kb"
	"github.com/signalsfoundry/foodweb-simulator/model"
)

// LevelRunner integrates one sweep level from a fresh state.
// *SimulationEngine is the production implementation.
type LevelRunner interface {
	RunLevel(ctx context.Context, level int) (model.SweepRun, error)
}

// SweepResult is the ordered outcome of a sweep.
type SweepResult struct {
	Runs    []model.SweepRun
	Records []model.SummaryRecord
}

// SweepDriver runs every level of a sweep, optionally across several
// workers, and collects one summary record per successful level.
type SweepDriver struct {
	runner  LevelRunner
	levels  int
	workers int
	book    *kb.ResultBook
	log     logging.Logger
	tracer  trace.Tracer
}

// SweepOption customises a SweepDriver.
type SweepOption func(*SweepDriver)

// WithWorkers bounds the number of levels integrated concurrently. Values
// below 1 mean sequential.
func WithWorkers(n int) SweepOption {
	return func(d *SweepDriver) { d.workers = n }
}

// WithResultBook records results into an existing book, e.g. one with
// subscribers attached.
func WithResultBook(b *kb.ResultBook) SweepOption {
	return func(d *SweepDriver) {
		if b != nil {
			d.book = b
		}
	}
}

// WithSweepLogger attaches a structured logger.
func WithSweepLogger(l logging.Logger) SweepOption {
	return func(d *SweepDriver) {
		if l != nil {
			d.log = l
		}
	}
}

// NewSweepDriver returns a driver for levels 0..levels-1.
func NewSweepDriver(runner LevelRunner, levels int, opts ...SweepOption) *SweepDriver {
	d := &SweepDriver{
		runner:  runner,
		levels:  levels,
		workers: 1,
		book:    kb.NewResultBook(),
		log:     logging.Noop(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.workers < 1 {
		d.workers = 1
	}
	return d
}

// Book returns the result book the driver records into.
func (d *SweepDriver) Book() *kb.ResultBook { return d.book }

// Run integrates every level. A failing level does not stop the others: its
// error is recorded and the joined errors of all failed levels are returned
// next to the successful results. Cancelling ctx stops levels that have not
// started yet.
func (d *SweepDriver) Run(ctx context.Context) (SweepResult, error) {
	ctx, span := d.tracer.Start(ctx, "foodweb.sweep", trace.WithAttributes(
		attribute.Int("sweep.levels", d.levels),
		attribute.Int("sweep.workers", d.workers),
	))
	defer span.End()

	d.log.Info(ctx, "sweep started", logging.Int("levels", d.levels), logging.Int("workers", d.workers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	var cancelled error
	for level := 0; level < d.levels; level++ {
		if err := gctx.Err(); err != nil {
			cancelled = err
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			run, err := d.runner.RunLevel(gctx, level)
			if err != nil {
				d.book.RecordFailure(level, err)
				return nil
			}
			d.book.Record(run)
			return nil
		})
	}
	if err := g.Wait(); err != nil && cancelled == nil {
		cancelled = err
	}

	result := SweepResult{Runs: d.book.Runs(), Records: d.book.Summaries()}
	errs := d.book.Failures()
	if cancelled != nil {
		errs = append(errs, cancelled)
	}
	err := errors.Join(errs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sweep incomplete")
	}

	d.log.Info(ctx, "sweep finished",
		logging.Int("succeeded", len(result.Runs)),
		logging.Int("failed", len(d.book.Failures())),
	)
	return result, err
}
