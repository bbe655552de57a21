package core

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/foodweb-simulator/internal/logging"
	"github.com/signalsfoundry/foodweb-simulator/model"
	"github.com/signalsfoundry/foodweb-simulator/timectrl"
)

const (
	tracerName = "github.com/signalsfoundry/foodweb-simulator/core"

	// summaryColumns caps the autotroph and heterotroph columns of a
	// summary record.
	summaryColumns = 4
	// progressGroups is how many leading groups a progress line reports.
	progressGroups = 4
)

// RunRecorder receives per-level measurements, typically Prometheus
// collectors.
type RunRecorder interface {
	StartRun(level int)
	ObserveRun(level int, elapsed time.Duration, steps, samples int, err error)
	SetFinalState(level int, nitrate, totalBiomass float64)
}

// SimulationEngine integrates single sweep levels against a shared FoodWeb.
// It holds no per-run state, so RunLevel may be called concurrently.
type SimulationEngine struct {
	Web    *FoodWeb
	Params model.Parameters
	Plan   timectrl.Plan

	log      logging.Logger
	recorder RunRecorder
	tracer   trace.Tracer
}

// EngineOption customises SimulationEngine construction.
type EngineOption func(*SimulationEngine)

// WithLogger attaches a structured logger for progress lines.
func WithLogger(l logging.Logger) EngineOption {
	return func(e *SimulationEngine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r RunRecorder) EngineOption {
	return func(e *SimulationEngine) { e.recorder = r }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) EngineOption {
	return func(e *SimulationEngine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// NewSimulationEngine validates params and builds the shared tables.
func NewSimulationEngine(params model.Parameters, opts ...EngineOption) (*SimulationEngine, error) {
	if err := ValidateParameters(params); err != nil {
		return nil, err
	}
	web, err := NewFoodWeb(params)
	if err != nil {
		return nil, err
	}
	plan, err := timectrl.NewPlan(params.Dt, params.MaxTime, params.TimeOut)
	if err != nil {
		return nil, invalidf("%v", err)
	}

	e := &SimulationEngine{
		Web:    web,
		Params: params.Clone(),
		Plan:   plan,
		log:    logging.Noop(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Levels returns the configured number of sweep levels.
func (e *SimulationEngine) Levels() int { return e.Params.SweepCount }

// RunLevel resets the state and integrates sweep level k at the supply rate
// the sweep formula assigns to it.
func (e *SimulationEngine) RunLevel(ctx context.Context, level int) (model.SweepRun, error) {
	return e.RunWithSupply(ctx, level, e.Params.NitrateSupply(level))
}

// RunWithSupply integrates one level at an explicit nitrate supply rate.
// Failures are returned as *RunError.
func (e *SimulationEngine) RunWithSupply(ctx context.Context, level int, supply float64) (model.SweepRun, error) {
	ctx, span := e.tracer.Start(ctx, "foodweb.run", trace.WithAttributes(
		attribute.Int("sweep.level", level),
		attribute.Float64("nitrate.supply", supply),
		attribute.Int("steps.planned", e.Plan.StepMax),
	))
	defer span.End()

	log := e.log.With(logging.Int("level", level), logging.Float64("nitrate_supply", supply))
	if e.recorder != nil {
		e.recorder.StartRun(level)
	}
	start := time.Now()

	n := e.Web.Size()
	state := model.NewSimulationState(n)
	state.Reset(e.Params.SeedBiomass, e.Params.SeedScale, e.Params.SeedNitrate)
	fluxes := NewFluxes(n)
	sampler := NewSampler(e.Plan.StepOut, e.Plan.StepOutMax)

	ctrl := timectrl.NewStepController(e.Plan)
	ctrl.AddListener(func(int) error {
		sampled, err := sampler.Observe(state, fluxes)
		if err != nil || !sampled {
			return err
		}
		log.Info(ctx, "progress", progressFields(state)...)
		return nil
	})

	current := 0
	steps, err := ctrl.Run(func(step int) error {
		current = step
		e.Web.EvaluateFluxes(state, supply, fluxes)
		EulerStep(&state, fluxes, e.Plan.Dt)
		if e.Params.CheckDivergence {
			return checkFinite(state)
		}
		return nil
	})

	if e.recorder != nil {
		e.recorder.ObserveRun(level, time.Since(start), steps, sampler.Len(), err)
	}
	if err != nil {
		runErr := &RunError{Level: level, Step: current, Err: err}
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())
		log.Warn(ctx, "run aborted", logging.Int("step", current), logging.Err(err))
		return model.SweepRun{}, runErr
	}

	run := model.SweepRun{
		Level:         level,
		NitrateSupply: supply,
		Steps:         steps,
		Samples:       sampler.Samples(),
		Final:         state.Clone(),
	}
	biomass := state.Biomass
	if last, ok := sampler.Last(); ok {
		biomass = last.Biomass
	}
	run.Summary = e.summarize(level, supply, biomass)

	if e.recorder != nil {
		e.recorder.SetFinalState(level, state.Nitrate, state.TotalBiomass())
	}
	span.SetAttributes(
		attribute.Int("samples", sampler.Len()),
		attribute.Float64("nitrate.final", state.Nitrate),
	)
	log.Info(ctx, "run finished",
		logging.Int("steps", steps),
		logging.Int("samples", sampler.Len()),
		logging.Float64("nitrate", state.Nitrate),
	)
	return run, nil
}

// summarize splits the sampled biomass by guild role, in group order.
func (e *SimulationEngine) summarize(level int, supply float64, biomass []float64) model.SummaryRecord {
	rec := model.SummaryRecord{
		Level:         level,
		NitrateSupply: supply,
		Autotrophs:    make([]float64, 0, summaryColumns),
		Heterotrophs:  make([]float64, 0, summaryColumns),
	}
	for _, g := range e.Web.Groups {
		switch {
		case g.Role == model.Autotroph && len(rec.Autotrophs) < summaryColumns:
			rec.Autotrophs = append(rec.Autotrophs, biomass[g.Index])
		case g.Role == model.Heterotroph && len(rec.Heterotrophs) < summaryColumns:
			rec.Heterotrophs = append(rec.Heterotrophs, biomass[g.Index])
		}
	}
	return rec
}

func progressFields(state model.SimulationState) []logging.Field {
	fields := []logging.Field{
		logging.Float64("time", state.ElapsedTime),
		logging.Float64("nitrate", state.Nitrate),
	}
	k := progressGroups
	if len(state.Biomass) < k {
		k = len(state.Biomass)
	}
	return append(fields, logging.Floats("biomass", append([]float64(nil), state.Biomass[:k]...)))
}
