package core

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/signalsfoundry/foodweb-simulator/internal/logging"
	"github.com/signalsfoundry/foodweb-simulator/model"
)

func TestNewSimulationEngineReferencePlan(t *testing.T) {
	e := mustEngine(t, model.DefaultParameters())
	if e.Plan.StepMax != 1_000_000 || e.Plan.StepOut != 100_000 || e.Plan.StepOutMax != 10 {
		t.Fatalf("plan = %+v, want 1e6 steps sampled every 1e5, 10 samples", e.Plan)
	}
	if e.Levels() != 10 {
		t.Fatalf("Levels() = %d, want 10", e.Levels())
	}
}

func TestNewSimulationEngineRejectsInvalidParameters(t *testing.T) {
	cases := map[string]func(*model.Parameters){
		"zero dt":            func(p *model.Parameters) { p.Dt = 0 },
		"interval too long":  func(p *model.Parameters) { p.TimeOut = p.MaxTime * 2 },
		"interval below dt":  func(p *model.Parameters) { p.TimeOut = p.Dt / 10 },
		"pairing range":      func(p *model.Parameters) { p.Pairings = append(p.Pairings, model.Pairing{Prey: 0, Consumer: 9}) },
		"negative threshold": func(p *model.Parameters) { p.ExtinctionThreshold = -1 },
		"seed length":        func(p *model.Parameters) { p.SeedBiomass = p.SeedBiomass[:3] },
		"no levels":          func(p *model.Parameters) { p.SweepCount = 0 },
		"grazing mode":       func(p *model.Parameters) { p.Mode = model.GrazingMode(7) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := smallParams()
			mutate(&p)
			if _, err := NewSimulationEngine(p); !errors.Is(err, ErrInvalidConfiguration) {
				t.Fatalf("NewSimulationEngine error = %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}

func TestRunLevelSamplesOnSchedule(t *testing.T) {
	p := smallParams()
	e := mustEngine(t, p)

	run, err := e.RunLevel(context.Background(), 1)
	if err != nil {
		t.Fatalf("RunLevel error: %v", err)
	}
	if run.Steps != 1000 {
		t.Fatalf("Steps = %d, want 1000", run.Steps)
	}
	if len(run.Samples) != e.Plan.StepOutMax {
		t.Fatalf("len(Samples) = %d, want %d", len(run.Samples), e.Plan.StepOutMax)
	}
	for k, s := range run.Samples {
		want := float64(k + 1)
		if d := s.Time - want; d > 1e-9 || d < -1e-9 {
			t.Fatalf("sample %d time = %v, want %v", k, s.Time, want)
		}
	}
	if run.NitrateSupply != p.NitrateSupply(1) {
		t.Fatalf("NitrateSupply = %v, want %v", run.NitrateSupply, p.NitrateSupply(1))
	}
}

func TestRunLevelTrailingStepsAreNotSampled(t *testing.T) {
	p := smallParams()
	p.TimeOut = 3
	e := mustEngine(t, p)

	run, err := e.RunLevel(context.Background(), 0)
	if err != nil {
		t.Fatalf("RunLevel error: %v", err)
	}
	if run.Steps != 1000 || len(run.Samples) != 3 {
		t.Fatalf("steps = %d samples = %d, want 1000 and 3", run.Steps, len(run.Samples))
	}
	last := run.Samples[2]
	if run.Final.ElapsedTime <= last.Time {
		t.Fatalf("final time %v not past last sample %v", run.Final.ElapsedTime, last.Time)
	}
	// The summary is taken from the last sample, not the final state.
	if run.Summary.Autotrophs[0] != last.Biomass[0] || run.Summary.Heterotrophs[3] != last.Biomass[7] {
		t.Fatalf("summary %+v not taken from last sample %v", run.Summary, last.Biomass)
	}
}

func TestRunLevelIsDeterministic(t *testing.T) {
	e := mustEngine(t, smallParams())
	ctx := context.Background()

	first, err := e.RunLevel(ctx, 3)
	if err != nil {
		t.Fatalf("first RunLevel error: %v", err)
	}
	second, err := e.RunLevel(ctx, 3)
	if err != nil {
		t.Fatalf("second RunLevel error: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("repeated runs differ (-first +second):\n%s", diff)
	}
}

func TestHeterotrophAutotrophyZeroThroughoutRun(t *testing.T) {
	p := smallParams()
	p.MaxTime = 5
	p.TimeOut = p.Dt
	e := mustEngine(t, p)

	for _, level := range []int{0, 3} {
		run, err := e.RunLevel(context.Background(), level)
		if err != nil {
			t.Fatalf("level %d: RunLevel error: %v", level, err)
		}
		if len(run.Samples) != 500 {
			t.Fatalf("level %d: %d samples, want one per step", level, len(run.Samples))
		}
		for _, s := range run.Samples {
			for i := 1; i < len(s.Autotrophy); i += 2 {
				if s.Autotrophy[i] != 0 {
					t.Fatalf("level %d t=%v: Autotrophy[%d] = %v, want 0", level, s.Time, i, s.Autotrophy[i])
				}
			}
		}
	}
}

func TestZeroSupplyDrainsNitrate(t *testing.T) {
	p := smallParams()
	p.MaxTime = 200
	p.TimeOut = 10
	e := mustEngine(t, p)
	ctx := context.Background()

	starved, err := e.RunWithSupply(ctx, 0, 0)
	if err != nil {
		t.Fatalf("zero supply run error: %v", err)
	}
	fed, err := e.RunWithSupply(ctx, 1, 0.5)
	if err != nil {
		t.Fatalf("positive supply run error: %v", err)
	}

	prev := p.SeedNitrate
	for _, s := range starved.Samples {
		if s.Nitrate > prev {
			t.Fatalf("nitrate rose from %v to %v at t=%v without supply", prev, s.Nitrate, s.Time)
		}
		prev = s.Nitrate
	}

	uptake := func(run model.SweepRun) float64 {
		sum := 0.0
		for _, s := range run.Samples {
			for _, a := range s.Autotrophy {
				sum += a
			}
		}
		return sum
	}
	if uptake(starved) >= uptake(fed) {
		t.Fatalf("sampled uptake without supply %v not below supplied run %v", uptake(starved), uptake(fed))
	}

	total := func(s model.SimulationState) float64 { return s.Nitrate + s.TotalBiomass() }
	if total(starved.Final) >= total(fed.Final) {
		t.Fatalf("total nitrogen without supply %v not below supplied run %v", total(starved.Final), total(fed.Final))
	}
}

func TestRunLevelReportsDivergence(t *testing.T) {
	p := smallParams()
	for i := range p.SeedBiomass {
		p.SeedBiomass[i] = 1e200
	}
	p.SeedScale = 1
	e := mustEngine(t, p)

	_, err := e.RunLevel(context.Background(), 2)
	if !errors.Is(err, ErrNumericalDivergence) {
		t.Fatalf("RunLevel error = %v, want ErrNumericalDivergence", err)
	}
	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("RunLevel error %T is not a *RunError", err)
	}
	if runErr.Level != 2 || runErr.Step != 0 {
		t.Fatalf("RunError = level %d step %d, want level 2 step 0", runErr.Level, runErr.Step)
	}

	// Without the check the run completes on non-finite values.
	p.CheckDivergence = false
	e = mustEngine(t, p)
	if _, err := e.RunLevel(context.Background(), 2); err != nil {
		t.Fatalf("RunLevel with divergence check disabled = %v", err)
	}
}

func TestSummarySplitsByRole(t *testing.T) {
	e := mustEngine(t, smallParams())

	run, err := e.RunLevel(context.Background(), 0)
	if err != nil {
		t.Fatalf("RunLevel error: %v", err)
	}
	last := run.Samples[len(run.Samples)-1]
	want := model.SummaryRecord{
		Level:         0,
		NitrateSupply: 0.02,
		Autotrophs:    []float64{last.Biomass[0], last.Biomass[2], last.Biomass[4], last.Biomass[6]},
		Heterotrophs:  []float64{last.Biomass[1], last.Biomass[3], last.Biomass[5], last.Biomass[7]},
	}
	if diff := cmp.Diff(want, run.Summary); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestSummaryWithFewerGroups(t *testing.T) {
	p := smallParams()
	p.CellVolumes = p.CellVolumes[:2]
	p.Autotrophic = p.Autotrophic[:2]
	p.SeedBiomass = p.SeedBiomass[:2]
	p.Pairings = p.Pairings[:1]
	e := mustEngine(t, p)

	run, err := e.RunLevel(context.Background(), 0)
	if err != nil {
		t.Fatalf("RunLevel error: %v", err)
	}
	if len(run.Summary.Autotrophs) != 1 || len(run.Summary.Heterotrophs) != 1 {
		t.Fatalf("summary = %+v, want one column per role", run.Summary)
	}
}

type recordedRun struct {
	level, steps, samples int
	err                   error
}

type fakeRecorder struct {
	started []int
	runs    []recordedRun
	final   map[int]float64
}

func (r *fakeRecorder) StartRun(level int) { r.started = append(r.started, level) }

func (r *fakeRecorder) ObserveRun(level int, _ time.Duration, steps, samples int, err error) {
	r.runs = append(r.runs, recordedRun{level: level, steps: steps, samples: samples, err: err})
}

func (r *fakeRecorder) SetFinalState(level int, nitrate, _ float64) {
	if r.final == nil {
		r.final = make(map[int]float64)
	}
	r.final[level] = nitrate
}

func TestRunLevelNotifiesRecorder(t *testing.T) {
	rec := &fakeRecorder{}
	e := mustEngine(t, smallParams(), WithRecorder(rec))

	run, err := e.RunLevel(context.Background(), 1)
	if err != nil {
		t.Fatalf("RunLevel error: %v", err)
	}
	if len(rec.started) != 1 || rec.started[0] != 1 {
		t.Fatalf("started = %v, want [1]", rec.started)
	}
	if len(rec.runs) != 1 || rec.runs[0].steps != 1000 || rec.runs[0].samples != 10 || rec.runs[0].err != nil {
		t.Fatalf("observed runs = %+v", rec.runs)
	}
	if rec.final[1] != run.Final.Nitrate {
		t.Fatalf("final nitrate = %v, want %v", rec.final[1], run.Final.Nitrate)
	}
}

func TestRunLevelLogsProgressPerSample(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(logging.Config{Level: "info", Format: "json", Output: &buf})
	e := mustEngine(t, smallParams(), WithLogger(log))

	if _, err := e.RunLevel(context.Background(), 0); err != nil {
		t.Fatalf("RunLevel error: %v", err)
	}
	out := buf.String()
	if got := strings.Count(out, `"msg":"progress"`); got != 10 {
		t.Fatalf("progress lines = %d, want 10\n%s", got, out)
	}
	if !strings.Contains(out, `"msg":"run finished"`) {
		t.Fatalf("missing run finished line:\n%s", out)
	}
}
