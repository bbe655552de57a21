package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/signalsfoundry/foodweb-simulator/model"
)

// ErrTooFewSamples is returned when a run has fewer than two samples to
// draw.
var ErrTooFewSamples = errors.New("at least two samples are required to plot")

// ErrNoFiniteSeries is returned when every group of a run holds NaN or
// infinite biomass.
var ErrNoFiniteSeries = errors.New("no group has a finite biomass series")

const (
	plotWidth  = 1024
	plotHeight = 512
)

// PlotFileName is the file a level's biomass plot is written to.
func PlotFileName(level int) string {
	return fmt.Sprintf("level_%02d.png", level)
}

// Roles returns the guild role of every group, in group order.
func Roles(groups []model.FunctionalGroup) []model.GuildRole {
	roles := make([]model.GuildRole, len(groups))
	for i, g := range groups {
		roles[i] = g.Role
	}
	return roles
}

// PlotBiomass renders the biomass time series of every group in run as a
// PNG. roles[i] is the role of group i; heterotrophs are drawn dashed and
// groups without a role are drawn as autotrophs. Groups whose series holds
// NaN or infinite values are left out.
func PlotBiomass(w io.Writer, run model.SweepRun, roles []model.GuildRole) error {
	if len(run.Samples) < 2 {
		return fmt.Errorf("level %d: %w", run.Level, ErrTooFewSamples)
	}

	series := biomassSeries(run, roles)
	if len(series) == 0 {
		return fmt.Errorf("level %d: %w", run.Level, ErrNoFiniteSeries)
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("level %d, nitrate supply %.3g", run.Level, run.NitrateSupply),
		Width:  plotWidth,
		Height: plotHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		XAxis: chart.XAxis{
			Name: "time (days)",
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.0f", v.(float64))
			},
		},
		YAxis: chart.YAxis{
			Name: "biomass (umol N/l)",
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.2e", v.(float64))
			},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}

	return graph.Render(chart.PNG, w)
}

// WritePlotFile renders the biomass plot of run to path. Nothing is written
// when the run cannot be plotted.
func WritePlotFile(path string, run model.SweepRun, roles []model.GuildRole) error {
	var buf bytes.Buffer
	if err := PlotBiomass(&buf, run, roles); err != nil {
		return err
	}
	return writeFile(path, func(w io.Writer) error {
		_, err := buf.WriteTo(w)
		return err
	})
}

// WritePlotFiles renders one biomass plot per run into dir and returns the
// paths written. A run that cannot be plotted does not stop the others; the
// joined errors are returned.
func WritePlotFiles(dir string, runs []model.SweepRun, roles []model.GuildRole) ([]string, error) {
	paths := make([]string, 0, len(runs))
	var errs []error
	for _, run := range runs {
		path := filepath.Join(dir, PlotFileName(run.Level))
		if err := WritePlotFile(path, run, roles); err != nil {
			errs = append(errs, err)
			continue
		}
		paths = append(paths, path)
	}
	return paths, errors.Join(errs...)
}

// biomassSeries builds one line per group with a finite biomass series.
func biomassSeries(run model.SweepRun, roles []model.GuildRole) []chart.Series {
	times := make([]float64, len(run.Samples))
	for k, s := range run.Samples {
		times[k] = s.Time
	}

	n := len(run.Samples[0].Biomass)
	series := make([]chart.Series, 0, n)
	for i := 0; i < n; i++ {
		ys := make([]float64, len(run.Samples))
		finite := true
		for k, s := range run.Samples {
			ys[k] = s.Biomass[i]
			if math.IsNaN(ys[k]) || math.IsInf(ys[k], 0) {
				finite = false
			}
		}
		if !finite {
			continue
		}
		role := model.Autotroph
		if i < len(roles) {
			role = roles[i]
		}
		style := chart.Style{StrokeColor: chart.GetDefaultColor(i), StrokeWidth: 2}
		if role == model.Heterotroph {
			style.StrokeDashArray = []float64{6, 3}
		}
		name := fmt.Sprintf("%s %d", role, i)
		series = append(series, chart.ContinuousSeries{
			Name:    name,
			XValues: times,
			YValues: ys,
			Style:   style,
		})
	}

	return series
}
