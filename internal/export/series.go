package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"

	"github.com/signalsfoundry/foodweb-simulator/model"
)

// seriesFields are the per-group columns of a series table, in order.
var seriesFields = []string{"bmass", "autotrophy", "heterotrophy", "predation", "respiration", "production"}

// SeriesFileName is the file a level's series is written to.
func SeriesFileName(level int) string {
	return fmt.Sprintf("level_%02d.csv", level)
}

// WriteSeriesCSV writes every sample of run as one row: time, nitrate, and
// for each per-group field one column per group.
func WriteSeriesCSV(w io.Writer, run model.SweepRun) error {
	n := 0
	if len(run.Samples) > 0 {
		n = len(run.Samples[0].Biomass)
	}

	header := []string{"time", "nitrate"}
	for _, field := range seriesFields {
		for i := 0; i < n; i++ {
			header = append(header, fmt.Sprintf("%s%d", field, i))
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	row := make([]string, 0, len(header))
	for _, s := range run.Samples {
		row = append(row[:0], formatFloat(s.Time), formatFloat(s.Nitrate))
		for _, col := range [][]float64{s.Biomass, s.Autotrophy, s.Heterotrophy, s.Predation, s.Respiration} {
			for i := 0; i < n; i++ {
				row = append(row, formatFloat(col[i]))
			}
		}
		for i := 0; i < n; i++ {
			row = append(row, formatFloat(s.Production(i)))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSeriesFile writes the series table of run to path.
func WriteSeriesFile(path string, run model.SweepRun) error {
	return writeFile(path, func(w io.Writer) error { return WriteSeriesCSV(w, run) })
}

// WriteSeriesFiles writes one series table per run into dir and returns the
// paths written.
func WriteSeriesFiles(dir string, runs []model.SweepRun) ([]string, error) {
	paths := make([]string, 0, len(runs))
	for _, run := range runs {
		path := filepath.Join(dir, SeriesFileName(run.Level))
		if err := WriteSeriesFile(path, run); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
