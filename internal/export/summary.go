// Package export writes sweep results as CSV tables and PNG plots.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/signalsfoundry/foodweb-simulator/model"
)

// SummaryColumns is the number of autotroph and heterotroph columns in the
// summary table.
const SummaryColumns = 4

// SummaryHeader is the fixed header of the summary table.
var SummaryHeader = []string{
	"nsupply",
	"bmass0", "bmass1", "bmass2", "bmass3",
	"hmass0", "hmass1", "hmass2", "hmass3",
}

// WriteSummaryCSV writes one row per record in the given order. Records with
// fewer than SummaryColumns groups of a role leave the remaining cells
// empty.
func WriteSummaryCSV(w io.Writer, records []model.SummaryRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SummaryHeader); err != nil {
		return err
	}
	row := make([]string, len(SummaryHeader))
	for _, rec := range records {
		row[0] = formatFloat(rec.NitrateSupply)
		fillColumns(row[1:1+SummaryColumns], rec.Autotrophs)
		fillColumns(row[1+SummaryColumns:], rec.Heterotrophs)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummaryFile writes the summary table to path, creating parent
// directories.
func WriteSummaryFile(path string, records []model.SummaryRecord) (err error) {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := WriteSummaryCSV(f, records); err != nil {
		return fmt.Errorf("write summary %s: %w", path, err)
	}
	return nil
}

func fillColumns(dst []string, values []float64) {
	for i := range dst {
		if i < len(values) {
			dst[i] = formatFloat(values[i])
		} else {
			dst[i] = ""
		}
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func create(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}
