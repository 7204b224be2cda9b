// Package export renders record collections into interchange formats
// (CSV, parquet) and chart-ready series.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	agility "agility-analyzer"
)

var csvHeader = []string{"P_ID", "Date", "Stage", "Time", "Vel_mean", "Acc_mean"}

// WriteCSV writes records as comma-separated text with the standard header,
// in collection order. The output round-trips through the ingestor.
func WriteCSV(w io.Writer, records []agility.PerformanceRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.SubjectID,
			r.Date,
			strconv.Itoa(r.Stage),
			strconv.FormatFloat(r.Time, 'g', -1, 64),
			strconv.FormatFloat(r.VelMean, 'g', -1, 64),
			strconv.FormatFloat(r.AccMean, 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes records to path in the format implied by its extension:
// .parquet for parquet, anything else CSV.
func WriteFile(path string, records []agility.PerformanceRecord) error {
	if filepath.Ext(path) == ".parquet" {
		data, err := MarshalParquet(records)
		if err != nil {
			return fmt.Errorf("marshal parquet: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCSV(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
