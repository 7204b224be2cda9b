// Package ingest turns raw tabular performance data (CSV, tab-separated
// text, spreadsheet rows, FIT activity files) into validated
// agility.PerformanceRecord batches. Row-level problems never abort a batch;
// they accumulate as error strings next to whatever valid records were
// produced. Only structural failures (missing header, empty sheet) are fatal.
package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	agility "agility-analyzer"
)

var (
	// ErrTooFewLines is returned when delimited input lacks a header line
	// plus at least one data row.
	ErrTooFewLines = errors.New("input must contain a header line and at least one data row")
	// ErrNoRows is returned when structured input carries zero data rows.
	ErrNoRows = errors.New("input contains no data rows")
	// ErrNoSheets is returned when a workbook has no sheets.
	ErrNoSheets = errors.New("workbook contains no sheets")
)

// Result is the outcome of one ingest batch. ValidRows counts records
// produced, which in dual-subject mode can exceed TotalRows.
type Result struct {
	Records   []agility.PerformanceRecord `json:"records"`
	Errors    []string                    `json:"errors"`
	TotalRows int                         `json:"total_rows"`
	ValidRows int                         `json:"valid_rows"`
}

// Ingestor parses tabular input. It remembers the most recent successful
// result so report generation can reuse it when no live collection exists.
type Ingestor struct {
	log        logrus.FieldLogger
	lastResult *Result
}

// New returns an Ingestor that logs advisory notices through log. A nil log
// falls back to the standard logrus logger.
func New(log logrus.FieldLogger) *Ingestor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Ingestor{log: log}
}

// LastResult returns the most recent successful ingest result, or nil.
func (ing *Ingestor) LastResult() *Result { return ing.lastResult }

// ParseCSV parses delimited text with a header row. The delimiter is a comma
// unless the first line holds tabs and no commas, in which case tabs are
// rewritten to commas first. A header containing a P_ID2 column switches each
// data row to the dual-subject wide layout: twelve cells, two records.
func (ing *Ingestor) ParseCSV(text string) (*Result, error) {
	text = normalizeDelimiters(text)

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 {
		return nil, fmt.Errorf("parse csv: %w", ErrTooFewLines)
	}

	headers := splitLine(lines[0])
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}
	dual := false
	for _, h := range headers {
		if h == "P_ID2" || h == "p_id2" {
			dual = true
			break
		}
	}

	res := &Result{}
	for i := 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		cells := splitLine(line)
		rowNumber := i + 1

		switch {
		case dual && len(cells) >= 12:
			ing.ingestCells(res, cells[0:6], RowRef{Number: rowNumber, Label: "subject 1"})
			ing.ingestCells(res, cells[6:12], RowRef{Number: rowNumber, Label: "subject 2"})
		case len(cells) >= 6:
			ing.ingestCells(res, cells[0:6], RowRef{Number: rowNumber})
		default:
			res.Errors = append(res.Errors, fmt.Sprintf(
				"row %d: not enough fields (need at least 6, got %d)", rowNumber, len(cells)))
		}
	}

	res.TotalRows = len(lines) - 1
	res.ValidRows = len(res.Records)
	ing.lastResult = res
	return res, nil
}

// ingestCells builds one candidate record from six positional cells
// (subject id, date, stage, time, mean velocity, mean acceleration),
// validates it, and accumulates either the record or its errors.
func (ing *Ingestor) ingestCells(res *Result, cells []string, ref RowRef) {
	rec, err := recordFromCells(cells)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", ref, err))
		return
	}
	if errs := ing.validate(&rec, ref); len(errs) > 0 {
		res.Errors = append(res.Errors, errs...)
		return
	}
	res.Records = append(res.Records, rec)
}

func recordFromCells(cells []string) (agility.PerformanceRecord, error) {
	var rec agility.PerformanceRecord
	rec.SubjectID = strings.TrimSpace(cells[0])
	rec.Date = FormatDate(strings.TrimSpace(cells[1]))

	stage, err := parseNumber(cells[2], "stage")
	if err != nil {
		return rec, err
	}
	rec.Stage = int(stage)

	if rec.Time, err = parseNumber(cells[3], "time"); err != nil {
		return rec, err
	}
	if rec.VelMean, err = parseNumber(cells[4], "mean velocity"); err != nil {
		return rec, err
	}
	if rec.AccMean, err = parseNumber(cells[5], "mean acceleration"); err != nil {
		return rec, err
	}
	return rec, nil
}
