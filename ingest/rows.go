package ingest

import (
	"fmt"

	agility "agility-analyzer"
)

// Spreadsheet-derived rows report errors with the sheet's own numbering:
// row 1 is the header, data starts at row 2.
const sheetHeaderOffset = 2

// FromRows ingests loosely-typed row objects, one logical record per row,
// resolving each field through the alias table. Zero rows is a fatal input
// error; individual bad rows are not.
func (ing *Ingestor) FromRows(rows []map[string]any) (*Result, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("ingest rows: %w", ErrNoRows)
	}

	res := &Result{}
	for i, row := range rows {
		ref := RowRef{Number: i + sheetHeaderOffset}

		rec, err := recordFromRow(row)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", ref, err))
			continue
		}
		if errs := ing.validate(&rec, ref); len(errs) > 0 {
			res.Errors = append(res.Errors, errs...)
			continue
		}
		res.Records = append(res.Records, rec)
	}

	res.TotalRows = len(rows)
	res.ValidRows = len(res.Records)
	ing.lastResult = res
	return res, nil
}

func recordFromRow(row map[string]any) (agility.PerformanceRecord, error) {
	var rec agility.PerformanceRecord
	rec.SubjectID = lookupField(row, "p_id")
	rec.Date = lookupField(row, "date")

	stage, err := parseNumber(lookupField(row, "stage"), "stage")
	if err != nil {
		return rec, err
	}
	rec.Stage = int(stage)

	if rec.Time, err = parseNumber(lookupField(row, "time"), "time"); err != nil {
		return rec, err
	}
	if rec.VelMean, err = parseNumber(lookupField(row, "vel_mean"), "mean velocity"); err != nil {
		return rec, err
	}
	if rec.AccMean, err = parseNumber(lookupField(row, "acc_mean"), "mean acceleration"); err != nil {
		return rec, err
	}
	return rec, nil
}
