package ingest

import (
	"errors"
	"strings"
	"testing"
)

func TestFromRowsAliasResolution(t *testing.T) {
	ing := New(nil)
	rows := []map[string]any{
		{"pid": "P001", "DATE": "2024-01-15", "STAGE": 1, "TIME": 10.5, "velocity": 2.0, "acceleration": 1.0},
	}

	res, err := ing.FromRows(rows)
	if err != nil {
		t.Fatalf("FromRows: %v", err)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("errors = %v", res.Errors)
	}
	rec := res.Records[0]
	if rec.SubjectID != "P001" || rec.Date != "2024-01-15" || rec.Stage != 1 || rec.Time != 10.5 {
		t.Fatalf("record = %+v, aliases not resolved", rec)
	}
}

func TestFromRowsFirstAliasWins(t *testing.T) {
	ing := New(nil)
	rows := []map[string]any{
		{"P_ID": "primary", "pid": "fallback", "Date": "2024-01-15", "Stage": 1, "Time": 1.0, "Vel_mean": 1.0, "Acc_mean": 1.0},
	}
	res, err := ing.FromRows(rows)
	if err != nil {
		t.Fatalf("FromRows: %v", err)
	}
	if res.Records[0].SubjectID != "primary" {
		t.Fatalf("subject = %q, want the first alias in lookup order", res.Records[0].SubjectID)
	}
}

func TestFromRowsSheetNumbering(t *testing.T) {
	ing := New(nil)
	rows := []map[string]any{
		{"P_ID": "P001", "Date": "2024-01-15", "Stage": 1, "Time": "bad", "Vel_mean": 2.0, "Acc_mean": 1.0},
	}
	res, err := ing.FromRows(rows)
	if err != nil {
		t.Fatalf("FromRows: %v", err)
	}
	// Sheet row 1 is the header, so the first data row reports as row 2.
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "row 2") {
		t.Fatalf("errors = %v, want row 2 attribution", res.Errors)
	}
}

func TestFromRowsEmpty(t *testing.T) {
	_, err := New(nil).FromRows(nil)
	if !errors.Is(err, ErrNoRows) {
		t.Fatalf("err = %v, want ErrNoRows", err)
	}
}
