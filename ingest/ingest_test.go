package ingest

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

const singleHeader = "P_ID,Date,Stage,Time,Vel_mean,Acc_mean"

func TestParseCSVSingleSubject(t *testing.T) {
	ing := New(nil)
	csv := singleHeader + "\nP001,2024-01-15,1,10.5,2.345678,1.234567\n"

	res, err := ing.ParseCSV(csv)
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("errors = %v", res.Errors)
	}
	if res.TotalRows != 1 || res.ValidRows != 1 || len(res.Records) != 1 {
		t.Fatalf("counts = %d/%d/%d, want 1/1/1", res.TotalRows, res.ValidRows, len(res.Records))
	}

	rec := res.Records[0]
	if rec.SubjectID != "P001" || rec.Date != "2024-01-15" || rec.Stage != 1 {
		t.Fatalf("record = %+v", rec)
	}
	if rec.Time != 10.5 || rec.VelMean != 2.345678 || rec.AccMean != 1.234567 {
		t.Fatalf("numeric fields lost precision: %+v", rec)
	}
}

func TestParseCSVDualSubject(t *testing.T) {
	ing := New(nil)
	csv := "P_ID,Date,Stage,Time,Vel_mean,Acc_mean,P_ID2,Date,Stage,Time,Vel_mean,Acc_mean\n" +
		"P001,2024-01-15,1,10.5,2.0,1.0,P002,2024-01-16,1,9.8,2.2,1.2\n"

	res, err := ing.ParseCSV(csv)
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("errors = %v", res.Errors)
	}
	if res.TotalRows != 1 || res.ValidRows != 2 {
		t.Fatalf("counts = %d/%d, want 1 row producing 2 records", res.TotalRows, res.ValidRows)
	}
	if res.Records[0].SubjectID != "P001" || res.Records[1].SubjectID != "P002" {
		t.Fatalf("record order = %q, %q; subject 1 must precede subject 2",
			res.Records[0].SubjectID, res.Records[1].SubjectID)
	}
	if res.Records[1].Time != 9.8 {
		t.Fatalf("second record = %+v, want fields from cells 6-11", res.Records[1])
	}
}

func TestParseCSVDualSubjectHalfFailure(t *testing.T) {
	ing := New(nil)
	csv := "P_ID,Date,Stage,Time,Vel_mean,Acc_mean,P_ID2,Date,Stage,Time,Vel_mean,Acc_mean\n" +
		"P001,2024-01-15,1,10.5,2.0,1.0,,2024-01-16,1,9.8,2.2,1.2\n"

	res, err := ing.ParseCSV(csv)
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(res.Records) != 1 || res.Records[0].SubjectID != "P001" {
		t.Fatalf("records = %+v, want subject 1 to survive alone", res.Records)
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "subject 2") {
		t.Fatalf("errors = %v, want one error attributed to subject 2", res.Errors)
	}
}

func TestTabDelimiterAutoDetect(t *testing.T) {
	comma := singleHeader + "\nP001,2024-01-15,1,10.5,2.0,1.0\n"
	tab := strings.ReplaceAll(comma, ",", "\t")

	resComma, err := New(nil).ParseCSV(comma)
	if err != nil {
		t.Fatalf("comma: %v", err)
	}
	resTab, err := New(nil).ParseCSV(tab)
	if err != nil {
		t.Fatalf("tab: %v", err)
	}
	if !reflect.DeepEqual(resComma, resTab) {
		t.Fatalf("tab input diverged:\n%+v\n%+v", resComma, resTab)
	}
}

func TestParseCSVErrorIsolation(t *testing.T) {
	ing := New(nil)
	csv := singleHeader + "\n" +
		"P001,2024-01-15,1,10.5,2.0,1.0\n" +
		"P001,2024-01-15,2,abc,2.1,1.1\n" +
		"P001,2024-01-15,3,11.0,2.0,1.0\n" +
		"P002,2024-01-16,1,9.8,2.2,1.2\n" +
		"P002,2024-01-16,2,10.1,2.1,1.1\n"

	res, err := ing.ParseCSV(csv)
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(res.Records) != 4 {
		t.Fatalf("records = %d, want the 4 good rows", len(res.Records))
	}
	if len(res.Errors) != 1 {
		t.Fatalf("errors = %v, want exactly one", res.Errors)
	}
	if !strings.Contains(res.Errors[0], "row 3") || !strings.Contains(res.Errors[0], "time") {
		t.Fatalf("error = %q, want row 3 time failure", res.Errors[0])
	}
}

func TestParseCSVQuotedComma(t *testing.T) {
	ing := New(nil)
	csv := singleHeader + "\n\"P001,A\",2024-01-15,1,10.5,2.0,1.0\n"

	res, err := ing.ParseCSV(csv)
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(res.Records) != 1 || res.Records[0].SubjectID != "P001,A" {
		t.Fatalf("records = %+v, want quoted comma kept inside the field", res.Records)
	}
}

func TestParseCSVShortRow(t *testing.T) {
	ing := New(nil)
	res, err := ing.ParseCSV(singleHeader + "\nP001,2024-01-15,1\n")
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(res.Records) != 0 {
		t.Fatalf("records = %+v, want none", res.Records)
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "not enough fields") {
		t.Fatalf("errors = %v", res.Errors)
	}
}

func TestParseCSVTooFewLines(t *testing.T) {
	_, err := New(nil).ParseCSV(singleHeader + "\n")
	if !errors.Is(err, ErrTooFewLines) {
		t.Fatalf("err = %v, want ErrTooFewLines", err)
	}
}

func TestLenientDateValidation(t *testing.T) {
	ing := New(nil)
	res, err := ing.ParseCSV(singleHeader + "\nP001,notadate,1,10.5,2.0,1.0\n")
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("errors = %v, unparseable dates must pass", res.Errors)
	}
	if len(res.Records) != 1 || res.Records[0].Date != "notadate" {
		t.Fatalf("records = %+v, want the original date kept", res.Records)
	}
}

func TestCompactDateNormalizedDuringIngest(t *testing.T) {
	ing := New(nil)
	res, err := ing.ParseCSV(singleHeader + "\nP001,20725,1,10.5,2.0,1.0\n")
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(res.Records) != 1 || res.Records[0].Date != "2025-07-25" {
		t.Fatalf("records = %+v, want compact date normalized to 2025-07-25", res.Records)
	}
}

func TestLastResult(t *testing.T) {
	ing := New(nil)
	if ing.LastResult() != nil {
		t.Fatal("fresh ingestor must have no last result")
	}
	res, err := ing.ParseCSV(singleHeader + "\nP001,2024-01-15,1,10.5,2.0,1.0\n")
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if ing.LastResult() != res {
		t.Fatal("last result must be the latest parse")
	}
}
