package export

import (
	"bytes"
	"strings"
	"testing"

	agility "agility-analyzer"
	"agility-analyzer/ingest"
)

func testRecords() []agility.PerformanceRecord {
	return []agility.PerformanceRecord{
		{ID: 1, SubjectID: "P001", Date: "2024-01-15", Stage: 1, Time: 10.5, VelMean: 2.345678, AccMean: 1.234567},
		{ID: 2, SubjectID: "P001", Date: "2024-01-15", Stage: 2, Time: 11.2, VelMean: 2.1, AccMean: 1.1},
		{ID: 3, SubjectID: "P002", Date: "2024-01-16", Stage: 1, Time: 9.8, VelMean: 2.2, AccMean: 1.2},
	}
}

func TestWriteCSVRoundTripsThroughIngest(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, testRecords()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	res, err := ingest.New(nil).ParseCSV(buf.String())
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("errors = %v", res.Errors)
	}
	if len(res.Records) != 3 {
		t.Fatalf("records = %d, want 3", len(res.Records))
	}
	got := res.Records[0]
	if got.SubjectID != "P001" || got.Time != 10.5 || got.VelMean != 2.345678 {
		t.Fatalf("round trip lost data: %+v", got)
	}
}

func TestSubjectSeries(t *testing.T) {
	series := SubjectSeries(testRecords(), "P001", MetricTime)
	if series.SeriesLabel != "P001 time" {
		t.Fatalf("label = %q", series.SeriesLabel)
	}
	want := []string{"stage 1", "stage 2"}
	if len(series.Labels) != 2 || series.Labels[0] != want[0] || series.Labels[1] != want[1] {
		t.Fatalf("labels = %v, want %v", series.Labels, want)
	}
	if series.Values[0] != 10.5 || series.Values[1] != 11.2 {
		t.Fatalf("values = %v", series.Values)
	}

	vel := SubjectSeries(testRecords(), "P001", MetricVel)
	if vel.Values[0] != 2.345678 {
		t.Fatalf("velocity series = %v", vel.Values)
	}
}

func TestMarshalParquet(t *testing.T) {
	data, err := MarshalParquet(testRecords())
	if err != nil {
		t.Fatalf("MarshalParquet: %v", err)
	}
	if len(data) == 0 || !strings.HasPrefix(string(data), "PAR1") {
		t.Fatalf("output does not look like a parquet file (%d bytes)", len(data))
	}
}
