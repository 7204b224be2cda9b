package agility

import (
	"math"
	"testing"
)

func scenarioRecords() []PerformanceRecord {
	return []PerformanceRecord{
		{SubjectID: "P001", Date: "2024-01-15", Stage: 1, Time: 10.5, VelMean: 2.0, AccMean: 1.0},
		{SubjectID: "P001", Date: "2024-01-15", Stage: 2, Time: 11.2, VelMean: 2.1, AccMean: 1.1},
		{SubjectID: "P002", Date: "2024-01-16", Stage: 1, Time: 9.8, VelMean: 2.2, AccMean: 1.2},
	}
}

func TestAggregateScenario(t *testing.T) {
	records := scenarioRecords()

	all := Aggregate(records)
	if all.SampleCount != 3 {
		t.Fatalf("sample count = %d, want 3", all.SampleCount)
	}
	if len(all.DuplicateKeys) != 0 {
		t.Fatalf("unexpected duplicate keys: %v", all.DuplicateKeys)
	}

	p1 := Aggregate(BySubject(records, "P001"))
	if p1.Metrics.AvgTime == nil {
		t.Fatal("P001 mean time is nil")
	}
	if got := *p1.Metrics.AvgTime; math.Abs(got-10.85) > 1e-9 {
		t.Fatalf("P001 mean time = %v, want 10.85", got)
	}
	if got := len(p1.PerStage); got != 2 {
		t.Fatalf("P001 stage count = %d, want 2", got)
	}
	if st := p1.PerStage["1"]; st.AvgTime != 10.5 || st.Count != 1 {
		t.Fatalf("P001 stage 1 = %+v", st)
	}

	p2 := Aggregate(BySubject(records, "P002"))
	if got := *p2.Metrics.AvgTime; got != 9.8 {
		t.Fatalf("P002 mean time = %v, want 9.8", got)
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	agg := Aggregate(BySubject(scenarioRecords(), "P999"))
	if agg.SampleCount != 0 {
		t.Fatalf("sample count = %d, want 0", agg.SampleCount)
	}
	if agg.Metrics.AvgTime != nil || agg.Metrics.AvgVel != nil || agg.Metrics.AvgAcc != nil {
		t.Fatalf("means must be absent for an empty set, got %+v", agg.Metrics)
	}
	if agg.TimeSpread != nil {
		t.Fatalf("spread must be absent for an empty set, got %+v", agg.TimeSpread)
	}
}

// Nine zeros plus a single 10: the deviant sits exactly 3 standard
// deviations from the mean, past the 2-sigma time cutoff but not past the
// 3-sigma velocity/acceleration cutoff.
func TestOutlierThresholdsDiffer(t *testing.T) {
	var records []PerformanceRecord
	for i := 0; i < 9; i++ {
		records = append(records, PerformanceRecord{
			SubjectID: "P001", Date: "2024-01-15", Stage: i,
			Time: 0, VelMean: 0, AccMean: 0,
		})
	}
	records = append(records, PerformanceRecord{
		SubjectID: "P001", Date: "2024-01-15", Stage: 9,
		Time: 10, VelMean: 10, AccMean: 10,
	})

	agg := Aggregate(records)
	if len(agg.TimeOutliers) != 1 || agg.TimeOutliers[0].Time != 10 {
		t.Fatalf("time outliers = %v, want exactly the deviant", agg.TimeOutliers)
	}
	if len(agg.VelOutliers) != 0 {
		t.Fatalf("velocity outliers = %v, want none at 3 sigma", agg.VelOutliers)
	}
	if len(agg.AccOutliers) != 0 {
		t.Fatalf("acceleration outliers = %v, want none at 3 sigma", agg.AccOutliers)
	}
}

func TestAggregateDuplicateKeys(t *testing.T) {
	records := []PerformanceRecord{
		{SubjectID: "P001", Date: "2024-01-15", Stage: 1, Time: 10.5, VelMean: 2.0, AccMean: 1.0},
		{SubjectID: "P001", Date: "2024-01-15", Stage: 1, Time: 10.6, VelMean: 2.0, AccMean: 1.0},
		{SubjectID: "P001", Date: "2024-01-15", Stage: 2, Time: 11.0, VelMean: 2.0, AccMean: 1.0},
	}
	agg := Aggregate(records)
	if len(agg.DuplicateKeys) != 1 {
		t.Fatalf("duplicate keys = %v, want one group", agg.DuplicateKeys)
	}
	dup := agg.DuplicateKeys[0]
	if dup.SubjectID != "P001" || dup.Date != "2024-01-15" || dup.Stage != 1 || dup.Count != 2 {
		t.Fatalf("duplicate key = %+v", dup)
	}
}

func TestStageImbalance(t *testing.T) {
	build := func(countA, countB int) *Aggregates {
		var records []PerformanceRecord
		for i := 0; i < countA; i++ {
			records = append(records, PerformanceRecord{SubjectID: "P001", Date: "2024-01-15", Stage: 1, Time: 1, VelMean: 1, AccMean: 1})
		}
		for i := 0; i < countB; i++ {
			records = append(records, PerformanceRecord{SubjectID: "P001", Date: "2024-01-15", Stage: 2, Time: 1, VelMean: 1, AccMean: 1})
		}
		return Aggregate(records)
	}

	if !build(21, 2).Imbalanced {
		t.Fatal("21:2 must flag imbalance")
	}
	if build(10, 1).Imbalanced {
		t.Fatal("10:1 must not flag imbalance (ratio not above 10)")
	}
	if build(5, 0).Imbalanced {
		t.Fatal("a single populated stage must not flag imbalance")
	}
}

func TestAggregateSkipsNonFiniteValues(t *testing.T) {
	records := []PerformanceRecord{
		{SubjectID: "P001", Date: "2024-01-15", Stage: 1, Time: 10, VelMean: math.NaN(), AccMean: 1},
		{SubjectID: "P001", Date: "2024-01-15", Stage: 2, Time: 12, VelMean: 2, AccMean: math.Inf(1)},
	}
	agg := Aggregate(records)
	if got := *agg.Metrics.AvgTime; got != 11 {
		t.Fatalf("mean time = %v, want 11", got)
	}
	if got := *agg.Metrics.AvgVel; got != 2 {
		t.Fatalf("mean velocity must ignore NaN samples, got %v", got)
	}
	if got := *agg.Metrics.AvgAcc; got != 1 {
		t.Fatalf("mean acceleration must ignore Inf samples, got %v", got)
	}
}

func TestSubjectsOrder(t *testing.T) {
	subjects := Subjects(scenarioRecords())
	if len(subjects) != 2 || subjects[0] != "P001" || subjects[1] != "P002" {
		t.Fatalf("subjects = %v, want [P001 P002] in first-seen order", subjects)
	}
}
