package agility

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

const (
	// Time samples are tight; two standard deviations already signals a bad rep.
	timeOutlierSigma = 2.0
	// Velocity and acceleration come from noisier sensors, so the net is wider.
	motionOutlierSigma = 3.0

	// Largest-to-smallest per-stage sample count ratio above which the
	// dataset is considered imbalanced.
	stageImbalanceRatio = 10.0
)

// Metrics holds whole-dataset means. A nil field means no sample carried
// that metric, which is distinct from a zero mean.
type Metrics struct {
	AvgTime *float64 `json:"avg_time,omitempty"`
	AvgVel  *float64 `json:"avg_vel,omitempty"`
	AvgAcc  *float64 `json:"avg_acc,omitempty"`
}

// StageStats is the per-stage breakdown of the same three means.
type StageStats struct {
	AvgTime float64 `json:"avg_time"`
	AvgVel  float64 `json:"avg_vel"`
	AvgAcc  float64 `json:"avg_acc"`
	Count   int     `json:"count"`
}

// MetricSpread is a population mean/standard deviation pair.
type MetricSpread struct {
	Mean float64 `json:"mean"`
	SD   float64 `json:"sd"`
}

// DuplicateKey identifies a (subject, date, stage) combination that occurs
// more than once, usually a re-entry or double import.
type DuplicateKey struct {
	SubjectID string `json:"p_id"`
	Date      string `json:"date"`
	Stage     int    `json:"stage"`
	Count     int    `json:"count"`
}

func (k DuplicateKey) String() string {
	return fmt.Sprintf("%s|%s|%d", k.SubjectID, k.Date, k.Stage)
}

// Aggregates is the derived statistics view of a record set. It is cheap to
// recompute and never persisted.
type Aggregates struct {
	Metrics     Metrics               `json:"metrics"`
	PerStage    map[string]StageStats `json:"per_stage"`
	StageCounts map[string]int        `json:"stage_counts"`

	TimeSpread *MetricSpread `json:"time_spread,omitempty"`
	VelSpread  *MetricSpread `json:"vel_spread,omitempty"`
	AccSpread  *MetricSpread `json:"acc_spread,omitempty"`

	TimeOutliers []PerformanceRecord `json:"time_outliers,omitempty"`
	VelOutliers  []PerformanceRecord `json:"vel_outliers,omitempty"`
	AccOutliers  []PerformanceRecord `json:"acc_outliers,omitempty"`

	DuplicateKeys []DuplicateKey `json:"duplicate_keys,omitempty"`
	Imbalanced    bool           `json:"imbalanced"`

	SampleCount int `json:"sample_count"`
}

// Aggregate computes the full statistics view for a record set. Filter with
// BySubject first for a single athlete's view. Metrics with no finite
// samples stay nil rather than reporting zero.
func Aggregate(records []PerformanceRecord) *Aggregates {
	agg := &Aggregates{
		PerStage:    make(map[string]StageStats),
		StageCounts: make(map[string]int),
		SampleCount: len(records),
	}

	var times, vels, accs []float64
	perStage := make(map[string]*stageAccum)
	keyCounts := make(map[DuplicateKey]int)

	for _, r := range records {
		if isFinite(r.Time) {
			times = append(times, r.Time)
		}
		if isFinite(r.VelMean) {
			vels = append(vels, r.VelMean)
		}
		if isFinite(r.AccMean) {
			accs = append(accs, r.AccMean)
		}

		stageKey := strconv.Itoa(r.Stage)
		agg.StageCounts[stageKey]++
		acc, ok := perStage[stageKey]
		if !ok {
			acc = &stageAccum{}
			perStage[stageKey] = acc
		}
		acc.add(r)

		keyCounts[DuplicateKey{SubjectID: r.SubjectID, Date: r.Date, Stage: r.Stage}]++
	}

	agg.Metrics = Metrics{
		AvgTime: meanOrNil(times),
		AvgVel:  meanOrNil(vels),
		AvgAcc:  meanOrNil(accs),
	}
	agg.TimeSpread = spreadOrNil(times)
	agg.VelSpread = spreadOrNil(vels)
	agg.AccSpread = spreadOrNil(accs)

	for key, acc := range perStage {
		agg.PerStage[key] = acc.stats()
	}

	for key, count := range keyCounts {
		if count > 1 {
			key.Count = count
			agg.DuplicateKeys = append(agg.DuplicateKeys, key)
		}
	}
	sort.Slice(agg.DuplicateKeys, func(i, j int) bool {
		return agg.DuplicateKeys[i].String() < agg.DuplicateKeys[j].String()
	})

	if agg.TimeSpread != nil {
		for _, r := range records {
			if isFinite(r.Time) && math.Abs(r.Time-agg.TimeSpread.Mean) > timeOutlierSigma*agg.TimeSpread.SD {
				agg.TimeOutliers = append(agg.TimeOutliers, r)
			}
		}
	}
	if agg.VelSpread != nil {
		for _, r := range records {
			if isFinite(r.VelMean) && math.Abs(r.VelMean-agg.VelSpread.Mean) > motionOutlierSigma*agg.VelSpread.SD {
				agg.VelOutliers = append(agg.VelOutliers, r)
			}
		}
	}
	if agg.AccSpread != nil {
		for _, r := range records {
			if isFinite(r.AccMean) && math.Abs(r.AccMean-agg.AccSpread.Mean) > motionOutlierSigma*agg.AccSpread.SD {
				agg.AccOutliers = append(agg.AccOutliers, r)
			}
		}
	}

	agg.Imbalanced = stageCountsImbalanced(agg.StageCounts)

	return agg
}

type stageAccum struct {
	times []float64
	vels  []float64
	accs  []float64
}

func (a *stageAccum) add(r PerformanceRecord) {
	if isFinite(r.Time) {
		a.times = append(a.times, r.Time)
	}
	if isFinite(r.VelMean) {
		a.vels = append(a.vels, r.VelMean)
	}
	if isFinite(r.AccMean) {
		a.accs = append(a.accs, r.AccMean)
	}
}

func (a *stageAccum) stats() StageStats {
	return StageStats{
		AvgTime: average(a.times),
		AvgVel:  average(a.vels),
		AvgAcc:  average(a.accs),
		Count:   len(a.times),
	}
}

func stageCountsImbalanced(counts map[string]int) bool {
	if len(counts) < 2 {
		return false
	}
	max, min := 0, math.MaxInt
	for _, c := range counts {
		if c > max {
			max = c
		}
		if c < min {
			min = c
		}
	}
	if min < 1 {
		min = 1
	}
	return float64(max)/float64(min) > stageImbalanceRatio
}

// SortedStageKeys returns stage keys in numeric order.
func SortedStageKeys(perStage map[string]StageStats) []string {
	keys := make([]string, 0, len(perStage))
	for k := range perStage {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.Atoi(keys[i])
		b, _ := strconv.Atoi(keys[j])
		return a < b
	})
	return keys
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

func meanOrNil(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	m := average(values)
	return &m
}

// Population statistics: divide by N, not N-1.
func spreadOrNil(values []float64) *MetricSpread {
	if len(values) == 0 {
		return nil
	}
	mean := average(values)
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return &MetricSpread{Mean: mean, SD: math.Sqrt(sum / float64(len(values)))}
}
