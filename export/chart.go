package export

import (
	"fmt"

	agility "agility-analyzer"
)

// Metric selects which record field feeds a chart series.
type Metric string

const (
	MetricTime Metric = "time"
	MetricVel  Metric = "vel_mean"
	MetricAcc  Metric = "acc_mean"
)

// ChartSeries is the shape a chart renderer consumes: parallel label and
// value sequences plus a series label.
type ChartSeries struct {
	Labels      []string  `json:"labels"`
	Values      []float64 `json:"values"`
	SeriesLabel string    `json:"seriesLabel"`
}

// SubjectSeries builds one subject's per-stage series for a metric, stages
// in numeric order, values as per-stage means.
func SubjectSeries(records []agility.PerformanceRecord, subjectID string, metric Metric) ChartSeries {
	agg := agility.Aggregate(agility.BySubject(records, subjectID))

	series := ChartSeries{
		SeriesLabel: fmt.Sprintf("%s %s", subjectID, metric),
	}
	for _, key := range agility.SortedStageKeys(agg.PerStage) {
		st := agg.PerStage[key]
		series.Labels = append(series.Labels, "stage "+key)
		switch metric {
		case MetricVel:
			series.Values = append(series.Values, st.AvgVel)
		case MetricAcc:
			series.Values = append(series.Values, st.AvgAcc)
		default:
			series.Values = append(series.Values, st.AvgTime)
		}
	}
	return series
}
