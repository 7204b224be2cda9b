package ingest

import (
	"fmt"
	"io"
	"math"

	"github.com/tormoder/fit"

	agility "agility-analyzer"
)

// ParseFIT adapts a FIT activity file into per-stage records: one record per
// lap, laps numbered from 1, attributed to subjectID. Lap time comes from the
// timer when present, else elapsed time; mean acceleration is approximated as
// average speed over lap duration since FIT laps carry no acceleration field.
// The session start date stamps every record.
func (ing *Ingestor) ParseFIT(r io.Reader, subjectID string) (*Result, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode fit file: %w", err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("fit file is not an activity: %w", err)
	}
	if len(activity.Laps) == 0 {
		return nil, fmt.Errorf("ingest fit: %w", ErrNoRows)
	}

	date := ""
	if len(activity.Sessions) > 0 {
		if ts := activity.Sessions[0].StartTime; !ts.IsZero() {
			date = ts.UTC().Format("2006-01-02")
		}
	}

	res := &Result{}
	for i, lap := range activity.Laps {
		ref := RowRef{Number: i + 1, Label: "lap"}

		duration := lap.GetTotalTimerTimeScaled()
		if !finitePositive(duration) {
			duration = lap.GetTotalElapsedTimeScaled()
		}
		if !finitePositive(duration) {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: lap has no usable duration", ref))
			continue
		}

		speed := lap.GetEnhancedAvgSpeedScaled()
		if !finitePositive(speed) {
			speed = lap.GetAvgSpeedScaled()
		}
		if !finitePositive(speed) {
			speed = 0
		}

		rec := agility.PerformanceRecord{
			SubjectID: subjectID,
			Date:      date,
			Stage:     i + 1,
			Time:      duration,
			VelMean:   speed,
			AccMean:   speed / duration,
		}
		if errs := ing.validate(&rec, ref); len(errs) > 0 {
			res.Errors = append(res.Errors, errs...)
			continue
		}
		res.Records = append(res.Records, rec)
	}

	res.TotalRows = len(activity.Laps)
	res.ValidRows = len(res.Records)
	ing.lastResult = res
	return res, nil
}

func finitePositive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
