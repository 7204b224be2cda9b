package ingest

import (
	"fmt"
	"math"

	agility "agility-analyzer"
)

// RowRef names a source row for error attribution. Label distinguishes the
// two halves of a dual-subject row.
type RowRef struct {
	Number int
	Label  string
}

func (r RowRef) String() string {
	if r.Label != "" {
		return fmt.Sprintf("row %d (%s)", r.Number, r.Label)
	}
	return fmt.Sprintf("row %d", r.Number)
}

// Advisory magnitude cutoffs. Values past these are suspicious but are only
// logged, never rejected.
const (
	advisoryTimeCeiling   = 100.0
	advisoryMotionCeiling = 50.0
)

// validate applies the hard rules in order and returns their error messages.
// A non-empty date that normalizes to a valid calendar date is rewritten in
// place; one that does not is let through with the original string, since
// legacy exports carry date tokens the heuristics cannot place.
func (ing *Ingestor) validate(rec *agility.PerformanceRecord, ref RowRef) []string {
	var errs []string

	if rec.SubjectID == "" {
		errs = append(errs, fmt.Sprintf("%s: subject id must not be empty", ref))
	}

	if rec.Date == "" {
		errs = append(errs, fmt.Sprintf("%s: date must not be empty", ref))
	} else {
		formatted := FormatDate(rec.Date)
		if IsValidDate(formatted) {
			rec.Date = formatted
		} else {
			ing.log.Warnf("%s: unrecognized date %q (normalized %q), keeping original", ref, rec.Date, formatted)
		}
	}

	if rec.Stage < 0 {
		errs = append(errs, fmt.Sprintf("%s: stage must be non-negative", ref))
	}
	if rec.Time < 0 {
		errs = append(errs, fmt.Sprintf("%s: time must be non-negative", ref))
	}

	if rec.Time > advisoryTimeCeiling {
		ing.log.Warnf("%s: unusually large time value: %g", ref, rec.Time)
	}
	if math.Abs(rec.VelMean) > advisoryMotionCeiling {
		ing.log.Warnf("%s: unusually large velocity value: %g", ref, rec.VelMean)
	}
	if math.Abs(rec.AccMean) > advisoryMotionCeiling {
		ing.log.Warnf("%s: unusually large acceleration value: %g", ref, rec.AccMean)
	}

	return errs
}
