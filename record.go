// Package agility analyzes per-stage sprint measurements for one or two
// athletes and turns the aggregates into coaching suggestions.
package agility

import "math"

// PerformanceRecord is one timing sample: one athlete, one stage, one trial.
type PerformanceRecord struct {
	ID        int64   `json:"id"`
	SubjectID string  `json:"p_id"`
	Date      string  `json:"date"`
	Stage     int     `json:"stage"`
	Time      float64 `json:"time"`
	VelMean   float64 `json:"vel_mean"`
	AccMean   float64 `json:"acc_mean"`
}

// Subjects returns the distinct subject IDs in first-seen order.
func Subjects(records []PerformanceRecord) []string {
	seen := make(map[string]struct{}, 2)
	out := make([]string, 0, 2)
	for _, r := range records {
		if r.SubjectID == "" {
			continue
		}
		if _, ok := seen[r.SubjectID]; ok {
			continue
		}
		seen[r.SubjectID] = struct{}{}
		out = append(out, r.SubjectID)
	}
	return out
}

// BySubject filters records to a single subject, preserving order.
func BySubject(records []PerformanceRecord, subjectID string) []PerformanceRecord {
	out := make([]PerformanceRecord, 0, len(records))
	for _, r := range records {
		if r.SubjectID == subjectID {
			out = append(out, r)
		}
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
