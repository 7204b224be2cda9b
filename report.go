package agility

import (
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"strings"
)

// Threshold constants for the qualitative flags. The single-subject and
// comparison paths intentionally use different cutoffs for velocity and
// acceleration; both sets are kept as-is pending product clarification.
const (
	longDurationSeconds = 4.0

	lowVelocityBullet   = 0.15
	lowVelocityStrength = 0.2
	lowVelocityDrill    = 0.2

	lowAccelerationBullet   = 0.4
	lowAccelerationStrength = 0.6
	lowAccelerationDrill    = 0.5

	// Mean-time gaps below these are reported as comparable. The combined
	// analysis and the compact report use different epsilons.
	combinedTimeEpsilon = 0.05
	compactTimeEpsilon  = 0.02

	// Per-stage time gap that earns a stage a callout in comparisons.
	stageGapSeconds = 0.06

	comparisonVelGap = 0.02
	comparisonAccGap = 0.08

	minReliableSampleCount = 10
)

// RandomSource supplies the randomness used to vary report phrasing when no
// subject identifier is available. *rand.Rand satisfies it.
type RandomSource interface {
	Intn(n int) int
	Float64() float64
	Shuffle(n int, swap func(i, j int))
}

// subjectVariant derives a stable phrasing variant (0..2) from a subject id
// so the same athlete always gets the same template.
func subjectVariant(subjectID string) int {
	sum := 0
	for _, b := range []byte(subjectID) {
		sum += int(b)
	}
	return sum % 3
}

func seededSource(subjectID string) RandomSource {
	sum := int64(0)
	for _, b := range []byte(subjectID) {
		sum = sum*31 + int64(b)
	}
	return rand.New(rand.NewSource(sum))
}

// UploadSuggestions produces heuristic data-quality feedback for a freshly
// ingested batch: parse trouble, duplicates, spread summaries and outliers.
// It never fails; an empty batch yields the insufficient-data notice.
func UploadSuggestions(agg *Aggregates, parseErrorCount int) []string {
	var out []string

	if parseErrorCount > 0 {
		out = append(out, fmt.Sprintf(
			"Detected %d parse errors; fix the formatting or missing values in the source file first.",
			parseErrorCount))
	}

	if agg == nil || agg.SampleCount == 0 {
		out = append(out, "The dataset is empty, no further suggestions are available.")
		return out
	}

	if n := len(agg.DuplicateKeys); n > 0 {
		out = append(out, fmt.Sprintf(
			"Found %d duplicate groups (same subject, date and stage); check for repeat imports or double data entry.", n))
	}

	if s := agg.TimeSpread; s != nil {
		out = append(out, fmt.Sprintf("Time: mean %.2f, standard deviation %.2f.", s.Mean, s.SD))
		if n := len(agg.TimeOutliers); n > 0 {
			examples := make([]string, 0, 3)
			for _, r := range agg.TimeOutliers {
				if len(examples) == 3 {
					break
				}
				examples = append(examples, fmt.Sprintf("(%s, %s, stage %d, time %g)", r.SubjectID, r.Date, r.Stage, r.Time))
			}
			out = append(out, fmt.Sprintf(
				"Found %d time outliers worth reviewing. For example: %s", n, strings.Join(examples, "; ")))
		}
	}

	if s := agg.VelSpread; s != nil {
		out = append(out, fmt.Sprintf("Mean velocity: mean %.3f, standard deviation %.3f.", s.Mean, s.SD))
		if n := len(agg.VelOutliers); n > 0 {
			out = append(out, fmt.Sprintf(
				"Found %d velocity outliers (beyond 3 standard deviations); check the sensor or the data entry.", n))
		}
	}

	if s := agg.AccSpread; s != nil {
		out = append(out, fmt.Sprintf("Mean acceleration: mean %.3f, standard deviation %.3f.", s.Mean, s.SD))
		if n := len(agg.AccOutliers); n > 0 {
			out = append(out, fmt.Sprintf(
				"Found %d acceleration outliers (beyond 3 standard deviations); confirm the units and measurement setup.", n))
		}
	}

	if agg.SampleCount < minReliableSampleCount {
		out = append(out, "The sample count is low; collect more trials to improve statistical reliability.")
	} else {
		out = append(out, "The sample volume supports basic statistical analysis; proceed with grouped comparison or visual inspection as needed.")
	}

	return out
}

// SubjectFeedback produces the single-paragraph assessment for one subject:
// overall means, the weakest stage, and how many stages run above average.
func SubjectFeedback(agg *Aggregates) []string {
	var out []string
	if agg == nil || agg.SampleCount == 0 {
		out = append(out, "Insufficient data for this subject; no assessment is available.")
		return out
	}

	if agg.Imbalanced {
		out = append(out, "Detected stage imbalance (some stages carry far more samples than others); weight or resample before comparing stages.")
	}

	var b strings.Builder
	if agg.Metrics.AvgTime != nil {
		fmt.Fprintf(&b, "Mean time %.2fs, ", *agg.Metrics.AvgTime)
	}
	if agg.Metrics.AvgVel != nil {
		fmt.Fprintf(&b, "mean velocity %.3f, ", *agg.Metrics.AvgVel)
	}
	if agg.Metrics.AvgAcc != nil {
		fmt.Fprintf(&b, "mean acceleration %.3f.", *agg.Metrics.AvgAcc)
	}

	if worst, ok := worstStage(agg.PerStage); ok {
		fmt.Fprintf(&b,
			" The weakest split is stage %s (%.2fs); target it with segment work such as short sprints and tempo runs to build speed and explosiveness.",
			worst.key, worst.time)
	} else {
		b.WriteString(" No stage stands out as a clear weakness; focus on technique details and rhythm work, and keep logging every trial to track improvement.")
	}

	if agg.Metrics.AvgTime != nil {
		above := 0
		for _, st := range agg.PerStage {
			if st.AvgTime > *agg.Metrics.AvgTime*1.05 {
				above++
			}
		}
		if above > 0 {
			fmt.Fprintf(&b, " %d stages run above the overall average; concentrating training on them is the fastest way to cut total time.", above)
		}
	}

	out = append(out, strings.TrimSpace(b.String()))
	return out
}

type stageExtreme struct {
	key  string
	time float64
}

func worstStage(perStage map[string]StageStats) (stageExtreme, bool) {
	var worst stageExtreme
	found := false
	for _, key := range SortedStageKeys(perStage) {
		st := perStage[key]
		if !found || st.AvgTime > worst.time {
			worst = stageExtreme{key: key, time: st.AvgTime}
			found = true
		}
	}
	return worst, found
}

func bestStage(perStage map[string]StageStats) (stageExtreme, bool) {
	var best stageExtreme
	found := false
	for _, key := range SortedStageKeys(perStage) {
		st := perStage[key]
		if !found || st.AvgTime < best.time {
			best = stageExtreme{key: key, time: st.AvgTime}
			found = true
		}
	}
	return best, found
}

// PlayerComment builds a varied strengths/weaknesses comment for one subject,
// optionally against a comparison subject. Phrasing is selected by a stable
// hash of the subject id so the same athlete always reads the same; rng is
// only consulted when no id is available.
func PlayerComment(agg, other *Aggregates, subjectID string, rng RandomSource) string {
	if agg == nil || agg.SampleCount == 0 {
		return "Insufficient data for this subject; no comment is available."
	}
	if rng == nil {
		rng = seededSource(subjectID)
	}

	avgTime := agg.Metrics.AvgTime
	avgVel := agg.Metrics.AvgVel
	avgAcc := agg.Metrics.AvgAcc

	var strengths, weaknesses []string
	if avgTime != nil && other != nil && other.Metrics.AvgTime != nil {
		otherTime := *other.Metrics.AvgTime
		if *avgTime < otherTime-compactTimeEpsilon {
			strengths = append(strengths, "faster overall (shorter times)")
		} else if *avgTime > otherTime+compactTimeEpsilon {
			weaknesses = append(weaknesses, "times run long, needs more speed")
		}
	} else if avgTime != nil {
		if *avgTime < 1.0 {
			strengths = append(strengths, "short overall times")
		} else {
			weaknesses = append(weaknesses, "overall times run long")
		}
	}
	if avgVel != nil {
		if *avgVel > lowVelocityStrength {
			strengths = append(strengths, "high mean velocity")
		} else {
			weaknesses = append(weaknesses, "low mean velocity")
		}
	}
	if avgAcc != nil {
		if *avgAcc > lowAccelerationStrength {
			strengths = append(strengths, "solid acceleration")
		} else {
			weaknesses = append(weaknesses, "insufficient acceleration, add explosive strength work")
		}
	}

	problemStages := 0
	for _, st := range agg.PerStage {
		if avgTime != nil && avgVel != nil && st.AvgTime > *avgTime && st.AvgVel < *avgVel {
			problemStages++
		}
	}

	var intro strings.Builder
	fmt.Fprintf(&intro, "Overview for %s: ", subjectLabel(subjectID))
	if avgTime != nil {
		fmt.Fprintf(&intro, "mean time %.2f, ", *avgTime)
	}
	if avgVel != nil {
		fmt.Fprintf(&intro, "mean velocity %.3f, ", *avgVel)
	}
	if avgAcc != nil {
		fmt.Fprintf(&intro, "mean acceleration %.3f.", *avgAcc)
	}

	var bullets []string
	if avgTime != nil {
		if *avgTime > longDurationSeconds {
			bullets = append(bullets, fmt.Sprintf(
				"• Long durations: mean %.2fs; the first goal is trimming 0.1-0.3s off the total.", *avgTime))
		} else {
			bullets = append(bullets, fmt.Sprintf(
				"• Times look good: mean %.2fs; keep the training load and refine the details.", *avgTime))
		}
	}
	if avgVel != nil {
		if *avgVel < lowVelocityBullet {
			bullets = append(bullets, fmt.Sprintf(
				"• Low mean velocity (%.3f); recommend adding short-distance acceleration and technique work.", *avgVel))
		} else {
			bullets = append(bullets, fmt.Sprintf(
				"• Mean velocity is acceptable (%.3f); focus on consistency work.", *avgVel))
		}
	}
	if avgAcc != nil && *avgAcc < lowAccelerationBullet {
		bullets = append(bullets, fmt.Sprintf(
			"• Insufficient acceleration (%.3f); recommend more strength and explosive training.", *avgAcc))
	}
	if len(strengths) > 0 {
		bullets = append(bullets, "• Strengths: "+strings.Join(strengths, "; ")+".")
	}
	if len(weaknesses) > 0 {
		bullets = append(bullets, "• Weaknesses: "+strings.Join(weaknesses, "; ")+".")
	}
	if problemStages > 0 {
		bullets = append(bullets, fmt.Sprintf(
			"• %d stages run above the mean time with below-mean velocity; recommend targeted short sprints and rhythm work.", problemStages))
	}
	if best, ok := bestStage(agg.PerStage); ok {
		bullets = append(bullets, fmt.Sprintf("• Best split: stage %s (%.2fs).", best.key, best.time))
	}
	if worst, ok := worstStage(agg.PerStage); ok {
		bullets = append(bullets, fmt.Sprintf(
			"• Weakest split: stage %s (%.2fs); recommend segment training on it.", worst.key, worst.time))
	}

	var drills []string
	if avgVel != nil && *avgVel < lowVelocityDrill {
		drills = append(drills, "short sprints (6-15m) x6 with 90s rest, focusing on the start and acceleration")
	}
	if avgAcc != nil && *avgAcc < lowAccelerationDrill {
		drills = append(drills, "resisted or loaded starts, 4-6 sets")
	}
	if len(drills) == 0 {
		drills = append(drills, "keep the current program and log every trial time to monitor progress")
	}

	variant := 0
	if subjectID != "" {
		variant = subjectVariant(subjectID)
	} else {
		variant = rng.Intn(3)
	}

	introText := strings.TrimSpace(intro.String())
	introTemplates := []string{
		introText,
		introText + " Short recommendations follow:",
		fmt.Sprintf("Observations for %s:\n%s", subjectLabel(subjectID), introText),
	}
	bulletTemplates := [][]string{
		bullets,
		replaceAll(bullets, "recommend", "recommend (priority):"),
		replaceAll(bullets, "•", "-"),
	}

	pool := append([]string(nil), drills...)
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	drillCount := 1 + variant
	if drillCount > 3 {
		drillCount = 3
	}
	if drillCount > len(pool) {
		drillCount = len(pool)
	}

	paras := []string{introTemplates[variant%len(introTemplates)], "Key recommendations:"}
	paras = append(paras, bulletTemplates[variant%len(bulletTemplates)]...)
	paras = append(paras, "Recommended drills: "+strings.Join(pool[:drillCount], "; "))

	// With no subject id the ordering itself is allowed to vary.
	if subjectID == "" && rng.Float64() < 0.5 {
		for i, j := 0, len(paras)-1; i < j; i, j = i+1, j-1 {
			paras[i], paras[j] = paras[j], paras[i]
		}
	}

	return strings.Join(paras, "\n\n")
}

func replaceAll(lines []string, old, new string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.Replace(l, old, new, 1)
	}
	return out
}

// CombinedAnalysis builds the free-form two-subject comparison: a summary,
// key metric lines, stage highlights, prioritized recommendations and a
// fixed drill list. It is deterministic and never fails.
func CombinedAnalysis(a, b *Aggregates, idA, idB string) string {
	am, bm := safeMetrics(a), safeMetrics(b)

	var summary string
	switch {
	case am.AvgTime != nil && bm.AvgTime != nil:
		diff := *bm.AvgTime - *am.AvgTime
		absd := math.Abs(diff)
		switch {
		case absd < combinedTimeEpsilon:
			summary = fmt.Sprintf("%s and %s perform comparably (mean time %.2fs vs %.2fs).",
				subjectLabel(idA), subjectLabel(idB), *am.AvgTime, *bm.AvgTime)
		case diff > 0:
			summary = fmt.Sprintf("%s is faster overall by %.2fs (%.2fs vs %.2fs).",
				subjectLabel(idA), absd, *am.AvgTime, *bm.AvgTime)
		default:
			summary = fmt.Sprintf("%s is faster overall by %.2fs (%.2fs vs %.2fs).",
				subjectLabel(idB), absd, *bm.AvgTime, *am.AvgTime)
		}
	default:
		summary = "Complete mean-time data is missing; suggestions are limited to the available metrics."
	}

	var keyLines []string
	if am.AvgTime != nil && bm.AvgTime != nil {
		keyLines = append(keyLines, fmt.Sprintf("mean time %.2fs / %.2fs", *am.AvgTime, *bm.AvgTime))
	}
	if am.AvgVel != nil && bm.AvgVel != nil {
		keyLines = append(keyLines, fmt.Sprintf("mean velocity %.3f / %.3f", *am.AvgVel, *bm.AvgVel))
	}
	if am.AvgAcc != nil && bm.AvgAcc != nil {
		keyLines = append(keyLines, fmt.Sprintf("mean acceleration %.3f / %.3f", *am.AvgAcc, *bm.AvgAcc))
	}

	highlights := stageHighlights(a, b, idA, idB)

	var recs []string
	if am.AvgTime != nil && bm.AvgTime != nil {
		faster, slower := subjectLabel(idA), subjectLabel(idB)
		if *am.AvgTime >= *bm.AvgTime {
			faster, slower = subjectLabel(idB), subjectLabel(idA)
		}
		recs = append(recs, fmt.Sprintf(
			"Short-term priority: %s can borrow %s's start and early-acceleration strategy; emphasize explosive starts (6-10m short sprints).",
			slower, faster))
	}
	if am.AvgVel != nil && bm.AvgVel != nil {
		if *am.AvgVel+comparisonVelGap < *bm.AvgVel {
			recs = append(recs, fmt.Sprintf("%s's velocity is notably lower; add short-distance technique and speed work.", subjectLabel(idA)))
		} else if *bm.AvgVel+comparisonVelGap < *am.AvgVel {
			recs = append(recs, fmt.Sprintf("%s's velocity is notably lower; add short-distance technique and speed work.", subjectLabel(idB)))
		}
	}
	if am.AvgAcc != nil && bm.AvgAcc != nil {
		if *am.AvgAcc+comparisonAccGap < *bm.AvgAcc {
			recs = append(recs, fmt.Sprintf("%s's acceleration is weaker; prioritize strength and start work.", subjectLabel(idA)))
		} else if *bm.AvgAcc+comparisonAccGap < *am.AvgAcc {
			recs = append(recs, fmt.Sprintf("%s's acceleration is weaker; prioritize strength and start work.", subjectLabel(idB)))
		}
	}
	if len(highlights) > 0 {
		capped := highlights
		if len(capped) > 3 {
			capped = capped[:3]
		}
		recs = append(recs, "Targeted: train stage by stage, starting with the clearest gaps: "+strings.Join(capped, "; "))
	}

	drills := []string{
		"explosive short sprints: 6-10m x6, focusing on the start and posture, 60-90s rest",
		"segment repeats: pick the 1-2 slowest stages and run 4-6 sets of segment repeats",
		"strength work: squats/deadlifts 3-4 sets x 4-6 reps to build explosiveness",
	}

	var out []string
	out = append(out, "Combined comparison summary: "+summary)
	if len(keyLines) > 0 {
		out = append(out, "Key metrics: "+strings.Join(keyLines, "; "))
	}
	if len(highlights) > 0 {
		capped := highlights
		if len(capped) > 4 {
			capped = capped[:4]
		}
		out = append(out, "Stage highlights: "+strings.Join(capped, "; "))
	}
	if len(recs) > 0 {
		out = append(out, "Priority recommendations:\n- "+strings.Join(recs, "\n- "))
	}
	out = append(out, "Recommended drills:\n- "+strings.Join(drills, "\n- "))

	return strings.Join(out, "\n\n")
}

func stageHighlights(a, b *Aggregates, idA, idB string) []string {
	if a == nil || b == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var keys []string
	for k := range a.PerStage {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	for k := range b.PerStage {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	tmp := make(map[string]StageStats, len(keys))
	for _, k := range keys {
		tmp[k] = StageStats{}
	}
	ordered := SortedStageKeys(tmp)

	var out []string
	for _, key := range ordered {
		sa, okA := a.PerStage[key]
		sb, okB := b.PerStage[key]
		if !okA || !okB {
			continue
		}
		d := sb.AvgTime - sa.AvgTime
		if math.Abs(d) > stageGapSeconds {
			better := subjectLabel(idA)
			if d <= 0 {
				better = subjectLabel(idB)
			}
			out = append(out, fmt.Sprintf("stage %s: %.2fs vs %.2fs, edge: %s", key, sa.AvgTime, sb.AvgTime, better))
		}
	}
	return out
}

// ComposeReport assembles the full display report for one or two subjects:
// the comparison line, the combined analysis, each subject's comment and a
// closing remark. Paragraphs are returned in display order.
func ComposeReport(a, b *Aggregates, idA, idB string, rng RandomSource) []string {
	var parts []string

	if a != nil && b != nil {
		am, bm := safeMetrics(a), safeMetrics(b)
		aTime, bTime := "N/A", "N/A"
		if am.AvgTime != nil {
			aTime = fmt.Sprintf("%.2f", *am.AvgTime)
		}
		if bm.AvgTime != nil {
			bTime = fmt.Sprintf("%.2f", *bm.AvgTime)
		}

		var compareNote string
		diff := 0.0
		if am.AvgTime != nil && bm.AvgTime != nil {
			diff = *bm.AvgTime - *am.AvgTime
			switch {
			case math.Abs(diff) < compactTimeEpsilon && diff > 0:
				compareNote = fmt.Sprintf("%s is marginally ahead of %s overall", subjectLabel(idA), subjectLabel(idB))
			case math.Abs(diff) < compactTimeEpsilon && diff < 0:
				compareNote = fmt.Sprintf("%s is marginally ahead of %s overall", subjectLabel(idB), subjectLabel(idA))
			case math.Abs(diff) < compactTimeEpsilon:
				compareNote = fmt.Sprintf("%s and %s are about even overall", subjectLabel(idA), subjectLabel(idB))
			case diff > 0:
				compareNote = fmt.Sprintf("%s is ahead of %s", subjectLabel(idA), subjectLabel(idB))
			default:
				compareNote = fmt.Sprintf("%s is ahead of %s", subjectLabel(idB), subjectLabel(idA))
			}
		}

		trailing := subjectLabel(idA)
		if diff > 0 {
			trailing = subjectLabel(idB)
		}
		parts = append(parts, fmt.Sprintf(
			"Subject comparison: %s mean time %ss, %s mean time %ss. %s; focus %s's training on short-distance explosiveness and technical consistency.",
			subjectLabel(idA), aTime, subjectLabel(idB), bTime, compareNote, trailing))

		parts = append(parts, "Combined analysis: "+CombinedAnalysis(a, b, idA, idB))
	}

	if a != nil {
		comment := PlayerComment(a, b, idA, rng)
		if b != nil {
			parts = append(parts, fmt.Sprintf("Suggestions for %s: %s", subjectLabel(idA), comment))
		} else {
			parts = append(parts, comment)
		}
	}
	if b != nil {
		comment := PlayerComment(b, a, idB, rng)
		parts = append(parts, fmt.Sprintf("Suggestions for %s: %s", subjectLabel(idB), comment))
	}

	parts = append(parts, "Remark: "+RandomRemark(idA, rng))

	return parts
}

var remarkTemplates = []string{
	"%s is training steadily; keep the current program and add short blocks on stage weaknesses.",
	"%s needs work on the start and acceleration; add resisted starts and short explosive sprints.",
	"%s shows good mean velocity but uneven splits; recommend segment repeat practice.",
	"%s has slightly low acceleration; prioritize strength and start technique to build explosiveness.",
	"%s has small gains available on total time; log every trial to track the trend.",
	"%s is inconsistent; add short-distance stability work to tighten the spread.",
}

// RandomRemark picks one closing remark. With a subject id the pick is
// stable; otherwise it is whatever rng supplies.
func RandomRemark(subjectID string, rng RandomSource) string {
	idx := 0
	if subjectID != "" {
		idx = subjectVariant(subjectID) % len(remarkTemplates)
	} else {
		if rng == nil {
			rng = seededSource("")
		}
		idx = rng.Intn(len(remarkTemplates))
	}
	return fmt.Sprintf(remarkTemplates[idx], subjectLabel(subjectID))
}

var numericIDPattern = regexp.MustCompile(`^P?(\d+)$`)

func subjectLabel(subjectID string) string {
	s := strings.TrimSpace(subjectID)
	if s == "" {
		return "subject X"
	}
	if m := numericIDPattern.FindStringSubmatch(s); m != nil {
		return "subject " + m[1]
	}
	return s
}

func safeMetrics(agg *Aggregates) Metrics {
	if agg == nil {
		return Metrics{}
	}
	return agg.Metrics
}
