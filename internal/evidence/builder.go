package evidence

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/TbrosN/clarity/domain/core"
	"github.com/TbrosN/clarity/domain/insight"
	"github.com/TbrosN/clarity/domain/survey"
)

const (
	// highStressThreshold marks a log-day as high stress (1-5 scale)
	highStressThreshold = 4.0
	// minEffectSize gates candidates on the underlying 1-5 scale
	minEffectSize = 0.3
	// maxCandidates caps how many ranked candidates a payload retains
	maxCandidates = 8
	// sampleWeightCeiling is the bucket size at which score weighting saturates
	sampleWeightCeiling = 5.0
)

// Builder turns a window of daily logs into a fact registry and ranked
// candidate insights. Everything it emits is recomputed from scratch per
// request; facts are the only numbers downstream text may quote.
type Builder struct {
	catalog *survey.Catalog
	pairs   []pairSpec
}

// NewBuilder creates a builder over the given question catalog
func NewBuilder(catalog *survey.Catalog) *Builder {
	return &Builder{catalog: catalog, pairs: defaultPairs()}
}

// pairSpec defines one fixed behavior -> outcome comparison. The favorable
// and unfavorable predicates partition log-days into buckets; the neutral
// middle of the scale is intentionally counted in neither.
type pairSpec struct {
	id          string
	insightType string
	title       string
	behavior    string
	outcome     string
	behaviorKey core.MetricKey // empty when the behavior is derived sleep duration
	outcomeKey  core.MetricKey
	favorable   func(v float64) bool
	unfavorable func(v float64) bool
	sourceKeys  []core.MetricKey
	actionHint  string
}

func defaultPairs() []pairSpec {
	geq := func(bound float64) func(float64) bool {
		return func(v float64) bool { return v >= bound }
	}
	leq := func(bound float64) func(float64) bool {
		return func(v float64) bool { return v <= bound }
	}
	lt := func(bound float64) func(float64) bool {
		return func(v float64) bool { return v < bound }
	}

	return []pairSpec{
		{
			id: "screens_sleep", insightType: "pattern",
			title: "Screen timing and sleep quality", behavior: "screensOff", outcome: "sleepQuality",
			behaviorKey: "screensOff", outcomeKey: "sleepQuality",
			favorable: geq(4), unfavorable: leq(2),
			sourceKeys: []core.MetricKey{"screensOff", "sleepQuality"},
			actionHint: "Consider one earlier screen-off night to test tomorrow's sleep quality.",
		},
		{
			id: "caffeine_sleep", insightType: "pattern",
			title: "Caffeine timing and sleep quality", behavior: "caffeine", outcome: "sleepQuality",
			behaviorKey: "caffeine", outcomeKey: "sleepQuality",
			favorable: geq(4), unfavorable: leq(2),
			sourceKeys: []core.MetricKey{"caffeine", "sleepQuality"},
			actionHint: "Try moving caffeine earlier and notice the next morning.",
		},
		{
			id: "meal_sleep", insightType: "pattern",
			title: "Meal timing and sleep quality", behavior: "lastMeal", outcome: "sleepQuality",
			behaviorKey: "lastMeal", outcomeKey: "sleepQuality",
			favorable: geq(4), unfavorable: leq(2),
			sourceKeys: []core.MetricKey{"lastMeal", "sleepQuality"},
			actionHint: "Test finishing dinner earlier on a couple of nights this week.",
		},
		{
			id: "sleep_quality_energy", insightType: "pattern",
			title: "Sleep quality and morning energy", behavior: "sleepQuality", outcome: "energy",
			behaviorKey: "sleepQuality", outcomeKey: "energy",
			favorable: geq(4), unfavorable: leq(2),
			sourceKeys: []core.MetricKey{"sleepQuality", "energy"},
			actionHint: "Pick one bedtime routine step that helps your sleep quality tonight.",
		},
		{
			id: "snooze_energy", insightType: "pattern",
			title: "Snooze behavior and morning energy", behavior: "snooze", outcome: "energy",
			behaviorKey: "snooze", outcomeKey: "energy",
			favorable: geq(3), unfavorable: leq(2),
			sourceKeys: []core.MetricKey{"snooze", "energy"},
			actionHint: "Try one no-snooze morning this week and compare how you feel.",
		},
		{
			id: "duration_energy", insightType: "pattern",
			title: "Sleep duration and morning energy", behavior: "sleepDuration", outcome: "energy",
			behaviorKey: "", outcomeKey: "energy",
			favorable: geq(7), unfavorable: lt(6),
			sourceKeys: []core.MetricKey{"actualSleepTime", "wakeTime", "energy"},
			actionHint: "Aim for a slightly longer sleep window on your next two nights.",
		},
	}
}

// Build computes the stats payload for a window of daily logs (most recent
// date first). An empty window yields a degenerate-but-valid payload with
// logs_count=0; callers treat that as insufficient data, not an error.
func (b *Builder) Build(logs []survey.DailyLog, windowDays int) insight.StatsPayload {
	payload := insight.StatsPayload{
		WindowDays:   windowDays,
		LogsCount:    len(logs),
		FactRegistry: map[core.FactID]insight.Fact{},
	}
	if len(logs) == 0 {
		return payload
	}

	payload.DateEnd = logs[0].Date
	payload.DateStart = logs[len(logs)-1].Date
	provenance := fmt.Sprintf("responses in window %s..%s", payload.DateStart, payload.DateEnd)

	if windowDays > 0 {
		payload.CompletionRate = round3(float64(len(logs)) / float64(windowDays))
	}

	completionID := CompletionFactID(windowDays)
	sampleSize := len(logs)
	payload.FactRegistry[completionID] = insight.Fact{
		FactID:           completionID,
		Label:            fmt.Sprintf("Survey completion rate (%dd)", windowDays),
		Value:            insight.NumberValue(round1(payload.CompletionRate * 100)),
		Unit:             "percent",
		WindowDays:       windowDays,
		SampleSize:       &sampleSize,
		Method:           "observed_days / window_days",
		Provenance:       provenance,
		SourceMetricKeys: []core.MetricKey{},
	}
	payload.SummaryFactIDs = append(payload.SummaryFactIDs, completionID)

	// Per-metric samples across the window, plus derived sleep durations.
	samples := map[core.MetricKey][]float64{}
	durations := []float64{}
	durationByIndex := make([]*float64, len(logs))

	metricKeys := b.summaryMetricKeys()
	for i, log := range logs {
		for _, key := range metricKeys {
			if v := log.Numeric(key); v != nil {
				samples[key] = append(samples[key], *v)
			}
		}
		if d := sleepDurationOf(log); d != nil {
			durations = append(durations, *d)
			durationByIndex[i] = d
		}
	}

	for _, key := range metricKeys {
		values := samples[key]
		if len(values) == 0 {
			// A metric with no valid samples produces no fact
			continue
		}
		mean, _ := stats.Mean(values)
		id := summaryFactID(key, windowDays)
		n := len(values)
		payload.FactRegistry[id] = insight.Fact{
			FactID:           id,
			Label:            fmt.Sprintf("Average %s (%dd)", b.metricLabel(key), windowDays),
			Value:            insight.NumberValue(round2(mean)),
			Unit:             b.metricUnit(key),
			WindowDays:       windowDays,
			SampleSize:       &n,
			Method:           "mean",
			Provenance:       provenance,
			SourceMetricKeys: []core.MetricKey{key},
		}
		payload.SummaryFactIDs = append(payload.SummaryFactIDs, id)
	}

	if len(durations) > 0 {
		mean, _ := stats.Mean(durations)
		id := core.FactID(fmt.Sprintf("fact_avg_sleep_duration_%dd", windowDays))
		n := len(durations)
		payload.FactRegistry[id] = insight.Fact{
			FactID:           id,
			Label:            fmt.Sprintf("Average sleep duration (%dd)", windowDays),
			Value:            insight.NumberValue(round2(mean)),
			Unit:             "hours",
			WindowDays:       windowDays,
			SampleSize:       &n,
			Method:           "mean",
			Provenance:       provenance,
			SourceMetricKeys: []core.MetricKey{"actualSleepTime", "wakeTime"},
		}
		payload.SummaryFactIDs = append(payload.SummaryFactIDs, id)
	}

	if stress := samples["stress"]; len(stress) > 0 {
		high := 0
		for _, v := range stress {
			if v >= highStressThreshold {
				high++
			}
		}
		id := core.FactID(fmt.Sprintf("fact_high_stress_rate_%dd", windowDays))
		n := len(stress)
		payload.FactRegistry[id] = insight.Fact{
			FactID:           id,
			Label:            fmt.Sprintf("High stress evening rate (%dd)", windowDays),
			Value:            insight.NumberValue(round1(float64(high) / float64(n) * 100)),
			Unit:             "percent",
			WindowDays:       windowDays,
			SampleSize:       &n,
			Method:           "ratio",
			Provenance:       provenance,
			SourceMetricKeys: []core.MetricKey{"stress"},
		}
		payload.SummaryFactIDs = append(payload.SummaryFactIDs, id)
	}

	// Behavior -> outcome comparisons over fixed bucket thresholds.
	for _, pair := range b.pairs {
		good, poor := []float64{}, []float64{}
		for i, log := range logs {
			var behavior *float64
			if pair.behaviorKey != "" {
				behavior = log.Numeric(pair.behaviorKey)
			} else {
				behavior = durationByIndex[i]
			}
			outcome := log.Numeric(pair.outcomeKey)
			if behavior == nil || outcome == nil {
				continue
			}
			switch {
			case pair.favorable(*behavior):
				good = append(good, *outcome)
			case pair.unfavorable(*behavior):
				poor = append(poor, *outcome)
			}
		}
		if candidate, ok := b.materializeCandidate(pair, good, poor, windowDays, provenance, payload.FactRegistry); ok {
			payload.Candidates = append(payload.Candidates, candidate)
		}
	}

	sort.SliceStable(payload.Candidates, func(i, j int) bool {
		return payload.Candidates[i].Score > payload.Candidates[j].Score
	})
	if len(payload.Candidates) > maxCandidates {
		payload.Candidates = payload.Candidates[:maxCandidates]
	}

	return payload
}

// materializeCandidate applies the double gate (sample size AND effect size)
// and, when it passes, registers the three supporting facts and returns the
// candidate referencing them.
func (b *Builder) materializeCandidate(
	pair pairSpec,
	good, poor []float64,
	windowDays int,
	provenance string,
	registry map[core.FactID]insight.Fact,
) (insight.CandidateInsight, bool) {

	minSamples := 2
	if windowDays <= 7 {
		minSamples = 1
	}
	if len(good) < minSamples || len(poor) < minSamples {
		return insight.CandidateInsight{}, false
	}

	meanGoodRaw, _ := stats.Mean(good)
	meanPoorRaw, _ := stats.Mean(poor)
	meanGood := round2(meanGoodRaw)
	meanPoor := round2(meanPoorRaw)
	delta := round2(meanGood - meanPoor)
	if math.Abs(delta) < minEffectSize {
		return insight.CandidateInsight{}, false
	}

	prefix := fmt.Sprintf("fact_%s_%dd", pair.id, windowDays)
	goodID := core.FactID(prefix + "_mean_good")
	poorID := core.FactID(prefix + "_mean_poor")
	deltaID := core.FactID(prefix + "_delta")

	nGood, nPoor := len(good), len(poor)
	registry[goodID] = insight.Fact{
		FactID:           goodID,
		Label:            fmt.Sprintf("%s: average %s when %s is favorable", pair.title, pair.outcome, pair.behavior),
		Value:            insight.NumberValue(meanGood),
		Unit:             "out of 5",
		WindowDays:       windowDays,
		SampleSize:       &nGood,
		Method:           "mean",
		Provenance:       provenance,
		SourceMetricKeys: pair.sourceKeys,
	}
	registry[poorID] = insight.Fact{
		FactID:           poorID,
		Label:            fmt.Sprintf("%s: average %s when %s is unfavorable", pair.title, pair.outcome, pair.behavior),
		Value:            insight.NumberValue(meanPoor),
		Unit:             "out of 5",
		WindowDays:       windowDays,
		SampleSize:       &nPoor,
		Method:           "mean",
		Provenance:       provenance,
		SourceMetricKeys: pair.sourceKeys,
	}
	registry[deltaID] = insight.Fact{
		FactID:           deltaID,
		Label:            fmt.Sprintf("%s: difference in %s between favorable and unfavorable behavior", pair.title, pair.outcome),
		Value:            insight.NumberValue(delta),
		Unit:             "points",
		WindowDays:       windowDays,
		NGood:            &nGood,
		NPoor:            &nPoor,
		Method:           "mean_difference",
		Provenance:       provenance,
		SourceMetricKeys: pair.sourceKeys,
	}

	sampleWeight := math.Min(float64(minInt(nGood, nPoor))/sampleWeightCeiling, 1.0)
	score := round3(math.Abs(delta) * sampleWeight)
	direction := "better"
	if delta < 0 {
		direction = "worse"
	}

	return insight.CandidateInsight{
		InsightID: pair.id,
		Type:      pair.insightType,
		Title:     pair.title,
		Behavior:  pair.behavior,
		Outcome:   pair.outcome,
		Direction: direction,
		Magnitude: math.Abs(delta),
		Summary: fmt.Sprintf("%s: %s vs %s (%s) over %d days",
			pair.title,
			insight.RenderNumber(meanGood),
			insight.RenderNumber(meanPoor),
			renderSigned(delta),
			windowDays),
		FactIDs:    []core.FactID{goodID, poorID, deltaID},
		Score:      score,
		ActionHint: pair.actionHint,
	}, true
}

// summaryMetricKeys lists the scalar metrics that get mean facts: the likert
// outcomes plus every configured ordinal behavior field.
func (b *Builder) summaryMetricKeys() []core.MetricKey {
	keys := []core.MetricKey{"sleepQuality", "energy", "stress", "sleepiness"}
	keys = append(keys, b.catalog.OrdinalKeys()...)
	return keys
}

// metricUnit derives the "out of N" scale unit for a metric: the top score
// of an ordinal table, or the likert ceiling of 5.
func (b *Builder) metricUnit(key core.MetricKey) string {
	if spec, ok := b.catalog.Spec(key); ok && spec.IsOrdinal() {
		top := 0
		for _, score := range spec.OrdinalScale {
			if score > top {
				top = score
			}
		}
		return fmt.Sprintf("out of %d", top)
	}
	return "out of 5"
}

func (b *Builder) metricLabel(key core.MetricKey) string {
	if spec, ok := b.catalog.Spec(key); ok && spec.Label != "" {
		return lowerFirst(spec.Label)
	}
	return string(key)
}

// CompletionFactID returns the id of the completion-rate fact for a window.
// The fallback needs it to synthesize the fact when the registry lacks one.
func CompletionFactID(windowDays int) core.FactID {
	return core.FactID(fmt.Sprintf("fact_completion_rate_%dd", windowDays))
}

func summaryFactID(key core.MetricKey, windowDays int) core.FactID {
	return core.FactID(fmt.Sprintf("fact_avg_%s_%dd", camelToSnake(string(key)), windowDays))
}

func camelToSnake(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r - 'A' + 'a')
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func renderSigned(v float64) string {
	if v > 0 {
		return "+" + insight.RenderNumber(v)
	}
	return insight.RenderNumber(v)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
