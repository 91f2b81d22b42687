package grounding

import (
	"fmt"

	"github.com/TbrosN/clarity/domain/core"
	"github.com/TbrosN/clarity/domain/insight"
	"github.com/TbrosN/clarity/internal/evidence"
)

// Fallback composes deterministic insights straight from the stats payload.
// Messages are built from templates whose citations come from the same
// segments as the rendered values, so the output passes validation by
// construction.
func Fallback(stats insight.StatsPayload, maxInsights int) []insight.Insight {
	if len(stats.Candidates) == 0 {
		return []insight.Insight{encouragement(stats)}
	}

	var insights []insight.Insight
	for _, candidate := range stats.Candidates {
		if len(insights) >= maxInsights {
			break
		}
		if len(candidate.FactIDs) < 3 {
			continue
		}
		goodID, poorID, deltaID := candidate.FactIDs[0], candidate.FactIDs[1], candidate.FactIDs[2]

		template := insight.MessageTemplate{Segments: []insight.Segment{
			insight.Literal(fmt.Sprintf("%s shows a %s pattern over the last %d days: ",
				candidate.Title, candidate.Direction, stats.WindowDays)),
			insight.Literal(candidate.Summary),
			insight.Literal(" "),
			insight.Cite(deltaID),
			insight.Literal(" ("),
			insight.ValueOf(goodID),
			insight.Literal(" vs "),
			insight.ValueOf(poorID),
			insight.Literal(") "),
			insight.Cite(goodID),
			insight.Literal(" "),
			insight.Cite(poorID),
			insight.Literal("."),
		}}
		message, cited := template.Render(stats.FactRegistry)

		insights = append(insights, insight.Insight{
			Type:             candidate.Type,
			Message:          message,
			Confidence:       confidenceOf(candidate.Score),
			Impact:           impactOf(candidate.Magnitude),
			Action:           candidate.ActionHint,
			Citations:        resolveCitations(cited, stats),
			SourceMetricKeys: sourceKeysOf(cited, stats),
		})
	}

	if len(insights) == 0 {
		return []insight.Insight{encouragement(stats)}
	}
	return insights
}

// encouragement is the no-candidates fallback: a single tip citing the
// completion-rate fact. When the registry lacks one (an empty window) the
// fact is synthesized so the citation still resolves.
func encouragement(stats insight.StatsPayload) insight.Insight {
	completionID := evidence.CompletionFactID(stats.WindowDays)
	registry := stats.FactRegistry
	if _, ok := registry[completionID]; !ok {
		registry = map[core.FactID]insight.Fact{}
		for id, f := range stats.FactRegistry {
			registry[id] = f
		}
		n := stats.LogsCount
		registry[completionID] = insight.Fact{
			FactID:     completionID,
			Label:      fmt.Sprintf("Survey completion rate (%dd)", stats.WindowDays),
			Value:      insight.NumberValue(0),
			Unit:       "percent",
			WindowDays: stats.WindowDays,
			SampleSize: &n,
			Method:     "observed_days / window_days",
			Provenance: "no responses in window",
		}
	}

	template := insight.MessageTemplate{Segments: []insight.Segment{
		insight.Literal("Keep completing your daily surveys to unlock personalized insights. "),
		insight.Literal(fmt.Sprintf("Current completion in the last %d days is ", stats.WindowDays)),
		insight.ValueOf(completionID),
		insight.Literal("% "),
		insight.Cite(completionID),
		insight.Literal("."),
	}}
	message, cited := template.Render(registry)

	statsWithFact := stats
	statsWithFact.FactRegistry = registry
	return insight.Insight{
		Type:       "tip",
		Message:    message,
		Confidence: "low",
		Impact:     "low",
		Action:     "Log your survey every morning and evening this week.",
		Citations:  resolveCitations(cited, statsWithFact),
	}
}

func resolveCitations(ids []core.FactID, stats insight.StatsPayload) []insight.Fact {
	var facts []insight.Fact
	for _, id := range ids {
		if fact, ok := stats.Fact(id); ok {
			facts = append(facts, fact)
		}
	}
	return facts
}

func sourceKeysOf(ids []core.FactID, stats insight.StatsPayload) []core.MetricKey {
	seen := map[core.MetricKey]struct{}{}
	var keys []core.MetricKey
	for _, id := range ids {
		fact, ok := stats.Fact(id)
		if !ok {
			continue
		}
		for _, key := range fact.SourceMetricKeys {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	return keys
}

func confidenceOf(score float64) string {
	switch {
	case score >= 0.5:
		return "high"
	case score >= 0.2:
		return "medium"
	default:
		return "low"
	}
}

func impactOf(magnitude float64) string {
	switch {
	case magnitude >= 1.0:
		return "high"
	case magnitude >= 0.5:
		return "medium"
	default:
		return "low"
	}
}
