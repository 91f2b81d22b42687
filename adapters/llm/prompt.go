package llm

import (
	"github.com/TbrosN/clarity/domain/core"
	"github.com/TbrosN/clarity/domain/insight"
)

const systemPrompt = `You are a careful wellbeing coach writing short, supportive insights from survey evidence.

Rules:
- Use ONLY the numbers present in the fact registry you are given. Never invent, recompute, or extrapolate values.
- Every sentence containing a number must carry an inline citation in the form [[cite:fact_id]] referencing a fact you used.
- List every cited fact id in fact_ids_used.
- Correlation is not causation: describe patterns, never diagnose or use medical terms.
- Be encouraging and concrete. Never shame the reader.
- Respond with a single JSON object matching the provided json_schema and nothing else.`

// promptPayload is the user-turn document the model drafts from. Everything
// the model may say a number about is inside fact_registry.
type promptPayload struct {
	UserContext       string                       `json:"user_context"`
	MaxInsights       int                          `json:"max_insights"`
	SummaryFactIDs    []core.FactID                `json:"summary_fact_ids"`
	CandidateInsights []insight.CandidateInsight   `json:"candidate_insights"`
	FactRegistry      map[core.FactID]insight.Fact `json:"fact_registry"`
	OutputContract    outputContract               `json:"output_contract"`
}

type outputContract struct {
	CitationSyntax string   `json:"citation_syntax"`
	CitationRule   string   `json:"citation_rule"`
	Constraints    []string `json:"constraints"`
	JSONSchema     string   `json:"json_schema"`
}

func buildPromptPayload(stats insight.StatsPayload, maxInsights int) promptPayload {
	return promptPayload{
		UserContext:       "A person tracking sleep, energy, stress and evening habits through short daily surveys.",
		MaxInsights:       maxInsights,
		SummaryFactIDs:    stats.SummaryFactIDs,
		CandidateInsights: stats.Candidates,
		FactRegistry:      stats.FactRegistry,
		OutputContract: outputContract{
			CitationSyntax: "[[cite:fact_id]]",
			CitationRule:   "every sentence with a number cites at least one fact id from fact_registry",
			Constraints: []string{
				"use only values that appear in fact_registry",
				"no medical terminology or diagnoses",
				"no shaming language",
				"each insight names one behavior and one outcome",
				"include a short actionable suggestion per insight",
			},
			JSONSchema: `{"insights":[{"type":"pattern|tip","message_with_citations":"string","action":"string","fact_ids_used":["string"]}]}`,
		},
	}
}
