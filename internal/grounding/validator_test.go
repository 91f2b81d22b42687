package grounding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TbrosN/clarity/domain/core"
	"github.com/TbrosN/clarity/domain/insight"
	"github.com/TbrosN/clarity/domain/survey"
	"github.com/TbrosN/clarity/internal/evidence"
	"github.com/TbrosN/clarity/internal/testkit"
)

func samplePayload(t *testing.T) insight.StatsPayload {
	t.Helper()
	stats := evidence.NewBuilder(survey.DefaultCatalog()).Build(testkit.SampleLogs(14), 14)
	require.NotEmpty(t, stats.Candidates)
	return stats
}

func TestValidateAcceptsGroundedDraft(t *testing.T) {
	stats := samplePayload(t)
	v := &Validator{}

	drafts := []insight.Draft{{
		Type:                 "pattern",
		MessageWithCitations: "Your sleep quality averaged 3 this period [[cite:fact_avg_sleep_quality_14d]]. Keep an eye on evening screens.",
		FactIDsUsed:          []core.FactID{"fact_avg_sleep_quality_14d"},
	}}

	result := v.Validate(drafts, stats)
	assert.True(t, result.Valid, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
}

func TestValidateRejectsEmptyBatch(t *testing.T) {
	v := &Validator{}
	result := v.Validate(nil, samplePayload(t))
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "no insights returned")
}

func TestValidateRejectsMissingCitations(t *testing.T) {
	stats := samplePayload(t)
	v := &Validator{}

	drafts := []insight.Draft{{
		MessageWithCitations: "Your sleep improved by 1.2 points.",
		FactIDsUsed:          []core.FactID{},
	}}

	result := v.Validate(drafts, stats)
	assert.False(t, result.Valid)
	require.GreaterOrEqual(t, len(result.Errors), 2)
	assert.Contains(t, result.Errors, "insights[0] has no citations")
	assert.Contains(t, result.Errors, "insights[0] has numeric claims but no citations")
}

func TestValidateRejectsUnknownCitation(t *testing.T) {
	stats := samplePayload(t)
	v := &Validator{}

	drafts := []insight.Draft{{
		MessageWithCitations: "Something happened [[cite:fact_made_up]].",
		FactIDsUsed:          []core.FactID{"fact_made_up"},
	}}

	result := v.Validate(drafts, stats)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "insights[0] uses unknown citations: fact_made_up")
}

func TestValidateRejectsUndeclaredCitation(t *testing.T) {
	stats := samplePayload(t)
	v := &Validator{}

	drafts := []insight.Draft{{
		MessageWithCitations: "Completion held steady [[cite:fact_completion_rate_14d]].",
		FactIDsUsed:          []core.FactID{},
	}}

	result := v.Validate(drafts, stats)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "insights[0] cites fact ids not present in fact_ids_used: fact_completion_rate_14d")
}

func TestValidateRejectsUncitedNumericSentence(t *testing.T) {
	stats := samplePayload(t)
	v := &Validator{}

	drafts := []insight.Draft{{
		MessageWithCitations: "Good sleep helps [[cite:fact_avg_sleep_quality_14d]]. You averaged 3 points this window.",
		FactIDsUsed:          []core.FactID{"fact_avg_sleep_quality_14d"},
	}}

	result := v.Validate(drafts, stats)
	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "uncited numeric sentence")
}

func TestValidateStrictNumericGrounding(t *testing.T) {
	stats := samplePayload(t)
	strict := &Validator{StrictNumeric: true}

	grounded := []insight.Draft{{
		MessageWithCitations: "Quality sat at 3 over the last 14 days [[cite:fact_avg_sleep_quality_14d]].",
		FactIDsUsed:          []core.FactID{"fact_avg_sleep_quality_14d"},
	}}
	result := strict.Validate(grounded, stats)
	assert.True(t, result.Valid, "errors: %v", result.Errors)

	fabricated := []insight.Draft{{
		MessageWithCitations: "Quality jumped 42 percent [[cite:fact_avg_sleep_quality_14d]].",
		FactIDsUsed:          []core.FactID{"fact_avg_sleep_quality_14d"},
	}}
	result = strict.Validate(fabricated, stats)
	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "not grounded in allowed facts")
}

func TestValidateToneScreens(t *testing.T) {
	stats := samplePayload(t)
	v := &Validator{}

	drafts := []insight.Draft{{
		MessageWithCitations: "You were lazy about screens [[cite:fact_avg_sleep_quality_14d]].",
		FactIDsUsed:          []core.FactID{"fact_avg_sleep_quality_14d"},
	}}
	result := v.Validate(drafts, stats)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors[0], "shaming language")

	drafts[0].MessageWithCitations = "This could be a sleep disorder [[cite:fact_avg_sleep_quality_14d]]."
	result = v.Validate(drafts, stats)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors[0], "medical language")
}

func TestAllowedNumericTokensNormalization(t *testing.T) {
	stats := samplePayload(t)
	allowed := AllowedNumericTokens(stats)

	// The signed delta and its percent-suffixed form resolve to the same token
	_, ok := allowed[normalizeToken("+2")]
	assert.True(t, ok)
	_, ok = allowed[normalizeToken("100%")]
	assert.True(t, ok)
	assert.Equal(t, "0.9", normalizeToken("+0.9%"))
}
