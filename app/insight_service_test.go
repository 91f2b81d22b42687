package app

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TbrosN/clarity/domain/core"
	"github.com/TbrosN/clarity/domain/insight"
	"github.com/TbrosN/clarity/domain/survey"
	"github.com/TbrosN/clarity/internal"
	"github.com/TbrosN/clarity/internal/config"
	"github.com/TbrosN/clarity/internal/errors"
	"github.com/TbrosN/clarity/internal/evidence"
	"github.com/TbrosN/clarity/internal/testkit"
)

type scriptedGenerator struct {
	calls     int
	responses []func(stats insight.StatsPayload) (*insight.DraftResponse, error)
}

func (g *scriptedGenerator) Generate(_ context.Context, stats insight.StatsPayload, _ int) (*insight.DraftResponse, error) {
	i := g.calls
	g.calls++
	if i >= len(g.responses) {
		i = len(g.responses) - 1
	}
	return g.responses[i](stats)
}

func testConfig() config.InsightsConfig {
	return config.InsightsConfig{
		Enabled:     true,
		APIKey:      "test-key",
		MaxInsights: 4,
		WindowDays:  14,
	}
}

func newService(gen *scriptedGenerator, cfg config.InsightsConfig) *InsightService {
	builder := evidence.NewBuilder(survey.DefaultCatalog())
	return NewInsightService(nil, gen, builder, cfg, internal.NewLogger(internal.LogLevelError))
}

func validDraft(stats insight.StatsPayload) (*insight.DraftResponse, error) {
	id := core.FactID("fact_avg_sleep_quality_14d")
	fact, _ := stats.Fact(id)
	return &insight.DraftResponse{Insights: []insight.Draft{{
		Type:                 "pattern",
		MessageWithCitations: "Sleep quality averaged " + fact.Value.String() + " recently [[cite:" + string(id) + "]].",
		Action:               "Keep your wind-down routine going.",
		FactIDsUsed:          []core.FactID{id},
	}}}, nil
}

func ungroundedDraft(insight.StatsPayload) (*insight.DraftResponse, error) {
	return &insight.DraftResponse{Insights: []insight.Draft{{
		MessageWithCitations: "You improved by 1.7 points.",
	}}}, nil
}

func TestGenerateHappyPath(t *testing.T) {
	gen := &scriptedGenerator{responses: []func(insight.StatsPayload) (*insight.DraftResponse, error){validDraft}}
	svc := newService(gen, testConfig())

	insights := svc.Generate(context.Background(), testkit.SampleLogs(14))
	require.Len(t, insights, 1)
	assert.Equal(t, 1, gen.calls)
	assert.Contains(t, insights[0].Message, "[[cite:fact_avg_sleep_quality_14d]]")
	require.Len(t, insights[0].Citations, 1)
	assert.Equal(t, []core.MetricKey{"sleepQuality"}, insights[0].SourceMetricKeys)
}

func TestGenerateRetriesOnceOnValidationFailure(t *testing.T) {
	gen := &scriptedGenerator{responses: []func(insight.StatsPayload) (*insight.DraftResponse, error){
		ungroundedDraft,
		validDraft,
	}}
	svc := newService(gen, testConfig())

	insights := svc.Generate(context.Background(), testkit.SampleLogs(14))
	assert.Equal(t, 2, gen.calls)
	require.Len(t, insights, 1)
	assert.Equal(t, "pattern", insights[0].Type)
}

func TestGenerateFallsBackAfterTwoInvalidAttempts(t *testing.T) {
	gen := &scriptedGenerator{responses: []func(insight.StatsPayload) (*insight.DraftResponse, error){
		ungroundedDraft,
	}}
	svc := newService(gen, testConfig())

	insights := svc.Generate(context.Background(), testkit.SampleLogs(14))
	assert.Equal(t, 2, gen.calls)
	require.NotEmpty(t, insights)
	for _, item := range insights {
		assert.Contains(t, item.Message, "[[cite:")
	}
}

func TestGenerateTransportErrorSkipsRetry(t *testing.T) {
	gen := &scriptedGenerator{responses: []func(insight.StatsPayload) (*insight.DraftResponse, error){
		func(insight.StatsPayload) (*insight.DraftResponse, error) {
			return nil, errors.ExternalServiceError("connection refused", nil)
		},
	}}
	svc := newService(gen, testConfig())

	insights := svc.Generate(context.Background(), testkit.SampleLogs(14))
	assert.Equal(t, 1, gen.calls, "transport failures must not be retried")
	require.NotEmpty(t, insights)
	assert.Contains(t, insights[0].Message, "[[cite:")
}

func TestGenerateDisabledReturnsStaticTip(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	gen := &scriptedGenerator{responses: []func(insight.StatsPayload) (*insight.DraftResponse, error){validDraft}}
	svc := newService(gen, cfg)

	insights := svc.Generate(context.Background(), testkit.SampleLogs(14))
	require.Len(t, insights, 1)
	assert.Equal(t, 0, gen.calls)
	assert.True(t, strings.Contains(insights[0].Message, "temporarily unavailable"), insights[0].Message)
	assert.Empty(t, insights[0].Citations)
}

func TestGenerateMissingKeyReturnsStaticTip(t *testing.T) {
	cfg := testConfig()
	cfg.APIKey = ""
	svc := newService(&scriptedGenerator{responses: []func(insight.StatsPayload) (*insight.DraftResponse, error){validDraft}}, cfg)

	insights := svc.Generate(context.Background(), testkit.SampleLogs(14))
	require.Len(t, insights, 1)
	assert.Contains(t, insights[0].Message, "temporarily unavailable")
}

func TestGenerateEmptyHistoryFallsBackToEncouragement(t *testing.T) {
	gen := &scriptedGenerator{responses: []func(insight.StatsPayload) (*insight.DraftResponse, error){
		ungroundedDraft,
	}}
	svc := newService(gen, testConfig())

	insights := svc.Generate(context.Background(), nil)
	require.Len(t, insights, 1)
	assert.Equal(t, "tip", insights[0].Type)
	assert.Contains(t, insights[0].Message, "fact_completion_rate_14d")
}

func TestGenerateTruncatesToMaxInsights(t *testing.T) {
	many := func(stats insight.StatsPayload) (*insight.DraftResponse, error) {
		resp, _ := validDraft(stats)
		for i := 0; i < 5; i++ {
			resp.Insights = append(resp.Insights, resp.Insights[0])
		}
		return resp, nil
	}
	cfg := testConfig()
	cfg.MaxInsights = 2
	svc := newService(&scriptedGenerator{responses: []func(insight.StatsPayload) (*insight.DraftResponse, error){many}}, cfg)

	insights := svc.Generate(context.Background(), testkit.SampleLogs(14))
	assert.Len(t, insights, 2)
}
