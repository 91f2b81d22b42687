package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TbrosN/clarity/domain/core"
	"github.com/TbrosN/clarity/domain/survey"
	"github.com/TbrosN/clarity/internal/testkit"
)

func TestBuildEmptyWindow(t *testing.T) {
	builder := NewBuilder(survey.DefaultCatalog())
	stats := builder.Build(nil, 14)

	assert.Equal(t, 14, stats.WindowDays)
	assert.Equal(t, 0, stats.LogsCount)
	assert.Empty(t, stats.Candidates)
	assert.Empty(t, stats.FactRegistry)
	assert.Zero(t, stats.CompletionRate)
}

func TestBuildCompletionFact(t *testing.T) {
	builder := NewBuilder(survey.DefaultCatalog())
	logs := testkit.SampleLogs(7)

	stats := builder.Build(logs, 14)
	assert.Equal(t, 0.5, stats.CompletionRate)

	fact, ok := stats.Fact(CompletionFactID(14))
	require.True(t, ok)
	assert.Equal(t, 50.0, fact.Value.Number())
	assert.Equal(t, "percent", fact.Unit)
	require.NotNil(t, fact.SampleSize)
	assert.Equal(t, 7, *fact.SampleSize)
}

func TestBuildSummaryFacts(t *testing.T) {
	builder := NewBuilder(survey.DefaultCatalog())
	logs := testkit.SampleLogs(14)

	stats := builder.Build(logs, 14)

	quality, ok := stats.Fact("fact_avg_sleep_quality_14d")
	require.True(t, ok)
	assert.Equal(t, 3.0, quality.Value.Number())
	assert.Equal(t, "out of 5", quality.Unit)
	assert.Equal(t, []core.MetricKey{"sleepQuality"}, quality.SourceMetricKeys)

	stress, ok := stats.Fact("fact_high_stress_rate_14d")
	require.True(t, ok)
	assert.Equal(t, 50.0, stress.Value.Number())

	// The snooze scale tops out at 4, not the likert 5
	snooze, ok := stats.Fact("fact_avg_snooze_14d")
	require.True(t, ok)
	assert.Equal(t, "out of 4", snooze.Unit)

	screens, ok := stats.Fact("fact_avg_screens_off_14d")
	require.True(t, ok)
	assert.Equal(t, "out of 5", screens.Unit)

	// Good days sleep 23:00-07:00 (8h), poor days 01:00-06:30 (5.5h)
	duration, ok := stats.Fact("fact_avg_sleep_duration_14d")
	require.True(t, ok)
	assert.Equal(t, 6.75, duration.Value.Number())
	assert.Equal(t, "hours", duration.Unit)
}

func TestBuildCandidatesFromAlternatingDays(t *testing.T) {
	builder := NewBuilder(survey.DefaultCatalog())
	logs := testkit.SampleLogs(14)

	stats := builder.Build(logs, 14)
	require.NotEmpty(t, stats.Candidates)

	byID := map[string]int{}
	for i, c := range stats.Candidates {
		byID[c.InsightID] = i
	}
	idx, ok := byID["screens_sleep"]
	require.True(t, ok, "expected a screens_sleep candidate, got %v", byID)

	candidate := stats.Candidates[idx]
	assert.Equal(t, "better", candidate.Direction)
	assert.Equal(t, 2.0, candidate.Magnitude)
	assert.Contains(t, candidate.Summary, "4 vs 2 (+2) over 14 days")
	require.Len(t, candidate.FactIDs, 3)

	delta, ok := stats.Fact("fact_screens_sleep_14d_delta")
	require.True(t, ok)
	assert.Equal(t, 2.0, delta.Value.Number())
	require.NotNil(t, delta.NGood)
	assert.Equal(t, 7, *delta.NGood)

	// Scores are sorted descending
	for i := 1; i < len(stats.Candidates); i++ {
		assert.GreaterOrEqual(t, stats.Candidates[i-1].Score, stats.Candidates[i].Score)
	}
}

func TestBuildSkipsSmallBuckets(t *testing.T) {
	builder := NewBuilder(survey.DefaultCatalog())
	// One good day and one poor day; window 14 requires two per bucket
	logs := testkit.SampleLogs(2)

	stats := builder.Build(logs, 14)
	assert.Empty(t, stats.Candidates)

	// A 7-day window accepts single-sample buckets
	stats = builder.Build(logs, 7)
	assert.NotEmpty(t, stats.Candidates)
}

func TestBuildSkipsSmallEffects(t *testing.T) {
	builder := NewBuilder(survey.DefaultCatalog())

	var logs []survey.DailyLog
	for i := 0; i < 8; i++ {
		answers := map[core.MetricKey]any{"sleepQuality": 3, "screensOff": "2+hours"}
		if i%2 == 1 {
			// Outcome barely moves between buckets
			answers = map[core.MetricKey]any{"sleepQuality": 3.2, "screensOff": "stillUsing"}
		}
		logs = append(logs, testkit.LogWithAnswers(testkit.DateDaysAgo(i), answers))
	}

	stats := builder.Build(logs, 14)
	for _, c := range stats.Candidates {
		assert.NotEqual(t, "screens_sleep", c.InsightID)
	}
}

func TestSleepDurationCrossesMidnight(t *testing.T) {
	log := testkit.LogWithAnswers("2026-08-01", map[core.MetricKey]any{
		"actualSleepTime": "23:00",
		"wakeTime":        "07:00",
	})
	d := sleepDurationOf(log)
	require.NotNil(t, d)
	assert.Equal(t, 8.0, *d)
}

func TestSleepDurationDiscardsImplausible(t *testing.T) {
	// 09:00 -> 09:30 reads as 30 minutes, below the plausible floor
	log := testkit.LogWithAnswers("2026-08-01", map[core.MetricKey]any{
		"actualSleepTime": "09:00",
		"wakeTime":        "09:30",
	})
	assert.Nil(t, sleepDurationOf(log))

	log = testkit.LogWithAnswers("2026-08-01", map[core.MetricKey]any{
		"actualSleepTime": "not a time",
		"wakeTime":        "07:00",
	})
	assert.Nil(t, sleepDurationOf(log))
}

func TestCamelToSnake(t *testing.T) {
	assert.Equal(t, "sleep_quality", camelToSnake("sleepQuality"))
	assert.Equal(t, "screens_off", camelToSnake("screensOff"))
	assert.Equal(t, "energy", camelToSnake("energy"))
}
