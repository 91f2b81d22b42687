package app

import (
	"context"

	"github.com/TbrosN/clarity/domain/core"
	"github.com/TbrosN/clarity/domain/insight"
	"github.com/TbrosN/clarity/domain/survey"
	"github.com/TbrosN/clarity/internal"
	"github.com/TbrosN/clarity/internal/config"
	"github.com/TbrosN/clarity/internal/evidence"
	"github.com/TbrosN/clarity/internal/grounding"
	"github.com/TbrosN/clarity/ports"
)

// GenerationState names a step of the insight pipeline. Transitions are
// logged so a generation run can be reconstructed from logs alone.
type GenerationState string

const (
	StateBuildEvidence      GenerationState = "BUILD_EVIDENCE"
	StateCheckPreconditions GenerationState = "CHECK_PRECONDITIONS"
	StateGenerate           GenerationState = "GENERATE"
	StateValidate           GenerationState = "VALIDATE"
	StateRetry              GenerationState = "RETRY"
	StateFallback           GenerationState = "FALLBACK"
	StateDone               GenerationState = "DONE"
)

const unavailableMessage = "Personalized insights are temporarily unavailable. Keep logging your daily surveys and check back soon."

// InsightService orchestrates the evidence build, model generation,
// grounding validation, and fallback composition for a user's insights.
type InsightService struct {
	store     ports.ResponseStore
	generator ports.InsightGenerator
	builder   *evidence.Builder
	validator *grounding.Validator
	cfg       config.InsightsConfig
	logger    *internal.Logger
}

func NewInsightService(
	store ports.ResponseStore,
	generator ports.InsightGenerator,
	builder *evidence.Builder,
	cfg config.InsightsConfig,
	logger *internal.Logger,
) *InsightService {
	return &InsightService{
		store:     store,
		generator: generator,
		builder:   builder,
		validator: &grounding.Validator{StrictNumeric: cfg.StrictGrounding},
		cfg:       cfg,
		logger:    logger,
	}
}

// GenerateForUser runs the full pipeline over the user's recent history.
// The only error it returns is a history fetch failure; every problem
// downstream of the evidence build degrades to fallback output instead.
func (s *InsightService) GenerateForUser(ctx context.Context, userID core.UserID) ([]insight.Insight, error) {
	logs, err := s.store.History(ctx, userID, s.cfg.WindowDays)
	if err != nil {
		return nil, err
	}
	return s.Generate(ctx, logs), nil
}

// Generate runs the pipeline over an already-fetched window of logs. Each
// run gets its own id so a sequence of state transitions can be correlated
// in the logs.
func (s *InsightService) Generate(ctx context.Context, logs []survey.DailyLog) []insight.Insight {
	run := core.NewID()

	state := StateBuildEvidence
	s.logger.Debug("insight pipeline run=%s: state=%s logs=%d window=%d", run, state, len(logs), s.cfg.WindowDays)
	stats := s.builder.Build(logs, s.cfg.WindowDays)

	state = StateCheckPreconditions
	s.logger.Debug("insight pipeline run=%s: state=%s facts=%d candidates=%d", run, state, len(stats.FactRegistry), len(stats.Candidates))
	if !s.cfg.Enabled || s.cfg.APIKey == "" || s.generator == nil {
		s.logger.Info("insight pipeline run=%s: generator unavailable, returning static tip", run)
		return []insight.Insight{unavailableTip()}
	}

	attempts := 0
	state = StateGenerate
	for {
		attempts++
		s.logger.Info("insight pipeline run=%s: state=%s attempt=%d facts=%d candidates=%d",
			run, state, attempts, len(stats.FactRegistry), len(stats.Candidates))

		drafts, err := s.generator.Generate(ctx, stats, s.cfg.MaxInsights)
		if err != nil {
			// Transport and provider failures skip the retry; a second
			// identical call is unlikely to help.
			s.logger.Warn("insight pipeline run=%s: generation failed: %v", run, err)
			state = StateFallback
			break
		}

		state = StateValidate
		result := s.validator.Validate(drafts.Insights, stats)
		if result.Valid {
			insights := s.mapDrafts(drafts.Insights, stats)
			if len(insights) > 0 {
				s.logger.Info("insight pipeline run=%s: state=%s insights=%d attempts=%d", run, StateDone, len(insights), attempts)
				return insights
			}
			s.logger.Warn("insight pipeline run=%s: validated batch mapped to zero insights", run)
			state = StateFallback
			break
		}

		s.logger.Warn("insight pipeline run=%s: validation failed: %v", run, result.Errors)
		if attempts >= 2 {
			state = StateFallback
			break
		}
		state = StateRetry
		s.logger.Info("insight pipeline run=%s: state=%s", run, state)
		state = StateGenerate
	}

	s.logger.Info("insight pipeline run=%s: state=%s candidates=%d", run, state, len(stats.Candidates))
	insights := grounding.Fallback(stats, s.cfg.MaxInsights)
	s.logger.Info("insight pipeline run=%s: state=%s insights=%d attempts=%d", run, StateDone, len(insights), attempts)
	return insights
}

// mapDrafts converts validated drafts to response insights. Citations come
// from the declared fact ids; unknown ids were already rejected by the
// validator, so the skip here only guards against registry drift.
func (s *InsightService) mapDrafts(drafts []insight.Draft, stats insight.StatsPayload) []insight.Insight {
	var insights []insight.Insight
	for _, draft := range drafts {
		if len(insights) >= s.cfg.MaxInsights {
			break
		}

		var citations []insight.Fact
		seen := map[core.MetricKey]struct{}{}
		var sourceKeys []core.MetricKey
		for _, id := range draft.FactIDsUsed {
			fact, ok := stats.Fact(id)
			if !ok {
				continue
			}
			citations = append(citations, fact)
			for _, key := range fact.SourceMetricKeys {
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				sourceKeys = append(sourceKeys, key)
			}
		}

		insightType := draft.Type
		if insightType == "" {
			insightType = "pattern"
		}

		insights = append(insights, insight.Insight{
			Type:             insightType,
			Message:          draft.MessageWithCitations,
			Confidence:       "medium",
			Impact:           "medium",
			Action:           draft.Action,
			Citations:        citations,
			SourceMetricKeys: sourceKeys,
		})
	}
	return insights
}

func unavailableTip() insight.Insight {
	return insight.Insight{
		Type:       "tip",
		Message:    unavailableMessage,
		Confidence: "low",
		Impact:     "low",
		Action:     "Keep your daily logging streak going.",
	}
}
