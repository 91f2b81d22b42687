package ports

import (
	"context"

	"github.com/TbrosN/clarity/domain/insight"
)

// InsightGenerator produces insight drafts from a stats payload. Transport
// and provider failures surface as errors; semantic quality is judged by the
// validator, not here.
type InsightGenerator interface {
	Generate(ctx context.Context, stats insight.StatsPayload, maxInsights int) (*insight.DraftResponse, error)
}
