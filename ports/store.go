package ports

import (
	"context"

	"github.com/TbrosN/clarity/domain/core"
	"github.com/TbrosN/clarity/domain/survey"
)

// QuestionRegistry resolves question keys to stored question definitions,
// creating them lazily. LookupOrCreate must be idempotent under concurrent
// calls for the same key.
type QuestionRegistry interface {
	LookupOrCreate(ctx context.Context, key core.MetricKey) (int64, error)
	KeysByID(ctx context.Context) (map[int64]core.MetricKey, error)
}

// ResponseStore is the survey response persistence boundary.
type ResponseStore interface {
	// Upsert writes the current response for (user, question, date),
	// superseding any prior one in place.
	Upsert(ctx context.Context, userID core.UserID, date core.CivilDate, key core.MetricKey, value any) (survey.Response, error)

	// History returns grouped daily logs for the last N days, most recent
	// date first. The evidence builder relies on this ordering.
	History(ctx context.Context, userID core.UserID, days int) ([]survey.DailyLog, error)

	// LogByDate returns one day's log, or (nil, nil) when the day is empty.
	LogByDate(ctx context.Context, userID core.UserID, date core.CivilDate) (*survey.DailyLog, error)

	// UpdateResponse overwrites a response's value slots by id, checking
	// ownership.
	UpdateResponse(ctx context.Context, userID core.UserID, responseID int64, value survey.ResponseValue) (survey.Response, error)

	// EraseUser bulk-deletes every response belonging to a user.
	EraseUser(ctx context.Context, userID core.UserID) (int64, error)
}
