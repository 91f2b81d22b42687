package postgres

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/TbrosN/clarity/domain/core"
	"github.com/TbrosN/clarity/domain/survey"
	"github.com/TbrosN/clarity/internal/errors"
	"github.com/TbrosN/clarity/ports"
)

// ResponseRepository persists survey responses. It implements
// ports.ResponseStore on top of the typed-slot storage model: each response
// row carries one populated value column matching the question's kind.
type ResponseRepository struct {
	db        *sqlx.DB
	questions ports.QuestionRegistry
	catalog   *survey.Catalog
}

func NewResponseRepository(db *sqlx.DB, questions ports.QuestionRegistry, catalog *survey.Catalog) *ResponseRepository {
	return &ResponseRepository{db: db, questions: questions, catalog: catalog}
}

// Upsert records the current answer for (user, question, date). An existing
// row for the day is updated in place rather than versioned; the value is
// reclassified from scratch on every write.
func (r *ResponseRepository) Upsert(ctx context.Context, userID core.UserID, date core.CivilDate, key core.MetricKey, value any) (survey.Response, error) {
	questionID, err := r.questions.LookupOrCreate(ctx, key)
	if err != nil {
		return survey.Response{}, err
	}

	response := survey.Response{
		UserID:     userID,
		QuestionID: questionID,
		LocalDate:  date,
		RecordedAt: time.Now().UTC(),
	}
	response.Apply(survey.Classify(r.catalog.SpecOrDefault(key), value))

	var existingID int64
	err = r.db.GetContext(ctx, &existingID, `
		SELECT id FROM responses
		WHERE user_id = $1 AND question_id = $2 AND local_date = $3
		ORDER BY recorded_at DESC
		LIMIT 1`,
		string(userID), questionID, string(date))

	switch {
	case err == nil:
		response.ID = existingID
		_, err = r.db.ExecContext(ctx, `
			UPDATE responses
			SET recorded_at = $1,
			    response_numeric = $2, response_text = $3, response_bool = $4,
			    response_time = $5, response_timestamp = $6
			WHERE id = $7`,
			response.RecordedAt,
			response.Numeric, response.Text, response.Bool,
			response.TimeOfDay, response.Timestamp,
			existingID)
		if err != nil {
			return survey.Response{}, errors.DatabaseError("failed to update response", err)
		}
	case err == sql.ErrNoRows:
		err = r.db.GetContext(ctx, &response.ID, `
			INSERT INTO responses
				(user_id, question_id, local_date, recorded_at,
				 response_numeric, response_text, response_bool, response_time, response_timestamp)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`,
			string(userID), questionID, string(date), response.RecordedAt,
			response.Numeric, response.Text, response.Bool, response.TimeOfDay, response.Timestamp)
		if err != nil {
			return survey.Response{}, errors.DatabaseError("failed to insert response", err)
		}
	default:
		return survey.Response{}, errors.DatabaseError("failed to look up existing response", err)
	}

	return response, nil
}

// History returns the user's daily logs for the last N days, most recent
// date first. The question mapping and the response rows load concurrently.
func (r *ResponseRepository) History(ctx context.Context, userID core.UserID, days int) ([]survey.DailyLog, error) {
	since := core.CivilDateOf(time.Now().UTC().AddDate(0, 0, -days))

	var keysByID map[int64]core.MetricKey
	var rows []survey.Response

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		keysByID, err = r.questions.KeysByID(gctx)
		return err
	})
	g.Go(func() error {
		return r.db.SelectContext(gctx, &rows, `
			SELECT id, user_id, question_id, local_date, recorded_at,
			       response_numeric, response_text, response_bool, response_time, response_timestamp
			FROM responses
			WHERE user_id = $1 AND local_date >= $2
			ORDER BY local_date DESC, recorded_at DESC`,
			string(userID), string(since))
	})
	if err := g.Wait(); err != nil {
		return nil, errors.DatabaseError("failed to load response history", err)
	}

	return groupByDate(rows, keysByID), nil
}

// LogByDate returns one day's log, or (nil, nil) when the day has no
// responses.
func (r *ResponseRepository) LogByDate(ctx context.Context, userID core.UserID, date core.CivilDate) (*survey.DailyLog, error) {
	var rows []survey.Response
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, question_id, local_date, recorded_at,
		       response_numeric, response_text, response_bool, response_time, response_timestamp
		FROM responses
		WHERE user_id = $1 AND local_date = $2
		ORDER BY recorded_at DESC`,
		string(userID), string(date))
	if err != nil {
		return nil, errors.DatabaseError("failed to load daily log", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	keysByID, err := r.questions.KeysByID(ctx)
	if err != nil {
		return nil, err
	}

	logs := groupByDate(rows, keysByID)
	return &logs[0], nil
}

// UpdateResponse overwrites a response's value slots by id. Ownership is
// enforced in the WHERE clause so one user cannot touch another's rows.
func (r *ResponseRepository) UpdateResponse(ctx context.Context, userID core.UserID, responseID int64, value survey.ResponseValue) (survey.Response, error) {
	var response survey.Response
	err := r.db.GetContext(ctx, &response, `
		SELECT id, user_id, question_id, local_date, recorded_at,
		       response_numeric, response_text, response_bool, response_time, response_timestamp
		FROM responses
		WHERE id = $1 AND user_id = $2`,
		responseID, string(userID))
	if err == sql.ErrNoRows {
		return survey.Response{}, errors.NotFound("response")
	}
	if err != nil {
		return survey.Response{}, errors.DatabaseError("failed to load response", err)
	}

	response.Apply(value)
	response.RecordedAt = time.Now().UTC()

	_, err = r.db.ExecContext(ctx, `
		UPDATE responses
		SET recorded_at = $1,
		    response_numeric = $2, response_text = $3, response_bool = $4,
		    response_time = $5, response_timestamp = $6
		WHERE id = $7 AND user_id = $8`,
		response.RecordedAt,
		response.Numeric, response.Text, response.Bool,
		response.TimeOfDay, response.Timestamp,
		responseID, string(userID))
	if err != nil {
		return survey.Response{}, errors.DatabaseError("failed to update response", err)
	}
	return response, nil
}

// EraseUser bulk-deletes every response belonging to a user and reports the
// number of rows removed.
func (r *ResponseRepository) EraseUser(ctx context.Context, userID core.UserID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM responses WHERE user_id = $1`, string(userID))
	if err != nil {
		return 0, errors.DatabaseError("failed to erase user responses", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, errors.DatabaseError("failed to count erased responses", err)
	}
	return deleted, nil
}

// groupByDate folds response rows (already ordered most recent first) into
// per-date logs. Rows for questions missing from the mapping are skipped;
// within a day only the newest row per question wins.
func groupByDate(rows []survey.Response, keysByID map[int64]core.MetricKey) []survey.DailyLog {
	byDate := map[core.CivilDate]*survey.DailyLog{}
	for _, row := range rows {
		key, ok := keysByID[row.QuestionID]
		if !ok {
			continue
		}

		log, exists := byDate[row.LocalDate]
		if !exists {
			fresh := survey.NewDailyLog(row.LocalDate)
			log = &fresh
			byDate[row.LocalDate] = log
		}
		if _, taken := log.Responses[key]; taken {
			continue
		}
		log.Set(key, row)
	}

	logs := make([]survey.DailyLog, 0, len(byDate))
	for _, log := range byDate {
		logs = append(logs, *log)
	}
	sort.Slice(logs, func(i, j int) bool {
		return logs[j].Date.Before(logs[i].Date)
	})
	return logs
}
