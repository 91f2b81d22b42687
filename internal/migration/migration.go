package migration

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/TbrosN/clarity/internal"
	"github.com/TbrosN/clarity/internal/errors"
)

// Runner applies the schema idempotently at startup. Statements use
// IF NOT EXISTS so re-running against an existing database is a no-op.
type Runner struct {
	db     *sqlx.DB
	logger *internal.Logger
}

func NewRunner(db *sqlx.DB, logger *internal.Logger) *Runner {
	return &Runner{db: db, logger: logger}
}

var statements = []struct {
	name string
	sql  string
}{
	{
		name: "create questions table",
		sql: `CREATE TABLE IF NOT EXISTS questions (
			id BIGSERIAL PRIMARY KEY,
			key TEXT NOT NULL UNIQUE,
			label TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT 'general',
			kind TEXT NOT NULL DEFAULT 'text',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	},
	{
		name: "create responses table",
		sql: `CREATE TABLE IF NOT EXISTS responses (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			question_id BIGINT NOT NULL REFERENCES questions(id),
			local_date DATE NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			response_numeric DOUBLE PRECISION,
			response_text TEXT,
			response_bool BOOLEAN,
			response_time TEXT,
			response_timestamp TIMESTAMPTZ
		)`,
	},
	{
		name: "create responses user/date index",
		sql:  `CREATE INDEX IF NOT EXISTS idx_responses_user_date ON responses (user_id, local_date)`,
	},
	{
		name: "create responses user/question/date index",
		sql:  `CREATE INDEX IF NOT EXISTS idx_responses_user_question_date ON responses (user_id, question_id, local_date)`,
	},
}

// Run applies every schema statement in order, stopping at the first
// failure.
func (r *Runner) Run(ctx context.Context) error {
	for _, stmt := range statements {
		r.logger.Debug("migration: %s", stmt.name)
		if _, err := r.db.ExecContext(ctx, stmt.sql); err != nil {
			return errors.DatabaseError(fmt.Sprintf("migration %q failed", stmt.name), err)
		}
	}
	r.logger.Info("migrations applied: %d statements", len(statements))
	return nil
}
