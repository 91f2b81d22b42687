package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/TbrosN/clarity/domain/core"
	"github.com/TbrosN/clarity/domain/survey"
	"github.com/TbrosN/clarity/internal/errors"
)

// QuestionRepository persists question definitions, creating them lazily
// the first time a key is seen. It implements ports.QuestionRegistry.
type QuestionRepository struct {
	db      *sqlx.DB
	catalog *survey.Catalog
}

func NewQuestionRepository(db *sqlx.DB, catalog *survey.Catalog) *QuestionRepository {
	return &QuestionRepository{db: db, catalog: catalog}
}

// LookupOrCreate returns the stored id for a question key, inserting it on
// first use. INSERT ... ON CONFLICT DO NOTHING followed by a SELECT keeps
// this idempotent under concurrent callers.
func (r *QuestionRepository) LookupOrCreate(ctx context.Context, key core.MetricKey) (int64, error) {
	spec := r.catalog.SpecOrDefault(key)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO questions (key, label, category, kind)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO NOTHING`,
		string(key), spec.Label, spec.Category, spec.StorageKind())
	if err != nil {
		return 0, errors.DatabaseError(fmt.Sprintf("failed to ensure question %q", key), err)
	}

	var id int64
	if err := r.db.GetContext(ctx, &id, `SELECT id FROM questions WHERE key = $1`, string(key)); err != nil {
		return 0, errors.DatabaseError(fmt.Sprintf("failed to load question %q", key), err)
	}
	return id, nil
}

// KeysByID returns the id -> key mapping for every stored question.
func (r *QuestionRepository) KeysByID(ctx context.Context) (map[int64]core.MetricKey, error) {
	rows := []struct {
		ID  int64  `db:"id"`
		Key string `db:"key"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, key FROM questions`); err != nil {
		return nil, errors.DatabaseError("failed to load questions", err)
	}

	keys := make(map[int64]core.MetricKey, len(rows))
	for _, row := range rows {
		keys[row.ID] = core.MetricKey(row.Key)
	}
	return keys, nil
}
