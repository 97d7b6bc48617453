package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/questionnaire/pkg/models"
)

const conditionsColumns = `id, action, operator, response, displayedquestion_id, question_id, subquestion_id`

// conditionsRow is the storage shape of models.Conditions: the gating source
// is kept as two nullable columns.
type conditionsRow struct {
	ID                  int64  `db:"id"`
	Action              string `db:"action"`
	Operator            string `db:"operator"`
	Response            string `db:"response"`
	DisplayedquestionID int64  `db:"displayedquestion_id"`
	QuestionID          *int64 `db:"question_id"`
	SubquestionID       *int64 `db:"subquestion_id"`
}

func (row conditionsRow) model() (models.Conditions, error) {
	src, err := models.SourceFromColumns(row.QuestionID, row.SubquestionID)
	if err != nil {
		return models.Conditions{}, fmt.Errorf("conditions %d: %w", row.ID, err)
	}
	return models.Conditions{
		ID:                  row.ID,
		Action:              row.Action,
		Operator:            row.Operator,
		Response:            row.Response,
		DisplayedquestionID: row.DisplayedquestionID,
		Source:              src,
	}, nil
}

func conditionsModels(rows []conditionsRow) ([]models.Conditions, error) {
	out := make([]models.Conditions, 0, len(rows))
	for _, row := range rows {
		c, err := row.model()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *SQLiteRepo) CreateConditions(ctx context.Context, c *models.Conditions) (int64, error) {
	if c == nil {
		return 0, fmt.Errorf("conditions: %w", errNilEntity)
	}

	q, s := c.Source.Columns()
	res, err := r.conn.Exec(ctx, `INSERT INTO conditions (action, operator, response, displayedquestion_id, question_id, subquestion_id) VALUES (?, ?, ?, ?, ?, ?)`,
		c.Action, c.Operator, c.Response, c.DisplayedquestionID, q, s)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetConditions(ctx context.Context, id int64) (*models.Conditions, error) {
	return r.getConditions(ctx, `SELECT `+conditionsColumns+` FROM conditions WHERE id = ?`, id)
}

// GetConditionsBySource returns the condition gated by src, or nil when none is.
func (r *SQLiteRepo) GetConditionsBySource(ctx context.Context, src models.GatingSource) (*models.Conditions, error) {
	switch src.Kind {
	case models.SourceQuestion:
		return r.getConditions(ctx, `SELECT `+conditionsColumns+` FROM conditions WHERE question_id = ? ORDER BY id LIMIT 1`, src.ID)
	case models.SourceSubquestion:
		return r.getConditions(ctx, `SELECT `+conditionsColumns+` FROM conditions WHERE subquestion_id = ? ORDER BY id LIMIT 1`, src.ID)
	}
	return nil, nil
}

func (r *SQLiteRepo) getConditions(ctx context.Context, q string, arg any) (*models.Conditions, error) {
	var row conditionsRow
	if err := r.conn.Get(ctx, &row, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c, err := row.model()
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *SQLiteRepo) UpdateConditions(ctx context.Context, c *models.Conditions) error {
	if c == nil {
		return fmt.Errorf("conditions: %w", errNilEntity)
	}

	q, s := c.Source.Columns()
	res, err := r.conn.Exec(ctx, `UPDATE conditions SET action = ?, operator = ?, response = ?, displayedquestion_id = ?, question_id = ?, subquestion_id = ? WHERE id = ?`,
		c.Action, c.Operator, c.Response, c.DisplayedquestionID, q, s, c.ID)
	if err != nil {
		return err
	}
	return mustAffect(res, "conditions")
}

func (r *SQLiteRepo) DeleteConditions(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM conditions WHERE id = ?`, id)
	return err
}

func (r *SQLiteRepo) ListConditions(ctx context.Context, limit, offset int) ([]models.Conditions, error) {
	limit, offset = page(limit, offset)
	var rows []conditionsRow
	if err := r.conn.Select(ctx, &rows, `SELECT `+conditionsColumns+` FROM conditions ORDER BY id LIMIT ? OFFSET ?`, limit, offset); err != nil {
		return nil, err
	}
	return conditionsModels(rows)
}

func (r *SQLiteRepo) ListAllConditions(ctx context.Context) ([]models.Conditions, error) {
	return r.ListConditions(ctx, 0, 0)
}

func (r *SQLiteRepo) CountConditions(ctx context.Context) (int64, error) {
	var n int64
	err := r.conn.Get(ctx, &n, `SELECT COUNT(1) FROM conditions`)
	return n, err
}
