package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/questionnaire/pkg/models"
)

const logicoperatorColumns = `id, operator, firstquestion_id, secondquestion_id, firstsubquestion_id, secondsubquestion_id, questionnaire_id`

type logicoperatorRow struct {
	ID                  int64  `db:"id"`
	Operator            string `db:"operator"`
	FirstquestionID     *int64 `db:"firstquestion_id"`
	SecondquestionID    *int64 `db:"secondquestion_id"`
	FirstsubquestionID  *int64 `db:"firstsubquestion_id"`
	SecondsubquestionID *int64 `db:"secondsubquestion_id"`
	QuestionnaireID     *int64 `db:"questionnaire_id"`
}

func (row logicoperatorRow) model() (models.Logicoperator, error) {
	first, err := models.SourceFromColumns(row.FirstquestionID, row.FirstsubquestionID)
	if err != nil {
		return models.Logicoperator{}, fmt.Errorf("logicoperator %d first term: %w", row.ID, err)
	}
	second, err := models.SourceFromColumns(row.SecondquestionID, row.SecondsubquestionID)
	if err != nil {
		return models.Logicoperator{}, fmt.Errorf("logicoperator %d second term: %w", row.ID, err)
	}
	return models.Logicoperator{
		ID:              row.ID,
		Operator:        row.Operator,
		First:           first,
		Second:          second,
		QuestionnaireID: row.QuestionnaireID,
	}, nil
}

func (r *SQLiteRepo) selectLogicoperators(ctx context.Context, q string, args ...any) ([]models.Logicoperator, error) {
	var rows []logicoperatorRow
	if err := r.conn.Select(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	out := make([]models.Logicoperator, 0, len(rows))
	for _, row := range rows {
		l, err := row.model()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func (r *SQLiteRepo) CreateLogicoperator(ctx context.Context, l *models.Logicoperator) (int64, error) {
	if l == nil {
		return 0, fmt.Errorf("logicoperator: %w", errNilEntity)
	}

	fq, fs := l.First.Columns()
	sq, ss := l.Second.Columns()
	res, err := r.conn.Exec(ctx, `INSERT INTO logicoperators (operator, firstquestion_id, secondquestion_id, firstsubquestion_id, secondsubquestion_id, questionnaire_id) VALUES (?, ?, ?, ?, ?, ?)`,
		l.Operator, fq, sq, fs, ss, l.QuestionnaireID)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetLogicoperator(ctx context.Context, id int64) (*models.Logicoperator, error) {
	var row logicoperatorRow
	if err := r.conn.Get(ctx, &row, `SELECT `+logicoperatorColumns+` FROM logicoperators WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	l, err := row.model()
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *SQLiteRepo) UpdateLogicoperator(ctx context.Context, l *models.Logicoperator) error {
	if l == nil {
		return fmt.Errorf("logicoperator: %w", errNilEntity)
	}

	fq, fs := l.First.Columns()
	sq, ss := l.Second.Columns()
	res, err := r.conn.Exec(ctx, `UPDATE logicoperators SET operator = ?, firstquestion_id = ?, secondquestion_id = ?, firstsubquestion_id = ?, secondsubquestion_id = ?, questionnaire_id = ? WHERE id = ?`,
		l.Operator, fq, sq, fs, ss, l.QuestionnaireID, l.ID)
	if err != nil {
		return err
	}
	return mustAffect(res, "logicoperator")
}

func (r *SQLiteRepo) DeleteLogicoperator(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM logicoperators WHERE id = ?`, id)
	return err
}

func (r *SQLiteRepo) ListLogicoperators(ctx context.Context, limit, offset int) ([]models.Logicoperator, error) {
	limit, offset = page(limit, offset)
	return r.selectLogicoperators(ctx, `SELECT `+logicoperatorColumns+` FROM logicoperators ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
}

func (r *SQLiteRepo) CountLogicoperators(ctx context.Context) (int64, error) {
	var n int64
	err := r.conn.Get(ctx, &n, `SELECT COUNT(1) FROM logicoperators`)
	return n, err
}

func (r *SQLiteRepo) ListLogicoperatorsByQuestionnaire(ctx context.Context, questionnaireID int64) ([]models.Logicoperator, error) {
	return r.selectLogicoperators(ctx, `SELECT `+logicoperatorColumns+` FROM logicoperators WHERE questionnaire_id = ? ORDER BY id`, questionnaireID)
}

func (r *SQLiteRepo) ListLogicoperatorsByQuestion(ctx context.Context, questionID int64) ([]models.Logicoperator, error) {
	return r.selectLogicoperators(ctx, `SELECT `+logicoperatorColumns+` FROM logicoperators WHERE firstquestion_id = ? OR secondquestion_id = ? ORDER BY id`, questionID, questionID)
}
