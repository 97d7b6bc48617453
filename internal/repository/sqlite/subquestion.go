package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/questionnaire/pkg/models"
)

const subquestionColumns = `id, subquestion, code, position, status, domain, lastmodifiedby, lastmodifieddatetime, question_id`

func (r *SQLiteRepo) CreateSubquestion(ctx context.Context, s *models.Subquestion) (int64, error) {
	if s == nil {
		return 0, fmt.Errorf("subquestion: %w", errNilEntity)
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO subquestions (subquestion, code, position, status, domain, lastmodifiedby, lastmodifieddatetime, question_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Subquestion, s.Code, s.Position, s.Status, s.Domain, s.Lastmodifiedby, stamp(s.Lastmodifieddatetime), s.QuestionID)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetSubquestion(ctx context.Context, id int64) (*models.Subquestion, error) {
	var s models.Subquestion
	if err := r.conn.Get(ctx, &s, `SELECT `+subquestionColumns+` FROM subquestions WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SQLiteRepo) UpdateSubquestion(ctx context.Context, s *models.Subquestion) error {
	if s == nil {
		return fmt.Errorf("subquestion: %w", errNilEntity)
	}

	res, err := r.conn.Exec(ctx, `UPDATE subquestions SET subquestion = ?, code = ?, position = ?, status = ?, domain = ?, lastmodifiedby = ?, lastmodifieddatetime = ?, question_id = ? WHERE id = ?`,
		s.Subquestion, s.Code, s.Position, s.Status, s.Domain, s.Lastmodifiedby, stamp(s.Lastmodifieddatetime), s.QuestionID, s.ID)
	if err != nil {
		return err
	}
	return mustAffect(res, "subquestion")
}

func (r *SQLiteRepo) DeleteSubquestion(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM subquestions WHERE id = ?`, id)
	return err
}

func (r *SQLiteRepo) ListSubquestions(ctx context.Context, limit, offset int) ([]models.Subquestion, error) {
	limit, offset = page(limit, offset)
	out := []models.Subquestion{}
	err := r.conn.Select(ctx, &out, `SELECT `+subquestionColumns+` FROM subquestions ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	return out, err
}

func (r *SQLiteRepo) CountSubquestions(ctx context.Context) (int64, error) {
	var n int64
	err := r.conn.Get(ctx, &n, `SELECT COUNT(1) FROM subquestions`)
	return n, err
}

func (r *SQLiteRepo) ListSubquestionsByQuestion(ctx context.Context, questionID int64) ([]models.Subquestion, error) {
	out := []models.Subquestion{}
	err := r.conn.Select(ctx, &out, `SELECT `+subquestionColumns+` FROM subquestions WHERE question_id = ? ORDER BY position, id`, questionID)
	return out, err
}
