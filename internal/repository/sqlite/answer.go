package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/questionnaire/pkg/models"
)

const answerColumns = `id, answer, code, position, status, domain, lastmodifiedby, lastmodifieddatetime, question_id`

func (r *SQLiteRepo) CreateAnswer(ctx context.Context, a *models.Answer) (int64, error) {
	if a == nil {
		return 0, fmt.Errorf("answer: %w", errNilEntity)
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO answers (answer, code, position, status, domain, lastmodifiedby, lastmodifieddatetime, question_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Answer, a.Code, a.Position, a.Status, a.Domain, a.Lastmodifiedby, stamp(a.Lastmodifieddatetime), a.QuestionID)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetAnswer(ctx context.Context, id int64) (*models.Answer, error) {
	var a models.Answer
	if err := r.conn.Get(ctx, &a, `SELECT `+answerColumns+` FROM answers WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *SQLiteRepo) UpdateAnswer(ctx context.Context, a *models.Answer) error {
	if a == nil {
		return fmt.Errorf("answer: %w", errNilEntity)
	}

	res, err := r.conn.Exec(ctx, `UPDATE answers SET answer = ?, code = ?, position = ?, status = ?, domain = ?, lastmodifiedby = ?, lastmodifieddatetime = ?, question_id = ? WHERE id = ?`,
		a.Answer, a.Code, a.Position, a.Status, a.Domain, a.Lastmodifiedby, stamp(a.Lastmodifieddatetime), a.QuestionID, a.ID)
	if err != nil {
		return err
	}
	return mustAffect(res, "answer")
}

func (r *SQLiteRepo) DeleteAnswer(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM answers WHERE id = ?`, id)
	return err
}

func (r *SQLiteRepo) ListAnswers(ctx context.Context, limit, offset int) ([]models.Answer, error) {
	limit, offset = page(limit, offset)
	out := []models.Answer{}
	err := r.conn.Select(ctx, &out, `SELECT `+answerColumns+` FROM answers ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	return out, err
}

func (r *SQLiteRepo) CountAnswers(ctx context.Context) (int64, error) {
	var n int64
	err := r.conn.Get(ctx, &n, `SELECT COUNT(1) FROM answers`)
	return n, err
}

func (r *SQLiteRepo) ListAnswersByQuestion(ctx context.Context, questionID int64) ([]models.Answer, error) {
	out := []models.Answer{}
	err := r.conn.Select(ctx, &out, `SELECT `+answerColumns+` FROM answers WHERE question_id = ? ORDER BY position, id`, questionID)
	return out, err
}
