package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/questionnaire/pkg/models"
)

const questionColumns = `id, question, mandatory, code, position, status, domain, lastmodifiedby, lastmodifieddatetime, type, help, answer_id, questiongroup_id`

func (r *SQLiteRepo) CreateQuestion(ctx context.Context, q *models.Question) (int64, error) {
	if q == nil {
		return 0, fmt.Errorf("question: %w", errNilEntity)
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO questions (question, mandatory, code, position, status, domain, lastmodifiedby, lastmodifieddatetime, type, help, answer_id, questiongroup_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.Question, q.Mandatory, q.Code, q.Position, q.Status, q.Domain, q.Lastmodifiedby, stamp(q.Lastmodifieddatetime), q.Type, q.Help, q.AnswerID, q.QuestiongroupID)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetQuestion(ctx context.Context, id int64) (*models.Question, error) {
	var q models.Question
	if err := r.conn.Get(ctx, &q, `SELECT `+questionColumns+` FROM questions WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

func (r *SQLiteRepo) UpdateQuestion(ctx context.Context, q *models.Question) error {
	if q == nil {
		return fmt.Errorf("question: %w", errNilEntity)
	}

	res, err := r.conn.Exec(ctx, `UPDATE questions SET question = ?, mandatory = ?, code = ?, position = ?, status = ?, domain = ?, lastmodifiedby = ?, lastmodifieddatetime = ?, type = ?, help = ?, answer_id = ?, questiongroup_id = ? WHERE id = ?`,
		q.Question, q.Mandatory, q.Code, q.Position, q.Status, q.Domain, q.Lastmodifiedby, stamp(q.Lastmodifieddatetime), q.Type, q.Help, q.AnswerID, q.QuestiongroupID, q.ID)
	if err != nil {
		return err
	}
	return mustAffect(res, "question")
}

func (r *SQLiteRepo) DeleteQuestion(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM questions WHERE id = ?`, id)
	return err
}

func (r *SQLiteRepo) ListQuestions(ctx context.Context, limit, offset int) ([]models.Question, error) {
	limit, offset = page(limit, offset)
	out := []models.Question{}
	err := r.conn.Select(ctx, &out, `SELECT `+questionColumns+` FROM questions ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	return out, err
}

func (r *SQLiteRepo) CountQuestions(ctx context.Context) (int64, error) {
	var n int64
	err := r.conn.Get(ctx, &n, `SELECT COUNT(1) FROM questions`)
	return n, err
}

// ListQuestionsByQuestiongroup returns the group's questions in display order.
func (r *SQLiteRepo) ListQuestionsByQuestiongroup(ctx context.Context, groupID int64) ([]models.Question, error) {
	out := []models.Question{}
	err := r.conn.Select(ctx, &out, `SELECT `+questionColumns+` FROM questions WHERE questiongroup_id = ? ORDER BY position, id`, groupID)
	return out, err
}
