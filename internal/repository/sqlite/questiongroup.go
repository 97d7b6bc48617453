package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/questionnaire/pkg/models"
)

const questiongroupColumns = `id, title, code, position, status, domain, lastmodifiedby, lastmodifieddatetime, questionnaire_id`

func (r *SQLiteRepo) CreateQuestiongroup(ctx context.Context, g *models.Questiongroup) (int64, error) {
	if g == nil {
		return 0, fmt.Errorf("questiongroup: %w", errNilEntity)
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO questiongroups (title, code, position, status, domain, lastmodifiedby, lastmodifieddatetime, questionnaire_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.Title, g.Code, g.Position, g.Status, g.Domain, g.Lastmodifiedby, stamp(g.Lastmodifieddatetime), g.QuestionnaireID)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetQuestiongroup(ctx context.Context, id int64) (*models.Questiongroup, error) {
	var g models.Questiongroup
	if err := r.conn.Get(ctx, &g, `SELECT `+questiongroupColumns+` FROM questiongroups WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

func (r *SQLiteRepo) UpdateQuestiongroup(ctx context.Context, g *models.Questiongroup) error {
	if g == nil {
		return fmt.Errorf("questiongroup: %w", errNilEntity)
	}

	res, err := r.conn.Exec(ctx, `UPDATE questiongroups SET title = ?, code = ?, position = ?, status = ?, domain = ?, lastmodifiedby = ?, lastmodifieddatetime = ?, questionnaire_id = ? WHERE id = ?`,
		g.Title, g.Code, g.Position, g.Status, g.Domain, g.Lastmodifiedby, stamp(g.Lastmodifieddatetime), g.QuestionnaireID, g.ID)
	if err != nil {
		return err
	}
	return mustAffect(res, "questiongroup")
}

func (r *SQLiteRepo) DeleteQuestiongroup(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM questiongroups WHERE id = ?`, id)
	return err
}

func (r *SQLiteRepo) ListQuestiongroups(ctx context.Context, limit, offset int) ([]models.Questiongroup, error) {
	limit, offset = page(limit, offset)
	out := []models.Questiongroup{}
	err := r.conn.Select(ctx, &out, `SELECT `+questiongroupColumns+` FROM questiongroups ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	return out, err
}

func (r *SQLiteRepo) CountQuestiongroups(ctx context.Context) (int64, error) {
	var n int64
	err := r.conn.Get(ctx, &n, `SELECT COUNT(1) FROM questiongroups`)
	return n, err
}

func (r *SQLiteRepo) ListQuestiongroupsByQuestionnaire(ctx context.Context, questionnaireID int64) ([]models.Questiongroup, error) {
	out := []models.Questiongroup{}
	err := r.conn.Select(ctx, &out, `SELECT `+questiongroupColumns+` FROM questiongroups WHERE questionnaire_id = ? ORDER BY position, id`, questionnaireID)
	return out, err
}
