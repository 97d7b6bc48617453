package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/questionnaire/pkg/models"
)

const responsedetailColumns = `id, response_id, questionnaire_id, questiongroup_id, question_id, subquestion_id, response`

func (r *SQLiteRepo) CreateResponsedetail(ctx context.Context, d *models.Responsedetail) (int64, error) {
	if d == nil {
		return 0, fmt.Errorf("responsedetail: %w", errNilEntity)
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO responsedetails (response_id, questionnaire_id, questiongroup_id, question_id, subquestion_id, response) VALUES (?, ?, ?, ?, ?, ?)`,
		d.ResponseID, d.QuestionnaireID, d.QuestiongroupID, d.QuestionID, d.SubquestionID, d.Response)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetResponsedetail(ctx context.Context, id int64) (*models.Responsedetail, error) {
	var d models.Responsedetail
	if err := r.conn.Get(ctx, &d, `SELECT `+responsedetailColumns+` FROM responsedetails WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *SQLiteRepo) UpdateResponsedetail(ctx context.Context, d *models.Responsedetail) error {
	if d == nil {
		return fmt.Errorf("responsedetail: %w", errNilEntity)
	}

	res, err := r.conn.Exec(ctx, `UPDATE responsedetails SET response_id = ?, questionnaire_id = ?, questiongroup_id = ?, question_id = ?, subquestion_id = ?, response = ? WHERE id = ?`,
		d.ResponseID, d.QuestionnaireID, d.QuestiongroupID, d.QuestionID, d.SubquestionID, d.Response, d.ID)
	if err != nil {
		return err
	}
	return mustAffect(res, "responsedetail")
}

func (r *SQLiteRepo) DeleteResponsedetail(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM responsedetails WHERE id = ?`, id)
	return err
}

func (r *SQLiteRepo) ListResponsedetails(ctx context.Context, limit, offset int) ([]models.Responsedetail, error) {
	limit, offset = page(limit, offset)
	out := []models.Responsedetail{}
	err := r.conn.Select(ctx, &out, `SELECT `+responsedetailColumns+` FROM responsedetails ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	return out, err
}

func (r *SQLiteRepo) CountResponsedetails(ctx context.Context) (int64, error) {
	var n int64
	err := r.conn.Get(ctx, &n, `SELECT COUNT(1) FROM responsedetails`)
	return n, err
}

// ListResponsedetailsByResponse returns rows in insertion order, so later
// decompositions of the same response come last.
func (r *SQLiteRepo) ListResponsedetailsByResponse(ctx context.Context, responseID int64) ([]models.Responsedetail, error) {
	out := []models.Responsedetail{}
	err := r.conn.Select(ctx, &out, `SELECT `+responsedetailColumns+` FROM responsedetails WHERE response_id = ? ORDER BY id`, responseID)
	return out, err
}
