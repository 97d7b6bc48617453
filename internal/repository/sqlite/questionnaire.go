package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/questionnaire/pkg/models"
)

const questionnaireColumns = `id, name, description, version, status, domain, lastmodifiedby, lastmodifieddatetime`

func (r *SQLiteRepo) CreateQuestionnaire(ctx context.Context, q *models.Questionnaire) (int64, error) {
	if q == nil {
		return 0, fmt.Errorf("questionnaire: %w", errNilEntity)
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO questionnaires (name, description, version, status, domain, lastmodifiedby, lastmodifieddatetime) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.Name, q.Description, q.Version, q.Status, q.Domain, q.Lastmodifiedby, stamp(q.Lastmodifieddatetime))
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetQuestionnaire(ctx context.Context, id int64) (*models.Questionnaire, error) {
	var q models.Questionnaire
	if err := r.conn.Get(ctx, &q, `SELECT `+questionnaireColumns+` FROM questionnaires WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

func (r *SQLiteRepo) UpdateQuestionnaire(ctx context.Context, q *models.Questionnaire) error {
	if q == nil {
		return fmt.Errorf("questionnaire: %w", errNilEntity)
	}

	res, err := r.conn.Exec(ctx, `UPDATE questionnaires SET name = ?, description = ?, version = ?, status = ?, domain = ?, lastmodifiedby = ?, lastmodifieddatetime = ? WHERE id = ?`,
		q.Name, q.Description, q.Version, q.Status, q.Domain, q.Lastmodifiedby, stamp(q.Lastmodifieddatetime), q.ID)
	if err != nil {
		return err
	}
	return mustAffect(res, "questionnaire")
}

func (r *SQLiteRepo) DeleteQuestionnaire(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM questionnaires WHERE id = ?`, id)
	return err
}

func (r *SQLiteRepo) ListQuestionnaires(ctx context.Context, limit, offset int) ([]models.Questionnaire, error) {
	limit, offset = page(limit, offset)
	out := []models.Questionnaire{}
	err := r.conn.Select(ctx, &out, `SELECT `+questionnaireColumns+` FROM questionnaires ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	return out, err
}

func (r *SQLiteRepo) CountQuestionnaires(ctx context.Context) (int64, error) {
	var n int64
	err := r.conn.Get(ctx, &n, `SELECT COUNT(1) FROM questionnaires`)
	return n, err
}
