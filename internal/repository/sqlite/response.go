package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/questionnaire/pkg/models"
)

const responseColumns = `id, details, status, lastmodifiedby, lastmodifieddatetime, domain, questionnaire_id, username`

func (r *SQLiteRepo) CreateResponse(ctx context.Context, resp *models.Response) (int64, error) {
	if resp == nil {
		return 0, fmt.Errorf("response: %w", errNilEntity)
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO responses (details, status, lastmodifiedby, lastmodifieddatetime, domain, questionnaire_id, username) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		resp.Details, resp.Status, resp.Lastmodifiedby, stamp(resp.Lastmodifieddatetime), resp.Domain, resp.QuestionnaireID, resp.Username)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetResponse(ctx context.Context, id int64) (*models.Response, error) {
	return r.getResponse(ctx, `SELECT `+responseColumns+` FROM responses WHERE id = ?`, id)
}

func (r *SQLiteRepo) getResponse(ctx context.Context, q string, args ...any) (*models.Response, error) {
	var resp models.Response
	if err := r.conn.Get(ctx, &resp, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &resp, nil
}

func (r *SQLiteRepo) UpdateResponse(ctx context.Context, resp *models.Response) error {
	if resp == nil {
		return fmt.Errorf("response: %w", errNilEntity)
	}

	res, err := r.conn.Exec(ctx, `UPDATE responses SET details = ?, status = ?, lastmodifiedby = ?, lastmodifieddatetime = ?, domain = ?, questionnaire_id = ?, username = ? WHERE id = ?`,
		resp.Details, resp.Status, resp.Lastmodifiedby, stamp(resp.Lastmodifieddatetime), resp.Domain, resp.QuestionnaireID, resp.Username, resp.ID)
	if err != nil {
		return err
	}
	return mustAffect(res, "response")
}

func (r *SQLiteRepo) DeleteResponse(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM responses WHERE id = ?`, id)
	return err
}

func (r *SQLiteRepo) ListResponses(ctx context.Context, limit, offset int) ([]models.Response, error) {
	limit, offset = page(limit, offset)
	out := []models.Response{}
	err := r.conn.Select(ctx, &out, `SELECT `+responseColumns+` FROM responses ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	return out, err
}

func (r *SQLiteRepo) CountResponses(ctx context.Context) (int64, error) {
	var n int64
	err := r.conn.Get(ctx, &n, `SELECT COUNT(1) FROM responses`)
	return n, err
}

// LatestResponse resolves the current response of a questionnaire. A nil
// username matches every user.
func (r *SQLiteRepo) LatestResponse(ctx context.Context, questionnaireID int64, username *string) (*models.Response, error) {
	if username == nil {
		return r.getResponse(ctx, `SELECT `+responseColumns+` FROM responses WHERE questionnaire_id = ? ORDER BY lastmodifieddatetime DESC, id DESC LIMIT 1`, questionnaireID)
	}
	return r.getResponse(ctx, `SELECT `+responseColumns+` FROM responses WHERE questionnaire_id = ? AND username = ? ORDER BY lastmodifieddatetime DESC, id DESC LIMIT 1`, questionnaireID, *username)
}

// ListResponsesByAsset returns the responses linked to assetID, one entry
// per link, in link order.
func (r *SQLiteRepo) ListResponsesByAsset(ctx context.Context, assetID int64) ([]models.Response, error) {
	out := []models.Response{}
	err := r.conn.Select(ctx, &out, `SELECT r.id, r.details, r.status, r.lastmodifiedby, r.lastmodifieddatetime, r.domain, r.questionnaire_id, r.username FROM responsembrs m JOIN responses r ON r.id = m.response_id WHERE m.asset_id = ? ORDER BY m.id`, assetID)
	return out, err
}
