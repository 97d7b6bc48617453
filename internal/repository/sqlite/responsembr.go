package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/questionnaire/pkg/models"
)

const responsembrColumns = `id, status, lastmodifiedby, lastmodifieddatetime, domain, asset_id, response_id`

func (r *SQLiteRepo) CreateResponsembr(ctx context.Context, m *models.Responsembr) (int64, error) {
	if m == nil {
		return 0, fmt.Errorf("responsembr: %w", errNilEntity)
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO responsembrs (status, lastmodifiedby, lastmodifieddatetime, domain, asset_id, response_id) VALUES (?, ?, ?, ?, ?, ?)`,
		m.Status, m.Lastmodifiedby, stamp(m.Lastmodifieddatetime), m.Domain, m.AssetID, m.ResponseID)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetResponsembr(ctx context.Context, id int64) (*models.Responsembr, error) {
	var m models.Responsembr
	if err := r.conn.Get(ctx, &m, `SELECT `+responsembrColumns+` FROM responsembrs WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *SQLiteRepo) UpdateResponsembr(ctx context.Context, m *models.Responsembr) error {
	if m == nil {
		return fmt.Errorf("responsembr: %w", errNilEntity)
	}

	res, err := r.conn.Exec(ctx, `UPDATE responsembrs SET status = ?, lastmodifiedby = ?, lastmodifieddatetime = ?, domain = ?, asset_id = ?, response_id = ? WHERE id = ?`,
		m.Status, m.Lastmodifiedby, stamp(m.Lastmodifieddatetime), m.Domain, m.AssetID, m.ResponseID, m.ID)
	if err != nil {
		return err
	}
	return mustAffect(res, "responsembr")
}

func (r *SQLiteRepo) DeleteResponsembr(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM responsembrs WHERE id = ?`, id)
	return err
}

func (r *SQLiteRepo) ListResponsembrs(ctx context.Context, limit, offset int) ([]models.Responsembr, error) {
	limit, offset = page(limit, offset)
	out := []models.Responsembr{}
	err := r.conn.Select(ctx, &out, `SELECT `+responsembrColumns+` FROM responsembrs ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	return out, err
}

func (r *SQLiteRepo) CountResponsembrs(ctx context.Context) (int64, error) {
	var n int64
	err := r.conn.Get(ctx, &n, `SELECT COUNT(1) FROM responsembrs`)
	return n, err
}

func (r *SQLiteRepo) ListResponsembrsByAsset(ctx context.Context, assetID int64) ([]models.Responsembr, error) {
	out := []models.Responsembr{}
	err := r.conn.Select(ctx, &out, `SELECT `+responsembrColumns+` FROM responsembrs WHERE asset_id = ? ORDER BY id`, assetID)
	return out, err
}
