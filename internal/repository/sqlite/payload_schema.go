package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/garnizeh/questionnaire/pkg/models"
)

const payloadSchemaColumns = `id, version, description, schema_json, created, updated`

// CreatePayloadSchema inserts or updates a schema by version and returns its id.
func (r *SQLiteRepo) CreatePayloadSchema(ctx context.Context, version, description, schemaJSON string) (int64, error) {
	ts := now()
	if _, err := r.conn.Exec(ctx, `INSERT INTO payload_schemas (version, description, schema_json, created, updated) VALUES (?, ?, ?, ?, ?) ON CONFLICT(version) DO UPDATE SET description=excluded.description, schema_json=excluded.schema_json, updated=excluded.updated`,
		version, description, schemaJSON, ts, ts); err != nil {
		return 0, err
	}

	// LastInsertId is not reliable for the upsert branch
	var id int64
	if err := r.conn.Get(ctx, &id, `SELECT id FROM payload_schemas WHERE version = ?`, version); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *SQLiteRepo) GetPayloadSchemaByVersion(ctx context.Context, version string) (*models.PayloadSchema, error) {
	var s models.PayloadSchema
	if err := r.conn.Get(ctx, &s, `SELECT `+payloadSchemaColumns+` FROM payload_schemas WHERE version = ?`, version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SQLiteRepo) ListPayloadSchemas(ctx context.Context) ([]models.PayloadSchema, error) {
	out := []models.PayloadSchema{}
	err := r.conn.Select(ctx, &out, `SELECT `+payloadSchemaColumns+` FROM payload_schemas ORDER BY version`)
	return out, err
}

func (r *SQLiteRepo) DeletePayloadSchema(ctx context.Context, version string) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM payload_schemas WHERE version = ?`, version)
	return err
}
