package db

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"
)

// DefaultPayloadSchemaVersion is the version under which the bundled payload
// schema is seeded.
const DefaultPayloadSchemaVersion = "v1"

// Migrate applies the embedded SQL migrations in lexical order and seeds the
// default payload schema. Applied versions are tracked in schema_migrations so
// repeated runs are no-ops. Each migration runs in its own transaction.
func Migrate(ctx context.Context, d *DB, migrationFS fs.FS, seedFS fs.FS) error {
	if _, err := d.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY, applied INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	const migDir = "migrations"
	entries, err := fs.ReadDir(migrationFS, migDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)

	for _, fname := range files {
		version := strings.TrimSuffix(fname, path.Ext(fname))

		var count int
		if err := d.Get(ctx, &count, `SELECT COUNT(1) FROM schema_migrations WHERE version = ?`, version); err != nil {
			return fmt.Errorf("check migration %s: %w", version, err)
		}
		if count > 0 {
			continue
		}

		b, err := fs.ReadFile(migrationFS, path.Join(migDir, fname))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", fname, err)
		}

		err = d.WithTx(ctx, func(tx *Tx) error {
			if _, err := tx.Exec(ctx, string(b)); err != nil {
				return fmt.Errorf("exec migration %s: %w", fname, err)
			}
			if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, applied) VALUES (?, ?)`, version, time.Now().UTC().UnixMilli()); err != nil {
				return fmt.Errorf("record migration %s: %w", fname, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		d.logger.Info("migration applied", "version", version)
	}

	return seedPayloadSchema(ctx, d, seedFS)
}

// seedPayloadSchema inserts the bundled schema unless an operator already
// stored one under the same version. A missing seed file is not an error.
func seedPayloadSchema(ctx context.Context, d *DB, seedFS fs.FS) error {
	if seedFS == nil {
		return nil
	}
	b, err := fs.ReadFile(seedFS, path.Join("seed", "payload_schema_"+DefaultPayloadSchemaVersion+".json"))
	if err != nil {
		return nil
	}

	ts := time.Now().UTC().UnixMilli()
	_, err = d.Exec(ctx, `INSERT OR IGNORE INTO payload_schemas (version, description, schema_json, created, updated) VALUES (?, ?, ?, ?, ?)`,
		DefaultPayloadSchemaVersion, "default response payload schema", string(b), ts, ts)
	if err != nil {
		return fmt.Errorf("seed payload schema: %w", err)
	}
	return nil
}
