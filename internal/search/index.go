package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/garnizeh/questionnaire/internal/db"
	"github.com/garnizeh/questionnaire/pkg/models"
)

// Index is a document mirror of the entity tables. Each document is the JSON
// body of one entity and is matched with case-insensitive substring terms.
type Index struct {
	db *db.DB
}

func NewIndex(d *db.DB) *Index { return &Index{db: d} }

// Put stores or replaces the document for entity/id.
func (ix *Index) Put(ctx context.Context, entity string, id int64, body json.RawMessage) error {
	q := `INSERT INTO search_documents(entity, entity_id, body, updated) VALUES(?,?,?,?)
		ON CONFLICT(entity, entity_id) DO UPDATE SET body = excluded.body, updated = excluded.updated`
	if _, err := ix.db.Exec(ctx, q, entity, id, string(body), time.Now().UTC().UnixMilli()); err != nil {
		return fmt.Errorf("index %s %d: %w", entity, id, err)
	}
	return nil
}

// Delete removes the document for entity/id. Missing documents are ignored.
func (ix *Index) Delete(ctx context.Context, entity string, id int64) error {
	if _, err := ix.db.Exec(ctx, `DELETE FROM search_documents WHERE entity = ? AND entity_id = ?`, entity, id); err != nil {
		return fmt.Errorf("unindex %s %d: %w", entity, id, err)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// where builds the filter for query: every whitespace-separated term must
// appear in the body. An empty query matches every document of the entity.
func where(entity, query string) (string, []any) {
	var sb strings.Builder
	sb.WriteString(` WHERE entity = ?`)
	args := []any{entity}
	for _, term := range strings.Fields(query) {
		sb.WriteString(` AND body LIKE ? ESCAPE '\'`)
		args = append(args, "%"+likeEscaper.Replace(term)+"%")
	}
	return sb.String(), args
}

// Search returns matching documents ordered by entity id. A limit of zero or
// less returns every match.
func (ix *Index) Search(ctx context.Context, entity, query string, limit, offset int) ([]models.SearchHit, error) {
	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}
	filter, args := where(entity, query)
	args = append(args, limit, offset)

	hits := []models.SearchHit{}
	q := `SELECT entity, entity_id, body FROM search_documents` + filter + ` ORDER BY entity_id LIMIT ? OFFSET ?`
	if err := ix.db.Select(ctx, &hits, q, args...); err != nil {
		return nil, fmt.Errorf("search %s: %w", entity, err)
	}
	return hits, nil
}

// Count returns the number of documents Search would match without paging.
func (ix *Index) Count(ctx context.Context, entity, query string) (int64, error) {
	filter, args := where(entity, query)
	var n int64
	if err := ix.db.Get(ctx, &n, `SELECT COUNT(*) FROM search_documents`+filter, args...); err != nil {
		return 0, fmt.Errorf("count %s: %w", entity, err)
	}
	return n, nil
}
