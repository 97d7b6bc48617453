package search_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	dbfs "github.com/garnizeh/questionnaire/db"
	"github.com/garnizeh/questionnaire/internal/db"
	"github.com/garnizeh/questionnaire/internal/jobs"
	"github.com/garnizeh/questionnaire/internal/search"
)

func setupIndex(t *testing.T) (*search.Index, *db.DB) {
	t.Helper()
	ctx := context.Background()
	d, err := db.New(ctx, filepath.Join(t.TempDir(), "search.db"), slog.Default())
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	if err := db.Migrate(ctx, d, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return search.NewIndex(d), d
}

func TestIndex_PutSearchDelete(t *testing.T) {
	ctx := context.Background()
	ix, _ := setupIndex(t)

	docs := map[int64]string{
		1: `{"question":"Do you smoke?","code":"SMOKE"}`,
		2: `{"question":"How many cigarettes per day?","code":"SMOKE_N"}`,
		3: `{"question":"Do you drink coffee?","code":"COFFEE"}`,
	}
	for id, body := range docs {
		if err := ix.Put(ctx, "questions", id, json.RawMessage(body)); err != nil {
			t.Fatalf("put %d: %v", id, err)
		}
	}
	if err := ix.Put(ctx, "answers", 1, json.RawMessage(`{"answer":"smoke"}`)); err != nil {
		t.Fatalf("put answer: %v", err)
	}

	hits, err := ix.Search(ctx, "questions", "smoke", 0, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 2 || hits[0].EntityID != 1 || hits[1].EntityID != 2 {
		t.Fatalf("unexpected hits: %+v", hits)
	}

	hits, err = ix.Search(ctx, "questions", "do   COFFEE", 10, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].EntityID != 3 {
		t.Fatalf("expected only question 3, got %+v", hits)
	}

	all, err := ix.Search(ctx, "questions", "", 2, 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(all) != 2 || all[0].EntityID != 2 {
		t.Fatalf("unexpected page: %+v", all)
	}
	n, err := ix.Count(ctx, "questions", "")
	if err != nil || n != 3 {
		t.Fatalf("count = %d, %v", n, err)
	}

	if err := ix.Put(ctx, "questions", 1, json.RawMessage(`{"question":"Replaced"}`)); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := ix.Delete(ctx, "questions", 2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	hits, err = ix.Search(ctx, "questions", "smoke", 0, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits after replace and delete, got %+v", hits)
	}
}

func TestIndex_LikeWildcardsAreLiteral(t *testing.T) {
	ctx := context.Background()
	ix, _ := setupIndex(t)

	if err := ix.Put(ctx, "answers", 1, json.RawMessage(`{"answer":"100% sure"}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := ix.Put(ctx, "answers", 2, json.RawMessage(`{"answer":"1000 sure"}`)); err != nil {
		t.Fatalf("put: %v", err)
	}

	hits, err := ix.Search(ctx, "answers", "100%", 0, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].EntityID != 1 {
		t.Fatalf("expected literal %% match only, got %+v", hits)
	}
}

type recordingQueue struct {
	jobs []string
}

func (q *recordingQueue) Enqueue(ctx context.Context, typ string, payload any, priority int, maxAttempts int) (int64, error) {
	q.jobs = append(q.jobs, typ)
	return int64(len(q.jobs)), nil
}

func TestSyncer_Enqueues(t *testing.T) {
	q := &recordingQueue{}
	s := search.NewSyncer(q, 3)
	ctx := context.Background()

	if err := s.Indexed(ctx, "questions", 1, map[string]string{"code": "A"}); err != nil {
		t.Fatalf("indexed: %v", err)
	}
	if err := s.Deleted(ctx, "questions", 1); err != nil {
		t.Fatalf("deleted: %v", err)
	}
	if len(q.jobs) != 2 || q.jobs[0] != search.JobIndex || q.jobs[1] != search.JobDelete {
		t.Fatalf("unexpected jobs: %v", q.jobs)
	}
}

func TestSyncer_WorkerAppliesUpdates(t *testing.T) {
	ctx := context.Background()
	ix, d := setupIndex(t)

	pool := jobs.NewWorkerPool(jobs.NewRepository(d), search.Handlers(ix), slog.Default(), 1)
	pool.Start(ctx)
	defer pool.Stop()

	s := search.NewSyncer(pool, 3)
	if err := s.Indexed(ctx, "questiongroups", 7, map[string]any{"id": 7, "title": "Lifestyle"}); err != nil {
		t.Fatalf("indexed: %v", err)
	}

	waitFor := func(want int) {
		t.Helper()
		deadline := time.Now().Add(3 * time.Second)
		for time.Now().Before(deadline) {
			n, err := ix.Count(ctx, "questiongroups", "lifestyle")
			if err != nil {
				t.Fatalf("count: %v", err)
			}
			if int(n) == want {
				return
			}
			time.Sleep(50 * time.Millisecond)
		}
		t.Fatalf("index never reached %d documents", want)
	}
	waitFor(1)

	if err := s.Deleted(ctx, "questiongroups", 7); err != nil {
		t.Fatalf("deleted: %v", err)
	}
	waitFor(0)
}

func TestHandlers_RejectBadPayload(t *testing.T) {
	ix, _ := setupIndex(t)
	h := search.Handlers(ix)[search.JobIndex]
	if err := h(context.Background(), &jobs.Job{Type: search.JobIndex, Payload: []byte(`{"entity":""}`)}); err == nil {
		t.Fatalf("expected error for payload without entity")
	}
}
