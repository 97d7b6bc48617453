package jobs_test

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	dbfs "github.com/garnizeh/questionnaire/db"
	"github.com/garnizeh/questionnaire/internal/db"
	"github.com/garnizeh/questionnaire/internal/jobs"
)

func setupQueue(t *testing.T) (*jobs.Repository, *db.DB) {
	t.Helper()
	ctx := context.Background()
	d, err := db.New(ctx, filepath.Join(t.TempDir(), "jobs.db"), slog.Default())
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	if err := db.Migrate(ctx, d, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return jobs.NewRepository(d), d
}

func TestEnqueueAndProcess(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupQueue(t)

	handled := make(chan string, 1)
	handlers := map[string]jobs.Handler{
		"test": func(ctx context.Context, j *jobs.Job) error {
			handled <- string(j.Payload)
			return nil
		},
	}
	pool := jobs.NewWorkerPool(repo, handlers, slog.Default(), 1)
	pool.Start(ctx)
	defer pool.Stop()

	id, err := pool.Enqueue(ctx, "test", map[string]string{"foo": "bar"}, 10, 3)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case got := <-handled:
		if got != `{"foo":"bar"}` {
			t.Fatalf("unexpected payload %s", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("handler was not called")
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		j, err := repo.GetJob(ctx, id)
		if err != nil {
			t.Fatalf("get job: %v", err)
		}
		if j != nil && j.Status == jobs.StatusDone {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("job %d never marked done", id)
}

func TestFetchNext_ClaimsOnce(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupQueue(t)

	if _, err := repo.Enqueue(ctx, &jobs.Job{Type: "low", Priority: 100, Payload: []byte(`{}`)}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := repo.Enqueue(ctx, &jobs.Job{Type: "high", Priority: 1, Payload: []byte(`{}`)}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	first, err := repo.FetchNext(ctx)
	if err != nil || first == nil {
		t.Fatalf("fetch: %v %v", first, err)
	}
	if first.Type != "high" || first.Status != jobs.StatusRunning {
		t.Fatalf("expected running high priority job, got %+v", first)
	}

	second, err := repo.FetchNext(ctx)
	if err != nil || second == nil || second.Type != "low" {
		t.Fatalf("expected low job, got %+v err=%v", second, err)
	}

	none, err := repo.FetchNext(ctx)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if none != nil {
		t.Fatalf("expected no job left, got %+v", none)
	}
}

func TestFetchNext_SkipsFutureRetry(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupQueue(t)

	id, err := repo.Enqueue(ctx, &jobs.Job{Type: "later"})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	next := time.Now().Add(time.Hour)
	if err := repo.UpdateJob(ctx, &jobs.Job{ID: id, Status: jobs.StatusRetry, Attempts: 1, NextTryAt: &next}); err != nil {
		t.Fatalf("update: %v", err)
	}

	j, err := repo.FetchNext(ctx)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if j != nil {
		t.Fatalf("job scheduled for retry in the future was fetched: %+v", j)
	}
}

func TestFailingJobIsDeadLettered(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupQueue(t)

	handlers := map[string]jobs.Handler{
		"boom": func(ctx context.Context, j *jobs.Job) error { return errors.New("boom") },
	}
	pool := jobs.NewWorkerPool(repo, handlers, slog.Default(), 2)
	pool.Start(ctx)
	defer pool.Stop()

	if _, err := pool.Enqueue(ctx, "boom", nil, 1, 1); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := pool.Enqueue(ctx, "unhandled", nil, 1, 3); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		dl, err := repo.ListDeadLetters(ctx, 10)
		if err != nil {
			t.Fatalf("list dead letters: %v", err)
		}
		if len(dl) == 2 {
			errs := map[string]string{}
			for _, d := range dl {
				errs[d.Type] = d.LastError
			}
			if errs["boom"] != "boom" || errs["unhandled"] != "no handler" {
				t.Fatalf("unexpected dead letters: %+v", dl)
			}
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("jobs were not dead-lettered in time")
}

func TestStopTwice(t *testing.T) {
	repo, _ := setupQueue(t)
	pool := jobs.NewWorkerPool(repo, nil, slog.Default(), 3)
	pool.Start(context.Background())
	pool.Stop()
	pool.Stop()
}

func TestBackoffDuration(t *testing.T) {
	cases := map[int]time.Duration{
		0:  time.Second,
		1:  2 * time.Second,
		3:  8 * time.Second,
		20: 5 * time.Minute,
	}
	for attempt, want := range cases {
		if got := jobs.BackoffDuration(attempt); got != want {
			t.Fatalf("BackoffDuration(%d) = %v, want %v", attempt, got, want)
		}
	}
}
