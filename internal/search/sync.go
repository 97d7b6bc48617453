package search

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/garnizeh/questionnaire/internal/jobs"
)

// Job types applied by the worker pool.
const (
	JobIndex  = "search.index"
	JobDelete = "search.delete"
)

const jobPriority = 50

// Enqueuer persists a background job.
type Enqueuer interface {
	Enqueue(ctx context.Context, typ string, payload any, priority int, maxAttempts int) (int64, error)
}

type docPayload struct {
	Entity string          `json:"entity"`
	ID     int64           `json:"id"`
	Body   json.RawMessage `json:"body,omitempty"`
}

// Syncer keeps the index eventually consistent with the entity tables by
// queueing index updates instead of writing them inline.
type Syncer struct {
	queue       Enqueuer
	maxAttempts int
}

func NewSyncer(queue Enqueuer, maxAttempts int) *Syncer {
	return &Syncer{queue: queue, maxAttempts: maxAttempts}
}

// Indexed queues doc as the new document for entity/id.
func (s *Syncer) Indexed(ctx context.Context, entity string, id int64, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s %d: %w", entity, id, err)
	}
	_, err = s.queue.Enqueue(ctx, JobIndex, docPayload{Entity: entity, ID: id, Body: body}, jobPriority, s.maxAttempts)
	return err
}

// Deleted queues removal of the document for entity/id.
func (s *Syncer) Deleted(ctx context.Context, entity string, id int64) error {
	_, err := s.queue.Enqueue(ctx, JobDelete, docPayload{Entity: entity, ID: id}, jobPriority, s.maxAttempts)
	return err
}

// Handlers returns the job handlers that apply queued updates to ix.
func Handlers(ix *Index) map[string]jobs.Handler {
	decode := func(j *jobs.Job) (docPayload, error) {
		var p docPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return p, fmt.Errorf("decode %s payload: %w", j.Type, err)
		}
		if p.Entity == "" || p.ID <= 0 {
			return p, fmt.Errorf("%s payload missing entity or id", j.Type)
		}
		return p, nil
	}

	return map[string]jobs.Handler{
		JobIndex: func(ctx context.Context, j *jobs.Job) error {
			p, err := decode(j)
			if err != nil {
				return err
			}
			return ix.Put(ctx, p.Entity, p.ID, p.Body)
		},
		JobDelete: func(ctx context.Context, j *jobs.Job) error {
			p, err := decode(j)
			if err != nil {
				return err
			}
			return ix.Delete(ctx, p.Entity, p.ID)
		},
	}
}
