package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/garnizeh/questionnaire/pkg/fault"
	"github.com/garnizeh/questionnaire/pkg/models"
)

// Indexer mirrors entity writes into the search index.
type Indexer interface {
	Indexed(ctx context.Context, entity string, id int64, doc any) error
	Deleted(ctx context.Context, entity string, id int64) error
}

// Searcher queries the search index.
type Searcher interface {
	Search(ctx context.Context, entity, query string, limit, offset int) ([]models.SearchHit, error)
	Count(ctx context.Context, entity, query string) (int64, error)
}

type entity interface {
	Validate() error
}

type touchable interface {
	Touch(by string, at int64)
}

// resource serves the create/read/update/delete/search surface of one entity.
type resource[T entity] struct {
	name   string
	create func(context.Context, *T) (int64, error)
	get    func(context.Context, int64) (*T, error)
	update func(context.Context, *T) error
	remove func(context.Context, int64) error
	list   func(ctx context.Context, limit, offset int) ([]T, error)
	count  func(context.Context) (int64, error)
	id     func(*T) *int64

	index  Indexer
	search Searcher
}

func (rs *resource[T]) register(r *mux.Router) {
	r.HandleFunc("/"+rs.name, rs.Create).Methods("POST")
	r.HandleFunc("/"+rs.name, rs.Update).Methods("PUT")
	r.HandleFunc("/"+rs.name, rs.List).Methods("GET")
	r.HandleFunc("/"+rs.name+"/{id:[0-9]+}", rs.Get).Methods("GET")
	r.HandleFunc("/"+rs.name+"/{id:[0-9]+}", rs.Delete).Methods("DELETE")
	r.HandleFunc("/_search/"+rs.name, rs.Search).Methods("GET")
}

func (rs *resource[T]) prepare(r *http.Request, v *T) error {
	if t, ok := any(v).(touchable); ok {
		t.Touch(CurrentUser(r.Context()), time.Now().UTC().UnixMilli())
	}
	return (*v).Validate()
}

func (rs *resource[T]) reindex(ctx context.Context, v *T) {
	if rs.index == nil {
		return
	}
	id := *rs.id(v)
	if err := rs.index.Indexed(ctx, rs.name, id, v); err != nil {
		// the index catches up on the next write
		logger.Warn("queue index update", slog.String("entity", rs.name), slog.Int64("id", id), slog.Any("err", err))
	}
}

func (rs *resource[T]) insert(w http.ResponseWriter, r *http.Request, v *T) {
	if err := rs.prepare(r, v); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := rs.create(r.Context(), v)
	if err != nil {
		writeError(w, r, err)
		return
	}
	*rs.id(v) = id
	rs.reindex(r.Context(), v)

	w.Header().Set("Location", r.URL.Path+"/"+strconv.FormatInt(id, 10))
	writeJSON(w, v, http.StatusCreated)
}

func (rs *resource[T]) Create(w http.ResponseWriter, r *http.Request) {
	var v T
	if err := decodeBody(w, r, &v); err != nil {
		writeError(w, r, err)
		return
	}
	if *rs.id(&v) != 0 {
		writeError(w, r, fault.NewClientError("a new "+rs.name+" cannot already have an id", fault.ErrDuplicateRequest))
		return
	}
	rs.insert(w, r, &v)
}

// Update replaces an existing row. A body without an id is created instead.
func (rs *resource[T]) Update(w http.ResponseWriter, r *http.Request) {
	var v T
	if err := decodeBody(w, r, &v); err != nil {
		writeError(w, r, err)
		return
	}
	if *rs.id(&v) == 0 {
		rs.insert(w, r, &v)
		return
	}
	if err := rs.prepare(r, &v); err != nil {
		writeError(w, r, err)
		return
	}
	if err := rs.update(r.Context(), &v); err != nil {
		writeError(w, r, err)
		return
	}
	rs.reindex(r.Context(), &v)
	writeJSON(w, v, http.StatusOK)
}

func (rs *resource[T]) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := rs.get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if v == nil {
		http.Error(w, rs.name+" not found", http.StatusNotFound)
		return
	}
	writeJSON(w, v, http.StatusOK)
}

func (rs *resource[T]) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := rs.remove(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	if rs.index != nil {
		if err := rs.index.Deleted(r.Context(), rs.name, id); err != nil {
			logger.Warn("queue index delete", slog.String("entity", rs.name), slog.Int64("id", id), slog.Any("err", err))
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rs *resource[T]) List(w http.ResponseWriter, r *http.Request) {
	p := parsePage(r)
	items, err := rs.list(r.Context(), p.size, p.offset())
	if err != nil {
		writeError(w, r, err)
		return
	}
	total, err := rs.count(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	setPageHeaders(w, r, p, total)
	writeJSON(w, items, http.StatusOK)
}

// Search decodes the stored documents back into entities.
func (rs *resource[T]) Search(w http.ResponseWriter, r *http.Request) {
	items := []T{}
	if rs.search == nil {
		writeJSON(w, items, http.StatusOK)
		return
	}

	p := parsePage(r)
	query := r.URL.Query().Get("query")
	hits, err := rs.search.Search(r.Context(), rs.name, query, p.size, p.offset())
	if err != nil {
		writeError(w, r, err)
		return
	}
	total, err := rs.search.Count(r.Context(), rs.name, query)
	if err != nil {
		writeError(w, r, err)
		return
	}

	for _, h := range hits {
		var v T
		if err := json.Unmarshal([]byte(h.Body), &v); err != nil {
			logger.Warn("skip unreadable search document", slog.String("entity", rs.name), slog.Int64("id", h.EntityID), slog.Any("err", err))
			continue
		}
		items = append(items, v)
	}
	setPageHeaders(w, r, p, total)
	writeJSON(w, items, http.StatusOK)
}
