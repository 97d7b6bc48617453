package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/garnizeh/questionnaire/pkg/fault"
)

const (
	defaultPageSize = 20
	maxPageSize     = 1000
	maxBodyBytes    = 1 << 20
	// keeps page*size within int32 for every allowed size
	maxPage = 1 << 20
)

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", slog.Any("err", err))
	}
}

// writeError maps domain errors to status codes: not found 404, misconfigured
// conditions 422, other client errors 400 and everything else 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, fault.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case fault.IsConfigError(err):
		logger.Error("misconfigured record", slog.String("path", r.URL.Path), slog.Any("err", err))
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case fault.IsClientError(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		logger.Error("request failed", slog.String("path", r.URL.Path), slog.Any("err", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		return fault.NewClientError("invalid request body", err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fault.NewClientError(fmt.Sprintf("invalid %s %q", name, raw), fault.ErrInvalidEntity)
	}
	return id, nil
}

func queryID(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fault.NewClientError(fmt.Sprintf("%s is required", name), fault.ErrInvalidEntity)
	}
	return id, nil
}

type pageRequest struct {
	page, size int
}

func (p pageRequest) offset() int { return p.page * p.size }

func parsePage(r *http.Request) pageRequest {
	q := r.URL.Query()
	p := pageRequest{size: defaultPageSize}
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v >= 0 {
		p.page = min(v, maxPage)
	}
	if v, err := strconv.Atoi(q.Get("size")); err == nil && v > 0 {
		p.size = min(v, maxPageSize)
	}
	return p
}

// setPageHeaders writes X-Total-Count and a Link header with next, prev,
// last and first relations.
func setPageHeaders(w http.ResponseWriter, r *http.Request, p pageRequest, total int64) {
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))

	last := 0
	if total > 0 {
		last = int((total - 1) / int64(p.size))
	}
	link := func(page int, rel string) string {
		u := url.URL{Path: r.URL.Path}
		q := r.URL.Query()
		q.Set("page", strconv.Itoa(page))
		q.Set("size", strconv.Itoa(p.size))
		u.RawQuery = q.Encode()
		return fmt.Sprintf(`<%s>; rel="%s"`, u.String(), rel)
	}

	var links []string
	if p.page < last {
		links = append(links, link(p.page+1, "next"))
	}
	if p.page > 0 {
		links = append(links, link(p.page-1, "prev"))
	}
	links = append(links, link(last, "last"), link(0, "first"))
	w.Header().Set("Link", strings.Join(links, ","))
}
