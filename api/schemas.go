package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/qri-io/jsonschema"

	"github.com/garnizeh/questionnaire/pkg/repository"
)

// SchemaReloader refreshes compiled payload schemas after an admin change.
type SchemaReloader interface {
	Reload(ctx context.Context) error
}

// SchemaHandler administers the JSON Schemas response payloads are
// validated against.
type SchemaHandler struct {
	repo     repository.PayloadSchemaRepo
	reloader SchemaReloader
}

func NewSchemaHandler(repo repository.PayloadSchemaRepo, reloader SchemaReloader) *SchemaHandler {
	return &SchemaHandler{repo: repo, reloader: reloader}
}

func (h *SchemaHandler) ReloadHandler(w http.ResponseWriter, r *http.Request) {
	if h.reloader == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := h.reloader.Reload(r.Context()); err != nil {
		http.Error(w, fmt.Sprintf("reload schemas: %v", err), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SchemaHandler) ListSchemasHandler(w http.ResponseWriter, r *http.Request) {
	rows, err := h.repo.ListPayloadSchemas(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("list schemas: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, rows, http.StatusOK)
}

type schemaPayload struct {
	Version     string          `json:"version"`
	Description string          `json:"description,omitempty"`
	SchemaJSON  json.RawMessage `json:"schema_json"`
}

// PutSchemaHandler compiles and stores a schema, then reloads the cache.
func (h *SchemaHandler) PutSchemaHandler(w http.ResponseWriter, r *http.Request) {
	var p schemaPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&p); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if v := mux.Vars(r)["version"]; v != "" {
		p.Version = v
	}
	if p.Version == "" {
		http.Error(w, "version required", http.StatusBadRequest)
		return
	}
	if len(p.SchemaJSON) == 0 {
		http.Error(w, "schema_json required", http.StatusBadRequest)
		return
	}

	rs := &jsonschema.Schema{}
	if err := json.Unmarshal(p.SchemaJSON, rs); err != nil {
		http.Error(w, fmt.Sprintf("invalid schema json: %v", err), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if _, err := h.repo.CreatePayloadSchema(ctx, p.Version, p.Description, string(p.SchemaJSON)); err != nil {
		http.Error(w, fmt.Sprintf("store schema: %v", err), http.StatusInternalServerError)
		return
	}
	if h.reloader != nil {
		if err := h.reloader.Reload(ctx); err != nil {
			http.Error(w, fmt.Sprintf("reload schemas: %v", err), http.StatusInternalServerError)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SchemaHandler) GetSchemaHandler(w http.ResponseWriter, r *http.Request) {
	version := mux.Vars(r)["version"]
	s, err := h.repo.GetPayloadSchemaByVersion(r.Context(), version)
	if err != nil {
		http.Error(w, fmt.Sprintf("get schema: %v", err), http.StatusInternalServerError)
		return
	}
	if s == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	writeJSON(w, s, http.StatusOK)
}

func (h *SchemaHandler) DeleteSchemaHandler(w http.ResponseWriter, r *http.Request) {
	version := mux.Vars(r)["version"]
	if err := h.repo.DeletePayloadSchema(r.Context(), version); err != nil {
		http.Error(w, fmt.Sprintf("delete schema: %v", err), http.StatusInternalServerError)
		return
	}
	if h.reloader != nil {
		if err := h.reloader.Reload(r.Context()); err != nil {
			http.Error(w, fmt.Sprintf("reload schemas: %v", err), http.StatusInternalServerError)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SchemaHandler) register(r *mux.Router) {
	r.HandleFunc("/payload-schemas", h.ListSchemasHandler).Methods("GET")
	r.HandleFunc("/payload-schemas", h.PutSchemaHandler).Methods("POST")
	r.HandleFunc("/payload-schemas/reload", h.ReloadHandler).Methods("POST")
	r.HandleFunc("/payload-schemas/{version}", h.GetSchemaHandler).Methods("GET")
	r.HandleFunc("/payload-schemas/{version}", h.PutSchemaHandler).Methods("PUT")
	r.HandleFunc("/payload-schemas/{version}", h.DeleteSchemaHandler).Methods("DELETE")
}
