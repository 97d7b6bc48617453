package api

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/garnizeh/questionnaire/internal/survey"
	"github.com/garnizeh/questionnaire/pkg/fault"
	"github.com/garnizeh/questionnaire/pkg/models"
	"github.com/garnizeh/questionnaire/pkg/repository"
)

// SurveyHandler serves the finder endpoints and the response flows.
type SurveyHandler struct {
	store     repository.Store
	processor *survey.Processor
}

func NewSurveyHandler(store repository.Store, processor *survey.Processor) *SurveyHandler {
	return &SurveyHandler{store: store, processor: processor}
}

// listBy adapts a finder keyed by the {id} path variable.
func listBy[T any](find func(context.Context, int64) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		items, err := find(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if items == nil {
			items = []T{}
		}
		writeJSON(w, items, http.StatusOK)
	}
}

func (h *SurveyHandler) conditionBy(source func(int64) models.GatingSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		c, err := h.store.GetConditionsBySource(r.Context(), source(id))
		if err != nil {
			writeError(w, r, err)
			return
		}
		if c == nil {
			http.Error(w, "conditions not found", http.StatusNotFound)
			return
		}
		writeJSON(w, c, http.StatusOK)
	}
}

func readPayload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fault.NewClientError("read body failed", err)
	}
	return body, nil
}

// SaveResponse stores a new response for {questionnaireId}; the body is the
// raw questiongroups payload.
func (h *SurveyHandler) SaveResponse(w http.ResponseWriter, r *http.Request) {
	qid, err := pathID(r, "questionnaireId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := readPayload(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	sub, err := h.processor.Submit(r.Context(), qid, body, CurrentUser(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, sub, http.StatusCreated)
}

func (h *SurveyHandler) UpdateResponse(w http.ResponseWriter, r *http.Request) {
	qid, err := pathID(r, "questionnaireId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rid, err := pathID(r, "responseId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := readPayload(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	sub, err := h.processor.Update(r.Context(), qid, rid, body, CurrentUser(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, sub, http.StatusOK)
}

// SaveResponseDetail decomposes the stored response {id} again.
func (h *SurveyHandler) SaveResponseDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := h.processor.Redecompose(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, rows, http.StatusCreated)
}

type attachResult struct {
	Response    *models.Response    `json:"response"`
	Responsembr *models.Responsembr `json:"responsembr"`
}

func (h *SurveyHandler) attach(w http.ResponseWriter, r *http.Request, existing bool) {
	assetID, err := pathID(r, "assetId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var resp models.Response
	if err := decodeBody(w, r, &resp); err != nil {
		writeError(w, r, err)
		return
	}
	switch {
	case existing && resp.ID == 0:
		writeError(w, r, fault.Invalid("response id is required"))
		return
	case !existing && resp.ID != 0:
		writeError(w, r, fault.NewClientError("a new response cannot already have an id", fault.ErrDuplicateRequest))
		return
	}

	user := CurrentUser(r.Context())
	resp.Lastmodifiedby = user
	saved, link, err := h.processor.AttachToAsset(r.Context(), resp, assetID, user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusCreated
	if existing {
		status = http.StatusOK
	}
	writeJSON(w, attachResult{Response: saved, Responsembr: link}, status)
}

func (h *SurveyHandler) SaveResponseAndResponsembr(w http.ResponseWriter, r *http.Request) {
	h.attach(w, r, false)
}

func (h *SurveyHandler) UpdateResponseAndResponsembr(w http.ResponseWriter, r *http.Request) {
	h.attach(w, r, true)
}

// LatestResponse resolves the current response of {questionnaireId}. The
// username query parameter scopes it to one user; mine=true scopes it to the
// caller.
func (h *SurveyHandler) LatestResponse(w http.ResponseWriter, r *http.Request) {
	qid, err := pathID(r, "questionnaireId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var username *string
	q := r.URL.Query()
	if u := strings.TrimSpace(q.Get("username")); u != "" {
		username = &u
	} else if q.Get("mine") == "true" {
		u := CurrentUser(r.Context())
		username = &u
	}

	resp, err := h.processor.Latest(r.Context(), qid, username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if resp == nil {
		http.Error(w, "no response for questionnaire", http.StatusNotFound)
		return
	}
	writeJSON(w, resp, http.StatusOK)
}

type evaluation struct {
	Satisfied bool `json:"satisfied"`
}

func (h *SurveyHandler) evaluate(eval func(ctx context.Context, id, responseID int64) (bool, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		rid, err := queryID(r, "responseId")
		if err != nil {
			writeError(w, r, err)
			return
		}
		ok, err := eval(r.Context(), id, rid)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, evaluation{Satisfied: ok}, http.StatusOK)
	}
}

func (h *SurveyHandler) register(r *mux.Router) {
	p, s := h.processor, h.store

	r.HandleFunc("/questionsByQuestionGroup/{id:[0-9]+}", listBy(s.ListQuestionsByQuestiongroup)).Methods("GET")
	r.HandleFunc("/questionsByQuestionGroupAndQuestionId/{id:[0-9]+}", listBy(p.VisibleQuestions)).Methods("GET")
	r.HandleFunc("/subquestionsByQuestion/{id:[0-9]+}", listBy(s.ListSubquestionsByQuestion)).Methods("GET")
	r.HandleFunc("/answersByQuestion/{id:[0-9]+}", listBy(s.ListAnswersByQuestion)).Methods("GET")
	r.HandleFunc("/questiongroupsByQuestionnaire/{id:[0-9]+}", listBy(s.ListQuestiongroupsByQuestionnaire)).Methods("GET")
	r.HandleFunc("/conditionByQuestion/{id:[0-9]+}", h.conditionBy(models.QuestionSource)).Methods("GET")
	r.HandleFunc("/conditionBySubquestion/{id:[0-9]+}", h.conditionBy(models.SubquestionSource)).Methods("GET")
	r.HandleFunc("/logicoperatorByQuestionnaire/{id:[0-9]+}", listBy(s.ListLogicoperatorsByQuestionnaire)).Methods("GET")
	r.HandleFunc("/logicoperatorByFirstquestionOrSecondquestion/{id:[0-9]+}", listBy(s.ListLogicoperatorsByQuestion)).Methods("GET")
	r.HandleFunc("/responsedetailsByResponse/{id:[0-9]+}", listBy(s.ListResponsedetailsByResponse)).Methods("GET")
	r.HandleFunc("/responseByAsset/{id:[0-9]+}", listBy(p.ResponsesByAsset)).Methods("GET")

	r.HandleFunc("/saveResponse/{questionnaireId:[0-9]+}", h.SaveResponse).Methods("POST")
	r.HandleFunc("/updateResponse/{questionnaireId:[0-9]+}/{responseId:[0-9]+}", h.UpdateResponse).Methods("POST")
	r.HandleFunc("/saveResponseDetail/{id:[0-9]+}", h.SaveResponseDetail).Methods("POST")
	r.HandleFunc("/saveResponseAndResponsembr/{assetId:[0-9]+}", h.SaveResponseAndResponsembr).Methods("POST")
	r.HandleFunc("/updateResponseAndResponsembr/{assetId:[0-9]+}", h.UpdateResponseAndResponsembr).Methods("POST")
	r.HandleFunc("/latestResponse/{questionnaireId:[0-9]+}", h.LatestResponse).Methods("GET")
	r.HandleFunc("/conditions/{id:[0-9]+}/evaluate", h.evaluate(p.EvaluateForResponse)).Methods("GET")
	r.HandleFunc("/logicoperators/{id:[0-9]+}/evaluate", h.evaluate(p.EvaluateLogicForResponse)).Methods("GET")
}
