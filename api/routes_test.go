package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/garnizeh/questionnaire/api"
	"github.com/garnizeh/questionnaire/internal/config"
	"github.com/garnizeh/questionnaire/internal/survey"
	"github.com/garnizeh/questionnaire/pkg/models"
	"github.com/garnizeh/questionnaire/pkg/repository/mock"
)

const testSecret = "route-secret"

type indexCall struct {
	op     string
	entity string
	id     int64
}

type fakeIndex struct {
	calls []indexCall
	docs  map[string][]models.SearchHit
}

func (f *fakeIndex) Indexed(ctx context.Context, entity string, id int64, doc any) error {
	f.calls = append(f.calls, indexCall{"put", entity, id})
	return nil
}

func (f *fakeIndex) Deleted(ctx context.Context, entity string, id int64) error {
	f.calls = append(f.calls, indexCall{"delete", entity, id})
	return nil
}

func (f *fakeIndex) Search(ctx context.Context, entity, query string, limit, offset int) ([]models.SearchHit, error) {
	return f.docs[entity], nil
}

func (f *fakeIndex) Count(ctx context.Context, entity, query string) (int64, error) {
	return int64(len(f.docs[entity])), nil
}

type testServer struct {
	t     *testing.T
	store *mock.Store
	index *fakeIndex
	h     http.Handler
	token string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{JWTSecret: testSecret, TokenDuration: time.Hour, Domain: "DEMO"}
	store := mock.NewStore()
	ix := &fakeIndex{docs: map[string][]models.SearchHit{}}

	h := api.SetupRoutes(cfg, "test", "now", api.Services{
		Store:     store,
		Processor: survey.NewProcessor(store, nil, "DEMO"),
		Index:     ix,
		Search:    ix,
	})

	return &testServer{t: t, store: store, index: ix, h: h, token: signedToken(t)}
}

func signedToken(t *testing.T) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"login": "alice", "exp": time.Now().Add(time.Hour).Unix()})
	s, err := tok.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func (s *testServer) do(method, path string, body any) *http.Response {
	s.t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			s.t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Authorization", "Bearer "+s.token)
	w := httptest.NewRecorder()
	s.h.ServeHTTP(w, req)
	return w.Result()
}

func expectStatus(t *testing.T, res *http.Response, want int) []byte {
	t.Helper()
	defer res.Body.Close()
	b, _ := io.ReadAll(res.Body)
	if res.StatusCode != want {
		t.Fatalf("expected status %d got %d body=%s", want, res.StatusCode, b)
	}
	return b
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
	return v
}

func TestRoutes_RequireToken(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/questions", nil)
	w := httptest.NewRecorder()
	s.h.ServeHTTP(w, req)
	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", w.Result().StatusCode)
	}

	w = httptest.NewRecorder()
	s.h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("health: expected 200 got %d", w.Result().StatusCode)
	}
}

func TestRoutes_QuestionnaireCRUD(t *testing.T) {
	s := newTestServer(t)

	created := decode[models.Questionnaire](t, expectStatus(t,
		s.do(http.MethodPost, "/api/questionnaires", models.Questionnaire{Name: "Intake", Status: "Active", Domain: "DEMO"}),
		http.StatusCreated))
	if created.ID == 0 || created.Lastmodifiedby != "alice" || created.Lastmodifieddatetime == 0 {
		t.Fatalf("unexpected created questionnaire: %+v", created)
	}

	expectStatus(t, s.do(http.MethodPost, "/api/questionnaires", models.Questionnaire{ID: 9, Name: "x", Status: "Active", Domain: "DEMO"}), http.StatusBadRequest)
	expectStatus(t, s.do(http.MethodPost, "/api/questionnaires", models.Questionnaire{Status: "Active", Domain: "DEMO"}), http.StatusBadRequest)
	expectStatus(t, s.do(http.MethodPost, "/api/questionnaires", "{broken"), http.StatusBadRequest)

	got := decode[models.Questionnaire](t, expectStatus(t, s.do(http.MethodGet, fmt.Sprintf("/api/questionnaires/%d", created.ID), nil), http.StatusOK))
	if got.Name != "Intake" {
		t.Fatalf("unexpected get: %+v", got)
	}
	expectStatus(t, s.do(http.MethodGet, "/api/questionnaires/999", nil), http.StatusNotFound)

	created.Name = "Intake v2"
	expectStatus(t, s.do(http.MethodPut, "/api/questionnaires", created), http.StatusOK)
	expectStatus(t, s.do(http.MethodPut, "/api/questionnaires", models.Questionnaire{ID: 999, Name: "ghost", Status: "Active", Domain: "DEMO"}), http.StatusNotFound)

	second := decode[models.Questionnaire](t, expectStatus(t,
		s.do(http.MethodPut, "/api/questionnaires", models.Questionnaire{Name: "Exit", Status: "Active", Domain: "DEMO"}),
		http.StatusCreated))
	if second.ID == 0 || second.ID == created.ID {
		t.Fatalf("update without id should create, got %+v", second)
	}

	res := s.do(http.MethodGet, "/api/questionnaires?page=0&size=1", nil)
	list := decode[[]models.Questionnaire](t, expectStatus(t, res, http.StatusOK))
	if len(list) != 1 || list[0].Name != "Intake v2" {
		t.Fatalf("unexpected page: %+v", list)
	}
	if res.Header.Get("X-Total-Count") != "2" {
		t.Fatalf("unexpected X-Total-Count %q", res.Header.Get("X-Total-Count"))
	}
	if link := res.Header.Get("Link"); !strings.Contains(link, `rel="next"`) || !strings.Contains(link, "page=1") || strings.Contains(link, `rel="prev"`) {
		t.Fatalf("unexpected Link header %q", link)
	}

	res = s.do(http.MethodGet, "/api/questionnaires?page=9223372036854775807&size=1", nil)
	far := decode[[]models.Questionnaire](t, expectStatus(t, res, http.StatusOK))
	if len(far) != 0 {
		t.Fatalf("expected an empty page past the end, got %+v", far)
	}
	if link := res.Header.Get("Link"); strings.Contains(link, "9223372036854775") || !strings.Contains(link, "page=1048575") {
		t.Fatalf("expected Link to use the capped page, got %q", link)
	}

	expectStatus(t, s.do(http.MethodDelete, fmt.Sprintf("/api/questionnaires/%d", second.ID), nil), http.StatusNoContent)
	expectStatus(t, s.do(http.MethodGet, fmt.Sprintf("/api/questionnaires/%d", second.ID), nil), http.StatusNotFound)

	want := []indexCall{
		{"put", "questionnaires", created.ID},
		{"put", "questionnaires", created.ID},
		{"put", "questionnaires", second.ID},
		{"delete", "questionnaires", second.ID},
	}
	if fmt.Sprint(s.index.calls) != fmt.Sprint(want) {
		t.Fatalf("index calls = %v, want %v", s.index.calls, want)
	}
}

func TestRoutes_Search(t *testing.T) {
	s := newTestServer(t)
	s.index.docs["conditions"] = []models.SearchHit{
		{Entity: "conditions", EntityID: 1, Body: `{"id":1,"action":"show","operator":"=","response":"Yes","displayedquestion":2,"question":1,"subquestion":null}`},
		{Entity: "conditions", EntityID: 2, Body: `not json`},
	}

	res := s.do(http.MethodGet, "/api/_search/conditions?query=show", nil)
	got := decode[[]models.Conditions](t, expectStatus(t, res, http.StatusOK))
	if len(got) != 1 || got[0].Source != models.QuestionSource(1) {
		t.Fatalf("unexpected search result: %+v", got)
	}
	if res.Header.Get("X-Total-Count") != "2" {
		t.Fatalf("unexpected X-Total-Count %q", res.Header.Get("X-Total-Count"))
	}
}

const flowPayload = `{"questiongroups":[{"questiongroup":"1","questions":[{"question":"10","subquestion":null,"response":"Yes"},{"question":"11","subquestion":"110","response":"3"}]}]}`

func TestRoutes_ResponseFlow(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	qid, err := s.store.CreateQuestionnaire(ctx, &models.Questionnaire{Name: "q", Status: "Active", Domain: "DEMO"})
	if err != nil {
		t.Fatalf("create questionnaire: %v", err)
	}

	sub := decode[survey.Submission](t, expectStatus(t, s.do(http.MethodPost, fmt.Sprintf("/api/saveResponse/%d", qid), flowPayload), http.StatusCreated))
	if sub.Response.ID == 0 || len(sub.Details) != 2 || sub.Response.Lastmodifiedby != "alice" {
		t.Fatalf("unexpected submission: %+v", sub)
	}

	expectStatus(t, s.do(http.MethodPost, fmt.Sprintf("/api/saveResponse/%d", qid), `{"foo":1}`), http.StatusBadRequest)
	expectStatus(t, s.do(http.MethodPost, "/api/saveResponse/999", flowPayload), http.StatusNotFound)

	details := decode[[]models.Responsedetail](t, expectStatus(t, s.do(http.MethodGet, fmt.Sprintf("/api/responsedetailsByResponse/%d", sub.Response.ID), nil), http.StatusOK))
	if len(details) != 2 {
		t.Fatalf("expected 2 details, got %d", len(details))
	}

	upd := `{"questiongroups":[{"questiongroup":"1","questions":[{"question":"10","subquestion":null,"response":"No"}]}]}`
	expectStatus(t, s.do(http.MethodPost, fmt.Sprintf("/api/updateResponse/%d/%d", qid, sub.Response.ID), upd), http.StatusOK)
	expectStatus(t, s.do(http.MethodPost, fmt.Sprintf("/api/saveResponseDetail/%d", sub.Response.ID), nil), http.StatusCreated)

	latest := decode[models.Response](t, expectStatus(t, s.do(http.MethodGet, fmt.Sprintf("/api/latestResponse/%d?mine=true", qid), nil), http.StatusOK))
	if latest.ID != sub.Response.ID {
		t.Fatalf("unexpected latest response %+v", latest)
	}
	expectStatus(t, s.do(http.MethodGet, fmt.Sprintf("/api/latestResponse/%d?username=nobody", qid), nil), http.StatusNotFound)
}

func TestRoutes_Evaluate(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	qid, _ := s.store.CreateQuestionnaire(ctx, &models.Questionnaire{Name: "q", Status: "Active", Domain: "DEMO"})

	sub := decode[survey.Submission](t, expectStatus(t, s.do(http.MethodPost, fmt.Sprintf("/api/saveResponse/%d", qid), flowPayload), http.StatusCreated))

	ok, _ := s.store.CreateConditions(ctx, &models.Conditions{Action: "show", Operator: "=", Response: "Yes", DisplayedquestionID: 20, Source: models.QuestionSource(10)})
	bad, _ := s.store.CreateConditions(ctx, &models.Conditions{Action: "show", Operator: "~", Response: "Yes", DisplayedquestionID: 21, Source: models.QuestionSource(10)})
	lo, _ := s.store.CreateLogicoperator(ctx, &models.Logicoperator{Operator: "AND", First: models.QuestionSource(10), Second: models.QuestionSource(11)})

	type result struct {
		Satisfied bool `json:"satisfied"`
	}
	got := decode[result](t, expectStatus(t, s.do(http.MethodGet, fmt.Sprintf("/api/conditions/%d/evaluate?responseId=%d", ok, sub.Response.ID), nil), http.StatusOK))
	if !got.Satisfied {
		t.Fatalf("expected condition to be satisfied")
	}
	expectStatus(t, s.do(http.MethodGet, fmt.Sprintf("/api/conditions/%d/evaluate?responseId=%d", bad, sub.Response.ID), nil), http.StatusUnprocessableEntity)
	expectStatus(t, s.do(http.MethodGet, fmt.Sprintf("/api/conditions/%d/evaluate", ok), nil), http.StatusBadRequest)

	// question 11 is only answered through subquestion 110
	got = decode[result](t, expectStatus(t, s.do(http.MethodGet, fmt.Sprintf("/api/logicoperators/%d/evaluate?responseId=%d", lo, sub.Response.ID), nil), http.StatusOK))
	if got.Satisfied {
		t.Fatalf("expected AND gate to be unsatisfied")
	}
}

func TestRoutes_Finders(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	g := int64(3)
	q1, _ := s.store.CreateQuestion(ctx, &models.Question{Code: "a", QuestiongroupID: &g})
	q2, _ := s.store.CreateQuestion(ctx, &models.Question{Code: "b", QuestiongroupID: &g})
	sq := q1
	_, _ = s.store.CreateSubquestion(ctx, &models.Subquestion{Code: "a1", QuestionID: &sq})
	_, _ = s.store.CreateConditions(ctx, &models.Conditions{Operator: "=", Response: "Yes", DisplayedquestionID: q2, Source: models.QuestionSource(q1)})

	all := decode[[]models.Question](t, expectStatus(t, s.do(http.MethodGet, "/api/questionsByQuestionGroup/3", nil), http.StatusOK))
	if len(all) != 2 {
		t.Fatalf("expected both questions, got %+v", all)
	}
	visible := decode[[]models.Question](t, expectStatus(t, s.do(http.MethodGet, "/api/questionsByQuestionGroupAndQuestionId/3", nil), http.StatusOK))
	if len(visible) != 1 || visible[0].ID != q1 {
		t.Fatalf("expected only question %d visible, got %+v", q1, visible)
	}
	subs := decode[[]models.Subquestion](t, expectStatus(t, s.do(http.MethodGet, fmt.Sprintf("/api/subquestionsByQuestion/%d", q1), nil), http.StatusOK))
	if len(subs) != 1 {
		t.Fatalf("expected one subquestion, got %+v", subs)
	}

	c := decode[models.Conditions](t, expectStatus(t, s.do(http.MethodGet, fmt.Sprintf("/api/conditionByQuestion/%d", q1), nil), http.StatusOK))
	if c.DisplayedquestionID != q2 {
		t.Fatalf("unexpected condition %+v", c)
	}
	expectStatus(t, s.do(http.MethodGet, "/api/conditionBySubquestion/77", nil), http.StatusNotFound)

	empty := expectStatus(t, s.do(http.MethodGet, "/api/answersByQuestion/42", nil), http.StatusOK)
	if strings.TrimSpace(string(empty)) != "[]" {
		t.Fatalf("expected empty JSON array, got %s", empty)
	}
}

func TestRoutes_ResponseAndResponsembr(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	qid, _ := s.store.CreateQuestionnaire(ctx, &models.Questionnaire{Name: "q", Status: "Active", Domain: "DEMO"})

	type attached struct {
		Response    models.Response    `json:"response"`
		Responsembr models.Responsembr `json:"responsembr"`
	}
	body := models.Response{QuestionnaireID: qid, Details: flowPayload}
	a := decode[attached](t, expectStatus(t, s.do(http.MethodPost, "/api/saveResponseAndResponsembr/42", body), http.StatusCreated))
	if a.Response.ID == 0 || a.Responsembr.AssetID != 42 || a.Responsembr.ResponseID != a.Response.ID {
		t.Fatalf("unexpected attach result %+v", a)
	}

	expectStatus(t, s.do(http.MethodPost, "/api/saveResponseAndResponsembr/42", a.Response), http.StatusBadRequest)
	expectStatus(t, s.do(http.MethodPost, "/api/updateResponseAndResponsembr/42", body), http.StatusBadRequest)

	a.Response.Status = "Closed"
	expectStatus(t, s.do(http.MethodPost, "/api/updateResponseAndResponsembr/43", a.Response), http.StatusOK)

	list := decode[[]models.Response](t, expectStatus(t, s.do(http.MethodGet, "/api/responseByAsset/42", nil), http.StatusOK))
	if len(list) != 1 || list[0].Status != "Closed" {
		t.Fatalf("unexpected responses by asset %+v", list)
	}
}

type countingReloader struct{ n int }

func (c *countingReloader) Reload(ctx context.Context) error {
	c.n++
	return nil
}

func TestRoutes_PayloadSchemaAdmin(t *testing.T) {
	cfg := &config.Config{JWTSecret: testSecret, TokenDuration: time.Hour, Domain: "DEMO"}
	store := mock.NewStore()
	rl := &countingReloader{}
	s := &testServer{t: t, store: store, token: signedToken(t), h: api.SetupRoutes(cfg, "test", "now", api.Services{Store: store, Schemas: rl})}

	schema := `{"version":"v2","description":"strict","schema_json":{"type":"object","required":["questiongroups"]}}`
	expectStatus(t, s.do(http.MethodPost, "/api/admin/payload-schemas", schema), http.StatusNoContent)
	expectStatus(t, s.do(http.MethodPost, "/api/admin/payload-schemas", `{"schema_json":{}}`), http.StatusBadRequest)
	expectStatus(t, s.do(http.MethodPut, "/api/admin/payload-schemas/v3", `{"description":"missing body"}`), http.StatusBadRequest)

	got := decode[models.PayloadSchema](t, expectStatus(t, s.do(http.MethodGet, "/api/admin/payload-schemas/v2", nil), http.StatusOK))
	if got.Description != "strict" || !strings.Contains(got.SchemaJSON, "questiongroups") {
		t.Fatalf("unexpected schema %+v", got)
	}

	list := decode[[]models.PayloadSchema](t, expectStatus(t, s.do(http.MethodGet, "/api/admin/payload-schemas", nil), http.StatusOK))
	if len(list) != 1 {
		t.Fatalf("expected one schema, got %d", len(list))
	}

	expectStatus(t, s.do(http.MethodPost, "/api/admin/payload-schemas/reload", nil), http.StatusNoContent)
	expectStatus(t, s.do(http.MethodDelete, "/api/admin/payload-schemas/v2", nil), http.StatusNoContent)
	expectStatus(t, s.do(http.MethodGet, "/api/admin/payload-schemas/v2", nil), http.StatusNotFound)

	if rl.n != 3 {
		t.Fatalf("expected 3 reloads, got %d", rl.n)
	}
}
