package mock

import (
	"context"
	"sort"
	"sync"

	"github.com/garnizeh/questionnaire/pkg/fault"
	"github.com/garnizeh/questionnaire/pkg/models"
	"github.com/garnizeh/questionnaire/pkg/repository"
)

// Store is an in-memory repository.Store for tests. Setting Err makes every
// write fail with it.
type Store struct {
	mu sync.Mutex

	Err error
	// FailTx makes InTx discard response writes done by fn when fn errors.
	FailTx bool

	users          table[models.User]
	questionnaires table[models.Questionnaire]
	groups         table[models.Questiongroup]
	questions      table[models.Question]
	subquestions   table[models.Subquestion]
	answers        table[models.Answer]
	conditions     table[models.Conditions]
	logic          table[models.Logicoperator]
	responses      table[models.Response]
	details        table[models.Responsedetail]
	mbrs           table[models.Responsembr]
	schemas        table[models.PayloadSchema]
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		users:          newTable(func(v *models.User) *int64 { return &v.ID }),
		questionnaires: newTable(func(v *models.Questionnaire) *int64 { return &v.ID }),
		groups:         newTable(func(v *models.Questiongroup) *int64 { return &v.ID }),
		questions:      newTable(func(v *models.Question) *int64 { return &v.ID }),
		subquestions:   newTable(func(v *models.Subquestion) *int64 { return &v.ID }),
		answers:        newTable(func(v *models.Answer) *int64 { return &v.ID }),
		conditions:     newTable(func(v *models.Conditions) *int64 { return &v.ID }),
		logic:          newTable(func(v *models.Logicoperator) *int64 { return &v.ID }),
		responses:      newTable(func(v *models.Response) *int64 { return &v.ID }),
		details:        newTable(func(v *models.Responsedetail) *int64 { return &v.ID }),
		mbrs:           newTable(func(v *models.Responsembr) *int64 { return &v.ID }),
		schemas:        newTable(func(v *models.PayloadSchema) *int64 { return &v.ID }),
	}
}

type table[T any] struct {
	next int64
	rows map[int64]T
	id   func(*T) *int64
}

func newTable[T any](id func(*T) *int64) table[T] {
	return table[T]{rows: map[int64]T{}, id: id}
}

func (t *table[T]) create(v T) int64 {
	t.next++
	*t.id(&v) = t.next
	t.rows[t.next] = v
	return t.next
}

func (t *table[T]) get(id int64) *T {
	v, ok := t.rows[id]
	if !ok {
		return nil
	}
	return &v
}

func (t *table[T]) update(v T) error {
	id := *t.id(&v)
	if _, ok := t.rows[id]; !ok {
		return fault.NewClientError("not found", fault.ErrNotFound)
	}
	t.rows[id] = v
	return nil
}

func (t *table[T]) filter(keep func(T) bool) []T {
	ids := make([]int64, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := []T{}
	for _, id := range ids {
		if keep == nil || keep(t.rows[id]) {
			out = append(out, t.rows[id])
		}
	}
	return out
}

func (t *table[T]) page(limit, offset int) []T {
	all := t.filter(nil)
	if offset >= len(all) {
		return []T{}
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all
}

func (t *table[T]) clone() table[T] {
	c := table[T]{next: t.next, rows: make(map[int64]T, len(t.rows)), id: t.id}
	for k, v := range t.rows {
		c.rows[k] = v
	}
	return c
}

func (s *Store) write() func() {
	s.mu.Lock()
	return s.mu.Unlock
}

// InTx runs fn against the same store. With FailTx set a failing fn rolls
// responses, details and links back to the state before the call.
func (s *Store) InTx(ctx context.Context, fn func(repository.Store) error) error {
	if !s.FailTx {
		return fn(s)
	}

	s.mu.Lock()
	responses, details, mbrs := s.responses.clone(), s.details.clone(), s.mbrs.clone()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.responses, s.details, s.mbrs = responses, details, mbrs
		s.mu.Unlock()
		return err
	}
	return nil
}

// Users

func (s *Store) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	defer s.write()()
	if s.Err != nil {
		return 0, s.Err
	}
	return s.users.create(*u), nil
}

func (s *Store) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	defer s.write()()
	for _, u := range s.users.filter(func(u models.User) bool { return u.Login == login }) {
		return &u, nil
	}
	return nil, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	defer s.write()()
	for _, u := range s.users.filter(func(u models.User) bool { return u.Email == email }) {
		return &u, nil
	}
	return nil, nil
}

// Questionnaires

func (s *Store) CreateQuestionnaire(ctx context.Context, q *models.Questionnaire) (int64, error) {
	defer s.write()()
	if s.Err != nil {
		return 0, s.Err
	}
	return s.questionnaires.create(*q), nil
}

func (s *Store) GetQuestionnaire(ctx context.Context, id int64) (*models.Questionnaire, error) {
	defer s.write()()
	return s.questionnaires.get(id), nil
}

func (s *Store) UpdateQuestionnaire(ctx context.Context, q *models.Questionnaire) error {
	defer s.write()()
	if s.Err != nil {
		return s.Err
	}
	return s.questionnaires.update(*q)
}

func (s *Store) DeleteQuestionnaire(ctx context.Context, id int64) error {
	defer s.write()()
	delete(s.questionnaires.rows, id)
	return s.Err
}

func (s *Store) ListQuestionnaires(ctx context.Context, limit, offset int) ([]models.Questionnaire, error) {
	defer s.write()()
	return s.questionnaires.page(limit, offset), nil
}

func (s *Store) CountQuestionnaires(ctx context.Context) (int64, error) {
	defer s.write()()
	return int64(len(s.questionnaires.rows)), nil
}

// Questiongroups

func (s *Store) CreateQuestiongroup(ctx context.Context, g *models.Questiongroup) (int64, error) {
	defer s.write()()
	if s.Err != nil {
		return 0, s.Err
	}
	return s.groups.create(*g), nil
}

func (s *Store) GetQuestiongroup(ctx context.Context, id int64) (*models.Questiongroup, error) {
	defer s.write()()
	return s.groups.get(id), nil
}

func (s *Store) UpdateQuestiongroup(ctx context.Context, g *models.Questiongroup) error {
	defer s.write()()
	if s.Err != nil {
		return s.Err
	}
	return s.groups.update(*g)
}

func (s *Store) DeleteQuestiongroup(ctx context.Context, id int64) error {
	defer s.write()()
	delete(s.groups.rows, id)
	return s.Err
}

func (s *Store) ListQuestiongroups(ctx context.Context, limit, offset int) ([]models.Questiongroup, error) {
	defer s.write()()
	return s.groups.page(limit, offset), nil
}

func (s *Store) CountQuestiongroups(ctx context.Context) (int64, error) {
	defer s.write()()
	return int64(len(s.groups.rows)), nil
}

func (s *Store) ListQuestiongroupsByQuestionnaire(ctx context.Context, questionnaireID int64) ([]models.Questiongroup, error) {
	defer s.write()()
	return s.groups.filter(func(g models.Questiongroup) bool {
		return g.QuestionnaireID != nil && *g.QuestionnaireID == questionnaireID
	}), nil
}

// Questions

func (s *Store) CreateQuestion(ctx context.Context, q *models.Question) (int64, error) {
	defer s.write()()
	if s.Err != nil {
		return 0, s.Err
	}
	return s.questions.create(*q), nil
}

func (s *Store) GetQuestion(ctx context.Context, id int64) (*models.Question, error) {
	defer s.write()()
	return s.questions.get(id), nil
}

func (s *Store) UpdateQuestion(ctx context.Context, q *models.Question) error {
	defer s.write()()
	if s.Err != nil {
		return s.Err
	}
	return s.questions.update(*q)
}

func (s *Store) DeleteQuestion(ctx context.Context, id int64) error {
	defer s.write()()
	delete(s.questions.rows, id)
	return s.Err
}

func (s *Store) ListQuestions(ctx context.Context, limit, offset int) ([]models.Question, error) {
	defer s.write()()
	return s.questions.page(limit, offset), nil
}

func (s *Store) CountQuestions(ctx context.Context) (int64, error) {
	defer s.write()()
	return int64(len(s.questions.rows)), nil
}

func (s *Store) ListQuestionsByQuestiongroup(ctx context.Context, groupID int64) ([]models.Question, error) {
	defer s.write()()
	out := s.questions.filter(func(q models.Question) bool {
		return q.QuestiongroupID != nil && *q.QuestiongroupID == groupID
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

// Subquestions

func (s *Store) CreateSubquestion(ctx context.Context, sq *models.Subquestion) (int64, error) {
	defer s.write()()
	if s.Err != nil {
		return 0, s.Err
	}
	return s.subquestions.create(*sq), nil
}

func (s *Store) GetSubquestion(ctx context.Context, id int64) (*models.Subquestion, error) {
	defer s.write()()
	return s.subquestions.get(id), nil
}

func (s *Store) UpdateSubquestion(ctx context.Context, sq *models.Subquestion) error {
	defer s.write()()
	if s.Err != nil {
		return s.Err
	}
	return s.subquestions.update(*sq)
}

func (s *Store) DeleteSubquestion(ctx context.Context, id int64) error {
	defer s.write()()
	delete(s.subquestions.rows, id)
	return s.Err
}

func (s *Store) ListSubquestions(ctx context.Context, limit, offset int) ([]models.Subquestion, error) {
	defer s.write()()
	return s.subquestions.page(limit, offset), nil
}

func (s *Store) CountSubquestions(ctx context.Context) (int64, error) {
	defer s.write()()
	return int64(len(s.subquestions.rows)), nil
}

func (s *Store) ListSubquestionsByQuestion(ctx context.Context, questionID int64) ([]models.Subquestion, error) {
	defer s.write()()
	return s.subquestions.filter(func(sq models.Subquestion) bool {
		return sq.QuestionID != nil && *sq.QuestionID == questionID
	}), nil
}

// Answers

func (s *Store) CreateAnswer(ctx context.Context, a *models.Answer) (int64, error) {
	defer s.write()()
	if s.Err != nil {
		return 0, s.Err
	}
	return s.answers.create(*a), nil
}

func (s *Store) GetAnswer(ctx context.Context, id int64) (*models.Answer, error) {
	defer s.write()()
	return s.answers.get(id), nil
}

func (s *Store) UpdateAnswer(ctx context.Context, a *models.Answer) error {
	defer s.write()()
	if s.Err != nil {
		return s.Err
	}
	return s.answers.update(*a)
}

func (s *Store) DeleteAnswer(ctx context.Context, id int64) error {
	defer s.write()()
	delete(s.answers.rows, id)
	return s.Err
}

func (s *Store) ListAnswers(ctx context.Context, limit, offset int) ([]models.Answer, error) {
	defer s.write()()
	return s.answers.page(limit, offset), nil
}

func (s *Store) CountAnswers(ctx context.Context) (int64, error) {
	defer s.write()()
	return int64(len(s.answers.rows)), nil
}

func (s *Store) ListAnswersByQuestion(ctx context.Context, questionID int64) ([]models.Answer, error) {
	defer s.write()()
	return s.answers.filter(func(a models.Answer) bool {
		return a.QuestionID != nil && *a.QuestionID == questionID
	}), nil
}

// Conditions

func (s *Store) CreateConditions(ctx context.Context, c *models.Conditions) (int64, error) {
	defer s.write()()
	if s.Err != nil {
		return 0, s.Err
	}
	return s.conditions.create(*c), nil
}

func (s *Store) GetConditions(ctx context.Context, id int64) (*models.Conditions, error) {
	defer s.write()()
	return s.conditions.get(id), nil
}

func (s *Store) UpdateConditions(ctx context.Context, c *models.Conditions) error {
	defer s.write()()
	if s.Err != nil {
		return s.Err
	}
	return s.conditions.update(*c)
}

func (s *Store) DeleteConditions(ctx context.Context, id int64) error {
	defer s.write()()
	delete(s.conditions.rows, id)
	return s.Err
}

func (s *Store) ListConditions(ctx context.Context, limit, offset int) ([]models.Conditions, error) {
	defer s.write()()
	return s.conditions.page(limit, offset), nil
}

func (s *Store) CountConditions(ctx context.Context) (int64, error) {
	defer s.write()()
	return int64(len(s.conditions.rows)), nil
}

func (s *Store) ListAllConditions(ctx context.Context) ([]models.Conditions, error) {
	defer s.write()()
	return s.conditions.filter(nil), nil
}

func (s *Store) GetConditionsBySource(ctx context.Context, src models.GatingSource) (*models.Conditions, error) {
	defer s.write()()
	if !src.IsSet() {
		return nil, nil
	}
	for _, c := range s.conditions.filter(func(c models.Conditions) bool { return c.Source == src }) {
		return &c, nil
	}
	return nil, nil
}

// Logicoperators

func (s *Store) CreateLogicoperator(ctx context.Context, l *models.Logicoperator) (int64, error) {
	defer s.write()()
	if s.Err != nil {
		return 0, s.Err
	}
	return s.logic.create(*l), nil
}

func (s *Store) GetLogicoperator(ctx context.Context, id int64) (*models.Logicoperator, error) {
	defer s.write()()
	return s.logic.get(id), nil
}

func (s *Store) UpdateLogicoperator(ctx context.Context, l *models.Logicoperator) error {
	defer s.write()()
	if s.Err != nil {
		return s.Err
	}
	return s.logic.update(*l)
}

func (s *Store) DeleteLogicoperator(ctx context.Context, id int64) error {
	defer s.write()()
	delete(s.logic.rows, id)
	return s.Err
}

func (s *Store) ListLogicoperators(ctx context.Context, limit, offset int) ([]models.Logicoperator, error) {
	defer s.write()()
	return s.logic.page(limit, offset), nil
}

func (s *Store) CountLogicoperators(ctx context.Context) (int64, error) {
	defer s.write()()
	return int64(len(s.logic.rows)), nil
}

func (s *Store) ListLogicoperatorsByQuestionnaire(ctx context.Context, questionnaireID int64) ([]models.Logicoperator, error) {
	defer s.write()()
	return s.logic.filter(func(l models.Logicoperator) bool {
		return l.QuestionnaireID != nil && *l.QuestionnaireID == questionnaireID
	}), nil
}

func (s *Store) ListLogicoperatorsByQuestion(ctx context.Context, questionID int64) ([]models.Logicoperator, error) {
	defer s.write()()
	src := models.QuestionSource(questionID)
	return s.logic.filter(func(l models.Logicoperator) bool {
		return l.First == src || l.Second == src
	}), nil
}

// Responses

func (s *Store) CreateResponse(ctx context.Context, r *models.Response) (int64, error) {
	defer s.write()()
	if s.Err != nil {
		return 0, s.Err
	}
	return s.responses.create(*r), nil
}

func (s *Store) GetResponse(ctx context.Context, id int64) (*models.Response, error) {
	defer s.write()()
	return s.responses.get(id), nil
}

func (s *Store) UpdateResponse(ctx context.Context, r *models.Response) error {
	defer s.write()()
	if s.Err != nil {
		return s.Err
	}
	return s.responses.update(*r)
}

func (s *Store) DeleteResponse(ctx context.Context, id int64) error {
	defer s.write()()
	delete(s.responses.rows, id)
	return s.Err
}

func (s *Store) ListResponses(ctx context.Context, limit, offset int) ([]models.Response, error) {
	defer s.write()()
	return s.responses.page(limit, offset), nil
}

func (s *Store) CountResponses(ctx context.Context) (int64, error) {
	defer s.write()()
	return int64(len(s.responses.rows)), nil
}

func (s *Store) LatestResponse(ctx context.Context, questionnaireID int64, username *string) (*models.Response, error) {
	defer s.write()()
	var best *models.Response
	for _, r := range s.responses.filter(func(r models.Response) bool {
		if r.QuestionnaireID != questionnaireID {
			return false
		}
		return username == nil || (r.Username != nil && *r.Username == *username)
	}) {
		// filter is id-ascending, so >= lets the highest id win a tie
		if best == nil || r.Lastmodifieddatetime >= best.Lastmodifieddatetime {
			r := r
			best = &r
		}
	}
	return best, nil
}

func (s *Store) ListResponsesByAsset(ctx context.Context, assetID int64) ([]models.Response, error) {
	defer s.write()()
	out := []models.Response{}
	for _, m := range s.mbrs.filter(func(m models.Responsembr) bool { return m.AssetID == assetID }) {
		if r := s.responses.get(m.ResponseID); r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

// Responsedetails

func (s *Store) CreateResponsedetail(ctx context.Context, d *models.Responsedetail) (int64, error) {
	defer s.write()()
	if s.Err != nil {
		return 0, s.Err
	}
	return s.details.create(*d), nil
}

func (s *Store) GetResponsedetail(ctx context.Context, id int64) (*models.Responsedetail, error) {
	defer s.write()()
	return s.details.get(id), nil
}

func (s *Store) UpdateResponsedetail(ctx context.Context, d *models.Responsedetail) error {
	defer s.write()()
	if s.Err != nil {
		return s.Err
	}
	return s.details.update(*d)
}

func (s *Store) DeleteResponsedetail(ctx context.Context, id int64) error {
	defer s.write()()
	delete(s.details.rows, id)
	return s.Err
}

func (s *Store) ListResponsedetails(ctx context.Context, limit, offset int) ([]models.Responsedetail, error) {
	defer s.write()()
	return s.details.page(limit, offset), nil
}

func (s *Store) CountResponsedetails(ctx context.Context) (int64, error) {
	defer s.write()()
	return int64(len(s.details.rows)), nil
}

func (s *Store) ListResponsedetailsByResponse(ctx context.Context, responseID int64) ([]models.Responsedetail, error) {
	defer s.write()()
	return s.details.filter(func(d models.Responsedetail) bool { return d.ResponseID == responseID }), nil
}

// Responsembrs

func (s *Store) CreateResponsembr(ctx context.Context, m *models.Responsembr) (int64, error) {
	defer s.write()()
	if s.Err != nil {
		return 0, s.Err
	}
	return s.mbrs.create(*m), nil
}

func (s *Store) GetResponsembr(ctx context.Context, id int64) (*models.Responsembr, error) {
	defer s.write()()
	return s.mbrs.get(id), nil
}

func (s *Store) UpdateResponsembr(ctx context.Context, m *models.Responsembr) error {
	defer s.write()()
	if s.Err != nil {
		return s.Err
	}
	return s.mbrs.update(*m)
}

func (s *Store) DeleteResponsembr(ctx context.Context, id int64) error {
	defer s.write()()
	delete(s.mbrs.rows, id)
	return s.Err
}

func (s *Store) ListResponsembrs(ctx context.Context, limit, offset int) ([]models.Responsembr, error) {
	defer s.write()()
	return s.mbrs.page(limit, offset), nil
}

func (s *Store) CountResponsembrs(ctx context.Context) (int64, error) {
	defer s.write()()
	return int64(len(s.mbrs.rows)), nil
}

func (s *Store) ListResponsembrsByAsset(ctx context.Context, assetID int64) ([]models.Responsembr, error) {
	defer s.write()()
	return s.mbrs.filter(func(m models.Responsembr) bool { return m.AssetID == assetID }), nil
}

// Payload schemas

func (s *Store) CreatePayloadSchema(ctx context.Context, version, description, schemaJSON string) (int64, error) {
	defer s.write()()
	if s.Err != nil {
		return 0, s.Err
	}
	for _, existing := range s.schemas.filter(func(p models.PayloadSchema) bool { return p.Version == version }) {
		existing.Description, existing.SchemaJSON = description, schemaJSON
		s.schemas.rows[existing.ID] = existing
		return existing.ID, nil
	}
	return s.schemas.create(models.PayloadSchema{Version: version, Description: description, SchemaJSON: schemaJSON}), nil
}

func (s *Store) GetPayloadSchemaByVersion(ctx context.Context, version string) (*models.PayloadSchema, error) {
	defer s.write()()
	for _, p := range s.schemas.filter(func(p models.PayloadSchema) bool { return p.Version == version }) {
		return &p, nil
	}
	return nil, nil
}

func (s *Store) ListPayloadSchemas(ctx context.Context) ([]models.PayloadSchema, error) {
	defer s.write()()
	return s.schemas.filter(nil), nil
}

func (s *Store) DeletePayloadSchema(ctx context.Context, version string) error {
	defer s.write()()
	for _, p := range s.schemas.filter(func(p models.PayloadSchema) bool { return p.Version == version }) {
		delete(s.schemas.rows, p.ID)
	}
	return s.Err
}
