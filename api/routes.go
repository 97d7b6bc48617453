package api

import (
	"github.com/gorilla/mux"

	"github.com/garnizeh/questionnaire/internal/config"
	"github.com/garnizeh/questionnaire/internal/survey"
	"github.com/garnizeh/questionnaire/pkg/models"
	"github.com/garnizeh/questionnaire/pkg/repository"
)

// Services are the collaborators the routes are wired to. Index, Search and
// Schemas may be nil.
type Services struct {
	Store     repository.Store
	Processor *survey.Processor
	Schemas   SchemaReloader
	Index     Indexer
	Search    Searcher
}

func SetupRoutes(cfg *config.Config, version, buildTime string, svc Services) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)
	r.Use(NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst).Middleware)

	if svc.Processor == nil {
		svc.Processor = survey.NewProcessor(svc.Store, nil, cfg.Domain)
	}

	// Create handlers
	systemHandler := &SystemHandler{}
	authHandler := NewAuthHandler(svc.Store, cfg.JWTSecret, cfg.TokenDuration)
	surveyHandler := NewSurveyHandler(svc.Store, svc.Processor)
	schemaHandler := NewSchemaHandler(svc.Store, svc.Schemas)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/v1/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/v1/auth/signin", authHandler.Signin).Methods("POST")

	// Protected routes
	authV1 := r.PathPrefix("/v1/auth").Subrouter()
	authV1.Use(JWTAuthMiddlewareWithSecret(cfg.JWTSecret))
	authV1.HandleFunc("/signout", authHandler.Signout).Methods("POST")

	apiR := r.PathPrefix("/api").Subrouter()
	apiR.Use(JWTAuthMiddlewareWithSecret(cfg.JWTSecret))

	registerResources(apiR, svc.Store, svc.Index, svc.Search)
	surveyHandler.register(apiR)
	schemaHandler.register(apiR.PathPrefix("/admin").Subrouter())

	return r
}

func registerResources(r *mux.Router, s repository.Store, ix Indexer, se Searcher) {
	(&resource[models.Questionnaire]{
		name: "questionnaires", create: s.CreateQuestionnaire, get: s.GetQuestionnaire, update: s.UpdateQuestionnaire,
		remove: s.DeleteQuestionnaire, list: s.ListQuestionnaires, count: s.CountQuestionnaires,
		id: func(v *models.Questionnaire) *int64 { return &v.ID }, index: ix, search: se,
	}).register(r)
	(&resource[models.Questiongroup]{
		name: "questiongroups", create: s.CreateQuestiongroup, get: s.GetQuestiongroup, update: s.UpdateQuestiongroup,
		remove: s.DeleteQuestiongroup, list: s.ListQuestiongroups, count: s.CountQuestiongroups,
		id: func(v *models.Questiongroup) *int64 { return &v.ID }, index: ix, search: se,
	}).register(r)
	(&resource[models.Question]{
		name: "questions", create: s.CreateQuestion, get: s.GetQuestion, update: s.UpdateQuestion,
		remove: s.DeleteQuestion, list: s.ListQuestions, count: s.CountQuestions,
		id: func(v *models.Question) *int64 { return &v.ID }, index: ix, search: se,
	}).register(r)
	(&resource[models.Subquestion]{
		name: "subquestions", create: s.CreateSubquestion, get: s.GetSubquestion, update: s.UpdateSubquestion,
		remove: s.DeleteSubquestion, list: s.ListSubquestions, count: s.CountSubquestions,
		id: func(v *models.Subquestion) *int64 { return &v.ID }, index: ix, search: se,
	}).register(r)
	(&resource[models.Answer]{
		name: "answers", create: s.CreateAnswer, get: s.GetAnswer, update: s.UpdateAnswer,
		remove: s.DeleteAnswer, list: s.ListAnswers, count: s.CountAnswers,
		id: func(v *models.Answer) *int64 { return &v.ID }, index: ix, search: se,
	}).register(r)
	(&resource[models.Conditions]{
		name: "conditions", create: s.CreateConditions, get: s.GetConditions, update: s.UpdateConditions,
		remove: s.DeleteConditions, list: s.ListConditions, count: s.CountConditions,
		id: func(v *models.Conditions) *int64 { return &v.ID }, index: ix, search: se,
	}).register(r)
	(&resource[models.Logicoperator]{
		name: "logicoperators", create: s.CreateLogicoperator, get: s.GetLogicoperator, update: s.UpdateLogicoperator,
		remove: s.DeleteLogicoperator, list: s.ListLogicoperators, count: s.CountLogicoperators,
		id: func(v *models.Logicoperator) *int64 { return &v.ID }, index: ix, search: se,
	}).register(r)
	(&resource[models.Response]{
		name: "responses", create: s.CreateResponse, get: s.GetResponse, update: s.UpdateResponse,
		remove: s.DeleteResponse, list: s.ListResponses, count: s.CountResponses,
		id: func(v *models.Response) *int64 { return &v.ID }, index: ix, search: se,
	}).register(r)
	(&resource[models.Responsedetail]{
		name: "responsedetails", create: s.CreateResponsedetail, get: s.GetResponsedetail, update: s.UpdateResponsedetail,
		remove: s.DeleteResponsedetail, list: s.ListResponsedetails, count: s.CountResponsedetails,
		id: func(v *models.Responsedetail) *int64 { return &v.ID }, index: ix, search: se,
	}).register(r)
	(&resource[models.Responsembr]{
		name: "responsembrs", create: s.CreateResponsembr, get: s.GetResponsembr, update: s.UpdateResponsembr,
		remove: s.DeleteResponsembr, list: s.ListResponsembrs, count: s.CountResponsembrs,
		id: func(v *models.Responsembr) *int64 { return &v.ID }, index: ix, search: se,
	}).register(r)
}
