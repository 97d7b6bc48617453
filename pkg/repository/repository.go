package repository

import (
	"context"

	"github.com/garnizeh/questionnaire/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.
// Getters return (nil, nil) when no row matches.

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) (int64, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type QuestionnaireRepo interface {
	CreateQuestionnaire(ctx context.Context, q *models.Questionnaire) (int64, error)
	GetQuestionnaire(ctx context.Context, id int64) (*models.Questionnaire, error)
	UpdateQuestionnaire(ctx context.Context, q *models.Questionnaire) error
	DeleteQuestionnaire(ctx context.Context, id int64) error
	ListQuestionnaires(ctx context.Context, limit, offset int) ([]models.Questionnaire, error)
	CountQuestionnaires(ctx context.Context) (int64, error)
}

type QuestiongroupRepo interface {
	CreateQuestiongroup(ctx context.Context, g *models.Questiongroup) (int64, error)
	GetQuestiongroup(ctx context.Context, id int64) (*models.Questiongroup, error)
	UpdateQuestiongroup(ctx context.Context, g *models.Questiongroup) error
	DeleteQuestiongroup(ctx context.Context, id int64) error
	ListQuestiongroups(ctx context.Context, limit, offset int) ([]models.Questiongroup, error)
	CountQuestiongroups(ctx context.Context) (int64, error)
	ListQuestiongroupsByQuestionnaire(ctx context.Context, questionnaireID int64) ([]models.Questiongroup, error)
}

type QuestionRepo interface {
	CreateQuestion(ctx context.Context, q *models.Question) (int64, error)
	GetQuestion(ctx context.Context, id int64) (*models.Question, error)
	UpdateQuestion(ctx context.Context, q *models.Question) error
	DeleteQuestion(ctx context.Context, id int64) error
	ListQuestions(ctx context.Context, limit, offset int) ([]models.Question, error)
	CountQuestions(ctx context.Context) (int64, error)
	ListQuestionsByQuestiongroup(ctx context.Context, groupID int64) ([]models.Question, error)
}

type SubquestionRepo interface {
	CreateSubquestion(ctx context.Context, s *models.Subquestion) (int64, error)
	GetSubquestion(ctx context.Context, id int64) (*models.Subquestion, error)
	UpdateSubquestion(ctx context.Context, s *models.Subquestion) error
	DeleteSubquestion(ctx context.Context, id int64) error
	ListSubquestions(ctx context.Context, limit, offset int) ([]models.Subquestion, error)
	CountSubquestions(ctx context.Context) (int64, error)
	ListSubquestionsByQuestion(ctx context.Context, questionID int64) ([]models.Subquestion, error)
}

type AnswerRepo interface {
	CreateAnswer(ctx context.Context, a *models.Answer) (int64, error)
	GetAnswer(ctx context.Context, id int64) (*models.Answer, error)
	UpdateAnswer(ctx context.Context, a *models.Answer) error
	DeleteAnswer(ctx context.Context, id int64) error
	ListAnswers(ctx context.Context, limit, offset int) ([]models.Answer, error)
	CountAnswers(ctx context.Context) (int64, error)
	ListAnswersByQuestion(ctx context.Context, questionID int64) ([]models.Answer, error)
}

type ConditionsRepo interface {
	CreateConditions(ctx context.Context, c *models.Conditions) (int64, error)
	GetConditions(ctx context.Context, id int64) (*models.Conditions, error)
	UpdateConditions(ctx context.Context, c *models.Conditions) error
	DeleteConditions(ctx context.Context, id int64) error
	ListConditions(ctx context.Context, limit, offset int) ([]models.Conditions, error)
	CountConditions(ctx context.Context) (int64, error)
	// ListAllConditions returns every stored condition, unpaginated.
	ListAllConditions(ctx context.Context) ([]models.Conditions, error)
	// GetConditionsBySource returns the lowest-id condition gated by src.
	GetConditionsBySource(ctx context.Context, src models.GatingSource) (*models.Conditions, error)
}

type LogicoperatorRepo interface {
	CreateLogicoperator(ctx context.Context, l *models.Logicoperator) (int64, error)
	GetLogicoperator(ctx context.Context, id int64) (*models.Logicoperator, error)
	UpdateLogicoperator(ctx context.Context, l *models.Logicoperator) error
	DeleteLogicoperator(ctx context.Context, id int64) error
	ListLogicoperators(ctx context.Context, limit, offset int) ([]models.Logicoperator, error)
	CountLogicoperators(ctx context.Context) (int64, error)
	ListLogicoperatorsByQuestionnaire(ctx context.Context, questionnaireID int64) ([]models.Logicoperator, error)
	// ListLogicoperatorsByQuestion matches either the first or the second question.
	ListLogicoperatorsByQuestion(ctx context.Context, questionID int64) ([]models.Logicoperator, error)
}

type ResponseRepo interface {
	CreateResponse(ctx context.Context, r *models.Response) (int64, error)
	GetResponse(ctx context.Context, id int64) (*models.Response, error)
	UpdateResponse(ctx context.Context, r *models.Response) error
	DeleteResponse(ctx context.Context, id int64) error
	ListResponses(ctx context.Context, limit, offset int) ([]models.Response, error)
	CountResponses(ctx context.Context) (int64, error)
	// LatestResponse returns the response with the greatest lastmodifieddatetime
	// for the questionnaire, optionally scoped to username. Ties go to the
	// highest id.
	LatestResponse(ctx context.Context, questionnaireID int64, username *string) (*models.Response, error)
	ListResponsesByAsset(ctx context.Context, assetID int64) ([]models.Response, error)
}

type ResponsedetailRepo interface {
	CreateResponsedetail(ctx context.Context, d *models.Responsedetail) (int64, error)
	GetResponsedetail(ctx context.Context, id int64) (*models.Responsedetail, error)
	UpdateResponsedetail(ctx context.Context, d *models.Responsedetail) error
	DeleteResponsedetail(ctx context.Context, id int64) error
	ListResponsedetails(ctx context.Context, limit, offset int) ([]models.Responsedetail, error)
	CountResponsedetails(ctx context.Context) (int64, error)
	ListResponsedetailsByResponse(ctx context.Context, responseID int64) ([]models.Responsedetail, error)
}

type ResponsembrRepo interface {
	CreateResponsembr(ctx context.Context, m *models.Responsembr) (int64, error)
	GetResponsembr(ctx context.Context, id int64) (*models.Responsembr, error)
	UpdateResponsembr(ctx context.Context, m *models.Responsembr) error
	DeleteResponsembr(ctx context.Context, id int64) error
	ListResponsembrs(ctx context.Context, limit, offset int) ([]models.Responsembr, error)
	CountResponsembrs(ctx context.Context) (int64, error)
	ListResponsembrsByAsset(ctx context.Context, assetID int64) ([]models.Responsembr, error)
}

type PayloadSchemaRepo interface {
	// CreatePayloadSchema inserts or updates a schema by version.
	CreatePayloadSchema(ctx context.Context, version, description, schemaJSON string) (int64, error)
	GetPayloadSchemaByVersion(ctx context.Context, version string) (*models.PayloadSchema, error)
	ListPayloadSchemas(ctx context.Context) ([]models.PayloadSchema, error)
	DeletePayloadSchema(ctx context.Context, version string) error
}

// Store groups every entity repository and can run a unit of work atomically.
type Store interface {
	UserRepo
	QuestionnaireRepo
	QuestiongroupRepo
	QuestionRepo
	SubquestionRepo
	AnswerRepo
	ConditionsRepo
	LogicoperatorRepo
	ResponseRepo
	ResponsedetailRepo
	ResponsembrRepo
	PayloadSchemaRepo

	// InTx runs fn against a Store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(Store) error) error
}
