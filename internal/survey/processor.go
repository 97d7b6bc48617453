package survey

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garnizeh/questionnaire/pkg/fault"
	"github.com/garnizeh/questionnaire/pkg/models"
	"github.com/garnizeh/questionnaire/pkg/repository"
)

const statusActive = "Active"

// Submission is a stored response together with the detail rows written for it.
type Submission struct {
	Response models.Response          `json:"response"`
	Details  []models.Responsedetail `json:"details"`
}

// Processor runs the response flows: submission, update, re-decomposition,
// asset linking and evaluation of gates against stored answers.
type Processor struct {
	store      repository.Store
	decomposer *Decomposer
	domain     string
	now        func() time.Time
}

func NewProcessor(store repository.Store, decomposer *Decomposer, domain string) *Processor {
	if domain == "" {
		domain = "DEMO"
	}
	return &Processor{
		store:      store,
		decomposer: decomposer,
		domain:     domain,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func notFound(entity string, id int64) error {
	return fault.NewClientError(fmt.Sprintf("%s %d not found", entity, id), fault.ErrNotFound)
}

func (p *Processor) decompose(ctx context.Context, responseID int64, questionnaireID int64, details []byte) ([]models.Responsedetail, error) {
	qid := questionnaireID
	if p.decomposer != nil {
		return p.decomposer.Decompose(ctx, responseID, &qid, details)
	}
	return DecomposeResponse(responseID, &qid, details)
}

func (p *Processor) requireQuestionnaire(ctx context.Context, id int64) error {
	q, err := p.store.GetQuestionnaire(ctx, id)
	if err != nil {
		return fmt.Errorf("get questionnaire: %w", err)
	}
	if q == nil {
		return notFound("questionnaire", id)
	}
	return nil
}

// writeDetails stores rows for responseID, stamping the id on each row.
func writeDetails(ctx context.Context, s repository.Store, responseID int64, rows []models.Responsedetail) error {
	for i := range rows {
		rows[i].ResponseID = responseID
		id, err := s.CreateResponsedetail(ctx, &rows[i])
		if err != nil {
			return fmt.Errorf("create responsedetail: %w", err)
		}
		rows[i].ID = id
	}
	return nil
}

// Submit stores a new response for the questionnaire and its decomposed
// details in one transaction. The payload is validated before anything is
// written.
func (p *Processor) Submit(ctx context.Context, questionnaireID int64, details []byte, username string) (*Submission, error) {
	if err := p.requireQuestionnaire(ctx, questionnaireID); err != nil {
		return nil, err
	}
	rows, err := p.decompose(ctx, 0, questionnaireID, details)
	if err != nil {
		return nil, err
	}

	resp := models.Response{
		Details:              string(details),
		Status:               statusActive,
		Lastmodifiedby:       username,
		Lastmodifieddatetime: p.now().UnixMilli(),
		Domain:               p.domain,
		QuestionnaireID:      questionnaireID,
	}
	if strings.TrimSpace(username) != "" {
		u := username
		resp.Username = &u
	}

	err = p.store.InTx(ctx, func(s repository.Store) error {
		id, err := s.CreateResponse(ctx, &resp)
		if err != nil {
			return fmt.Errorf("create response: %w", err)
		}
		resp.ID = id
		return writeDetails(ctx, s, id, rows)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("response submitted", "response_id", resp.ID, "questionnaire_id", questionnaireID, "details", len(rows))
	return &Submission{Response: resp, Details: rows}, nil
}

// Update replaces the payload of an existing response and appends a fresh
// set of detail rows. Earlier rows are kept.
func (p *Processor) Update(ctx context.Context, questionnaireID, responseID int64, details []byte, username string) (*Submission, error) {
	if err := p.requireQuestionnaire(ctx, questionnaireID); err != nil {
		return nil, err
	}
	rows, err := p.decompose(ctx, responseID, questionnaireID, details)
	if err != nil {
		return nil, err
	}

	var resp models.Response
	err = p.store.InTx(ctx, func(s repository.Store) error {
		existing, err := s.GetResponse(ctx, responseID)
		if err != nil {
			return fmt.Errorf("get response: %w", err)
		}
		if existing == nil {
			return notFound("response", responseID)
		}
		if existing.QuestionnaireID != questionnaireID {
			return fault.Invalid("response %d belongs to questionnaire %d, not %d", responseID, existing.QuestionnaireID, questionnaireID)
		}

		resp = *existing
		resp.Details = string(details)
		resp.Status = statusActive
		resp.Domain = p.domain
		resp.Lastmodifiedby = username
		resp.Lastmodifieddatetime = p.now().UnixMilli()
		if err := s.UpdateResponse(ctx, &resp); err != nil {
			return fmt.Errorf("update response: %w", err)
		}
		return writeDetails(ctx, s, responseID, rows)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("response updated", "response_id", responseID, "questionnaire_id", questionnaireID, "details", len(rows))
	return &Submission{Response: resp, Details: rows}, nil
}

// Redecompose re-reads a stored response and appends detail rows for it.
// Running it twice duplicates the rows.
func (p *Processor) Redecompose(ctx context.Context, responseID int64) ([]models.Responsedetail, error) {
	resp, err := p.store.GetResponse(ctx, responseID)
	if err != nil {
		return nil, fmt.Errorf("get response: %w", err)
	}
	if resp == nil {
		return nil, notFound("response", responseID)
	}

	rows, err := p.decompose(ctx, responseID, resp.QuestionnaireID, []byte(resp.Details))
	if err != nil {
		return nil, err
	}
	err = p.store.InTx(ctx, func(s repository.Store) error {
		return writeDetails(ctx, s, responseID, rows)
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// AttachToAsset saves resp (creating it when it has no id) and links it to
// assetID. The link copies status, domain and author from the response.
func (p *Processor) AttachToAsset(ctx context.Context, resp models.Response, assetID int64, username string) (*models.Response, *models.Responsembr, error) {
	if resp.Domain == "" {
		resp.Domain = p.domain
	}
	if resp.Status == "" {
		resp.Status = statusActive
	}
	if resp.Lastmodifiedby == "" {
		resp.Lastmodifiedby = username
	}
	if err := resp.Validate(); err != nil {
		return nil, nil, err
	}
	if err := p.requireQuestionnaire(ctx, resp.QuestionnaireID); err != nil {
		return nil, nil, err
	}

	ts := p.now().UnixMilli()
	resp.Lastmodifieddatetime = ts
	link := models.Responsembr{
		Status:               resp.Status,
		Lastmodifiedby:       resp.Lastmodifiedby,
		Lastmodifieddatetime: ts,
		Domain:               resp.Domain,
		AssetID:              assetID,
	}

	err := p.store.InTx(ctx, func(s repository.Store) error {
		if resp.ID == 0 {
			id, err := s.CreateResponse(ctx, &resp)
			if err != nil {
				return fmt.Errorf("create response: %w", err)
			}
			resp.ID = id
		} else if err := s.UpdateResponse(ctx, &resp); err != nil {
			return fmt.Errorf("update response: %w", err)
		}

		link.ResponseID = resp.ID
		id, err := s.CreateResponsembr(ctx, &link)
		if err != nil {
			return fmt.Errorf("create responsembr: %w", err)
		}
		link.ID = id
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &resp, &link, nil
}

func (p *Processor) ResponsesByAsset(ctx context.Context, assetID int64) ([]models.Response, error) {
	return p.store.ListResponsesByAsset(ctx, assetID)
}

// VisibleQuestions returns the group's questions minus every condition target.
func (p *Processor) VisibleQuestions(ctx context.Context, groupID int64) ([]models.Question, error) {
	questions, err := p.store.ListQuestionsByQuestiongroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	conditions, err := p.store.ListAllConditions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list conditions: %w", err)
	}
	return FilterVisibleQuestions(groupID, questions, conditions), nil
}

// Latest resolves the current response for a questionnaire.
func (p *Processor) Latest(ctx context.Context, questionnaireID int64, username *string) (*models.Response, error) {
	return ResolveLatestResponse(ctx, p.store, questionnaireID, username)
}

// lookupFor answers from the response's current payload. Detail rows from
// earlier updates are kept for history and never gate anything.
func (p *Processor) lookupFor(ctx context.Context, responseID int64) (AnswerLookup, error) {
	resp, err := p.store.GetResponse(ctx, responseID)
	if err != nil {
		return nil, fmt.Errorf("get response: %w", err)
	}
	if resp == nil {
		return nil, notFound("response", responseID)
	}
	if strings.TrimSpace(resp.Details) == "" {
		return DetailLookup(nil), nil
	}
	rows, err := DecomposeResponse(responseID, &resp.QuestionnaireID, []byte(resp.Details))
	if err != nil {
		return nil, fmt.Errorf("response %d: %w", responseID, err)
	}
	return DetailLookup(rows), nil
}

// EvaluateForResponse evaluates a stored condition against the answers
// recorded for a response.
func (p *Processor) EvaluateForResponse(ctx context.Context, conditionID, responseID int64) (bool, error) {
	c, err := p.store.GetConditions(ctx, conditionID)
	if err != nil {
		return false, fmt.Errorf("get conditions: %w", err)
	}
	if c == nil {
		return false, notFound("conditions", conditionID)
	}
	lookup, err := p.lookupFor(ctx, responseID)
	if err != nil {
		return false, err
	}

	ok, err := EvaluateCondition(*c, lookup)
	if err != nil {
		logMisconfigured(err, "conditions", conditionID)
		return false, err
	}
	return ok, nil
}

// EvaluateLogicForResponse evaluates a stored logic operator against the
// answers recorded for a response.
func (p *Processor) EvaluateLogicForResponse(ctx context.Context, logicID, responseID int64) (bool, error) {
	l, err := p.store.GetLogicoperator(ctx, logicID)
	if err != nil {
		return false, fmt.Errorf("get logicoperator: %w", err)
	}
	if l == nil {
		return false, notFound("logicoperator", logicID)
	}
	lookup, err := p.lookupFor(ctx, responseID)
	if err != nil {
		return false, err
	}

	ok, err := EvaluateLogicoperator(*l, lookup)
	if err != nil {
		logMisconfigured(err, "logicoperator", logicID)
		return false, err
	}
	return ok, nil
}

func logMisconfigured(err error, entity string, id int64) {
	if errors.Is(err, fault.ErrMissingGatingSource) || errors.Is(err, fault.ErrUnknownOperator) {
		logger.Error("gate misconfigured", "entity", entity, "id", id, "err", err)
	}
}
