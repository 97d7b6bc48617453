package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrAmbiguousSource is returned when a record references both a question and a
// subquestion for the same gate.
var ErrAmbiguousSource = errors.New("both question and subquestion set")

type SourceKind int

const (
	SourceNone SourceKind = iota
	SourceQuestion
	SourceSubquestion
)

func (k SourceKind) String() string {
	switch k {
	case SourceQuestion:
		return "question"
	case SourceSubquestion:
		return "subquestion"
	default:
		return "none"
	}
}

// GatingSource identifies the question or subquestion whose answer drives a gate.
// The zero value means no source is set.
type GatingSource struct {
	Kind SourceKind
	ID   int64
}

func QuestionSource(id int64) GatingSource    { return GatingSource{Kind: SourceQuestion, ID: id} }
func SubquestionSource(id int64) GatingSource { return GatingSource{Kind: SourceSubquestion, ID: id} }

func (s GatingSource) IsSet() bool { return s.Kind != SourceNone }

func (s GatingSource) String() string {
	if !s.IsSet() {
		return "none"
	}
	return fmt.Sprintf("%s:%d", s.Kind, s.ID)
}

// Columns splits the source back into the nullable question/subquestion columns.
func (s GatingSource) Columns() (question, subquestion *int64) {
	id := s.ID
	switch s.Kind {
	case SourceQuestion:
		return &id, nil
	case SourceSubquestion:
		return nil, &id
	}
	return nil, nil
}

// SourceFromColumns builds a GatingSource from two nullable references.
func SourceFromColumns(question, subquestion *int64) (GatingSource, error) {
	switch {
	case question != nil && subquestion != nil:
		return GatingSource{}, ErrAmbiguousSource
	case question != nil:
		return QuestionSource(*question), nil
	case subquestion != nil:
		return SubquestionSource(*subquestion), nil
	}
	return GatingSource{}, nil
}

// Conditions reveals DisplayedquestionID when the answer recorded for Source
// satisfies Operator against Response.
type Conditions struct {
	ID                  int64
	Action              string
	Operator            string
	Response            string
	DisplayedquestionID int64
	Source              GatingSource
}

type conditionsJSON struct {
	ID                int64  `json:"id,omitempty"`
	Action            string `json:"action"`
	Operator          string `json:"operator"`
	Response          string `json:"response"`
	Displayedquestion int64  `json:"displayedquestion"`
	Question          *int64 `json:"question"`
	Subquestion       *int64 `json:"subquestion"`
}

func (c Conditions) MarshalJSON() ([]byte, error) {
	q, s := c.Source.Columns()
	return json.Marshal(conditionsJSON{
		ID:                c.ID,
		Action:            c.Action,
		Operator:          c.Operator,
		Response:          c.Response,
		Displayedquestion: c.DisplayedquestionID,
		Question:          q,
		Subquestion:       s,
	})
}

func (c *Conditions) UnmarshalJSON(b []byte) error {
	var raw conditionsJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	src, err := SourceFromColumns(raw.Question, raw.Subquestion)
	if err != nil {
		return fmt.Errorf("conditions: %w", err)
	}
	*c = Conditions{
		ID:                  raw.ID,
		Action:              raw.Action,
		Operator:            raw.Operator,
		Response:            raw.Response,
		DisplayedquestionID: raw.Displayedquestion,
		Source:              src,
	}
	return nil
}

// Logicoperator combines two gates with AND/OR. Both terms must be of the
// same kind for the record to be usable.
type Logicoperator struct {
	ID              int64
	Operator        string
	First           GatingSource
	Second          GatingSource
	QuestionnaireID *int64
}

type logicoperatorJSON struct {
	ID                int64  `json:"id,omitempty"`
	Operator          string `json:"operator"`
	Firstquestion     *int64 `json:"firstquestion"`
	Secondquestion    *int64 `json:"secondquestion"`
	Firstsubquestion  *int64 `json:"firstsubquestion"`
	Secondsubquestion *int64 `json:"secondsubquestion"`
	Questionnaire     *int64 `json:"questionnaire,omitempty"`
}

func (l Logicoperator) MarshalJSON() ([]byte, error) {
	fq, fs := l.First.Columns()
	sq, ss := l.Second.Columns()
	return json.Marshal(logicoperatorJSON{
		ID:                l.ID,
		Operator:          l.Operator,
		Firstquestion:     fq,
		Secondquestion:    sq,
		Firstsubquestion:  fs,
		Secondsubquestion: ss,
		Questionnaire:     l.QuestionnaireID,
	})
}

func (l *Logicoperator) UnmarshalJSON(b []byte) error {
	var raw logicoperatorJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	first, err := SourceFromColumns(raw.Firstquestion, raw.Firstsubquestion)
	if err != nil {
		return fmt.Errorf("logicoperator first term: %w", err)
	}
	second, err := SourceFromColumns(raw.Secondquestion, raw.Secondsubquestion)
	if err != nil {
		return fmt.Errorf("logicoperator second term: %w", err)
	}
	*l = Logicoperator{
		ID:              raw.ID,
		Operator:        raw.Operator,
		First:           first,
		Second:          second,
		QuestionnaireID: raw.Questionnaire,
	}
	return nil
}
