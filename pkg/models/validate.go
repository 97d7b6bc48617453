package models

import (
	"strings"

	"github.com/garnizeh/questionnaire/pkg/fault"
)

func required(name, v string) error {
	if strings.TrimSpace(v) == "" {
		return fault.Invalid("%s is required", name)
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (q Questionnaire) Validate() error {
	return firstErr(required("name", q.Name), required("status", q.Status), required("domain", q.Domain))
}

func (g Questiongroup) Validate() error {
	return firstErr(required("code", g.Code), required("status", g.Status), required("domain", g.Domain))
}

func (q Question) Validate() error {
	return firstErr(
		required("code", q.Code),
		required("status", q.Status),
		required("domain", q.Domain),
		required("type", q.Type),
	)
}

func (s Subquestion) Validate() error {
	return firstErr(required("code", s.Code), required("status", s.Status), required("domain", s.Domain))
}

func (a Answer) Validate() error {
	return firstErr(required("answer", a.Answer), required("status", a.Status), required("domain", a.Domain))
}

func (c Conditions) Validate() error {
	if c.DisplayedquestionID <= 0 {
		return fault.Invalid("displayedquestion is required")
	}
	return firstErr(required("action", c.Action), required("operator", c.Operator), required("response", c.Response))
}

func (l Logicoperator) Validate() error {
	return required("operator", l.Operator)
}

func (r Response) Validate() error {
	if r.QuestionnaireID <= 0 {
		return fault.Invalid("questionnaire is required")
	}
	return firstErr(required("status", r.Status), required("domain", r.Domain))
}

func (d Responsedetail) Validate() error {
	if d.ResponseID <= 0 || d.QuestionID <= 0 {
		return fault.Invalid("responseId and questionId are required")
	}
	return nil
}

func (m Responsembr) Validate() error {
	if m.AssetID <= 0 || m.ResponseID <= 0 {
		return fault.Invalid("asset and response are required")
	}
	return firstErr(required("status", m.Status), required("domain", m.Domain))
}
