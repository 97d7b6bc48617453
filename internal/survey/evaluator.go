package survey

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/garnizeh/questionnaire/pkg/fault"
	"github.com/garnizeh/questionnaire/pkg/models"
)

// AnswerLookup returns the recorded answer for a gating source and whether
// one exists.
type AnswerLookup func(models.GatingSource) (string, bool)

// comparators maps the operator tokens accepted on a Conditions record to
// the expr operator that implements them.
var comparators = map[string]string{
	"=":  "==",
	"==": "==",
	"!=": "!=",
	"<>": "!=",
	">":  ">",
	"<":  "<",
	">=": ">=",
	"<=": "<=",
}

type operandKind int

const (
	stringOperands operandKind = iota
	numericOperands
)

type programKey struct {
	op   string
	kind operandKind
}

// programs caches one compiled comparison per operator and operand kind.
var programs sync.Map

func comparison(op string, kind operandKind) (*vm.Program, error) {
	key := programKey{op: op, kind: kind}
	if p, ok := programs.Load(key); ok {
		return p.(*vm.Program), nil
	}

	env := map[string]any{"a": "", "b": ""}
	if kind == numericOperands {
		env = map[string]any{"a": 0.0, "b": 0.0}
	}

	p, err := expr.Compile("a "+op+" b", expr.Env(env), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", op, err)
	}
	actual, _ := programs.LoadOrStore(key, p)
	return actual.(*vm.Program), nil
}

// number parses s as a finite decimal. NaN, Inf and hex literals stay strings.
func number(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if strings.ContainsAny(s, "xX") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// compare applies token to answer and expected. Both sides are compared as
// numbers when both parse as numbers, as strings otherwise.
func compare(token, answer, expected string) (bool, error) {
	op, ok := comparators[strings.TrimSpace(token)]
	if !ok {
		return false, fault.NewConfigError(fmt.Sprintf("operator %q", token), fault.ErrUnknownOperator)
	}

	kind := stringOperands
	var env map[string]any
	a, aNum := number(answer)
	b, bNum := number(expected)
	if aNum && bNum {
		kind = numericOperands
		env = map[string]any{"a": a, "b": b}
	} else {
		env = map[string]any{"a": answer, "b": expected}
	}

	p, err := comparison(op, kind)
	if err != nil {
		return false, err
	}
	out, err := expr.Run(p, env)
	if err != nil {
		return false, fmt.Errorf("evaluate %q: %w", token, err)
	}
	result, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("comparison %q did not return a boolean", token)
	}
	return result, nil
}

// EvaluateCondition reports whether the answer recorded for c.Source
// satisfies c.Operator against c.Response. An absent answer is not
// satisfied.
func EvaluateCondition(c models.Conditions, lookup AnswerLookup) (bool, error) {
	if !c.Source.IsSet() {
		return false, fault.NewConfigError(fmt.Sprintf("condition %d", c.ID), fault.ErrMissingGatingSource)
	}
	if _, ok := comparators[strings.TrimSpace(c.Operator)]; !ok {
		return false, fault.NewConfigError(fmt.Sprintf("condition %d operator %q", c.ID, c.Operator), fault.ErrUnknownOperator)
	}

	answer, ok := lookup(c.Source)
	if !ok {
		return false, nil
	}
	return compare(c.Operator, answer, c.Response)
}

type combinator int

const (
	combineAnd combinator = iota
	combineOr
)

func parseCombinator(token string) (combinator, bool) {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "AND", "&&":
		return combineAnd, true
	case "OR", "||":
		return combineOr, true
	}
	return 0, false
}

// EvaluateLogicoperator combines the two referenced sources with AND/OR. The
// per-term predicate is "answered": a non-blank answer is recorded for the
// source. Both terms must reference the same kind of source.
func EvaluateLogicoperator(l models.Logicoperator, lookup AnswerLookup) (bool, error) {
	if !l.First.IsSet() || !l.Second.IsSet() || l.First.Kind != l.Second.Kind {
		return false, fault.NewConfigError(fmt.Sprintf("logicoperator %d", l.ID), fault.ErrMissingGatingSource)
	}
	comb, ok := parseCombinator(l.Operator)
	if !ok {
		return false, fault.NewConfigError(fmt.Sprintf("logicoperator %d operator %q", l.ID, l.Operator), fault.ErrUnknownOperator)
	}

	first := answered(lookup, l.First)
	second := answered(lookup, l.Second)
	if comb == combineAnd {
		return first && second, nil
	}
	return first || second, nil
}

func answered(lookup AnswerLookup, src models.GatingSource) bool {
	v, ok := lookup(src)
	return ok && strings.TrimSpace(v) != ""
}

// DetailLookup builds an AnswerLookup over stored response details. When a
// source was answered more than once the last row wins.
func DetailLookup(details []models.Responsedetail) AnswerLookup {
	answers := make(map[models.GatingSource]string, len(details)*2)
	for _, d := range details {
		if d.SubquestionID != nil {
			answers[models.SubquestionSource(*d.SubquestionID)] = d.Response
			continue
		}
		answers[models.QuestionSource(d.QuestionID)] = d.Response
	}
	return func(src models.GatingSource) (string, bool) {
		v, ok := answers[src]
		return v, ok
	}
}
