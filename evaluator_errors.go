package gamestate

import (
	"errors"
	"fmt"
	"strings"
)

// Phases reported by EvaluationError.
const (
	PhaseCompile  = "compile"
	PhaseEvaluate = "evaluate"
	PhaseResult   = "result"
)

var errEmptyExpression = errors.New("expression must not be empty")

// EvaluationError ties an engine failure to the condition that caused it.
type EvaluationError struct {
	Engine string
	Phase  string
	Expr   string
	Label  string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "gamestate: %s evaluator: ", e.Engine)
	if e.Phase != "" {
		b.WriteString(e.Phase)
		b.WriteByte(' ')
	}
	b.WriteString("condition ")
	b.WriteString(conditionName(e.Label))
	if e.Expr != "" {
		fmt.Fprintf(&b, " (expr=%q)", e.Expr)
	}
	b.WriteString(": ")
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func conditionName(label string) string {
	if strings.TrimSpace(label) == "" {
		return "unknown"
	}
	return label
}

// engineFailure reports a misuse of an engine that is not tied to a
// particular condition, such as an empty expression.
func engineFailure(engine string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) || strings.HasPrefix(err.Error(), "gamestate:") {
		return err
	}
	return fmt.Errorf("gamestate: %s evaluator: %w", engine, err)
}

// conditionFailure wraps err as an EvaluationError. An existing
// EvaluationError keeps its own fields and only has the blanks filled in.
func conditionFailure(engine, phase, expr, label string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		return &EvaluationError{Engine: engine, Phase: phase, Expr: expr, Label: label, Err: err}
	}
	fill := func(dst *string, value string) {
		if *dst == "" {
			*dst = value
		}
	}
	fill(&evalErr.Engine, engine)
	fill(&evalErr.Phase, phase)
	fill(&evalErr.Expr, expr)
	fill(&evalErr.Label, label)
	return evalErr
}
