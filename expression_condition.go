package gamestate

import (
	"fmt"
	"strings"
	"time"
)

// ExpressionCondition is an atomic condition written as an expression over
// the ledgers. The snapshot exposes `items` (sorted item names) and `events`
// (sorted cleared ids), and the LedgerFunctions helpers such as
// has_item(name) and cleared(id) are registered. With the default expr
// engine:
//
//	"lantern" in items && cleared("cellar-door")
//
// CEL reaches the functions through call("has_item", "lantern").
type ExpressionCondition struct {
	conditionBase
	inventory  *InventoryLedger
	history    *EventHistoryLedger
	expression string
	engine     string
	label      string
	args       map[string]any
	rule       CompiledRule
	logger     EvaluatorLogger
	now        func() time.Time
}

type expressionConfig struct {
	engine    string
	evaluator Evaluator
	cache     ProgramCache
	label     string
	args      map[string]any
	logger    EvaluatorLogger
	now       func() time.Time
}

// ExpressionOption configures NewExpressionCondition.
type ExpressionOption func(*expressionConfig)

// WithEngine selects "expr" (default), "cel" or "js". The js engine needs the
// js_eval build tag.
func WithEngine(name string) ExpressionOption {
	return func(cfg *expressionConfig) {
		cfg.engine = strings.ToLower(strings.TrimSpace(name))
	}
}

// WithEvaluator supplies a preconfigured evaluator. It replaces the built-in
// engine, so the ledger functions are only available if the evaluator
// registers them (see LedgerFunctions).
func WithEvaluator(evaluator Evaluator) ExpressionOption {
	return func(cfg *expressionConfig) {
		cfg.evaluator = evaluator
	}
}

// WithProgramCache shares compiled programs between conditions. Programs
// compiled by the built-in engines are only reused by conditions over the
// same ledgers.
func WithProgramCache(cache ProgramCache) ExpressionOption {
	return func(cfg *expressionConfig) {
		cfg.cache = cache
	}
}

// WithLabel names the condition in errors and log events.
func WithLabel(label string) ExpressionOption {
	return func(cfg *expressionConfig) {
		cfg.label = label
	}
}

// WithArgs exposes args to the expression as `args`.
func WithArgs(args map[string]any) ExpressionOption {
	return func(cfg *expressionConfig) {
		cfg.args = args
	}
}

// WithEvaluatorLogger records every evaluation.
func WithEvaluatorLogger(logger EvaluatorLogger) ExpressionOption {
	return func(cfg *expressionConfig) {
		cfg.logger = logger
	}
}

// WithConditionClock overrides the `now` value seen by expressions.
func WithConditionClock(now func() time.Time) ExpressionOption {
	return func(cfg *expressionConfig) {
		cfg.now = now
	}
}

// NewExpressionCondition compiles expression and subscribes to every change
// of both ledgers. Either ledger may be nil.
func NewExpressionCondition(expression string, inventory *InventoryLedger, history *EventHistoryLedger, opts ...ExpressionOption) (*ExpressionCondition, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, invalidArgument("condition expression must not be empty")
	}
	cfg := expressionConfig{engine: "expr", now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = noopEvaluatorLogger{}
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}

	evaluator := cfg.evaluator
	if evaluator == nil {
		var err error
		scope := fmt.Sprintf("%p/%p", inventory, history)
		evaluator, err = newEngine(cfg.engine, scopeProgramCache(cfg.cache, scope), LedgerFunctions(inventory, history))
		if err != nil {
			return nil, err
		}
	}

	rule, err := evaluator.Compile(expression, WithDeclaredVariables("items", "events"))
	if err != nil {
		return nil, err
	}

	c := &ExpressionCondition{
		inventory:  inventory,
		history:    history,
		expression: expression,
		engine:     evaluatorEngineName(evaluator),
		label:      cfg.label,
		args:       cfg.args,
		rule:       rule,
		logger:     cfg.logger,
		now:        cfg.now,
	}
	c.watchLedgers()
	return c, nil
}

func newEngine(name string, cache ProgramCache, registry *FunctionRegistry) (Evaluator, error) {
	switch name {
	case "", "expr":
		return NewExprEvaluator(ExprWithProgramCache(cache), ExprWithFunctionRegistry(registry)), nil
	case "cel":
		return NewCELEvaluator(CELWithProgramCache(cache), CELWithFunctionRegistry(registry)), nil
	case "js":
		if !jsEvaluatorAvailable() {
			return nil, invalidArgument("js engine requires the js_eval build tag")
		}
		return NewJSEvaluator(JSWithProgramCache(cache), JSWithFunctionRegistry(registry)), nil
	default:
		return nil, invalidArgument("unknown expression engine %q", name)
	}
}

func (c *ExpressionCondition) watchLedgers() {
	if c.inventory != nil {
		c.watch(c.inventory.OnItemAdded(func(string) { c.raise() }))
		c.watch(c.inventory.OnItemRemoved(func(string) { c.raise() }))
	}
	if c.history != nil {
		c.watch(c.history.OnLoaded(c.raise))
		c.watch(c.history.OnEventCleared(func(string) { c.raise() }))
	}
}

// Expression returns the source the condition was built from.
func (c *ExpressionCondition) Expression() string {
	return c.expression
}

// Evaluate runs the expression against the current ledger state. A result
// that is not a bool is an error.
func (c *ExpressionCondition) Evaluate() (bool, error) {
	now := c.now()
	started := time.Now()
	out, err := c.rule.Evaluate(RuleContext{
		Snapshot: c.snapshot(),
		Now:      &now,
		Args:     c.args,
		Label:    c.label,
	})
	result := false
	if err == nil {
		var ok bool
		result, ok = out.(bool)
		if !ok {
			err = conditionFailure(c.engine, PhaseResult, c.expression, c.label, fmt.Errorf("result is %T, want bool", out))
		}
	}
	c.logger.LogEvaluation(EvaluatorLogEvent{
		Engine:   c.engine,
		Expr:     c.expression,
		Label:    c.label,
		Result:   result,
		Duration: time.Since(started),
		Err:      err,
	})
	if err != nil {
		return false, err
	}
	return result, nil
}

// IsSatisfied reports false when evaluation fails; the failure reaches the
// evaluator logger.
func (c *ExpressionCondition) IsSatisfied() bool {
	ok, err := c.Evaluate()
	return err == nil && ok
}

func (c *ExpressionCondition) snapshot() map[string]any {
	items := []string{}
	if c.inventory != nil {
		items = c.inventory.Items()
	}
	events := []string{}
	if c.history != nil {
		events = c.history.ClearedEvents()
	}
	return map[string]any{
		"items":  items,
		"events": events,
	}
}
