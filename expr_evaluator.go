package gamestate

import (
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// exprEvaluator runs conditions on github.com/expr-lang/expr, the default
// engine. Unknown identifiers evaluate to nil instead of failing to compile,
// so a program compiled for one snapshot shape serves any other.
type exprEvaluator struct {
	engine
}

// NewExprEvaluator constructs an Evaluator backed by expr-lang/expr.
func NewExprEvaluator(opts ...ExprEvaluatorOption) Evaluator {
	return &exprEvaluator{engine: configureEngine("expr", opts)}
}

func (e *exprEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *exprEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if err := e.checkExpression(expression); err != nil {
		return nil, err
	}
	program, err := loadProgram(&e.engine, expression, expression, func() (*exprvm.Program, error) {
		return exprlang.Compile(expression, e.compilerOptions()...)
	})
	if err != nil {
		return nil, err
	}
	return &exprRule{evaluator: e, expression: expression, program: program}, nil
}

func (e *exprEvaluator) compilerOptions() []exprlang.Option {
	names := e.registry.Names()
	options := make([]exprlang.Option, 0, len(names)+2)
	options = append(options, exprlang.Env(map[string]any{}), exprlang.AllowUndefinedVariables())
	for _, name := range names {
		registry, fn := e.registry, name
		options = append(options, exprlang.Function(fn, func(arguments ...any) (any, error) {
			return registry.Call(fn, arguments...)
		}))
	}
	return options
}

type exprRule struct {
	evaluator  *exprEvaluator
	expression string
	program    *exprvm.Program
}

func (r *exprRule) Evaluate(ctx RuleContext) (any, error) {
	ctx = ctx.withDefaults()
	out, err := exprlang.Run(r.program, bindings(ctx))
	if err != nil {
		return nil, r.evaluator.evaluateFailure(ctx, r.expression, err)
	}
	return out, nil
}
