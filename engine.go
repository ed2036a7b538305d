package gamestate

import "strings"

// engine is the state every expression backend shares: the engine name used
// in errors and cache keys, an optional program cache and the functions
// exposed to expressions.
type engine struct {
	name     string
	cache    ProgramCache
	registry *FunctionRegistry
}

// ExprEvaluatorOption configures NewExprEvaluator.
type ExprEvaluatorOption func(*engine)

// CELEvaluatorOption configures NewCELEvaluator.
type CELEvaluatorOption func(*engine)

// JSEvaluatorOption configures NewJSEvaluator.
type JSEvaluatorOption func(*engine)

// ExprWithProgramCache stores compiled expr programs in cache.
func ExprWithProgramCache(cache ProgramCache) ExprEvaluatorOption {
	return func(e *engine) { e.cache = cache }
}

// ExprWithFunctionRegistry exposes each registered function by name.
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprEvaluatorOption {
	return func(e *engine) { e.useRegistry(registry) }
}

// CELWithProgramCache stores checked CEL programs in cache.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *engine) { e.cache = cache }
}

// CELWithFunctionRegistry exposes registered functions through
// call("name", args...).
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *engine) { e.useRegistry(registry) }
}

// JSWithProgramCache stores compiled goja programs in cache.
func JSWithProgramCache(cache ProgramCache) JSEvaluatorOption {
	return func(e *engine) { e.cache = cache }
}

// JSWithFunctionRegistry exposes registered functions as globals and
// through call("name", args...).
func JSWithFunctionRegistry(registry *FunctionRegistry) JSEvaluatorOption {
	return func(e *engine) { e.useRegistry(registry) }
}

func configureEngine[O ~func(*engine)](name string, opts []O) engine {
	e := engine{name: name}
	for _, opt := range opts {
		if opt != nil {
			opt(&e)
		}
	}
	return e
}

func (e *engine) useRegistry(registry *FunctionRegistry) {
	if registry != nil {
		e.registry = registry.Clone()
	}
}

func (e *engine) checkExpression(expression string) error {
	if strings.TrimSpace(expression) == "" {
		return engineFailure(e.name, errEmptyExpression)
	}
	return nil
}

func (e *engine) evaluateFailure(ctx RuleContext, expression string, err error) error {
	return conditionFailure(e.name, PhaseEvaluate, expression, ctx.Label, err)
}

// loadProgram returns the program cached under key, building and caching it
// on a miss. Build errors are reported as compile failures of expression.
func loadProgram[P any](e *engine, expression, key string, build func() (P, error)) (P, error) {
	key = cacheKey(e.name, key)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(P); ok {
				return program, nil
			}
		}
	}
	program, err := build()
	if err != nil {
		var zero P
		return zero, conditionFailure(e.name, PhaseCompile, expression, "", err)
	}
	if e.cache != nil {
		e.cache.Set(key, program)
	}
	return program, nil
}

// bindings is the variable set an expression sees: the snapshot fields plus
// now and args, which shadow snapshot fields of the same name.
func bindings(ctx RuleContext) map[string]any {
	snapshot := snapshotAsMap(ctx.Snapshot)
	vars := make(map[string]any, len(snapshot)+2)
	for key, value := range snapshot {
		vars[key] = value
	}
	vars["now"] = ctx.timestamp()
	vars["args"] = ctx.Args
	return vars
}

func isReservedBinding(name string) bool {
	return name == "now" || name == "args"
}
