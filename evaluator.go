package gamestate

import "time"

// RuleContext is what a single evaluation runs against. Snapshot is
// normally the map built by ExpressionCondition (items, events); other
// snapshot types are treated as empty.
type RuleContext struct {
	Snapshot any
	Now      *time.Time
	Args     map[string]any
	Label    string
}

func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	if ctx.Now == nil {
		return time.Now()
	}
	return *ctx.Now
}

// Evaluator compiles and runs condition expressions for one engine.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule is an expression ready to run against many contexts.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption tunes a single Compile call.
type CompileOption func(*compileConfig)

type compileConfig struct {
	variables []string
}

// WithDeclaredVariables names the snapshot keys an expression may
// reference. CEL uses it to type-check at compile time; the other engines
// ignore it.
func WithDeclaredVariables(names ...string) CompileOption {
	return func(cfg *compileConfig) {
		cfg.variables = append(cfg.variables, names...)
	}
}

func applyCompileOptions(opts []CompileOption) compileConfig {
	var cfg compileConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func snapshotAsMap(value any) map[string]any {
	if m, ok := value.(map[string]any); ok && m != nil {
		return m
	}
	return map[string]any{}
}

func evaluatorEngineName(e Evaluator) string {
	switch v := e.(type) {
	case nil:
		return "unknown"
	case *exprEvaluator:
		return v.name
	case *celEvaluator:
		return v.name
	default:
		return jsEngineName(e)
	}
}
