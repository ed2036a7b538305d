package gamestate

import (
	"slices"
	"strings"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// celEvaluator runs conditions on cel-go. CEL type-checks against declared
// variables, so a program is bound to the set of snapshot keys it was
// compiled for and is rebuilt when that set changes.
type celEvaluator struct {
	engine
}

// NewCELEvaluator constructs an Evaluator backed by cel-go.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	return &celEvaluator{engine: configureEngine("cel", opts)}
}

func (e *celEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

// Compile type-checks expression right away when WithDeclaredVariables names
// the snapshot keys. Without them the first evaluation compiles.
func (e *celEvaluator) Compile(expression string, opts ...CompileOption) (CompiledRule, error) {
	if err := e.checkExpression(expression); err != nil {
		return nil, err
	}
	rule := &celRule{evaluator: e, expression: expression}
	if declared := applyCompileOptions(opts).variables; len(declared) > 0 {
		shape := variableShape(declared)
		program, err := e.program(expression, shape)
		if err != nil {
			return nil, err
		}
		rule.shape, rule.program = shape, program
	}
	return rule, nil
}

func (e *celEvaluator) program(expression string, shape []string) (celgo.Program, error) {
	key := expression + "|" + strings.Join(shape, ",")
	return loadProgram(&e.engine, expression, key, func() (celgo.Program, error) {
		env, err := e.environment(shape)
		if err != nil {
			return nil, err
		}
		checked, issues := env.Compile(expression)
		if issues != nil && issues.Err() != nil {
			return nil, issues.Err()
		}
		return env.Program(checked)
	})
}

func (e *celEvaluator) environment(shape []string) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("args", celgo.DynType),
	}
	for _, name := range shape {
		if !isReservedBinding(name) {
			opts = append(opts, celgo.Variable(name, celgo.DynType))
		}
	}
	if e.registry != nil {
		call := celgo.FunctionBinding(e.callRegistry)
		opts = append(opts, celgo.Function("call",
			celgo.Overload("call_string", []*celgo.Type{celgo.StringType}, celgo.DynType, call),
			celgo.Overload("call_string_dyn", []*celgo.Type{celgo.StringType, celgo.DynType}, celgo.DynType, call),
		))
	}
	return celgo.NewEnv(opts...)
}

// callRegistry serves call("name", arg) from the function registry.
func (e *celEvaluator) callRegistry(values ...ref.Val) ref.Val {
	if len(values) == 0 {
		return types.NewErr("gamestate: call requires a function name")
	}
	name, ok := values[0].Value().(string)
	if !ok {
		return types.NewErr("gamestate: call name must be a string")
	}
	args := make([]any, len(values)-1)
	for i, val := range values[1:] {
		args[i] = val.Value()
	}
	result, err := e.registry.Call(name, args...)
	switch {
	case err != nil:
		return types.NewErr("%s", err.Error())
	case result == nil:
		return types.NullValue
	default:
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}

type celRule struct {
	evaluator  *celEvaluator
	expression string
	shape      []string
	program    celgo.Program
}

func (r *celRule) Evaluate(ctx RuleContext) (any, error) {
	ctx = ctx.withDefaults()
	vars := bindings(ctx)
	program := r.program
	if shape := variableShape(keysOf(snapshotAsMap(ctx.Snapshot))); program == nil || !slices.Equal(shape, r.shape) {
		var err error
		if program, err = r.evaluator.program(r.expression, shape); err != nil {
			return nil, r.evaluator.evaluateFailure(ctx, r.expression, err)
		}
	}
	out, _, err := program.Eval(vars)
	if err != nil {
		return nil, r.evaluator.evaluateFailure(ctx, r.expression, err)
	}
	return out.Value(), nil
}

// variableShape returns the sorted, de-duplicated non-reserved names.
func variableShape(names []string) []string {
	shape := make([]string, 0, len(names))
	for _, name := range names {
		if !isReservedBinding(name) {
			shape = append(shape, name)
		}
	}
	slices.Sort(shape)
	return slices.Compact(shape)
}

func keysOf(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	return keys
}
