//go:build js_eval

package gamestate

import (
	"fmt"

	"github.com/dop251/goja"
)

// jsEvaluator runs conditions on goja. Scripts see items and events as
// arrays, so `items.includes("sword")` works. Every evaluation gets a fresh
// runtime; only the compiled program is shared.
type jsEvaluator struct {
	engine
}

// NewJSEvaluator constructs an Evaluator backed by goja.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	return &jsEvaluator{engine: configureEngine("js", opts)}
}

func (e *jsEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *jsEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if err := e.checkExpression(expression); err != nil {
		return nil, err
	}
	program, err := loadProgram(&e.engine, expression, expression, func() (*goja.Program, error) {
		return goja.Compile("condition", fmt.Sprintf("(function(){ return (%s); })()", expression), true)
	})
	if err != nil {
		return nil, err
	}
	return &jsRule{evaluator: e, expression: expression, program: program}, nil
}

// runtime builds a VM with the bindings and registry functions installed.
func (e *jsEvaluator) runtime(ctx RuleContext) (*goja.Runtime, error) {
	vm := goja.New()
	for name, value := range bindings(ctx) {
		if err := vm.Set(name, value); err != nil {
			return nil, err
		}
	}
	if e.registry == nil {
		return vm, nil
	}
	registry := e.registry
	if err := vm.Set("call", registry.Call); err != nil {
		return nil, err
	}
	for _, name := range registry.Names() {
		fn := name
		if err := vm.Set(fn, func(arguments ...any) (any, error) {
			return registry.Call(fn, arguments...)
		}); err != nil {
			return nil, err
		}
	}
	return vm, nil
}

type jsRule struct {
	evaluator  *jsEvaluator
	expression string
	program    *goja.Program
}

func (r *jsRule) Evaluate(ctx RuleContext) (any, error) {
	ctx = ctx.withDefaults()
	vm, err := r.evaluator.runtime(ctx)
	if err == nil {
		var value goja.Value
		if value, err = vm.RunProgram(r.program); err == nil {
			return value.Export(), nil
		}
	}
	return nil, r.evaluator.evaluateFailure(ctx, r.expression, err)
}

func jsEngineName(e Evaluator) string {
	if _, ok := e.(*jsEvaluator); ok {
		return "js"
	}
	return "custom"
}

func jsEvaluatorAvailable() bool {
	return true
}
