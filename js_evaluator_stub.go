//go:build !js_eval

package gamestate

// NewJSEvaluator is unavailable without the js_eval build tag and returns nil.
func NewJSEvaluator(...JSEvaluatorOption) Evaluator {
	return nil
}

func jsEngineName(Evaluator) string {
	return "custom"
}

func jsEvaluatorAvailable() bool {
	return false
}
