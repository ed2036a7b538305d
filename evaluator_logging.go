package gamestate

import "time"

// EvaluatorLogEvent describes a condition evaluation for logging.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Label    string
	Result   bool
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records evaluator events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}

// EvaluatorLoggerFromLogger forwards evaluation events to a structured
// Logger. Failures log at warn, successes at debug.
func EvaluatorLoggerFromLogger(logger Logger) EvaluatorLogger {
	logger = loggerOrNoop(logger)
	return EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
		fields := Fields{
			"engine":      event.Engine,
			"expr":        event.Expr,
			"condition":   conditionName(event.Label),
			"duration_ms": event.Duration.Milliseconds(),
		}
		if event.Err != nil {
			fields["error"] = event.Err.Error()
			logger.Warn("condition evaluation failed", fields)
			return
		}
		fields["result"] = event.Result
		logger.Debug("condition evaluated", fields)
	})
}
