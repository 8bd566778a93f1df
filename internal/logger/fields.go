package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldProvider is the structured log field key for the oracle provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the oracle model identifier.
	FieldModel = "ai_model"
	// FieldPipeline names the pipeline (taxonomy, ranked, rewrite) a log entry belongs to.
	FieldPipeline = "pipeline"
)

// stringFields turns key/value pairs into zap fields, trimming whitespace and
// dropping pairs with an empty key or value. A trailing odd key is ignored.
func stringFields(kv ...string) []zap.Field {
	result := make([]zap.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key := strings.TrimSpace(kv[i])
		value := strings.TrimSpace(kv[i+1])
		if key == "" || value == "" {
			continue
		}
		result = append(result, zap.String(key, value))
	}
	return result
}

func with(logger *zap.Logger, fields []zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

// WithOracle attaches provider and model fields. A nil logger becomes a no-op logger.
func WithOracle(logger *zap.Logger, provider, model string) *zap.Logger {
	return with(logger, stringFields(FieldProvider, provider, FieldModel, model))
}

// WithPipeline scopes a logger to one pipeline.
func WithPipeline(logger *zap.Logger, name string) *zap.Logger {
	return with(logger, stringFields(FieldPipeline, name))
}
