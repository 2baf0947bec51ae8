package middleware

import (
	"context"

	"github.com/sanjiv-madhavan/dynamodb-empty-tables/internal/ddb/constants"
	"go.uber.org/zap"
)

type Middleware struct {
	log *zap.Logger
}

func NewMiddleware(log *zap.Logger) *Middleware {
	if log == nil {
		log = zap.NewNop()
	}
	return &Middleware{
		log: log,
	}
}

// With returns a Middleware whose lines always carry the given key/value pairs.
func (m *Middleware) With(args ...interface{}) *Middleware {
	return &Middleware{log: m.log.With(convertToZapFields(args...)...)}
}

// LogHandler prints the provided information using the logger
func (m *Middleware) LogHandler(ctx context.Context, msg string, args ...interface{}) {
	m.log.Info(msg, m.fields(ctx, args)...)
}

func (m *Middleware) LogDebug(ctx context.Context, msg string, args ...interface{}) {
	m.log.Debug(msg, m.fields(ctx, args)...)
}

func (m *Middleware) LogWarn(ctx context.Context, msg string, args ...interface{}) {
	m.log.Warn(msg, m.fields(ctx, args)...)
}

// LogError prints the provided error using the logger
func (m *Middleware) LogError(ctx context.Context, message string, err error, args ...interface{}) {
	m.log.Error(message, append(m.fields(ctx, args), zap.NamedError(constants.LogErrorKey, err))...)
}

func (m *Middleware) Sync() {
	_ = m.log.Sync()
}

func (m *Middleware) fields(ctx context.Context, args []interface{}) []zap.Field {
	fields := convertToZapFields(args...)
	if requestID, ok := ctx.Value(constants.CliRequestId).(string); ok {
		fields = append(fields, zap.String(constants.LogRequestIdKey, requestID))
	}
	return fields
}

func convertToZapFields(args ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(args)/2+1)
	if len(args)%2 != 0 {
		// If the number of arguments is odd, ignore the last one
		args = args[:len(args)-1]
	}

	for i := 0; i < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			fields = append(fields, zap.Any(key, args[i+1]))
		}
	}

	return fields
}
