package log

import "go.uber.org/zap"

type Logger = zap.Logger

var (
	Any = zap.Any
	Err = zap.Error
	Str = zap.String
	Int = zap.Int
)

// New never returns nil; if the configured logger cannot be built the
// caller gets a no-op logger instead of a crash on first use.
func New(env string) *Logger {
	if env == "prod" {
		l, err := zap.NewProduction()
		if err != nil {
			return zap.NewNop()
		}

		return l
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}

	return l
}
