package logging

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey int

var loggerKey = contextKey(0)

var ErrNoLoggerInContext = errors.New("no logger in context")

type Options struct {
	// App is added to every log entry as the app field
	App string

	// Level is the minimum level, e.g. debug, info, warn.
	// Defaults to info if empty or invalid.
	Level string

	// Format is either production (json) or development (console)
	Format string
}

// New creates the application logger. Every entry carries a session
// id, so logs of concurrent runs can be told apart.
func New(opts Options) (*zap.Logger, error) {
	var config zap.Config
	if opts.Format == "development" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}

	config.InitialFields = map[string]any{
		"app":     opts.App,
		"session": uuid.NewString(),
	}

	config.Level = parseLevel(opts.Level)

	return config.Build()
}

func parseLevel(lvl string) zap.AtomicLevel {
	if atom, err := zap.ParseAtomicLevel(lvl); err == nil && lvl != "" {
		return atom
	}

	return zap.NewAtomicLevelAt(zap.InfoLevel)
}

func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

func LoggerFromContext(ctx context.Context) (*zap.Logger, error) {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger, nil
	}

	return nil, ErrNoLoggerInContext
}
