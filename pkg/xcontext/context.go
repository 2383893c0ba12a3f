package xcontext

import (
	"context"

	"github.com/questx-lab/gamification/config"
	"github.com/questx-lab/gamification/pkg/logger"
)

type (
	configsKey       struct{}
	loggerKey        struct{}
	dbKey            struct{}
	dbTransactionKey struct{}
	requestUserIDKey struct{}
)

func WithConfigs(ctx context.Context, cfg config.Configs) context.Context {
	return context.WithValue(ctx, configsKey{}, cfg)
}

func Configs(ctx context.Context) config.Configs {
	cfg, ok := ctx.Value(configsKey{}).(config.Configs)
	if !ok {
		return config.Default()
	}

	return cfg
}

func WithLogger(ctx context.Context, logger logger.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// Logger returns the logger of ctx. Lines are tagged with the request user if
// there is one.
func Logger(ctx context.Context) logger.Logger {
	l, ok := ctx.Value(loggerKey{}).(logger.Logger)
	if !ok {
		l = logger.NewLogger(logger.INFO)
	}

	if userID := RequestUserID(ctx); userID != "" {
		return l.With("user_id", userID)
	}

	return l
}

func WithRequestUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, requestUserIDKey{}, userID)
}

func RequestUserID(ctx context.Context) string {
	id, ok := ctx.Value(requestUserIDKey{}).(string)
	if !ok {
		return ""
	}

	return id
}

// Inherit copies configs, logger and database of parent into ctx. Transports
// like the rpc server create request contexts which carry none of them.
func Inherit(ctx, parent context.Context) context.Context {
	for _, key := range []any{configsKey{}, loggerKey{}, dbKey{}} {
		if v := parent.Value(key); v != nil {
			ctx = context.WithValue(ctx, key, v)
		}
	}

	return ctx
}
