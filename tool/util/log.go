// Copyright The Augmentum Authors
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"context"
	"log/slog"
)

type contextKeyLogger struct{}

// ContextWithLogger attaches logger to ctx. The tool threads one logger
// through the whole pass this way instead of using globals.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKeyLogger{}, logger)
}

// LoggerFromContext returns the logger attached to ctx, or slog.Default().
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(contextKeyLogger{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
