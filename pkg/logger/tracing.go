package logger

import (
	"context"
)

type contextKey string

const runIDKey contextKey = "run_id"

// WithRunID attaches a backtest run ID to the context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunID retrieves the run ID from context, or "" when absent
func RunID(ctx context.Context) string {
	if runID, ok := ctx.Value(runIDKey).(string); ok {
		return runID
	}
	return ""
}
