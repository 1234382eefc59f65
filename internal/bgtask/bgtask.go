// Package bgtask spawns named background tasks. The name is attached as
// a pprof label so the serve loop shows up identifiably in goroutine
// profiles taken on the flight controller.
package bgtask

import (
	"context"
	"runtime/pprof"
)

type ctxKey string

const taskNameKey ctxKey = "task_name"

// Spawn runs fn on its own goroutine under the given name. A nil parent
// context falls back to context.Background().
func Spawn(parent context.Context, name string, fn func(ctx context.Context)) {
	if parent == nil {
		parent = context.Background()
	}
	labels := pprof.Labels("task_name", name)
	go pprof.Do(parent, labels, func(ctx context.Context) {
		fn(context.WithValue(ctx, taskNameKey, name))
	})
}

// Name returns the task name carried by ctx, or "" for unnamed contexts.
func Name(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(taskNameKey).(string); ok {
		return s
	}
	return ""
}
