package llm

import (
	"context"
	"time"
)

// WithTimeout bounds every execution of e by d. A non-positive d returns e unchanged.
func WithTimeout(e Executor, d time.Duration) Executor {
	if d <= 0 {
		return e
	}
	return ExecutorFunc(func(ctx context.Context, req Request) (Response, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return e.Execute(ctx, req)
	})
}
