// Package jobcontext carries job correlation metadata through a context so
// log lines from nested calls can be tied back to one request or run.
package jobcontext

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type KeyContext string

var (
	keyJobID        KeyContext = "job_id"
	keyJobType      KeyContext = "job_type"
	keyRetryAttempt KeyContext = "retry_attempt"
	keyJobStartTime KeyContext = "job_start_time"
)

// JobBegin tags ctx with a job type and start time. An existing job id is
// kept so request ids flow into the job; otherwise a new one is generated.
func JobBegin(parentCtx context.Context, jobType string) context.Context {
	ctx := parentCtx
	if _, ok := GetJobID(ctx); !ok {
		ctx = context.WithValue(ctx, keyJobID, uuid.NewString())
	}
	ctx = context.WithValue(ctx, keyJobType, jobType)
	ctx = context.WithValue(ctx, keyJobStartTime, time.Now())
	return ctx
}

// WithJobID sets the job id explicitly, e.g. from an X-Request-ID header.
// An empty id leaves ctx unchanged.
func WithJobID(ctx context.Context, jobID string) context.Context {
	if jobID == "" {
		return ctx
	}
	return context.WithValue(ctx, keyJobID, jobID)
}

// GetJobID extracts job ID from context
func GetJobID(ctx context.Context) (string, bool) {
	jobID, ok := ctx.Value(keyJobID).(string)
	return jobID, ok && jobID != ""
}

// GetJobType extracts job type from context
func GetJobType(ctx context.Context) (string, bool) {
	jobType, ok := ctx.Value(keyJobType).(string)
	return jobType, ok
}

// SetRetryAttempt records the 1-based attempt number
func SetRetryAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, keyRetryAttempt, attempt)
}

// GetRetryAttempt extracts current retry attempt from context, 0 when unset
func GetRetryAttempt(ctx context.Context) int {
	attempt, ok := ctx.Value(keyRetryAttempt).(int)
	if !ok {
		return 0
	}
	return attempt
}

// Elapsed returns the time since JobBegin, 0 when the job was never begun
func Elapsed(ctx context.Context) time.Duration {
	start, ok := ctx.Value(keyJobStartTime).(time.Time)
	if !ok {
		return 0
	}
	return time.Since(start)
}

// Fields returns the zap fields describing the job in ctx
func Fields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 3)
	if id, ok := GetJobID(ctx); ok {
		fields = append(fields, zap.String("job_id", id))
	}
	if t, ok := GetJobType(ctx); ok {
		fields = append(fields, zap.String("job_type", t))
	}
	if attempt := GetRetryAttempt(ctx); attempt > 0 {
		fields = append(fields, zap.Int("attempt", attempt))
	}
	return fields
}
