package topic

import (
	"context"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/speech-insights/internal/domain/entities"
	"github.com/johnquangdev/speech-insights/pkg/jobcontext"
)

const (
	DefaultMaxRetries   = 3
	DefaultRetryBackoff = 2 * time.Second
)

// Session is one round trip to the classification capability: submit the
// texts, wait for the run to finish, return the assistant's reply.
type Session interface {
	Run(ctx context.Context, texts []string) (string, error)
}

// RetryConfig holds the per-batch retry policy
type RetryConfig struct {
	MaxRetries     int
	Backoff        time.Duration
	AttemptTimeout time.Duration // 0 means bounded only by the caller's context
}

// RetryController drives a Session and an Extractor through a bounded number
// of attempts per batch.
type RetryController struct {
	session   Session
	extractor Extractor
	cfg       RetryConfig
	logger    *zap.Logger
}

// NewRetryController creates a RetryController. A nil extractor selects ArrayExtractor.
func NewRetryController(session Session, extractor Extractor, cfg RetryConfig, logger *zap.Logger) *RetryController {
	if extractor == nil {
		extractor = ArrayExtractor{}
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.Backoff < 0 {
		cfg.Backoff = DefaultRetryBackoff
	}
	return &RetryController{
		session:   session,
		extractor: extractor,
		cfg:       cfg,
		logger:    logger,
	}
}

// Process classifies one batch. Any failure consumes an attempt; once all
// attempts are spent the batch yields an empty slice and no error.
func (rc *RetryController) Process(ctx context.Context, batch entities.Batch) []entities.TopicResult {
	var (
		results  []entities.TopicResult
		attempts int
	)

	operation := func() error {
		attempts++

		attemptCtx, cancel := rc.attemptContext(jobcontext.SetRetryAttempt(ctx, attempts))
		defer cancel()

		raw, err := rc.session.Run(attemptCtx, batch.Texts())
		if err != nil {
			return err
		}

		extraction, err := rc.extractor.Extract(raw, batch)
		if err != nil {
			return err
		}

		rc.logDegradations(batch, extraction.Degraded)
		results = extraction.Results
		return nil
	}

	notify := func(err error, wait time.Duration) {
		if rc.logger != nil {
			rc.logger.Warn("🔄 Classification attempt failed, retrying",
				append(jobcontext.Fields(ctx),
					zap.Int("batch", batch.Number),
					zap.Int("attempt", attempts),
					zap.Duration("wait", wait),
					zap.Error(err),
				)...,
			)
		}
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(rc.cfg.Backoff), uint64(rc.cfg.MaxRetries-1)),
		ctx,
	)

	if err := backoff.RetryNotify(operation, bo, notify); err != nil {
		if rc.logger != nil {
			rc.logger.Warn("⚠️ Batch dropped after retries",
				append(jobcontext.Fields(ctx),
					zap.Int("batch", batch.Number),
					zap.Int("documents", batch.Len()),
					zap.Int("attempts", attempts),
					zap.Error(err),
				)...,
			)
		}
		return []entities.TopicResult{}
	}

	if rc.logger != nil {
		rc.logger.Info("✅ Batch classified",
			zap.Int("batch", batch.Number),
			zap.Int("attempts", attempts),
			zap.Int("results", len(results)),
		)
	}
	return results
}

func (rc *RetryController) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if rc.cfg.AttemptTimeout > 0 {
		return context.WithTimeout(ctx, rc.cfg.AttemptTimeout)
	}
	return context.WithCancel(ctx)
}

func (rc *RetryController) logDegradations(batch entities.Batch, degraded []Degradation) {
	if rc.logger == nil {
		return
	}
	for _, d := range degraded {
		rc.logger.Warn("⚠️ Classifier result degraded to default",
			zap.Int("batch", batch.Number),
			zap.String("file_name", d.FileName),
			zap.String("field", d.Field),
			zap.String("reason", d.Reason),
		)
	}
}
