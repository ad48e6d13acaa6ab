package topic

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/speech-insights/internal/domain/entities"
	"github.com/johnquangdev/speech-insights/pkg/jobcontext"
)

// Cache stores classified batches between requests
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Options tunes batching and caching for the Service
type Options struct {
	BatchSize int
	MaxLength int
	Cache     Cache
	CacheTTL  time.Duration
}

// Service runs the batched topic classification pipeline
type Service struct {
	retry  *RetryController
	opts   Options
	logger *zap.Logger
}

// NewService creates a topic modeling service
func NewService(retry *RetryController, opts Options, logger *zap.Logger) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = DefaultMaxLength
	}
	return &Service{
		retry:  retry,
		opts:   opts,
		logger: logger,
	}
}

// Classify assigns a topic to every document. Batches run one after another;
// a batch that exhausts its retries contributes no results, so the returned
// slice may be shorter than docs. The only error is an empty input.
func (s *Service) Classify(ctx context.Context, docs []entities.Document) ([]entities.TopicResult, error) {
	if len(docs) == 0 {
		return nil, entities.ErrNoDocuments
	}

	ctx = jobcontext.JobBegin(ctx, "topic_classification")
	runID, _ := jobcontext.GetJobID(ctx)
	batches := SplitBatches(docs, s.opts.BatchSize, s.opts.MaxLength)

	if s.logger != nil {
		s.logger.Info("🤖 Starting topic classification",
			zap.String("run_id", runID),
			zap.Int("documents", len(docs)),
			zap.Int("batches", len(batches)),
		)
	}

	results := make([]entities.TopicResult, 0, len(docs))
	for _, batch := range batches {
		if err := ctx.Err(); err != nil {
			if s.logger != nil {
				s.logger.Warn("⚠️ Classification cancelled, remaining batches skipped",
					zap.String("run_id", runID),
					zap.Int("batch", batch.Number),
					zap.Error(err),
				)
			}
			break
		}
		results = append(results, s.classifyBatch(ctx, runID, batch)...)
	}

	if s.logger != nil {
		s.logger.Info("✅ Topic classification finished",
			zap.String("run_id", runID),
			zap.Int("results", len(results)),
			zap.Duration("elapsed", jobcontext.Elapsed(ctx)),
		)
	}
	return results, nil
}

func (s *Service) classifyBatch(ctx context.Context, runID string, batch entities.Batch) []entities.TopicResult {
	key := batchKey(batch)

	if s.opts.Cache != nil {
		if cached, ok := s.lookup(ctx, key); ok {
			if s.logger != nil {
				s.logger.Info("📦 Batch served from cache",
					zap.String("run_id", runID),
					zap.Int("batch", batch.Number),
				)
			}
			return cached
		}
	}

	results := s.retry.Process(ctx, batch)

	if s.opts.Cache != nil && len(results) > 0 {
		if payload, err := json.Marshal(results); err == nil {
			if err := s.opts.Cache.Set(ctx, key, payload, s.opts.CacheTTL); err != nil && s.logger != nil {
				s.logger.Warn("⚠️ Failed to cache batch result", zap.String("run_id", runID), zap.Error(err))
			}
		}
	}
	return results
}

func (s *Service) lookup(ctx context.Context, key string) ([]entities.TopicResult, bool) {
	payload, ok, err := s.opts.Cache.Get(ctx, key)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("⚠️ Cache lookup failed", zap.Error(err))
		}
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var results []entities.TopicResult
	if err := json.Unmarshal(payload, &results); err != nil {
		return nil, false
	}
	return results, true
}

// batchKey covers the truncated texts, the file names and the offset, which
// together determine every field of the batch's results.
func batchKey(batch entities.Batch) string {
	h := sha256.New()
	h.Write([]byte(strconv.Itoa(batch.Offset)))
	for _, doc := range batch.Documents {
		h.Write([]byte{0})
		h.Write([]byte(doc.FileName))
		h.Write([]byte{0})
		h.Write([]byte(doc.Transcription))
	}
	return "topic:" + hex.EncodeToString(h.Sum(nil))
}
