package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/johnquangdev/speech-insights/internal/domain/entities"
	domainrepo "github.com/johnquangdev/speech-insights/internal/domain/repositories"
	"github.com/johnquangdev/speech-insights/pkg/jobcontext"
)

// Analyzer produces an analysis result for audio reachable at audioURL
type Analyzer interface {
	Analyze(ctx context.Context, audioURL string) (*entities.AnalysisResult, error)
}

// ObjectStore keeps uploaded audio and hands out temporary read URLs
type ObjectStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	GetFileURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

// ErrStorageDisabled is returned by audio operations when no object store is configured
var ErrStorageDisabled = errors.New("object storage is disabled")

// AudioFile is one uploaded audio file awaiting ingestion
type AudioFile struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// AudioOutcome is the per-file result of an audio ingestion
type AudioOutcome struct {
	Filename string                 `json:"filename"`
	Outcome  entities.UpsertOutcome `json:"outcome,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Err      error                  `json:"-"`
}

// Service ingests analysis results and audio into the record store
type Service struct {
	repo      domainrepo.SpeechAnalysisRepository
	analyzer  Analyzer
	store     ObjectStore
	urlExpiry time.Duration
	pool      *ants.Pool
	logger    *zap.Logger
}

// NewService creates an analysis service. analyzer and store may be nil when
// audio ingestion is not configured.
func NewService(
	repo domainrepo.SpeechAnalysisRepository,
	analyzer Analyzer,
	store ObjectStore,
	urlExpiry time.Duration,
	workers int,
	logger *zap.Logger,
) (*Service, error) {
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create ingest pool: %w", err)
	}
	if urlExpiry <= 0 {
		urlExpiry = time.Hour
	}

	return &Service{
		repo:      repo,
		analyzer:  analyzer,
		store:     store,
		urlExpiry: urlExpiry,
		pool:      pool,
		logger:    logger,
	}, nil
}

// Close releases the ingest worker pool
func (s *Service) Close() {
	s.pool.Release()
}

// Ingest stores result under filename. Aggregation only runs when the
// filename has no record yet.
func (s *Service) Ingest(ctx context.Context, filename string, result *entities.AnalysisResult) (entities.UpsertOutcome, error) {
	outcome, err := s.repo.Upsert(ctx, filename, func() *entities.SpeechAnalysis {
		return Aggregate(filename, result)
	})
	if err != nil {
		if s.logger != nil {
			s.logger.Error("❌ Failed to store analysis",
				zap.String("filename", filename),
				zap.Error(err),
			)
		}
		return "", err
	}

	if s.logger != nil {
		s.logger.Info("✅ Analysis stored",
			zap.String("filename", filename),
			zap.String("outcome", string(outcome)),
		)
	}
	return outcome, nil
}

// Get returns the record stored for filename
func (s *Service) Get(ctx context.Context, filename string) (*entities.SpeechAnalysis, error) {
	return s.repo.FindByFilename(ctx, filename)
}

// List returns one page of records and the total count
func (s *Service) List(ctx context.Context, page, pageSize int) ([]*entities.SpeechAnalysis, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return s.repo.List(ctx, pageSize, (page-1)*pageSize)
}

// IngestAudio uploads, analyzes and stores every file on the worker pool.
// It waits for all files and reports one outcome per file, in input order.
func (s *Service) IngestAudio(ctx context.Context, files []AudioFile) []AudioOutcome {
	ctx = jobcontext.JobBegin(ctx, "audio_ingest")
	outcomes := make([]AudioOutcome, len(files))

	var wg sync.WaitGroup
	for i, file := range files {
		i, file := i, file
		outcomes[i].Filename = file.Filename

		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			outcome, err := s.ingestAudioFile(ctx, file)
			outcomes[i].Outcome = outcome
			if err != nil {
				outcomes[i].Err = err
				outcomes[i].Error = err.Error()
			}
		})
		if err != nil {
			wg.Done()
			outcomes[i].Err = err
			outcomes[i].Error = err.Error()
		}
	}
	wg.Wait()

	return outcomes
}

func (s *Service) ingestAudioFile(ctx context.Context, file AudioFile) (entities.UpsertOutcome, error) {
	if s.store == nil || s.analyzer == nil {
		return "", ErrStorageDisabled
	}

	filename := path.Base(file.Filename)
	if filename == "" || filename == "." || filename == "/" {
		return "", entities.ErrEmptyFilename
	}

	// Known files skip the upload and the analysis, the upsert only refreshes updated_at
	if _, err := s.repo.FindByFilename(ctx, filename); err == nil {
		if s.logger != nil {
			s.logger.Info("⏭️ Audio already analyzed", append(jobcontext.Fields(ctx), zap.String("filename", filename))...)
		}
		return s.repo.Upsert(ctx, filename, nil)
	} else if !errors.Is(err, entities.ErrAnalysisNotFound) {
		return "", err
	}

	if s.logger != nil {
		s.logger.Info("📤 Uploading audio", append(jobcontext.Fields(ctx), zap.String("filename", filename), zap.Int64("size", file.Size))...)
	}
	if err := s.store.UploadFile(ctx, filename, file.Body, file.Size, file.ContentType); err != nil {
		return "", err
	}

	audioURL, err := s.store.GetFileURL(ctx, filename, s.urlExpiry)
	if err != nil {
		return "", err
	}

	if s.logger != nil {
		s.logger.Info("🎙️ Analyzing audio", append(jobcontext.Fields(ctx), zap.String("filename", filename))...)
	}
	result, err := s.analyzer.Analyze(ctx, audioURL)
	if err != nil {
		return "", fmt.Errorf("analyze %s: %w", filename, err)
	}

	return s.Ingest(ctx, filename, result)
}

// AudioURL returns a temporary URL for a stored audio file
func (s *Service) AudioURL(ctx context.Context, filename string) (string, error) {
	if s.store == nil {
		return "", ErrStorageDisabled
	}
	return s.store.GetFileURL(ctx, path.Base(filename), s.urlExpiry)
}
