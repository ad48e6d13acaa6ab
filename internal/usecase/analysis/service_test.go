package analysis

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/johnquangdev/speech-insights/internal/domain/entities"
)

type fakeRepo struct {
	mu      sync.Mutex
	records map[string]*entities.SpeechAnalysis
	builds  int
	refresh int
	err     error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[string]*entities.SpeechAnalysis)}
}

func (r *fakeRepo) Upsert(_ context.Context, filename string, build func() *entities.SpeechAnalysis) (entities.UpsertOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	if _, ok := r.records[filename]; ok {
		r.refresh++
		return entities.UpsertRefreshed, nil
	}
	var rec *entities.SpeechAnalysis
	if build != nil {
		r.builds++
		rec = build()
	}
	if rec == nil {
		rec = entities.NewSpeechAnalysis(filename)
	}
	r.records[filename] = rec
	return entities.UpsertInserted, nil
}

func (r *fakeRepo) FindByFilename(_ context.Context, filename string) (*entities.SpeechAnalysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[filename]
	if !ok {
		return nil, entities.ErrAnalysisNotFound
	}
	return rec, nil
}

func (r *fakeRepo) List(_ context.Context, limit, offset int) ([]*entities.SpeechAnalysis, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entities.SpeechAnalysis, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	return out, int64(len(r.records)), nil
}

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *fakeStore) UploadFile(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) error {
	b, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.objects == nil {
		s.objects = make(map[string][]byte)
	}
	s.objects[objectName] = b
	return nil
}

func (s *fakeStore) GetFileURL(_ context.Context, objectName string, _ time.Duration) (string, error) {
	return "https://storage.test/" + objectName, nil
}

type fakeAnalyzer struct {
	mu   sync.Mutex
	urls []string
	err  error
}

func (a *fakeAnalyzer) Analyze(_ context.Context, audioURL string) (*entities.AnalysisResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.urls = append(a.urls, audioURL)
	if a.err != nil {
		return nil, a.err
	}
	return &entities.AnalysisResult{
		Transcript: "hello from " + audioURL,
		Entities:   []entities.EntityAnnotation{{Label: "ORG", Value: "Acme", Confidence: 0.5, StartWord: 1, EndWord: 2}},
	}, nil
}

func newTestService(t *testing.T, repo *fakeRepo, analyzer Analyzer, store ObjectStore) *Service {
	t.Helper()
	svc, err := NewService(repo, analyzer, store, time.Minute, 2, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

func TestIngest_AggregatesOnlyOnFirstCall(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, nil, nil)
	ctx := context.Background()

	outcome, err := svc.Ingest(ctx, "a.wav", &entities.AnalysisResult{Summary: "first"})
	require.NoError(t, err)
	assert.Equal(t, entities.UpsertInserted, outcome)

	outcome, err = svc.Ingest(ctx, "a.wav", &entities.AnalysisResult{Summary: "second"})
	require.NoError(t, err)
	assert.Equal(t, entities.UpsertRefreshed, outcome)

	assert.Equal(t, 1, repo.builds)
	assert.Equal(t, "first", repo.records["a.wav"].Summary)
}

func TestIngest_PropagatesStorageError(t *testing.T) {
	repo := newFakeRepo()
	repo.err = errors.New("connection refused")
	svc := newTestService(t, repo, nil, nil)

	_, err := svc.Ingest(context.Background(), "a.wav", nil)
	assert.EqualError(t, err, "connection refused")
}

func TestIngestAudio_UploadsAnalyzesAndStores(t *testing.T) {
	repo := newFakeRepo()
	store := &fakeStore{}
	analyzer := &fakeAnalyzer{}
	svc := newTestService(t, repo, analyzer, store)

	outcomes := svc.IngestAudio(context.Background(), []AudioFile{
		{Filename: "one.wav", Size: 3, Body: bytes.NewReader([]byte("abc"))},
		{Filename: "dir/two.wav", Size: 3, Body: bytes.NewReader([]byte("def"))},
		{Filename: "three.wav", Size: 3, Body: bytes.NewReader([]byte("ghi"))},
	})

	require.Len(t, outcomes, 3)
	for _, o := range outcomes {
		assert.NoError(t, o.Err)
		assert.Equal(t, entities.UpsertInserted, o.Outcome)
	}
	assert.Equal(t, "dir/two.wav", outcomes[1].Filename)

	assert.Equal(t, []byte("def"), store.objects["two.wav"])
	assert.Len(t, analyzer.urls, 3)
	assert.Equal(t, "ORG", repo.records["one.wav"].EntityLabel)
	assert.Equal(t, "hello from https://storage.test/three.wav", repo.records["three.wav"].Transcript)
}

func TestIngestAudio_KnownFileSkipsAnalysis(t *testing.T) {
	repo := newFakeRepo()
	repo.records["known.wav"] = entities.NewSpeechAnalysis("known.wav")
	analyzer := &fakeAnalyzer{}
	svc := newTestService(t, repo, analyzer, &fakeStore{})

	outcomes := svc.IngestAudio(context.Background(), []AudioFile{
		{Filename: "known.wav", Body: bytes.NewReader(nil)},
	})

	require.Len(t, outcomes, 1)
	assert.Equal(t, entities.UpsertRefreshed, outcomes[0].Outcome)
	assert.Empty(t, analyzer.urls)
	assert.Equal(t, 1, repo.refresh)
}

func TestIngestAudio_AnalyzerFailureIsPerFile(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, &fakeAnalyzer{err: errors.New("quota exceeded")}, &fakeStore{})

	outcomes := svc.IngestAudio(context.Background(), []AudioFile{
		{Filename: "a.wav", Body: bytes.NewReader([]byte("x"))},
	})

	require.Len(t, outcomes, 1)
	assert.ErrorContains(t, outcomes[0].Err, "quota exceeded")
	assert.Empty(t, repo.records)
}

func TestIngestAudio_StorageDisabled(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), nil, nil)

	outcomes := svc.IngestAudio(context.Background(), []AudioFile{{Filename: "a.wav"}})
	assert.ErrorIs(t, outcomes[0].Err, ErrStorageDisabled)

	_, err := svc.AudioURL(context.Background(), "a.wav")
	assert.ErrorIs(t, err, ErrStorageDisabled)
}

func TestAudioURL(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), &fakeAnalyzer{}, &fakeStore{})

	url, err := svc.AudioURL(context.Background(), "../etc/a.wav")
	require.NoError(t, err)
	assert.Equal(t, "https://storage.test/a.wav", url)
}
