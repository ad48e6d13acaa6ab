package repository

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/johnquangdev/speech-insights/internal/domain/entities"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.SpeechAnalysis{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestUpsert_SecondCallOnlyRefreshesTimestamp(t *testing.T) {
	db := newTestDB(t)
	repo := NewSpeechAnalysisRepository(db)
	ctx := context.Background()

	first := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	builds := 0
	build := func(summary string) func() *entities.SpeechAnalysis {
		return func() *entities.SpeechAnalysis {
			builds++
			rec := entities.NewSpeechAnalysis("call.wav")
			rec.Summary = summary
			rec.EntityLabel = "ORG"
			rec.EntityConfidence = 0.8
			return rec
		}
	}

	repo.now = func() time.Time { return first }
	outcome, err := repo.Upsert(ctx, "call.wav", build("first summary"))
	require.NoError(t, err)
	assert.Equal(t, entities.UpsertInserted, outcome)

	repo.now = func() time.Time { return second }
	outcome, err = repo.Upsert(ctx, "call.wav", build("second summary"))
	require.NoError(t, err)
	assert.Equal(t, entities.UpsertRefreshed, outcome)

	assert.Equal(t, 1, builds)

	var count int64
	require.NoError(t, db.Model(&entities.SpeechAnalysis{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	got, err := repo.FindByFilename(ctx, "call.wav")
	require.NoError(t, err)
	assert.Equal(t, "first summary", got.Summary)
	assert.Equal(t, "ORG", got.EntityLabel)
	assert.Equal(t, 0.8, got.EntityConfidence)
	assert.Equal(t, entities.HashFilename("call.wav"), got.ContentHash)
	assert.WithinDuration(t, first, got.CreatedAt, time.Second)
	assert.WithinDuration(t, second, got.UpdatedAt, time.Second)
}

func TestUpsert_NilBuildStoresEmptyRecord(t *testing.T) {
	repo := NewSpeechAnalysisRepository(newTestDB(t))

	outcome, err := repo.Upsert(context.Background(), "empty.wav", func() *entities.SpeechAnalysis { return nil })
	require.NoError(t, err)
	assert.Equal(t, entities.UpsertInserted, outcome)

	got, err := repo.FindByFilename(context.Background(), "empty.wav")
	require.NoError(t, err)
	assert.Equal(t, "", got.Transcript)
	assert.Equal(t, 0, got.EntityStartWord)
}

func TestUpsert_EmptyFilename(t *testing.T) {
	repo := NewSpeechAnalysisRepository(newTestDB(t))

	_, err := repo.Upsert(context.Background(), "", nil)
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, err, entities.ErrEmptyFilename)
}

func TestUpsert_ConcurrentSameFilename(t *testing.T) {
	db := newTestDB(t)
	repo := NewSpeechAnalysisRepository(db)

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Upsert(context.Background(), "race.wav", func() *entities.SpeechAnalysis {
				return entities.NewSpeechAnalysis("race.wav")
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	var count int64
	require.NoError(t, db.Model(&entities.SpeechAnalysis{}).Where("filename = ?", "race.wav").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUpsert_ClosedDatabaseReturnsStorageError(t *testing.T) {
	db := newTestDB(t)
	repo := NewSpeechAnalysisRepository(db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = repo.Upsert(context.Background(), "x.wav", nil)
	var se *StorageError
	assert.ErrorAs(t, err, &se)
}

func TestFindByFilename_NotFound(t *testing.T) {
	repo := NewSpeechAnalysisRepository(newTestDB(t))

	_, err := repo.FindByFilename(context.Background(), "missing.wav")
	assert.ErrorIs(t, err, entities.ErrAnalysisNotFound)
}

func TestList(t *testing.T) {
	repo := NewSpeechAnalysisRepository(newTestDB(t))
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"a.wav", "b.wav", "c.wav"} {
		at := base.Add(time.Duration(i) * time.Minute)
		repo.now = func() time.Time { return at }
		_, err := repo.Upsert(ctx, name, nil)
		require.NoError(t, err)
	}

	records, total, err := repo.List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, records, 2)
	assert.Equal(t, "c.wav", records[0].Filename)
	assert.Equal(t, "b.wav", records[1].Filename)
}
