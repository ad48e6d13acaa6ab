package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/johnquangdev/speech-insights/internal/domain/entities"
	repo "github.com/johnquangdev/speech-insights/internal/domain/repositories"
)

// StorageError wraps a failed database operation. It is never retried here.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// SpeechAnalysisRepository implements repositories.SpeechAnalysisRepository using GORM
type SpeechAnalysisRepository struct {
	db  *gorm.DB
	now func() time.Time
}

var _ repo.SpeechAnalysisRepository = (*SpeechAnalysisRepository)(nil)

// NewSpeechAnalysisRepository creates a new speech analysis repository
func NewSpeechAnalysisRepository(db *gorm.DB) *SpeechAnalysisRepository {
	return &SpeechAnalysisRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Upsert runs the existence check and the write in one transaction.
// The unique index on filename settles concurrent first inserts: the
// losing writer's INSERT turns into an updated_at refresh.
func (r *SpeechAnalysisRepository) Upsert(ctx context.Context, filename string, build func() *entities.SpeechAnalysis) (entities.UpsertOutcome, error) {
	if filename == "" {
		return "", &StorageError{Op: "upsert", Err: entities.ErrEmptyFilename}
	}

	hash := entities.HashFilename(filename)
	var outcome entities.UpsertOutcome

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := r.now()

		var count int64
		if err := tx.Model(&entities.SpeechAnalysis{}).
			Where("filename = ?", filename).
			Count(&count).Error; err != nil {
			return &StorageError{Op: "count", Err: err}
		}

		if count > 0 {
			if err := tx.Model(&entities.SpeechAnalysis{}).
				Where("filename = ?", filename).
				UpdateColumn("updated_at", now).Error; err != nil {
				return &StorageError{Op: "refresh", Err: err}
			}
			outcome = entities.UpsertRefreshed
			return nil
		}

		var record *entities.SpeechAnalysis
		if build != nil {
			record = build()
		}
		if record == nil {
			record = entities.NewSpeechAnalysis(filename)
		}
		if record.ID == uuid.Nil {
			record.ID = uuid.New()
		}
		record.Filename = filename
		record.ContentHash = hash
		record.CreatedAt = now
		record.UpdatedAt = now

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "filename"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"updated_at": now}),
		}).Create(record).Error; err != nil {
			return &StorageError{Op: "insert", Err: err}
		}
		outcome = entities.UpsertInserted
		return nil
	})
	if err != nil {
		var se *StorageError
		if errors.As(err, &se) {
			return "", se
		}
		return "", &StorageError{Op: "transaction", Err: err}
	}

	return outcome, nil
}

// FindByFilename finds a record by filename
func (r *SpeechAnalysisRepository) FindByFilename(ctx context.Context, filename string) (*entities.SpeechAnalysis, error) {
	var record entities.SpeechAnalysis
	if err := r.db.WithContext(ctx).Where("filename = ?", filename).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrAnalysisNotFound
		}
		return nil, &StorageError{Op: "find", Err: err}
	}
	return &record, nil
}

// List returns a paginated list of records
func (r *SpeechAnalysisRepository) List(ctx context.Context, limit, offset int) ([]*entities.SpeechAnalysis, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&entities.SpeechAnalysis{}).Count(&total).Error; err != nil {
		return nil, 0, &StorageError{Op: "count", Err: err}
	}

	var records []*entities.SpeechAnalysis
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error; err != nil {
		return nil, 0, &StorageError{Op: "list", Err: err}
	}
	return records, total, nil
}
