package repositories

import (
	"context"

	"github.com/johnquangdev/speech-insights/internal/domain/entities"
)

// SpeechAnalysisRepository defines the interface for analysis record access
type SpeechAnalysisRepository interface {
	// Upsert inserts the record built by build when filename is new,
	// otherwise it only refreshes updated_at. build is not called for
	// filenames that already have a record.
	Upsert(ctx context.Context, filename string, build func() *entities.SpeechAnalysis) (entities.UpsertOutcome, error)

	// FindByFilename finds a record by its exact filename
	FindByFilename(ctx context.Context, filename string) (*entities.SpeechAnalysis, error)

	// List returns a page of records, newest first, and the total count
	List(ctx context.Context, limit, offset int) ([]*entities.SpeechAnalysis, int64, error)
}
