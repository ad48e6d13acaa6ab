package presenter

import (
	"encoding/json"

	"github.com/johnquangdev/speech-insights/internal/adapter/dto/analysis"
	"github.com/johnquangdev/speech-insights/internal/adapter/dto/common"
	"github.com/johnquangdev/speech-insights/internal/domain/entities"
)

// ToAnalysisResponse converts a SpeechAnalysis entity to AnalysisResponse DTO.
// The raw payload is only included when withRaw is set.
func ToAnalysisResponse(a *entities.SpeechAnalysis, withRaw bool) *analysis.AnalysisResponse {
	if a == nil {
		return nil
	}

	response := &analysis.AnalysisResponse{
		ID:             a.ID.String(),
		Filename:       a.Filename,
		ContentHash:    a.ContentHash,
		Transcript:     a.Transcript,
		Summary:        a.Summary,
		Sentiment:      a.Sentiment,
		SentimentScore: a.SentimentScore,
		Entities: analysis.Category{
			Labels:          a.EntityLabel,
			Values:          a.EntityValue,
			ConfidenceScore: a.EntityConfidence,
			StartWord:       a.EntityStartWord,
			EndWord:         a.EntityEndWord,
		},
		Intents: analysis.Category{
			Labels:          a.IntentLabel,
			Texts:           a.IntentText,
			ConfidenceScore: a.IntentConfidence,
			StartWord:       a.IntentStartWord,
			EndWord:         a.IntentEndWord,
		},
		Topics: analysis.Category{
			Labels:          a.TopicLabel,
			Texts:           a.TopicText,
			ConfidenceScore: a.TopicConfidence,
			StartWord:       a.TopicStartWord,
			EndWord:         a.TopicEndWord,
		},
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}

	// Only pass the payload through when it is valid JSON
	if withRaw && len(a.RawAnalysis) > 0 && json.Valid(a.RawAnalysis) {
		response.Raw = json.RawMessage(a.RawAnalysis)
	}

	return response
}

// ToAnalysisListResponse converts a page of records to a ListResponse
func ToAnalysisListResponse(records []*entities.SpeechAnalysis, total int64, page, pageSize int) *common.ListResponse {
	items := make([]*analysis.AnalysisResponse, len(records))
	for i, r := range records {
		items[i] = ToAnalysisResponse(r, false)
	}

	return &common.ListResponse{
		Data:       items,
		Pagination: common.NewPagination(page, pageSize, total),
	}
}
