package analysis

import (
	"encoding/json"
	"time"

	"github.com/johnquangdev/speech-insights/internal/domain/entities"
)

// IngestResponse reports what the upsert did
type IngestResponse struct {
	Filename string                 `json:"filename"`
	Outcome  entities.UpsertOutcome `json:"outcome"`
}

// AnalysisResponse is the API view of a stored record
type AnalysisResponse struct {
	ID             string    `json:"id"`
	Filename       string    `json:"filename"`
	ContentHash    string    `json:"content_hash"`
	Transcript     string    `json:"transcript"`
	Summary        string    `json:"summary"`
	Sentiment      string    `json:"sentiment"`
	SentimentScore float64   `json:"sentiment_score"`
	Entities       Category        `json:"entities"`
	Intents        Category        `json:"intents"`
	Topics         Category        `json:"topics"`
	Raw            json.RawMessage `json:"raw,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Category is the flattened view of one annotation category.
// Values is only set for entities, Texts only for intents and topics.
type Category struct {
	Labels          string  `json:"labels"`
	Values          string  `json:"values,omitempty"`
	Texts           string  `json:"texts,omitempty"`
	ConfidenceScore float64 `json:"confidence_score"`
	StartWord       int     `json:"start_word"`
	EndWord         int     `json:"end_word"`
}
