package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UpsertOutcome reports what an upsert did to the stored record
type UpsertOutcome string

const (
	UpsertInserted  UpsertOutcome = "inserted"  // first ingestion of the filename
	UpsertRefreshed UpsertOutcome = "refreshed" // record existed, only updated_at moved
)

// SpeechAnalysis is the flattened analysis record stored once per audio file
type SpeechAnalysis struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Filename    string    `json:"filename" gorm:"type:varchar(512);not null;uniqueIndex"`
	ContentHash string    `json:"content_hash" gorm:"type:varchar(64);not null;index"`
	Transcript  string    `json:"transcript" gorm:"type:text"`
	Summary     string    `json:"summary" gorm:"type:text"`

	Sentiment      string  `json:"sentiment" gorm:"type:varchar(32)"`
	SentimentScore float64 `json:"sentiment_score"`

	EntityLabel      string  `json:"entity_label" gorm:"type:text"`
	EntityValue      string  `json:"entity_value" gorm:"type:text"`
	EntityStartWord  int     `json:"entity_start_word"`
	EntityEndWord    int     `json:"entity_end_word"`
	EntityConfidence float64 `json:"entity_confidence"`

	IntentLabel      string  `json:"intent_label" gorm:"type:text"`
	IntentConfidence float64 `json:"intent_confidence"`
	IntentStartWord  int     `json:"intent_start_word"`
	IntentEndWord    int     `json:"intent_end_word"`
	IntentText       string  `json:"intent_text" gorm:"type:text"`

	TopicLabel      string  `json:"topic_label" gorm:"type:text"`
	TopicConfidence float64 `json:"topic_confidence"`
	TopicStartWord  int     `json:"topic_start_word"`
	TopicEndWord    int     `json:"topic_end_word"`
	TopicText       string  `json:"topic_text" gorm:"type:text"`

	// Original analysis payload, kept next to the flattened columns
	RawAnalysis datatypes.JSON `json:"raw_analysis,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (SpeechAnalysis) TableName() string {
	return "speech_analyses"
}

// NewSpeechAnalysis creates an empty record for filename
func NewSpeechAnalysis(filename string) *SpeechAnalysis {
	return &SpeechAnalysis{
		ID:          uuid.New(),
		Filename:    filename,
		ContentHash: HashFilename(filename),
	}
}

// HashFilename derives the content key from the file name alone.
// Two different files uploaded under the same name share a key.
func HashFilename(filename string) string {
	sum := sha256.Sum256([]byte(filename))
	return hex.EncodeToString(sum[:])
}
