package entities

import (
	"bytes"
	"encoding/json"
)

// AnalysisResult is the payload returned by the speech analysis capability
type AnalysisResult struct {
	Transcript string             `json:"transcript"`
	Summary    string             `json:"summary"`
	Sentiment  SentimentResult    `json:"sentiment"`
	Entities   []EntityAnnotation `json:"entities"`
	Intents    SegmentList        `json:"intents"`
	Topics     SegmentList        `json:"topics"`
}

// SentimentResult is the overall sentiment of a transcript
type SentimentResult struct {
	Sentiment      string  `json:"sentiment"`
	SentimentScore float64 `json:"sentiment_score"`
}

// EntityAnnotation is a named entity detected in the transcript.
// StartWord and EndWord are word indices, not byte offsets.
type EntityAnnotation struct {
	Label      string  `json:"label"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	StartWord  int     `json:"start_word"`
	EndWord    int     `json:"end_word"`
}

// AnnotatedSegment is a span of the transcript carrying intent or topic labels
type AnnotatedSegment struct {
	Text      string       `json:"text"`
	StartWord int          `json:"start_word"`
	EndWord   int          `json:"end_word"`
	Intents   []LabelScore `json:"intents,omitempty"`
	Topics    []LabelScore `json:"topics,omitempty"`
}

// LabelScore is one intent or topic label attached to a segment
type LabelScore struct {
	Intent          string  `json:"intent,omitempty"`
	Topic           string  `json:"topic,omitempty"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// SegmentList decodes either a bare array of segments or an object
// wrapping them as {"segments": [...]}.
type SegmentList []AnnotatedSegment

// UnmarshalJSON implements json.Unmarshaler
func (s *SegmentList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}

	if data[0] == '[' {
		var segments []AnnotatedSegment
		if err := json.Unmarshal(data, &segments); err != nil {
			return err
		}
		*s = segments
		return nil
	}

	var wrapped struct {
		Segments []AnnotatedSegment `json:"segments"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	*s = wrapped.Segments
	return nil
}

// MarshalJSON always encodes the wrapped form
func (s SegmentList) MarshalJSON() ([]byte, error) {
	segments := []AnnotatedSegment(s)
	if segments == nil {
		segments = []AnnotatedSegment{}
	}
	return json.Marshal(struct {
		Segments []AnnotatedSegment `json:"segments"`
	}{Segments: segments})
}
