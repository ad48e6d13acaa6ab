package assemblyai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"go.uber.org/zap"

	"github.com/johnquangdev/speech-insights/internal/domain/entities"
	"github.com/johnquangdev/speech-insights/pkg/config"
)

// Sentiment labels derived from the mean signed sentence confidence
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"

	sentimentThreshold = 0.333
)

// Analyzer runs AssemblyAI transcription with the audio intelligence models
// enabled and maps the transcript to an analysis result.
type Analyzer struct {
	client       *aai.Client
	languageCode string
	logger       *zap.Logger
}

// NewAnalyzer creates an analyzer using the official SDK client
func NewAnalyzer(cfg *config.AssemblyAIConfig, logger *zap.Logger) *Analyzer {
	return NewAnalyzerWithClient(aai.NewClient(cfg.APIKey), cfg.LanguageCode, logger)
}

// NewAnalyzerWithClient wraps an existing SDK client
func NewAnalyzerWithClient(client *aai.Client, languageCode string, logger *zap.Logger) *Analyzer {
	return &Analyzer{client: client, languageCode: languageCode, logger: logger}
}

// Analyze transcribes the audio at audioURL and waits for the result
func (a *Analyzer) Analyze(ctx context.Context, audioURL string) (*entities.AnalysisResult, error) {
	params := &aai.TranscriptOptionalParams{
		EntityDetection:   aai.Bool(true),
		SentimentAnalysis: aai.Bool(true),
		IABCategories:     aai.Bool(true),
		Summarization:     aai.Bool(true),
	}
	if a.languageCode != "" {
		params.LanguageCode = aai.TranscriptLanguageCode(a.languageCode)
	} else {
		params.LanguageDetection = aai.Bool(true)
	}

	if a.logger != nil {
		a.logger.Info("🎙️ Starting AssemblyAI transcription", zap.String("language", a.languageCode))
	}

	transcript, err := a.client.Transcripts.TranscribeFromURL(ctx, audioURL, params)
	if err != nil {
		return nil, fmt.Errorf("assemblyai transcription failed: %w", err)
	}
	if transcript.Status == aai.TranscriptStatusError {
		msg := "unknown error"
		if transcript.Error != nil {
			msg = *transcript.Error
		}
		return nil, fmt.Errorf("assemblyai reported error: %s", msg)
	}

	raw, err := json.Marshal(transcript)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transcript: %w", err)
	}

	result, err := MapTranscript(raw)
	if err != nil {
		return nil, err
	}

	if a.logger != nil {
		a.logger.Info("✅ AssemblyAI analysis ready",
			zap.Int("entities", len(result.Entities)),
			zap.Int("topic_segments", len(result.Topics)),
			zap.String("sentiment", result.Sentiment.Sentiment),
		)
	}
	return result, nil
}

type wireWord struct {
	Text       string  `json:"text"`
	Start      int64   `json:"start"`
	End        int64   `json:"end"`
	Confidence float64 `json:"confidence"`
}

type wireTranscript struct {
	Text     string     `json:"text"`
	Summary  string     `json:"summary"`
	Words    []wireWord `json:"words"`
	Entities []struct {
		EntityType string `json:"entity_type"`
		Text       string `json:"text"`
		Start      int64  `json:"start"`
		End        int64  `json:"end"`
	} `json:"entities"`
	SentimentAnalysisResults []struct {
		Sentiment  string  `json:"sentiment"`
		Confidence float64 `json:"confidence"`
	} `json:"sentiment_analysis_results"`
	IABCategoriesResult struct {
		Results []struct {
			Text   string `json:"text"`
			Labels []struct {
				Label     string  `json:"label"`
				Relevance float64 `json:"relevance"`
			} `json:"labels"`
			Timestamp struct {
				Start int64 `json:"start"`
				End   int64 `json:"end"`
			} `json:"timestamp"`
		} `json:"results"`
	} `json:"iab_categories_result"`
}

// MapTranscript converts a transcript in AssemblyAI's JSON shape into an
// analysis result. Millisecond offsets become word indices; entity
// confidence is the mean word confidence over the entity's span.
func MapTranscript(raw []byte) (*entities.AnalysisResult, error) {
	var t wireTranscript
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("failed to decode transcript: %w", err)
	}

	result := &entities.AnalysisResult{
		Transcript: t.Text,
		Summary:    strings.TrimSpace(t.Summary),
		Entities:   make([]entities.EntityAnnotation, 0, len(t.Entities)),
		Intents:    entities.SegmentList{},
		Topics:     make(entities.SegmentList, 0, len(t.IABCategoriesResult.Results)),
	}

	for _, e := range t.Entities {
		start, end := wordSpan(t.Words, e.Start, e.End)
		result.Entities = append(result.Entities, entities.EntityAnnotation{
			Label:      e.EntityType,
			Value:      e.Text,
			Confidence: meanConfidence(t.Words, start, end),
			StartWord:  start,
			EndWord:    end,
		})
	}

	for _, r := range t.IABCategoriesResult.Results {
		start, end := wordSpan(t.Words, r.Timestamp.Start, r.Timestamp.End)
		seg := entities.AnnotatedSegment{Text: r.Text, StartWord: start, EndWord: end}
		for _, l := range r.Labels {
			seg.Topics = append(seg.Topics, entities.LabelScore{Topic: l.Label, ConfidenceScore: l.Relevance})
		}
		result.Topics = append(result.Topics, seg)
	}

	score := 0.0
	for _, s := range t.SentimentAnalysisResults {
		switch strings.ToUpper(s.Sentiment) {
		case "POSITIVE":
			score += s.Confidence
		case "NEGATIVE":
			score -= s.Confidence
		}
	}
	if n := len(t.SentimentAnalysisResults); n > 0 {
		score /= float64(n)
	}
	result.Sentiment = entities.SentimentResult{Sentiment: sentimentLabel(score), SentimentScore: score}

	return result, nil
}

// wordSpan maps a millisecond range to the first and last word indices it covers
func wordSpan(words []wireWord, startMs, endMs int64) (int, int) {
	start, end := -1, -1
	for i, w := range words {
		if w.End <= startMs || w.Start >= endMs {
			continue
		}
		if start < 0 {
			start = i
		}
		end = i
	}
	if start < 0 {
		return 0, 0
	}
	return start, end
}

func meanConfidence(words []wireWord, start, end int) float64 {
	if len(words) == 0 || end < start || end >= len(words) {
		return 0
	}
	total := 0.0
	for _, w := range words[start : end+1] {
		total += w.Confidence
	}
	return total / float64(end-start+1)
}

func sentimentLabel(score float64) string {
	switch {
	case score > sentimentThreshold:
		return SentimentPositive
	case score < -sentimentThreshold:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}
