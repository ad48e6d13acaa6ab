package analysis

import (
	"encoding/json"
	"math"
	"strings"

	"gorm.io/datatypes"

	"github.com/johnquangdev/speech-insights/internal/domain/entities"
)

// summary is one annotation category reduced to scalar fields
type summary struct {
	Label      string
	Text       string
	Confidence float64
	StartWord  int
	EndWord    int
}

type annotation struct {
	label      string
	text       string
	confidence float64
	start      int
	end        int
}

// Aggregate flattens an analysis result into the stored record for filename.
// A nil result yields a record with only the identifying fields set.
func Aggregate(filename string, a *entities.AnalysisResult) *entities.SpeechAnalysis {
	rec := entities.NewSpeechAnalysis(filename)
	if a == nil {
		return rec
	}

	rec.Transcript = a.Transcript
	rec.Summary = a.Summary
	rec.Sentiment = a.Sentiment.Sentiment
	rec.SentimentScore = a.Sentiment.SentimentScore

	ents := make([]annotation, 0, len(a.Entities))
	values := make([]string, 0, len(a.Entities))
	for _, e := range a.Entities {
		ents = append(ents, annotation{label: e.Label, confidence: e.Confidence, start: e.StartWord, end: e.EndWord})
		values = append(values, e.Value)
	}
	entity := reduce(ents)
	rec.EntityLabel = entity.Label
	rec.EntityValue = strings.Join(values, ", ")
	rec.EntityConfidence = entity.Confidence
	rec.EntityStartWord = entity.StartWord
	rec.EntityEndWord = entity.EndWord

	intent := reduce(flattenSegments(a.Intents, func(s entities.AnnotatedSegment) []entities.LabelScore { return s.Intents },
		func(l entities.LabelScore) string { return l.Intent }))
	rec.IntentLabel = intent.Label
	rec.IntentText = intent.Text
	rec.IntentConfidence = intent.Confidence
	rec.IntentStartWord = intent.StartWord
	rec.IntentEndWord = intent.EndWord

	topic := reduce(flattenSegments(a.Topics, func(s entities.AnnotatedSegment) []entities.LabelScore { return s.Topics },
		func(l entities.LabelScore) string { return l.Topic }))
	rec.TopicLabel = topic.Label
	rec.TopicText = topic.Text
	rec.TopicConfidence = topic.Confidence
	rec.TopicStartWord = topic.StartWord
	rec.TopicEndWord = topic.EndWord

	if raw, err := json.Marshal(a); err == nil {
		rec.RawAnalysis = datatypes.JSON(raw)
	}
	return rec
}

// flattenSegments emits one annotation per label, each carrying its segment's text and span
func flattenSegments(
	segments entities.SegmentList,
	items func(entities.AnnotatedSegment) []entities.LabelScore,
	label func(entities.LabelScore) string,
) []annotation {
	var out []annotation
	for _, seg := range segments {
		for _, item := range items(seg) {
			out = append(out, annotation{
				label:      label(item),
				text:       seg.Text,
				confidence: item.ConfidenceScore,
				start:      seg.StartWord,
				end:        seg.EndWord,
			})
		}
	}
	return out
}

func reduce(items []annotation) summary {
	if len(items) == 0 {
		return summary{}
	}

	labels := make([]string, len(items))
	texts := make([]string, len(items))
	total := 0.0
	start, end := items[0].start, items[0].end
	for i, it := range items {
		labels[i] = it.label
		texts[i] = it.text
		total += it.confidence
		start = min(start, it.start)
		end = max(end, it.end)
	}

	return summary{
		Label:      strings.Join(labels, ", "),
		Text:       strings.Join(texts, " "),
		Confidence: round4(total / float64(len(items))),
		StartWord:  start,
		EndWord:    end,
	}
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
