package topic

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/johnquangdev/speech-insights/internal/domain/entities"
)

// ErrParse is returned when a classifier reply carries no usable topic array
var ErrParse = errors.New("unparsable classifier response")

// Greedy on purpose: spans from the first '[' to the last ']' across lines.
var arrayPattern = regexp.MustCompile(`(?s)\[.*\]`)

// Degradation records a field that fell back to its default value
type Degradation struct {
	FileName string
	Field    string
	Reason   string
}

// Extraction is the per-document outcome of parsing one classifier reply
type Extraction struct {
	Results  []entities.TopicResult
	Degraded []Degradation
}

// Extractor turns a raw classifier reply into one result per batch document.
// Results are positional: the j-th parsed item belongs to the j-th document.
type Extractor interface {
	Extract(raw string, batch entities.Batch) (Extraction, error)
}

// ArrayExtractor finds a JSON array of {topic, description} objects embedded
// in free text.
type ArrayExtractor struct{}

// Extract implements Extractor
func (ArrayExtractor) Extract(raw string, batch entities.Batch) (Extraction, error) {
	match := arrayPattern.FindString(raw)
	if match == "" {
		return Extraction{}, fmt.Errorf("%w: no array found", ErrParse)
	}

	// Only the first JSON value is read, trailing text after it is ignored
	var items []json.RawMessage
	if err := json.NewDecoder(strings.NewReader(match)).Decode(&items); err != nil {
		return Extraction{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(items) < batch.Len() {
		return Extraction{}, fmt.Errorf("%w: got %d items for %d documents", ErrParse, len(items), batch.Len())
	}

	out := Extraction{Results: make([]entities.TopicResult, 0, batch.Len())}
	for j := range batch.Documents {
		name := batch.DocumentName(j)
		fields, reason := decodeObject(items[j])

		topic, topicReason := stringField(fields, "topic")
		if reason != "" {
			topicReason = reason
		}
		if topicReason != "" || strings.TrimSpace(topic) == "" {
			if topicReason == "" {
				topicReason = "empty"
			}
			topic = entities.UnknownTopic
			out.Degraded = append(out.Degraded, Degradation{FileName: name, Field: "topic", Reason: topicReason})
		}

		description, descReason := stringField(fields, "description")
		if reason != "" {
			descReason = reason
		}
		if descReason != "" {
			description = ""
			out.Degraded = append(out.Degraded, Degradation{FileName: name, Field: "description", Reason: descReason})
		}

		out.Results = append(out.Results, entities.TopicResult{
			FileName:    name,
			Topic:       topic,
			Description: description,
		})
	}
	return out, nil
}

func decodeObject(item json.RawMessage) (map[string]json.RawMessage, string) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
		return nil, "item is not an object"
	}
	return fields, ""
}

func stringField(fields map[string]json.RawMessage, key string) (string, string) {
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return "", "missing"
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", "not a string"
	}
	return value, ""
}
