package topic

import "github.com/johnquangdev/speech-insights/internal/domain/entities"

// ClassifyResponse represents the topic modeling response
type ClassifyResponse struct {
	Results []entities.TopicResult `json:"results"`
}
