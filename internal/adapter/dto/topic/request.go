package topic

import "github.com/johnquangdev/speech-insights/internal/domain/entities"

// TextDocument is one document submitted for topic modeling
type TextDocument struct {
	FileName      string `json:"fileName" validate:"max=512"`
	Transcription string `json:"transcription"`
}

// ClassifyRequest represents the topic modeling request body
type ClassifyRequest struct {
	TextDocuments []TextDocument `json:"textDocuments" validate:"dive"`
}

// ToDocuments converts the request into domain documents
func (r *ClassifyRequest) ToDocuments() []entities.Document {
	docs := make([]entities.Document, len(r.TextDocuments))
	for i, d := range r.TextDocuments {
		docs[i] = entities.Document{FileName: d.FileName, Transcription: d.Transcription}
	}
	return docs
}
