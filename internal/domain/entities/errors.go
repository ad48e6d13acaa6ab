package entities

import "errors"

// Domain errors
var (
	ErrAnalysisNotFound = errors.New("speech analysis not found")
	ErrEmptyFilename    = errors.New("filename is required")
	ErrNoDocuments      = errors.New("no documents to classify")
)
