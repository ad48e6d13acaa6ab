package analysis

import (
	"github.com/johnquangdev/speech-insights/internal/adapter/dto/common"
	"github.com/johnquangdev/speech-insights/internal/domain/entities"
)

// IngestRequest represents an analysis result to store under filename
type IngestRequest struct {
	Filename string                   `json:"filename" validate:"required,max=512,filename"`
	Result   *entities.AnalysisResult `json:"result" validate:"required"`
}

// ListRequest represents query parameters for listing analyses
type ListRequest struct {
	common.PaginationRequest
}
