package handler

import (
	"context"
	"net/url"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/speech-insights/errors"
	analysisdto "github.com/johnquangdev/speech-insights/internal/adapter/dto/analysis"
	"github.com/johnquangdev/speech-insights/internal/adapter/presenter"
	"github.com/johnquangdev/speech-insights/internal/domain/entities"
)

// AnalysisStore is the analysis use case consumed by the handler
type AnalysisStore interface {
	Ingest(ctx context.Context, filename string, result *entities.AnalysisResult) (entities.UpsertOutcome, error)
	Get(ctx context.Context, filename string) (*entities.SpeechAnalysis, error)
	List(ctx context.Context, page, pageSize int) ([]*entities.SpeechAnalysis, int64, error)
}

// Analysis handles stored analysis endpoints
type Analysis struct {
	svc    AnalysisStore
	logger *zap.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(svc AnalysisStore, logger *zap.Logger) *Analysis {
	return &Analysis{svc: svc, logger: logger}
}

// Ingest stores an analysis result. A filename that already has a record
// only gets its updated_at refreshed.
func (h *Analysis) Ingest(c echo.Context) error {
	var req analysisdto.IngestRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	outcome, err := h.svc.Ingest(c.Request().Context(), req.Filename, req.Result)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, analysisdto.IngestResponse{
		Filename: req.Filename,
		Outcome:  outcome,
	})
}

// Get returns the record stored for :filename
func (h *Analysis) Get(c echo.Context) error {
	filename, err := url.PathUnescape(c.Param("filename"))
	if err != nil || filename == "" {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("invalid filename"))
	}

	record, err := h.svc.Get(c.Request().Context(), filename)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToAnalysisResponse(record, c.QueryParam("raw") == "true"))
}

// List returns one page of stored records, newest first
func (h *Analysis) List(c echo.Context) error {
	var req analysisdto.ListRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	// Set defaults
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	records, total, err := h.svc.List(c.Request().Context(), req.Page, req.PageSize)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToAnalysisListResponse(records, total, req.Page, req.PageSize))
}
