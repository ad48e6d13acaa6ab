package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/speech-insights/errors"
	topicdto "github.com/johnquangdev/speech-insights/internal/adapter/dto/topic"
	"github.com/johnquangdev/speech-insights/internal/domain/entities"
	"github.com/johnquangdev/speech-insights/pkg/jobcontext"
)

// Classifier is the topic modeling use case consumed by the handler
type Classifier interface {
	Classify(ctx context.Context, docs []entities.Document) ([]entities.TopicResult, error)
}

// Topic handles topic modeling endpoints
type Topic struct {
	svc    Classifier
	logger *zap.Logger
}

// NewTopicHandler creates a new topic handler
func NewTopicHandler(svc Classifier, logger *zap.Logger) *Topic {
	return &Topic{svc: svc, logger: logger}
}

// Classify assigns a topic to every submitted document.
// The body is {"results": [...]} without the success envelope; batches that
// failed every attempt are missing from the list.
func (h *Topic) Classify(c echo.Context) error {
	var req topicdto.ClassifyRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}
	if len(req.TextDocuments) == 0 {
		return HandleError(h.logger, c, errors.ErrEmptyDocuments())
	}

	ctx := jobcontext.WithJobID(c.Request().Context(), getRequestID(c))
	results, err := h.svc.Classify(ctx, req.ToDocuments())
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if results == nil {
		results = []entities.TopicResult{}
	}

	if h.logger != nil {
		h.logger.Info("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.Int("documents", len(req.TextDocuments)),
			zap.Int("results", len(results)),
		)
	}
	return c.JSON(http.StatusOK, topicdto.ClassifyResponse{Results: results})
}
