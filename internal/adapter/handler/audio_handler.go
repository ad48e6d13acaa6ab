package handler

import (
	"context"
	stdErrors "errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/speech-insights/errors"
	"github.com/johnquangdev/speech-insights/internal/domain/entities"
	"github.com/johnquangdev/speech-insights/internal/usecase/analysis"
	"github.com/johnquangdev/speech-insights/pkg/jobcontext"
)

// AudioIngester is the audio use case consumed by the handler
type AudioIngester interface {
	IngestAudio(ctx context.Context, files []analysis.AudioFile) []analysis.AudioOutcome
	AudioURL(ctx context.Context, filename string) (string, error)
}

// Audio handles audio upload and retrieval endpoints
type Audio struct {
	svc    AudioIngester
	logger *zap.Logger
}

// NewAudioHandler creates a new audio handler
func NewAudioHandler(svc AudioIngester, logger *zap.Logger) *Audio {
	return &Audio{svc: svc, logger: logger}
}

// Upload accepts one or more files in the "files" form field, analyzes each
// and stores the result. Per-file failures are reported in the body; the
// request only fails when no file was ingested.
func (h *Audio) Upload(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		headers = form.File["file"]
	}
	if len(headers) == 0 {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("at least one file is required"))
	}

	files := make([]analysis.AudioFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return HandleError(h.logger, c, errors.ErrInvalidPayload().WithDetail("filename", fh.Filename))
		}
		defer f.Close()

		contentType := fh.Header.Get(echo.HeaderContentType)
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		files = append(files, analysis.AudioFile{
			Filename:    fh.Filename,
			ContentType: contentType,
			Size:        fh.Size,
			Body:        f,
		})
	}

	ctx := jobcontext.WithJobID(c.Request().Context(), getRequestID(c))
	outcomes := h.svc.IngestAudio(ctx, files)

	var firstErr error
	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			if firstErr == nil {
				firstErr = errors.ErrAnalysisIngestFailed(o.Filename, o.Err)
			}
		}
	}
	if failed == len(outcomes) {
		// Configuration problems are reported as such rather than as an ingest failure
		cause := outcomes[0].Err
		if stdErrors.Is(cause, analysis.ErrStorageDisabled) || stdErrors.Is(cause, entities.ErrEmptyFilename) {
			return HandleError(h.logger, c, cause)
		}
		return HandleError(h.logger, c, firstErr)
	}

	return HandleSuccess(h.logger, c, map[string]interface{}{"files": outcomes})
}

// Download redirects to a temporary URL for the stored audio file
func (h *Audio) Download(c echo.Context) error {
	filename, err := url.PathUnescape(c.Param("filename"))
	if err != nil || filename == "" {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("invalid filename"))
	}

	u, err := h.svc.AudioURL(c.Request().Context(), filename)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrStorageFailed("get audio url", err).WithDetail("filename", filename))
	}

	return c.Redirect(http.StatusTemporaryRedirect, u)
}
