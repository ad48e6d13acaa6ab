package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/speech-insights/errors"
	"github.com/johnquangdev/speech-insights/internal/adapter/repository"
	"github.com/johnquangdev/speech-insights/internal/domain/entities"
	"github.com/johnquangdev/speech-insights/internal/usecase/analysis"
)

// Response shapes
type success struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type errs struct {
	Code    interface{}       `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Info    string            `json:"info,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// getRequestID tries to read X-Request-ID from the request, then from the response
// header set by the request-id middleware
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	if id := c.Request().Header.Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// toAppError maps domain and storage errors onto the AppError catalogue
func toAppError(err error) error {
	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		return err
	}

	var storageErr *repository.StorageError
	switch {
	case stdErrors.Is(err, entities.ErrNoDocuments):
		return errors.ErrEmptyDocuments()
	case stdErrors.Is(err, entities.ErrAnalysisNotFound):
		return errors.ErrNotFound("analysis")
	case stdErrors.Is(err, entities.ErrEmptyFilename):
		return errors.ErrInvalidArgument("filename is required")
	case stdErrors.Is(err, analysis.ErrStorageDisabled):
		return errors.ErrStorageFailed("audio storage is not configured", err)
	case stdErrors.As(err, &storageErr):
		return errors.ErrDBQueryFailed(storageErr.Op, storageErr.Err)
	}
	return err
}

// HandleSuccess writes a standardized success response using provided logger
func HandleSuccess(logger *zap.Logger, c echo.Context, data interface{}) error {
	resp := success{
		Code:    int(errors.ErrorCode_HTTP_OK),
		Message: "success",
		Data:    data,
	}

	if logger != nil {
		logger.Info("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
		)
	}

	return c.JSON(http.StatusOK, resp)
}

// HandleError centralizes error handling and logging using provided logger
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	reqID := getRequestID(c)
	err = toAppError(err)

	var appErr errors.AppError
	if !stdErrors.As(err, &appErr) {
		appErr = errors.ErrInternal(err)
	}

	if logger != nil {
		logger.Error("http.response.error",
			zap.String("request_id", reqID),
			zap.String("path", c.Path()),
			zap.Any("app_code", appErr.Code.String()),
			zap.Error(err),
		)
	}

	info := ""
	if appErr.Raw != nil {
		info = appErr.Raw.Error()
	}

	body := errs{
		Code:    appErr.Code,
		Message: appErr.Message,
		Info:    info,
		Details: appErr.Details,
	}

	return c.JSON(appErr.HTTPCode, body)
}

// ErrorHandler renders AppErrors that escape handlers, such as auth failures
// from middleware, with the error envelope. Anything else goes to Echo's
// default handler.
func ErrorHandler(logger *zap.Logger, e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var appErr errors.AppError
		if stdErrors.As(err, &appErr) {
			_ = HandleError(logger, c, appErr)
			return
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
}
