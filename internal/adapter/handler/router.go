package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/speech-insights/pkg/config"
)

// Route scopes checked against service tokens
const (
	ScopeTopics   = "topics"
	ScopeAnalyses = "analyses"
	ScopeAudio    = "audio"
)

// Router holds all handlers
type Router struct {
	cfg             *config.Config
	topicHandler    *Topic
	analysisHandler *Analysis
	audioHandler    *Audio
	authMiddleware  echo.MiddlewareFunc
	scope           func(string) echo.MiddlewareFunc
}

// NewRouter creates a new router with all handlers. audioHandler may be nil
// when object storage is disabled; authMiddleware and scope may be nil when
// API auth is disabled.
func NewRouter(
	cfg *config.Config,
	topicHandler *Topic,
	analysisHandler *Analysis,
	audioHandler *Audio,
	authMiddleware echo.MiddlewareFunc,
	scope func(string) echo.MiddlewareFunc,
) *Router {
	return &Router{
		cfg:             cfg,
		topicHandler:    topicHandler,
		analysisHandler: analysisHandler,
		audioHandler:    audioHandler,
		authMiddleware:  authMiddleware,
		scope:           scope,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// API v1 group
	v1 := e.Group("/v1")
	if rt.authMiddleware != nil {
		v1.Use(rt.authMiddleware)
	}

	rt.setupTopicRoutes(v1)
	rt.setupAnalysisRoutes(v1)
	rt.setupAudioRoutes(v1)
}

func (rt *Router) scoped(scope string) []echo.MiddlewareFunc {
	if rt.scope == nil {
		return nil
	}
	return []echo.MiddlewareFunc{rt.scope(scope)}
}

// setupTopicRoutes configures topic modeling routes
func (rt *Router) setupTopicRoutes(g *echo.Group) {
	g.POST("/topic-modeling", rt.topicHandler.Classify, rt.scoped(ScopeTopics)...)
}

// setupAnalysisRoutes configures stored analysis routes
func (rt *Router) setupAnalysisRoutes(g *echo.Group) {
	analysisGroup := g.Group("/analyses", rt.scoped(ScopeAnalyses)...)

	analysisGroup.POST("", rt.analysisHandler.Ingest)
	analysisGroup.GET("", rt.analysisHandler.List)
	analysisGroup.GET("/:filename", rt.analysisHandler.Get)
}

// setupAudioRoutes configures audio routes
func (rt *Router) setupAudioRoutes(g *echo.Group) {
	audioGroup := g.Group("/audio", rt.scoped(ScopeAudio)...)

	if rt.audioHandler != nil {
		audioGroup.POST("", rt.audioHandler.Upload)
		audioGroup.GET("/:filename", rt.audioHandler.Download)
	} else {
		// Placeholder routes when storage is not configured
		audioGroup.POST("", rt.notImplemented)
		audioGroup.GET("/:filename", rt.notImplemented)
	}
}

// notImplemented returns 501 Not Implemented response
func (rt *Router) notImplemented(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]interface{}{
		"error":   "This endpoint is not enabled",
		"path":    c.Request().URL.Path,
		"method":  c.Request().Method,
		"message": "Set STORAGE_ENABLED and ASSEMBLYAI_API_KEY to enable audio ingestion",
	})
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	env := ""
	if rt.cfg != nil {
		env = rt.cfg.Server.Environment
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": env,
	})
}
