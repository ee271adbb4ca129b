package handler

import (
	"github.com/labstack/echo/v4"
)

// Router holds all handlers
type Router struct {
	api *API
	ws  *WebSocket
}

// NewRouter creates a new router with all handlers
func NewRouter(api *API, ws *WebSocket) *Router {
	return &Router{api: api, ws: ws}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.api.Health)

	// Live connection endpoint
	e.GET("/ws", rt.ws.Serve)

	// REST API group
	api := e.Group("/api")
	api.POST("/translate-transcript", rt.api.TranslateTranscript)
	api.POST("/tts", rt.api.Synthesize)
	api.GET("/check-voice-clone", rt.api.CheckVoiceClone)
	api.POST("/meeting-notes", rt.api.MeetingNotes)
}
