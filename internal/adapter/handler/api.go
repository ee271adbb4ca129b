// Package handler exposes the REST surface: transcript export
// translation, speech synthesis, voice-clone lookup, and on-demand
// meeting notes.
package handler

import (
	stdErrors "errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/thinkingjet/SpeakSync/errors"
	"github.com/thinkingjet/SpeakSync/internal/adapter/dto"
	"github.com/thinkingjet/SpeakSync/internal/infrastructure/external/elevenlabs"
	"github.com/thinkingjet/SpeakSync/internal/lang"
	"github.com/thinkingjet/SpeakSync/internal/notes"
	"github.com/thinkingjet/SpeakSync/internal/registry"
	"github.com/thinkingjet/SpeakSync/internal/translation"
	"github.com/thinkingjet/SpeakSync/internal/transport/ws"
	"github.com/thinkingjet/SpeakSync/internal/voice"
)

// API bundles the REST handlers.
type API struct {
	translator  translation.Translator
	synth       *elevenlabs.Client
	voices      *voice.Resolver
	notes       *notes.Service
	registry    *registry.Registry
	hub         *ws.Hub
	environment string
	logger      *zap.Logger
}

// NewAPI wires the REST handlers.
func NewAPI(tr translation.Translator, synth *elevenlabs.Client, vr *voice.Resolver, ns *notes.Service, reg *registry.Registry, hub *ws.Hub, environment string, logger *zap.Logger) *API {
	return &API{
		translator:  tr,
		synth:       synth,
		voices:      vr,
		notes:       ns,
		registry:    reg,
		hub:         hub,
		environment: environment,
		logger:      logger,
	}
}

// TranslateTranscript translates a submitted transcript into one
// target language for export. System messages pass through verbatim;
// a failed entry falls back to its original text.
func (a *API) TranslateTranscript(c echo.Context) error {
	req := new(dto.TranslateTranscriptRequest)
	if err := c.Bind(req); err != nil {
		return respondAppError(c, errors.ErrInvalidArgument("Invalid request parameters"))
	}
	if err := c.Validate(req); err != nil {
		return respondAppError(c, errors.ErrInvalidArgument("Invalid request parameters"))
	}

	ctx := c.Request().Context()
	out := make([]dto.TranscriptMessage, len(req.Messages))
	for i, msg := range req.Messages {
		out[i] = msg
		if msg.IsSystem || strings.TrimSpace(msg.Text) == "" {
			continue
		}
		source := msg.Language
		if source == "" {
			source = "en"
		}
		if lang.Same(source, req.TargetLanguage) {
			continue
		}
		translated := a.translator.Translate(ctx, msg.Text, source, req.TargetLanguage)
		if translated == msg.Text {
			continue
		}
		out[i].OriginalText = msg.Text
		out[i].Text = translated
		out[i].IsTranslated = true
	}

	return c.JSON(http.StatusOK, dto.TranslateTranscriptResponse{Success: true, Messages: out})
}

// Synthesize renders text to speech and streams the MPEG audio back.
func (a *API) Synthesize(c echo.Context) error {
	req := new(dto.SynthesizeRequest)
	if err := c.Bind(req); err != nil {
		return respondAppError(c, errors.ErrInvalidArgument("Text is required"))
	}
	if err := c.Validate(req); err != nil {
		return respondAppError(c, errors.ErrInvalidArgument("Text is required"))
	}

	audio, err := a.synth.Synthesize(c.Request().Context(), req.Text, req.Language, req.VoiceID)
	if err != nil {
		a.logger.Error("speech synthesis failed", zap.Error(err))
		return respondAppError(c, errors.ErrSynthesisFailed(err))
	}
	return c.Blob(http.StatusOK, "audio/mpeg", audio)
}

// CheckVoiceClone reports whether the username owns a cloned voice.
func (a *API) CheckVoiceClone(c echo.Context) error {
	username := c.QueryParam("username")
	if username == "" {
		return respondAppError(c, errors.ErrInvalidArgument("Username is required"))
	}

	voiceID := a.voices.Resolve(c.Request().Context(), username)
	if voiceID == "" {
		return c.JSON(http.StatusOK, dto.CheckVoiceCloneResponse{Found: false})
	}
	return c.JSON(http.StatusOK, dto.CheckVoiceCloneResponse{Found: true, VoiceID: voiceID})
}

// MeetingNotes generates notes for a room synchronously and returns
// the untranslated document. Participants receive their personalized
// copies over the websocket as a side effect.
func (a *API) MeetingNotes(c echo.Context) error {
	req := new(dto.MeetingNotesRequest)
	if err := c.Bind(req); err != nil {
		return respondAppError(c, errors.ErrInvalidArgument("Invalid room ID"))
	}
	if err := c.Validate(req); err != nil {
		return respondAppError(c, errors.ErrInvalidArgument("Invalid room ID"))
	}

	text, err := a.notes.Generate(c.Request().Context(), req.RoomID, "", "")
	switch {
	case err == nil:
	case stdErrors.Is(err, notes.ErrNoMessages):
		return respondAppError(c, errors.ErrNoMessages(req.RoomID))
	case stdErrors.Is(err, notes.ErrGenerationInFlight):
		return respondAppError(c, errors.ErrGenerationInFlight(req.RoomID))
	default:
		a.logger.Error("notes generation failed", zap.String("room", req.RoomID), zap.Error(err))
		return respondAppError(c, errors.ErrSummaryFailed(err))
	}

	return c.JSON(http.StatusOK, dto.MeetingNotesResponse{Success: true, Notes: text})
}

// Health reports process liveness and basic engine gauges.
func (a *API) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.HealthResponse{
		Status:      "ok",
		Environment: a.environment,
		Rooms:       a.registry.RoomCount(),
		Connections: a.hub.Size(),
	})
}
