package ws

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/thinkingjet/SpeakSync/internal/dispatch"
	"github.com/thinkingjet/SpeakSync/internal/domain/entities"
	"github.com/thinkingjet/SpeakSync/internal/domain/events"
	"github.com/thinkingjet/SpeakSync/internal/lang"
	"github.com/thinkingjet/SpeakSync/internal/notes"
	"github.com/thinkingjet/SpeakSync/internal/registry"
	"github.com/thinkingjet/SpeakSync/internal/speech"
	"github.com/thinkingjet/SpeakSync/internal/voice"
)

// Transcriber transcribes a recorded audio clip to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, languageCode string) (string, error)
}

// Handler routes inbound frames into the room engine. One instance is
// shared by all connections; per-connection state lives on Client.
type Handler struct {
	hub            *Hub
	registry       *registry.Registry
	dispatcher     *dispatch.Dispatcher
	notes          *notes.Service
	voices         *voice.Resolver
	transcriber    Transcriber
	defaultVoiceID string
	logger         *zap.Logger
}

// NewHandler wires the frame router.
func NewHandler(hub *Hub, reg *registry.Registry, d *dispatch.Dispatcher, ns *notes.Service, vr *voice.Resolver, tr Transcriber, defaultVoiceID string, logger *zap.Logger) *Handler {
	return &Handler{
		hub:            hub,
		registry:       reg,
		dispatcher:     d,
		notes:          ns,
		voices:         vr,
		transcriber:    tr,
		defaultVoiceID: defaultVoiceID,
		logger:         logger,
	}
}

type joinPayload struct {
	Room     string `json:"room"`
	Username string `json:"username"`
	Language string `json:"language"`
	VoiceID  string `json:"voiceId"`
}

type roomPayload struct {
	Room string `json:"room"`
}

type languagePayload struct {
	Room     string `json:"room"`
	Language string `json:"language"`
}

type notesLanguagePayload struct {
	Room          string `json:"room"`
	NotesLanguage string `json:"meetingNotesLanguage"`
}

type transcriptPayload struct {
	Text    string `json:"text"`
	IsFinal bool   `json:"isFinal"`
}

type pushToTalkPayload struct {
	Room  string `json:"room"`
	Audio string `json:"audio"`
}

type sendMessagePayload struct {
	Room    string `json:"room"`
	Message string `json:"message"`
}

type reactionPayload struct {
	Room      string `json:"room"`
	MessageID string `json:"messageId"`
	Reaction  string `json:"reaction"`
}

type ttsRequestPayload struct {
	Room      string `json:"room"`
	Text      string `json:"text"`
	Language  string `json:"language"`
	MessageID string `json:"messageId"`
	ForUserID string `json:"forUserId"`
	SpeakerID string `json:"speakerId"`
}

// Handle dispatches one inbound frame. Unknown events are logged and
// dropped so protocol additions never kill a connection.
func (h *Handler) Handle(ctx context.Context, c *Client, f frame) {
	switch f.Event {
	case "join-room":
		var p joinPayload
		if h.decode(c, f, &p) {
			h.join(ctx, c, p)
		}
	case "leave-room":
		h.leave(ctx, c)
	case "update-language":
		var p languagePayload
		if h.decode(c, f, &p) {
			h.updateLanguage(c, p)
		}
	case "update-meeting-notes-language":
		var p notesLanguagePayload
		if h.decode(c, f, &p) {
			h.updateNotesLanguage(c, p)
		}
	case "user-muted":
		if s, ok := c.Session(); ok {
			s.Abort()
		}
	case "start-stream":
		h.startStream(c)
	case "stop-stream":
		if s, ok := c.Session(); ok {
			s.Abort()
		}
	case "audio-data":
		// Raw audio rides the transcription feed; nothing to route here.
	case "speech-started":
		if s, ok := c.Session(); ok {
			s.SpeechStarted()
		}
	case "transcript":
		var p transcriptPayload
		if h.decode(c, f, &p) {
			if s, ok := c.Session(); ok {
				s.Transcript(ctx, p.Text, p.IsFinal)
			}
		}
	case "utterance-end":
		if s, ok := c.Session(); ok {
			s.UtteranceEnd(ctx)
		}
	case "push-to-talk":
		var p pushToTalkPayload
		if h.decode(c, f, &p) {
			h.pushToTalk(ctx, c, p)
		}
	case "send-message":
		var p sendMessagePayload
		if h.decode(c, f, &p) {
			h.sendMessage(ctx, c, p)
		}
	case "add-reaction":
		var p reactionPayload
		if h.decode(c, f, &p) {
			h.addReaction(c, p)
		}
	case "generate-meeting-notes":
		var p roomPayload
		if h.decode(c, f, &p) {
			h.generateNotes(ctx, c, p.Room)
		}
	case "request-tts":
		var p ttsRequestPayload
		if h.decode(c, f, &p) {
			h.requestTTS(c, p)
		}
	default:
		h.logger.Debug("unknown inbound event",
			zap.String("event", f.Event), zap.String("connection_id", c.ID))
	}
}

// Join enters a room outside the frame path, for transports that carry
// join parameters on the upgrade request itself.
func (h *Handler) Join(ctx context.Context, c *Client, room, username, language, voiceID string) {
	h.join(ctx, c, joinPayload{Room: room, Username: username, Language: language, VoiceID: voiceID})
}

func (h *Handler) decode(c *Client, f frame, out any) bool {
	if err := json.Unmarshal(f.Data, out); err != nil {
		h.logger.Warn("malformed event payload",
			zap.String("event", f.Event),
			zap.String("connection_id", c.ID),
			zap.Error(err))
		return false
	}
	return true
}

func (h *Handler) emitError(c *Client, message string) {
	h.hub.Emit(c.ID, events.Event{Name: events.Error, Payload: events.ErrorPayload{Message: message}})
}

func (h *Handler) join(ctx context.Context, c *Client, p joinPayload) {
	if p.Room == "" || p.Username == "" {
		h.emitError(c, "Room and username are required")
		return
	}

	// Joining a second room implicitly leaves the first.
	if _, joined := c.Room(); joined {
		h.leave(ctx, c)
	}

	participant := &entities.Participant{
		ConnectionID: c.ID,
		Username:     p.Username,
		Language:     p.Language,
		VoiceID:      p.VoiceID,
	}
	room := h.registry.Join(p.Room, participant)
	session := speech.NewSession(c.ID, p.Room, h.registry, h.dispatcher, h.notes, h.logger)
	c.setRoom(p.Room, session)

	joined := participant.Summarize()
	h.dispatcher.Broadcast(p.Room, events.Event{
		Name:    events.UserJoined,
		Payload: events.MembershipPayload{Users: room.Roster(), Joined: &joined},
	})

	h.hub.Emit(c.ID, events.Event{
		Name:    events.RoomState,
		Payload: events.RoomStatePayload{Users: room.Roster(), Messages: room.Messages()},
	})

	// Voice-clone lookup hits the vendor; never block the join on it.
	if p.VoiceID == "" {
		go h.resolveVoice(p.Room, c.ID, p.Username)
	}

	h.systemMessage(room, p.Username+" has joined the room.")
}

func (h *Handler) resolveVoice(roomName, connectionID, username string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	voiceID := h.voices.Resolve(ctx, username)
	if voiceID == "" {
		return
	}
	room, ok := h.registry.Get(roomName)
	if !ok || !room.SetVoiceID(connectionID, voiceID) {
		return
	}
	h.dispatcher.Broadcast(roomName, events.Event{
		Name:    events.VoiceUpdated,
		Payload: events.VoicePayload{UserID: connectionID, Username: username, HasVoiceClone: true},
	})
}

// systemMessage stores and broadcasts an untranslated announcement.
// System messages never count toward meeting notes.
func (h *Handler) systemMessage(room *entities.Room, text string) {
	msg := entities.Message{
		ID:              entities.NewMessageID(),
		SenderID:        "system",
		SenderUsername:  "System",
		Text:            text,
		Language:        "en",
		LanguageDisplay: "English",
		Timestamp:       time.Now(),
		IsFinal:         true,
		IsSystem:        true,
		Reactions:       entities.Reactions{},
	}
	room.AppendMessage(msg)
	h.dispatcher.Broadcast(room.Name, events.Event{
		Name:    events.NewMessage,
		Payload: events.OutgoingMessage{Message: msg},
	})
}

func (h *Handler) leave(ctx context.Context, c *Client) {
	roomName, joined := c.Room()
	if !joined {
		return
	}
	if s, ok := c.Session(); ok {
		s.Abort()
	}
	c.clearRoom()

	removed, deleted := h.registry.Leave(roomName, c.ID)
	if removed == nil || deleted {
		return
	}
	room, ok := h.registry.Get(roomName)
	if !ok {
		return
	}
	left := removed.Summarize()
	h.dispatcher.Broadcast(roomName, events.Event{
		Name:    events.UserLeft,
		Payload: events.MembershipPayload{Users: room.Roster(), Left: &left},
	})
	h.systemMessage(room, removed.Username+" has left the room.")
}

// Disconnect is invoked by the read pump on connection teardown.
func (h *Handler) Disconnect(ctx context.Context, c *Client) {
	h.leave(ctx, c)
}

func (h *Handler) updateLanguage(c *Client, p languagePayload) {
	roomName, joined := c.Room()
	if !joined {
		return
	}
	room, ok := h.registry.Get(roomName)
	if !ok {
		return
	}
	// An in-progress turn in the old language would finalize with the
	// wrong tag; drop it.
	if s, ok := c.Session(); ok {
		s.Abort()
	}
	if room.SetLanguage(c.ID, p.Language) {
		h.logger.Info("language updated",
			zap.String("room", roomName),
			zap.String("connection_id", c.ID),
			zap.String("language", p.Language))
	}
}

func (h *Handler) updateNotesLanguage(c *Client, p notesLanguagePayload) {
	roomName, joined := c.Room()
	if !joined {
		return
	}
	room, ok := h.registry.Get(roomName)
	if !ok {
		return
	}
	room.SetNotesLanguage(c.ID, p.NotesLanguage)
}

func (h *Handler) startStream(c *Client) {
	if _, joined := c.Room(); !joined {
		h.emitError(c, "Room not found")
		return
	}
	h.hub.Emit(c.ID, events.Event{Name: events.StreamReady, Payload: struct{}{}})
}

func (h *Handler) pushToTalk(ctx context.Context, c *Client, p pushToTalkPayload) {
	roomName, joined := c.Room()
	if !joined {
		h.emitError(c, "Room not found")
		return
	}
	room, ok := h.registry.Get(roomName)
	if !ok {
		h.emitError(c, "Room not found")
		return
	}
	participant, ok := room.Participant(c.ID)
	if !ok {
		return
	}

	audio, err := base64.StdEncoding.DecodeString(p.Audio)
	if err != nil {
		h.hub.Emit(c.ID, events.Event{Name: events.StreamError, Payload: events.ErrorPayload{Message: "Failed to process audio"}})
		return
	}

	// Transcription takes seconds; run it off the read loop so the
	// speaker's other frames keep flowing.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		text, err := h.transcriber.Transcribe(ctx, bytes.NewReader(audio), lang.ShortCode(participant.Language))
		if err != nil {
			h.logger.Warn("push-to-talk transcription failed",
				zap.String("connection_id", c.ID), zap.Error(err))
			h.hub.Emit(c.ID, events.Event{Name: events.StreamError, Payload: events.ErrorPayload{Message: "Failed to process audio"}})
			return
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		h.finalizeMessage(ctx, room, participant, text)
	}()
}

func (h *Handler) sendMessage(ctx context.Context, c *Client, p sendMessagePayload) {
	roomName, joined := c.Room()
	if !joined {
		return
	}
	room, ok := h.registry.Get(roomName)
	if !ok {
		return
	}
	participant, ok := room.Participant(c.ID)
	if !ok {
		return
	}
	text := strings.TrimSpace(p.Message)
	if text == "" {
		return
	}
	h.finalizeMessage(ctx, room, participant, text)
}

// finalizeMessage stores a message and runs the full fan-out, exactly
// like a finalized utterance.
func (h *Handler) finalizeMessage(ctx context.Context, room *entities.Room, sender entities.Participant, text string) {
	msg := entities.Message{
		ID:              entities.NewMessageID(),
		SenderID:        sender.ConnectionID,
		SenderUsername:  sender.Username,
		Text:            text,
		Language:        sender.Language,
		LanguageDisplay: lang.DisplayName(sender.Language),
		Timestamp:       time.Now(),
		IsFinal:         true,
		Reactions:       entities.Reactions{},
	}
	room.AppendMessage(msg)
	h.dispatcher.DispatchFinal(ctx, room.Name, msg)
	h.notes.MessageFinalized(room.Name)
}

func (h *Handler) addReaction(c *Client, p reactionPayload) {
	roomName, joined := c.Room()
	if !joined {
		return
	}
	room, ok := h.registry.Get(roomName)
	if !ok {
		return
	}
	participant, ok := room.Participant(c.ID)
	if !ok {
		return
	}
	reactions, ok := room.ToggleReaction(p.MessageID, c.ID, participant.Username, p.Reaction)
	if !ok {
		h.logger.Debug("reaction on unknown message",
			zap.String("room", roomName), zap.String("message_id", p.MessageID))
		return
	}
	h.dispatcher.Broadcast(roomName, events.Event{
		Name:    events.ReactionUpdated,
		Payload: events.ReactionPayload{MessageID: p.MessageID, Reactions: reactions},
	})
}

func (h *Handler) generateNotes(ctx context.Context, c *Client, roomName string) {
	if roomName == "" {
		if joined, ok := c.Room(); ok {
			roomName = joined
		}
	}
	room, ok := h.registry.Get(roomName)
	if !ok {
		h.emitError(c, "No messages available to generate meeting notes")
		return
	}
	participant, _ := room.Participant(c.ID)

	// Summarization is slow; it must not stall the requester's own
	// message dispatch, so the read loop moves on immediately.
	go func() {
		_, err := h.notes.Generate(context.Background(), roomName, c.ID, participant.Username)
		switch {
		case err == nil:
		case errors.Is(err, notes.ErrNoMessages):
			h.emitError(c, "No messages available to generate meeting notes")
		case errors.Is(err, notes.ErrGenerationInFlight):
			h.logger.Debug("notes generation already running", zap.String("room", roomName))
		default:
			h.logger.Error("notes generation failed", zap.String("room", roomName), zap.Error(err))
			h.emitError(c, "Failed to generate meeting notes")
		}
	}()
}

// requestTTS asks target clients to play synthesized speech in the
// original speaker's voice.
func (h *Handler) requestTTS(c *Client, p ttsRequestPayload) {
	roomName := p.Room
	if roomName == "" {
		if joined, ok := c.Room(); ok {
			roomName = joined
		}
	}
	room, ok := h.registry.Get(roomName)
	if !ok {
		return
	}

	voiceID := h.defaultVoiceID
	if p.SpeakerID != "" {
		if speaker, found := room.Participant(p.SpeakerID); found && speaker.VoiceID != "" {
			voiceID = speaker.VoiceID
		}
	}

	targets := room.Participants()
	if p.ForUserID != "" {
		if target, found := room.Participant(p.ForUserID); found {
			targets = []entities.Participant{target}
		} else {
			return
		}
	}

	for _, target := range targets {
		language := p.Language
		if language == "" {
			language = target.Language
		}
		h.hub.Emit(target.ConnectionID, events.Event{
			Name: events.PlayTTS,
			Payload: events.TTSPayload{
				Text:      p.Text,
				Language:  language,
				MessageID: p.MessageID,
				VoiceID:   voiceID,
			},
		})
	}
}
