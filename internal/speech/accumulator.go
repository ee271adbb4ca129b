// Package speech tracks one participant's live speaking turn: it
// accumulates streamed transcript fragments, decides when the speaker
// is audibly "speaking", and finalizes the turn into a stored message.
package speech

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/thinkingjet/SpeakSync/internal/dispatch"
	"github.com/thinkingjet/SpeakSync/internal/domain/entities"
	"github.com/thinkingjet/SpeakSync/internal/domain/events"
	"github.com/thinkingjet/SpeakSync/internal/lang"
	"github.com/thinkingjet/SpeakSync/internal/registry"
)

// MinSpeakingWords is the accumulated word count at which a turn
// becomes visible to the room. Below it nothing is broadcast, which
// filters out coughs and one-word false starts.
const MinSpeakingWords = 2

// NotesTrigger receives a tick for every finalized non-system message
// so automatic meeting-notes generation can fire on its own schedule.
type NotesTrigger interface {
	MessageFinalized(roomName string)
}

// Session is the speech state machine for a single connection. The
// transport guarantees at most one goroutine feeds transcript events,
// but UtteranceEnd can race with Abort on disconnect, so finalization
// is guarded.
type Session struct {
	connectionID string
	roomName     string
	registry     *registry.Registry
	dispatcher   *dispatch.Dispatcher
	notes        NotesTrigger
	logger       *zap.Logger

	mu               sync.Mutex
	speaking         bool
	finals           []string
	partial          string
	crossedThreshold bool

	finalizing atomic.Bool
}

// NewSession creates an idle session bound to one connection in one
// room.
func NewSession(connectionID, roomName string, reg *registry.Registry, d *dispatch.Dispatcher, notes NotesTrigger, logger *zap.Logger) *Session {
	return &Session{
		connectionID: connectionID,
		roomName:     roomName,
		registry:     reg,
		dispatcher:   d,
		notes:        notes,
		logger:       logger,
	}
}

// SpeechStarted opens a fresh turn, discarding any leftover fragments
// from a turn that never finalized.
func (s *Session) SpeechStarted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finals = s.finals[:0]
	s.partial = ""
	s.crossedThreshold = false
}

// effectiveTextLocked joins confirmed finals with the live partial.
// Callers must hold s.mu.
func (s *Session) effectiveTextLocked() string {
	parts := make([]string, 0, len(s.finals)+1)
	parts = append(parts, s.finals...)
	if s.partial != "" {
		parts = append(parts, s.partial)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// Transcript folds one streamed fragment into the turn. Final
// fragments are confirmed and accumulated; non-final fragments
// replace the live tail. Once the accumulated text reaches
// MinSpeakingWords the turn is announced and every update is
// dispatched to the room as an interim message.
func (s *Session) Transcript(ctx context.Context, text string, isFinal bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	s.mu.Lock()
	if isFinal {
		// Recognizers re-send the tail of a confirmed segment; drop
		// finals the accumulated text already ends with.
		joined := strings.Join(s.finals, " ")
		if joined != "" && strings.HasSuffix(joined, text) {
			s.mu.Unlock()
			return
		}
		s.finals = append(s.finals, text)
		s.partial = ""
	} else {
		s.partial = text
	}

	effective := s.effectiveTextLocked()
	wordCount := len(strings.Fields(effective))
	announce := false
	if wordCount >= MinSpeakingWords && !s.crossedThreshold {
		s.crossedThreshold = true
		s.speaking = true
		announce = true
	}
	visible := s.crossedThreshold
	s.mu.Unlock()

	if !visible {
		return
	}

	participant, ok := s.participant()
	if !ok {
		return
	}
	if announce {
		s.dispatcher.Broadcast(s.roomName, events.Event{
			Name: events.SpeakingStarted,
			Payload: events.SpeakingPayload{
				UserID:    s.connectionID,
				Username:  participant.Username,
				WordCount: wordCount,
			},
		})
	}
	s.dispatcher.DispatchInterim(ctx, s.roomName, s.connectionID, participant.Username, effective, participant.Language, wordCount)
}

// UtteranceEnd closes the turn. Only recognizer-confirmed finals
// become the stored message; a trailing partial is still subject to
// revision and is discarded. Concurrent calls finalize at most once.
func (s *Session) UtteranceEnd(ctx context.Context) {
	if !s.finalizing.CompareAndSwap(false, true) {
		return
	}
	defer s.finalizing.Store(false)

	s.mu.Lock()
	confirmed := strings.TrimSpace(strings.Join(s.finals, " "))
	wasSpeaking := s.speaking
	s.finals = s.finals[:0]
	s.partial = ""
	s.crossedThreshold = false
	s.speaking = false
	s.mu.Unlock()

	participant, ok := s.participant()
	if !ok {
		return
	}

	if confirmed != "" {
		msg := entities.Message{
			ID:              entities.NewMessageID(),
			SenderID:        s.connectionID,
			SenderUsername:  participant.Username,
			Text:            confirmed,
			Language:        participant.Language,
			LanguageDisplay: lang.DisplayName(participant.Language),
			Timestamp:       time.Now(),
			IsFinal:         true,
			Reactions:       entities.Reactions{},
		}
		if room, found := s.registry.Get(s.roomName); found {
			room.AppendMessage(msg)
		}
		s.dispatcher.DispatchFinal(ctx, s.roomName, msg)
		s.notes.MessageFinalized(s.roomName)
		s.logger.Debug("utterance finalized",
			zap.String("room", s.roomName),
			zap.String("user", participant.Username),
			zap.Int("words", len(strings.Fields(confirmed))))
	}

	if wasSpeaking {
		s.dispatcher.Broadcast(s.roomName, events.Event{
			Name:    events.SpeakingStopped,
			Payload: events.SpeakingPayload{UserID: s.connectionID, Username: participant.Username},
		})
	}
}

// Abort discards the turn without storing anything. Used on mute,
// language change, and disconnect.
func (s *Session) Abort() {
	s.mu.Lock()
	wasSpeaking := s.speaking
	s.finals = s.finals[:0]
	s.partial = ""
	s.crossedThreshold = false
	s.speaking = false
	s.mu.Unlock()

	if !wasSpeaking {
		return
	}
	username := ""
	if p, ok := s.participant(); ok {
		username = p.Username
	}
	s.dispatcher.Broadcast(s.roomName, events.Event{
		Name:    events.SpeakingStopped,
		Payload: events.SpeakingPayload{UserID: s.connectionID, Username: username},
	})
}

func (s *Session) participant() (entities.Participant, bool) {
	room, ok := s.registry.Get(s.roomName)
	if !ok {
		return entities.Participant{}, false
	}
	return room.Participant(s.connectionID)
}
