// Package notes generates meeting-notes documents from a room's
// transcript and delivers them to participants in their preferred
// notes language.
package notes

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/thinkingjet/SpeakSync/internal/domain/entities"
	"github.com/thinkingjet/SpeakSync/internal/domain/events"
	"github.com/thinkingjet/SpeakSync/internal/lang"
	"github.com/thinkingjet/SpeakSync/internal/registry"
	"github.com/thinkingjet/SpeakSync/internal/translation"
)

var (
	// ErrNoMessages means the room has no summarizable transcript.
	ErrNoMessages = errors.New("notes: no messages to summarize")

	// ErrGenerationInFlight means a generation for the room is already
	// running; the caller should not start another.
	ErrGenerationInFlight = errors.New("notes: generation already in flight")
)

// Summarizer produces a meeting-notes document from a transcript
// prompt.
type Summarizer interface {
	Summarize(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Service owns notes generation for all rooms. At most one generation
// runs per room at a time; concurrent triggers are dropped rather
// than queued, since the next threshold crossing regenerates anyway.
type Service struct {
	registry   *registry.Registry
	summarizer Summarizer
	translator translation.Translator
	emitter    events.Emitter
	logger     *zap.Logger
	timeout    time.Duration

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewService constructs the notes service. timeout bounds one
// automatic generation run end to end.
func NewService(reg *registry.Registry, sum Summarizer, tr translation.Translator, em events.Emitter, timeout time.Duration, logger *zap.Logger) *Service {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Service{
		registry:   reg,
		summarizer: sum,
		translator: tr,
		emitter:    em,
		logger:     logger,
		timeout:    timeout,
		inFlight:   make(map[string]bool),
	}
}

// MessageFinalized records one finalized message and kicks off
// automatic generation in the background when the room crosses its
// threshold. Never blocks the caller.
func (s *Service) MessageFinalized(roomName string) {
	room, ok := s.registry.Get(roomName)
	if !ok {
		return
	}
	if !room.CountMessageForNotes() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if _, err := s.generate(ctx, roomName, "", "", true); err != nil && !errors.Is(err, ErrGenerationInFlight) {
			s.logger.Warn("automatic notes generation failed",
				zap.String("room", roomName), zap.Error(err))
		}
	}()
}

// Generate runs an explicitly requested generation and returns the
// untranslated notes text. Participants still receive their
// personalized deliveries as a side effect.
func (s *Service) Generate(ctx context.Context, roomName, requesterID, requesterUsername string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.generate(ctx, roomName, requesterID, requesterUsername, false)
}

func (s *Service) acquire(roomName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[roomName] {
		return false
	}
	s.inFlight[roomName] = true
	return true
}

func (s *Service) release(roomName string) {
	s.mu.Lock()
	delete(s.inFlight, roomName)
	s.mu.Unlock()
}

func (s *Service) generate(ctx context.Context, roomName, requesterID, requesterUsername string, auto bool) (string, error) {
	room, ok := s.registry.Get(roomName)
	if !ok {
		return "", ErrNoMessages
	}

	participants := room.Participants()
	messages := room.Messages()
	p, ok := buildPrompt(roomName, participants, messages)
	if !ok {
		return "", ErrNoMessages
	}

	if !s.acquire(roomName) {
		return "", ErrGenerationInFlight
	}
	defer s.release(roomName)

	started := time.Now()
	text, err := s.summarizer.Summarize(ctx, p.System, p.User)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("notes: summarizer returned empty document")
	}

	note := entities.MeetingNote{
		Text:                text,
		Timestamp:           time.Now(),
		MessageCount:        len(messages),
		AutoGenerated:       auto,
		GeneratedByID:       requesterID,
		GeneratedByUsername: requesterUsername,
	}
	room.AppendNote(note)

	s.logger.Info("meeting notes generated",
		zap.String("room", roomName),
		zap.Bool("auto", auto),
		zap.Int("messages", note.MessageCount),
		zap.Duration("took", time.Since(started)))

	s.deliver(ctx, room, note)
	return text, nil
}

// deliver translates the document once per distinct notes language
// and emits the personalized payload to each participant. Recipients
// are re-read from the room after generation so late joiners get the
// document too.
func (s *Service) deliver(ctx context.Context, room *entities.Room, note entities.MeetingNote) {
	recipients := room.Participants()

	groups := make(map[string][]entities.Participant)
	for _, p := range recipients {
		target := lang.ShortCode(p.EffectiveNotesLanguage())
		groups[target] = append(groups[target], p)
	}

	var wg sync.WaitGroup
	for target, members := range groups {
		wg.Add(1)
		go func(target string, members []entities.Participant) {
			defer wg.Done()
			text := translation.TranslateBlocks(ctx, s.translator, note.Text, target)
			payload := events.NotesPayload{
				Notes:               text,
				Timestamp:           note.Timestamp,
				AutoGenerated:       note.AutoGenerated,
				GeneratedByID:       note.GeneratedByID,
				GeneratedByUsername: note.GeneratedByUsername,
				Translated:          text != note.Text,
			}
			for _, p := range members {
				s.emitter.Emit(p.ConnectionID, events.Event{Name: events.NotesUpdated, Payload: payload})
			}
		}(target, members)
	}
	wg.Wait()
}
