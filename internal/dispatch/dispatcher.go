// Package dispatch turns one canonical message into a personalized
// outgoing event per room participant: verbatim for the sender and
// same-language recipients, translated for everyone else.
package dispatch

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/thinkingjet/SpeakSync/internal/domain/entities"
	"github.com/thinkingjet/SpeakSync/internal/domain/events"
	"github.com/thinkingjet/SpeakSync/internal/lang"
	"github.com/thinkingjet/SpeakSync/internal/registry"
	"github.com/thinkingjet/SpeakSync/internal/translation"
)

// Dispatcher fans one canonical message out to a room. Translations
// are requested once per distinct target language and the result is
// shared between recipients of that language; a failure for one
// target language falls back to the original text for those
// recipients only.
type Dispatcher struct {
	registry   *registry.Registry
	translator translation.Translator
	emitter    events.Emitter
	logger     *zap.Logger
}

// New constructs a dispatcher.
func New(reg *registry.Registry, tr translation.Translator, em events.Emitter, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		registry:   reg,
		translator: tr,
		emitter:    em,
		logger:     logger,
	}
}

// delivery is the per-recipient view computed by the fan-out.
type delivery struct {
	Text       string
	Translated bool
}

// fanOut partitions the room's current participants by normalized
// language, translates once per distinct foreign language, then calls
// emit for every recipient. It returns after all translation groups
// complete, so successive calls for one sender preserve event order
// per recipient.
func (d *Dispatcher) fanOut(ctx context.Context, roomName, senderID, text, sourceLang string, emit func(recipient entities.Participant, dv delivery)) {
	room, ok := d.registry.Get(roomName)
	if !ok {
		d.logger.Warn("dispatch to unknown room", zap.String("room", roomName))
		return
	}

	recipients := room.Participants()
	srcShort := lang.ShortCode(sourceLang)

	// Group foreign-language recipients by target short code.
	groups := make(map[string][]entities.Participant)
	for _, p := range recipients {
		if p.ConnectionID == senderID || lang.ShortCode(p.Language) == srcShort {
			emit(p, delivery{Text: text})
			continue
		}
		tgt := lang.ShortCode(p.Language)
		groups[tgt] = append(groups[tgt], p)
	}

	var wg sync.WaitGroup
	for tgt, members := range groups {
		wg.Add(1)
		go func(tgt string, members []entities.Participant) {
			defer wg.Done()
			translated := d.translator.Translate(ctx, text, srcShort, tgt)
			dv := delivery{Text: translated, Translated: translated != text}
			for _, p := range members {
				emit(p, dv)
			}
		}(tgt, members)
	}
	wg.Wait()
}

// DispatchFinal delivers a stored message to every participant of the
// room, personalized per recipient language.
func (d *Dispatcher) DispatchFinal(ctx context.Context, roomName string, msg entities.Message) {
	srcDisplay := lang.DisplayName(msg.Language)

	d.fanOut(ctx, roomName, msg.SenderID, msg.Text, msg.Language, func(recipient entities.Participant, dv delivery) {
		out := events.OutgoingMessage{Message: msg.Clone()}
		if dv.Translated {
			out.Text = dv.Text
			out.Translated = true
			out.OriginalLanguage = msg.Language
			out.OriginalLanguageDisplay = srcDisplay
		}
		d.emitter.Emit(recipient.ConnectionID, events.Event{Name: events.NewMessage, Payload: out})
	})
}

// DispatchInterim delivers a non-final transcript fragment the same
// way finals are delivered, flagged non-final and carrying the
// current word count.
func (d *Dispatcher) DispatchInterim(ctx context.Context, roomName, senderID, senderUsername, text, sourceLang string, wordCount int) {
	srcDisplay := lang.DisplayName(sourceLang)

	d.fanOut(ctx, roomName, senderID, text, sourceLang, func(recipient entities.Participant, dv delivery) {
		payload := events.InterimPayload{
			UserID:          senderID,
			Username:        senderUsername,
			Text:            dv.Text,
			Language:        sourceLang,
			LanguageDisplay: srcDisplay,
			IsFinal:         false,
			WordCount:       wordCount,
		}
		if dv.Translated {
			payload.Translated = true
			payload.OriginalLanguage = sourceLang
			payload.OriginalLanguageDisplay = srcDisplay
		}
		d.emitter.Emit(recipient.ConnectionID, events.Event{Name: events.InterimMessage, Payload: payload})
	})
}

// Broadcast emits the same event to every current participant of the
// room.
func (d *Dispatcher) Broadcast(roomName string, event events.Event) {
	room, ok := d.registry.Get(roomName)
	if !ok {
		return
	}
	for _, p := range room.Participants() {
		d.emitter.Emit(p.ConnectionID, event)
	}
}
