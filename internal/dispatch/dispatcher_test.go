package dispatch

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/thinkingjet/SpeakSync/internal/domain/entities"
	"github.com/thinkingjet/SpeakSync/internal/domain/events"
	"github.com/thinkingjet/SpeakSync/internal/registry"
)

type recordingEmitter struct {
	mu   sync.Mutex
	sent map[string][]events.Event
}

func newRecordingEmitter() *recordingEmitter {
	return &recordingEmitter{sent: make(map[string][]events.Event)}
}

func (e *recordingEmitter) Emit(connectionID string, event events.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent[connectionID] = append(e.sent[connectionID], event)
}

func (e *recordingEmitter) last(connectionID string) (events.Event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	evs := e.sent[connectionID]
	if len(evs) == 0 {
		return events.Event{}, false
	}
	return evs[len(evs)-1], true
}

// countingTranslator tags text with the target language and counts
// calls per target so tests can assert one call per distinct language.
type countingTranslator struct {
	mu    sync.Mutex
	calls map[string]int
	fail  bool
}

func newCountingTranslator() *countingTranslator {
	return &countingTranslator{calls: make(map[string]int)}
}

func (t *countingTranslator) Translate(_ context.Context, text, _, targetLang string) string {
	t.mu.Lock()
	t.calls[targetLang]++
	t.mu.Unlock()
	if t.fail {
		return text
	}
	return "[" + targetLang + "] " + text
}

func roomWith(t *testing.T, reg *registry.Registry, roomName string, participants ...entities.Participant) {
	t.Helper()
	for i := range participants {
		reg.Join(roomName, &participants[i])
	}
}

func TestDispatchFinalPartitionsByLanguage(t *testing.T) {
	reg := registry.New(zap.NewNop())
	em := newRecordingEmitter()
	tr := newCountingTranslator()
	d := New(reg, tr, em, zap.NewNop())

	roomWith(t, reg, "standup",
		entities.Participant{ConnectionID: "alice", Username: "alice", Language: "en-US"},
		entities.Participant{ConnectionID: "bob", Username: "bob", Language: "English"},
		entities.Participant{ConnectionID: "carol", Username: "carol", Language: "French"},
		entities.Participant{ConnectionID: "dave", Username: "dave", Language: "fr-FR"},
		entities.Participant{ConnectionID: "erin", Username: "erin", Language: "Spanish"},
	)

	msg := entities.Message{
		ID:             entities.NewMessageID(),
		SenderID:       "alice",
		SenderUsername: "alice",
		Text:           "good morning",
		Language:       "en-US",
		Timestamp:      time.Now(),
		IsFinal:        true,
		Reactions:      entities.Reactions{},
	}
	d.DispatchFinal(context.Background(), "standup", msg)

	// Sender and the same-language recipient get the text verbatim.
	for _, id := range []string{"alice", "bob"} {
		ev, ok := em.last(id)
		if !ok {
			t.Fatalf("no event delivered to %s", id)
		}
		out := ev.Payload.(events.OutgoingMessage)
		if out.Text != "good morning" || out.Translated {
			t.Fatalf("%s: got %q translated=%v, want verbatim", id, out.Text, out.Translated)
		}
	}

	// French recipients share one translation.
	for _, id := range []string{"carol", "dave"} {
		ev, _ := em.last(id)
		out := ev.Payload.(events.OutgoingMessage)
		if out.Text != "[fr] good morning" {
			t.Fatalf("%s: got %q, want french translation", id, out.Text)
		}
		if !out.Translated || out.OriginalLanguage != "en-US" {
			t.Fatalf("%s: translated=%v originalLanguage=%q", id, out.Translated, out.OriginalLanguage)
		}
	}

	ev, _ := em.last("erin")
	if out := ev.Payload.(events.OutgoingMessage); out.Text != "[es] good morning" {
		t.Fatalf("erin: got %q, want spanish translation", out.Text)
	}

	if tr.calls["fr"] != 1 {
		t.Fatalf("french translated %d times, want 1", tr.calls["fr"])
	}
	if tr.calls["es"] != 1 {
		t.Fatalf("spanish translated %d times, want 1", tr.calls["es"])
	}
	if tr.calls["en"] != 0 {
		t.Fatalf("english should never be translated, got %d calls", tr.calls["en"])
	}
}

func TestDispatchFinalFallbackIsNotFlaggedTranslated(t *testing.T) {
	reg := registry.New(zap.NewNop())
	em := newRecordingEmitter()
	tr := newCountingTranslator()
	tr.fail = true
	d := New(reg, tr, em, zap.NewNop())

	roomWith(t, reg, "standup",
		entities.Participant{ConnectionID: "alice", Username: "alice", Language: "English"},
		entities.Participant{ConnectionID: "carol", Username: "carol", Language: "French"},
	)

	msg := entities.Message{
		ID:        entities.NewMessageID(),
		SenderID:  "alice",
		Text:      "hello there",
		Language:  "English",
		Reactions: entities.Reactions{},
	}
	d.DispatchFinal(context.Background(), "standup", msg)

	ev, _ := em.last("carol")
	out := ev.Payload.(events.OutgoingMessage)
	if out.Text != "hello there" {
		t.Fatalf("got %q, want original text on fallback", out.Text)
	}
	if out.Translated {
		t.Fatal("fallback delivery must not be flagged translated")
	}
}

func TestDispatchInterimCarriesWordCount(t *testing.T) {
	reg := registry.New(zap.NewNop())
	em := newRecordingEmitter()
	tr := newCountingTranslator()
	d := New(reg, tr, em, zap.NewNop())

	roomWith(t, reg, "standup",
		entities.Participant{ConnectionID: "alice", Username: "alice", Language: "English"},
		entities.Participant{ConnectionID: "carol", Username: "carol", Language: "French"},
	)

	d.DispatchInterim(context.Background(), "standup", "alice", "alice", "so far this", "English", 3)

	ev, _ := em.last("alice")
	p := ev.Payload.(events.InterimPayload)
	if p.Text != "so far this" || p.IsFinal || p.WordCount != 3 {
		t.Fatalf("sender interim: %+v", p)
	}

	ev, _ = em.last("carol")
	p = ev.Payload.(events.InterimPayload)
	if !strings.HasPrefix(p.Text, "[fr] ") || !p.Translated {
		t.Fatalf("recipient interim: %+v", p)
	}
	if ev.Name != events.InterimMessage {
		t.Fatalf("event name %q", ev.Name)
	}
}

func TestDispatchUnknownRoomIsNoop(t *testing.T) {
	reg := registry.New(zap.NewNop())
	em := newRecordingEmitter()
	d := New(reg, newCountingTranslator(), em, zap.NewNop())

	d.DispatchFinal(context.Background(), "ghost", entities.Message{SenderID: "x", Text: "hi", Language: "English"})

	em.mu.Lock()
	defer em.mu.Unlock()
	if len(em.sent) != 0 {
		t.Fatalf("expected no deliveries, got %v", em.sent)
	}
}

func TestBroadcastReachesEveryParticipant(t *testing.T) {
	reg := registry.New(zap.NewNop())
	em := newRecordingEmitter()
	d := New(reg, newCountingTranslator(), em, zap.NewNop())

	roomWith(t, reg, "standup",
		entities.Participant{ConnectionID: "alice", Language: "English"},
		entities.Participant{ConnectionID: "bob", Language: "French"},
	)

	d.Broadcast("standup", events.Event{Name: events.SpeakingStopped, Payload: events.SpeakingPayload{UserID: "alice"}})

	for _, id := range []string{"alice", "bob"} {
		ev, ok := em.last(id)
		if !ok || ev.Name != events.SpeakingStopped {
			t.Fatalf("%s missed broadcast", id)
		}
	}
}
