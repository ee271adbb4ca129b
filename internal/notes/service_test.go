package notes

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/thinkingjet/SpeakSync/internal/domain/entities"
	"github.com/thinkingjet/SpeakSync/internal/domain/events"
	"github.com/thinkingjet/SpeakSync/internal/registry"
)

type sinkEmitter struct {
	mu   sync.Mutex
	sent map[string][]events.Event
}

func newSinkEmitter() *sinkEmitter {
	return &sinkEmitter{sent: make(map[string][]events.Event)}
}

func (e *sinkEmitter) Emit(connectionID string, event events.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent[connectionID] = append(e.sent[connectionID], event)
}

func (e *sinkEmitter) notesFor(connectionID string) (events.NotesPayload, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ev := range e.sent[connectionID] {
		if ev.Name == events.NotesUpdated {
			return ev.Payload.(events.NotesPayload), true
		}
	}
	return events.NotesPayload{}, false
}

type fakeSummarizer struct {
	mu      sync.Mutex
	calls   int
	fired   chan struct{}
	release chan struct{}
	text    string
	err     error
}

func (f *fakeSummarizer) Summarize(ctx context.Context, _, _ string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.fired != nil {
		f.fired <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type tagTranslator struct{}

func (tagTranslator) Translate(_ context.Context, text, _, targetLang string) string {
	return "[" + targetLang + "] " + text
}

func seedRoom(reg *registry.Registry, roomName string, participants ...*entities.Participant) *entities.Room {
	var room *entities.Room
	for _, p := range participants {
		room = reg.Join(roomName, p)
	}
	return room
}

func TestGenerateStoresAndDeliversPerLanguage(t *testing.T) {
	reg := registry.New(zap.NewNop())
	em := newSinkEmitter()
	sum := &fakeSummarizer{text: "# Meeting Notes\n\nWe agreed to ship."}
	svc := NewService(reg, sum, tagTranslator{}, em, time.Minute, zap.NewNop())

	room := seedRoom(reg, "standup",
		&entities.Participant{ConnectionID: "alice", Username: "alice", Language: "English"},
		&entities.Participant{ConnectionID: "carol", Username: "carol", Language: "French"},
	)
	room.AppendMessage(entities.Message{ID: "m1", SenderUsername: "alice", Text: "let's ship friday", IsFinal: true})
	room.AppendMessage(entities.Message{ID: "m2", SenderUsername: "carol", Text: "d'accord", IsFinal: true})

	text, err := svc.Generate(context.Background(), "standup", "alice", "alice")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != sum.text {
		t.Fatalf("returned %q", text)
	}

	stored := room.Notes()
	if len(stored) != 1 || stored[0].AutoGenerated || stored[0].GeneratedByUsername != "alice" {
		t.Fatalf("stored notes: %+v", stored)
	}

	// English recipient gets the document untranslated.
	p, ok := em.notesFor("alice")
	if !ok {
		t.Fatal("alice got no notes")
	}
	if p.Notes != sum.text || p.Translated {
		t.Fatalf("alice payload: %+v", p)
	}

	// French recipient gets a block-wise translation.
	p, ok = em.notesFor("carol")
	if !ok {
		t.Fatal("carol got no notes")
	}
	if !strings.Contains(p.Notes, "[fr]") || !p.Translated {
		t.Fatalf("carol payload: %+v", p)
	}
}

func TestGenerateHonorsNotesLanguageOverride(t *testing.T) {
	reg := registry.New(zap.NewNop())
	em := newSinkEmitter()
	sum := &fakeSummarizer{text: "# Meeting Notes\n\nShort."}
	svc := NewService(reg, sum, tagTranslator{}, em, time.Minute, zap.NewNop())

	room := seedRoom(reg, "standup",
		&entities.Participant{ConnectionID: "dave", Username: "dave", Language: "French", NotesLanguage: "Spanish"},
	)
	room.AppendMessage(entities.Message{ID: "m1", SenderUsername: "dave", Text: "hola", IsFinal: true})

	if _, err := svc.Generate(context.Background(), "standup", "dave", "dave"); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	p, _ := em.notesFor("dave")
	if !strings.Contains(p.Notes, "[es]") {
		t.Fatalf("notes language override ignored: %+v", p)
	}
}

func TestGenerateWithoutMessages(t *testing.T) {
	reg := registry.New(zap.NewNop())
	svc := NewService(reg, &fakeSummarizer{text: "x"}, tagTranslator{}, newSinkEmitter(), time.Minute, zap.NewNop())

	room := seedRoom(reg, "standup", &entities.Participant{ConnectionID: "a", Username: "a", Language: "English"})
	room.AppendMessage(entities.Message{ID: "sys", Text: "a joined the room", IsSystem: true})

	if _, err := svc.Generate(context.Background(), "standup", "a", "a"); !errors.Is(err, ErrNoMessages) {
		t.Fatalf("err = %v, want ErrNoMessages", err)
	}
	if _, err := svc.Generate(context.Background(), "ghost", "a", "a"); !errors.Is(err, ErrNoMessages) {
		t.Fatalf("unknown room err = %v, want ErrNoMessages", err)
	}
}

func TestConcurrentGenerationIsRejected(t *testing.T) {
	reg := registry.New(zap.NewNop())
	sum := &fakeSummarizer{text: "# Meeting Notes", fired: make(chan struct{}, 1), release: make(chan struct{})}
	svc := NewService(reg, sum, tagTranslator{}, newSinkEmitter(), time.Minute, zap.NewNop())

	room := seedRoom(reg, "standup", &entities.Participant{ConnectionID: "a", Username: "a", Language: "English"})
	room.AppendMessage(entities.Message{ID: "m1", SenderUsername: "a", Text: "hello world", IsFinal: true})

	done := make(chan error, 1)
	go func() {
		_, err := svc.Generate(context.Background(), "standup", "a", "a")
		done <- err
	}()
	<-sum.fired

	if _, err := svc.Generate(context.Background(), "standup", "b", "b"); !errors.Is(err, ErrGenerationInFlight) {
		t.Fatalf("err = %v, want ErrGenerationInFlight", err)
	}

	close(sum.release)
	if err := <-done; err != nil {
		t.Fatalf("first generation failed: %v", err)
	}
}

func TestAutomaticGenerationFiresAtThreshold(t *testing.T) {
	reg := registry.New(zap.NewNop())
	sum := &fakeSummarizer{text: "# Meeting Notes", fired: make(chan struct{}, 2)}
	svc := NewService(reg, sum, tagTranslator{}, newSinkEmitter(), time.Minute, zap.NewNop())

	room := seedRoom(reg, "standup", &entities.Participant{ConnectionID: "a", Username: "a", Language: "English"})

	for i := 0; i < entities.NotesMessageThreshold; i++ {
		room.AppendMessage(entities.Message{ID: entities.NewMessageID(), SenderUsername: "a", Text: "update", IsFinal: true})
		svc.MessageFinalized("standup")
	}

	select {
	case <-sum.fired:
	case <-time.After(2 * time.Second):
		t.Fatal("automatic generation never started")
	}

	// One more finalized message stays below the reset counter.
	room.AppendMessage(entities.Message{ID: entities.NewMessageID(), SenderUsername: "a", Text: "more", IsFinal: true})
	svc.MessageFinalized("standup")
	select {
	case <-sum.fired:
		t.Fatal("generation fired again below threshold")
	case <-time.After(100 * time.Millisecond):
	}

	sum.mu.Lock()
	defer sum.mu.Unlock()
	if sum.calls != 1 {
		t.Fatalf("summarizer called %d times, want 1", sum.calls)
	}
}
