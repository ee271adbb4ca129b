package ws

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/thinkingjet/SpeakSync/internal/dispatch"
	"github.com/thinkingjet/SpeakSync/internal/infrastructure/cache"
	"github.com/thinkingjet/SpeakSync/internal/notes"
	"github.com/thinkingjet/SpeakSync/internal/registry"
	"github.com/thinkingjet/SpeakSync/internal/voice"
)

type echoTranslator struct{}

func (echoTranslator) Translate(_ context.Context, text, _, _ string) string { return text }

type staticSummarizer struct{}

func (staticSummarizer) Summarize(context.Context, string, string) (string, error) {
	return "# Meeting Notes", nil
}

type emptyDirectory struct{}

func (emptyDirectory) FindVoiceByName(context.Context, string) (string, error) { return "", nil }

type staticTranscriber struct{ text string }

func (s staticTranscriber) Transcribe(_ context.Context, _ io.Reader, _ string) (string, error) {
	return s.text, nil
}

// gatedSummarizer blocks inside Summarize until released, to observe
// what else keeps flowing while notes are being generated.
type gatedSummarizer struct {
	entered chan struct{}
	release chan struct{}
}

func (g *gatedSummarizer) Summarize(ctx context.Context, _, _ string) (string, error) {
	close(g.entered)
	select {
	case <-g.release:
		return "# Meeting Notes", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func newTestServer(t *testing.T, tr Transcriber) *httptest.Server {
	return newTestServerWith(t, tr, staticSummarizer{})
}

func newTestServerWith(t *testing.T, tr Transcriber, sum notes.Summarizer) *httptest.Server {
	t.Helper()
	logger := zap.NewNop()
	hub := NewHub(logger)
	reg := registry.New(logger)
	d := dispatch.New(reg, echoTranslator{}, hub, logger)
	ns := notes.NewService(reg, sum, echoTranslator{}, hub, time.Minute, logger)
	vr := voice.NewResolver(emptyDirectory{}, cache.NewMemoryStore(), time.Minute, logger)
	handler := NewHandler(hub, reg, d, ns, vr, tr, "default-voice", logger)

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		client := NewClient(hub, conn, handler, logger)
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump(context.Background())
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	b, err := json.Marshal(map[string]any{"event": event, "data": data})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// waitFor reads frames until one with the given event name arrives.
func waitFor(t *testing.T, conn *websocket.Conn, event string) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %q: %v", event, err)
		}
		var f struct {
			Event string         `json:"event"`
			Data  map[string]any `json:"data"`
		}
		if err := json.Unmarshal(msg, &f); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		if f.Event == event {
			return f.Data
		}
	}
}

func join(t *testing.T, conn *websocket.Conn, room, username, language string) {
	t.Helper()
	send(t, conn, "join-room", map[string]any{"room": room, "username": username, "language": language})
	waitFor(t, conn, "room-state")
}

func TestJoinDeliversRoomStateAndAnnouncement(t *testing.T) {
	srv := newTestServer(t, staticTranscriber{})

	alice := dial(t, srv)
	send(t, alice, "join-room", map[string]any{"room": "standup", "username": "alice", "language": "English"})

	state := waitFor(t, alice, "room-state")
	users := state["users"].([]any)
	if len(users) != 1 {
		t.Fatalf("roster has %d users, want 1", len(users))
	}

	sys := waitFor(t, alice, "new-message")
	if sys["text"] != "alice has joined the room." || sys["isSystem"] != true {
		t.Fatalf("system message: %v", sys)
	}

	bob := dial(t, srv)
	send(t, bob, "join-room", map[string]any{"room": "standup", "username": "bob", "language": "French"})
	joined := waitFor(t, alice, "user-joined")
	ju := joined["joinedUser"].(map[string]any)
	if ju["username"] != "bob" {
		t.Fatalf("joinedUser: %v", ju)
	}
}

func TestSendMessageReachesRoommates(t *testing.T) {
	srv := newTestServer(t, staticTranscriber{})

	alice := dial(t, srv)
	join(t, alice, "standup", "alice", "English")
	bob := dial(t, srv)
	join(t, bob, "standup", "bob", "English")
	waitFor(t, alice, "user-joined")

	send(t, alice, "send-message", map[string]any{"room": "standup", "message": "hello bob"})

	for {
		msg := waitFor(t, bob, "new-message")
		if msg["isSystem"] == true {
			continue
		}
		if msg["text"] != "hello bob" || msg["username"] != "alice" {
			t.Fatalf("message: %v", msg)
		}
		break
	}
}

func TestReactionToggleBroadcasts(t *testing.T) {
	srv := newTestServer(t, staticTranscriber{})

	alice := dial(t, srv)
	join(t, alice, "standup", "alice", "English")

	send(t, alice, "send-message", map[string]any{"room": "standup", "message": "react to this"})
	var messageID string
	for {
		msg := waitFor(t, alice, "new-message")
		if msg["isSystem"] == true {
			continue
		}
		messageID = msg["id"].(string)
		break
	}

	send(t, alice, "add-reaction", map[string]any{"room": "standup", "messageId": messageID, "reaction": "👍"})
	update := waitFor(t, alice, "message-reaction-updated")
	if update["messageId"] != messageID {
		t.Fatalf("reaction update: %v", update)
	}
	reactors := update["reactions"].(map[string]any)["👍"].([]any)
	if len(reactors) != 1 {
		t.Fatalf("reactors: %v", reactors)
	}

	// Toggling again clears the reaction.
	send(t, alice, "add-reaction", map[string]any{"room": "standup", "messageId": messageID, "reaction": "👍"})
	update = waitFor(t, alice, "message-reaction-updated")
	if _, present := update["reactions"].(map[string]any)["👍"]; present {
		t.Fatalf("reaction not removed: %v", update)
	}
}

func TestPushToTalkRunsFullDispatch(t *testing.T) {
	srv := newTestServer(t, staticTranscriber{text: "push to talk works"})

	alice := dial(t, srv)
	join(t, alice, "standup", "alice", "English")

	send(t, alice, "push-to-talk", map[string]any{"room": "standup", "audio": "aGVsbG8="})

	for {
		msg := waitFor(t, alice, "new-message")
		if msg["isSystem"] == true {
			continue
		}
		if msg["text"] != "push to talk works" {
			t.Fatalf("message: %v", msg)
		}
		break
	}
}

func TestGenerateNotesWithoutMessages(t *testing.T) {
	srv := newTestServer(t, staticTranscriber{})

	alice := dial(t, srv)
	join(t, alice, "standup", "alice", "English")

	// Only the join announcement exists, which is a system message.
	send(t, alice, "generate-meeting-notes", map[string]any{"room": "standup"})
	errEvent := waitFor(t, alice, "error")
	if errEvent["message"] != "No messages available to generate meeting notes" {
		t.Fatalf("error event: %v", errEvent)
	}
}

func TestGenerateNotesDeliversDocument(t *testing.T) {
	srv := newTestServer(t, staticTranscriber{})

	alice := dial(t, srv)
	join(t, alice, "standup", "alice", "English")

	send(t, alice, "send-message", map[string]any{"room": "standup", "message": "we decided things"})
	send(t, alice, "generate-meeting-notes", map[string]any{"room": "standup"})

	doc := waitFor(t, alice, "meeting-notes-updated")
	if doc["notes"] != "# Meeting Notes" {
		t.Fatalf("notes payload: %v", doc)
	}
	if doc["isAutoGenerated"] != false {
		t.Fatalf("manual generation flagged auto: %v", doc)
	}
}

func TestManualNotesDoNotStallMessageDispatch(t *testing.T) {
	sum := &gatedSummarizer{entered: make(chan struct{}), release: make(chan struct{})}
	srv := newTestServerWith(t, staticTranscriber{}, sum)

	alice := dial(t, srv)
	join(t, alice, "retro", "alice", "English")
	bob := dial(t, srv)
	join(t, bob, "retro", "bob", "English")
	waitFor(t, alice, "user-joined")

	send(t, alice, "send-message", map[string]any{"room": "retro", "message": "first point"})
	send(t, alice, "generate-meeting-notes", map[string]any{"room": "retro"})
	select {
	case <-sum.entered:
	case <-time.After(3 * time.Second):
		t.Fatal("summarizer never invoked")
	}

	// With the summarizer still blocked, the requester's next message
	// must go through.
	send(t, alice, "send-message", map[string]any{"room": "retro", "message": "second point"})
	for {
		msg := waitFor(t, bob, "new-message")
		if msg["isSystem"] == true || msg["text"] == "first point" {
			continue
		}
		if msg["text"] != "second point" {
			t.Fatalf("message: %v", msg)
		}
		break
	}

	close(sum.release)
	doc := waitFor(t, alice, "meeting-notes-updated")
	if doc["notes"] != "# Meeting Notes" {
		t.Fatalf("notes payload: %v", doc)
	}
}

func TestLeaveRoomAnnouncesDeparture(t *testing.T) {
	srv := newTestServer(t, staticTranscriber{})

	alice := dial(t, srv)
	join(t, alice, "standup", "alice", "English")
	bob := dial(t, srv)
	join(t, bob, "standup", "bob", "English")
	waitFor(t, alice, "user-joined")

	send(t, bob, "leave-room", map[string]any{"room": "standup"})

	left := waitFor(t, alice, "user-left")
	lu := left["leftUser"].(map[string]any)
	if lu["username"] != "bob" {
		t.Fatalf("leftUser: %v", lu)
	}
	sys := waitFor(t, alice, "new-message")
	if sys["text"] != "bob has left the room." {
		t.Fatalf("system message: %v", sys)
	}
}

func TestRequestTTSTargetsRecipient(t *testing.T) {
	srv := newTestServer(t, staticTranscriber{})

	alice := dial(t, srv)
	join(t, alice, "standup", "alice", "French")

	send(t, alice, "request-tts", map[string]any{"room": "standup", "text": "bonjour", "messageId": "m1"})

	play := waitFor(t, alice, "play-tts")
	if play["text"] != "bonjour" || play["voiceId"] != "default-voice" {
		t.Fatalf("play-tts: %v", play)
	}
	if play["language"] != "French" {
		t.Fatalf("language fallback: %v", play)
	}
}
