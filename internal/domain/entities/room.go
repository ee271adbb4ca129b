package entities

import (
	"sync"
	"time"
)

// MaxStoredMessages bounds a room's in-memory history. The oldest
// message is evicted when the cap is exceeded.
const MaxStoredMessages = 100

// NotesMessageThreshold is the number of finalized messages that
// triggers automatic meeting-notes generation.
const NotesMessageThreshold = 10

// Room holds all live state for one meeting room. Rooms exist only
// while occupied: created on first join, dropped when the last
// participant leaves. All state is guarded by a single coarse mutex;
// mutating methods never interleave their read-modify-write sequences.
type Room struct {
	Name string

	mu                sync.RWMutex
	participants      map[string]*Participant
	messages          []Message
	notes             []MeetingNote
	sinceLastSummary  int
	lastActivity      time.Time
}

// NewRoom creates an empty room.
func NewRoom(name string) *Room {
	return &Room{
		Name:         name,
		participants: make(map[string]*Participant),
		lastActivity: time.Now(),
	}
}

// AddParticipant inserts or overwrites the participant for its
// connection id. Idempotent per connection.
func (r *Room) AddParticipant(p *Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.JoinedAt.IsZero() {
		p.JoinedAt = time.Now()
	}
	r.participants[p.ConnectionID] = p
	r.lastActivity = time.Now()
}

// RemoveParticipant removes the connection and reports whether the
// room is now empty. Removing an unknown connection is a no-op.
func (r *Room) RemoveParticipant(connectionID string) (removed *Participant, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[connectionID]
	if !ok {
		return nil, len(r.participants) == 0
	}
	delete(r.participants, connectionID)
	return p, len(r.participants) == 0
}

// Participant returns a copy of the participant for the connection.
func (r *Room) Participant(connectionID string) (Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.participants[connectionID]
	if !ok {
		return Participant{}, false
	}
	return *p, true
}

// Participants returns a snapshot of all current participants. The
// caller must not assume later mutations are reflected.
func (r *Room) Participants() []Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Participant, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, *p)
	}
	return out
}

// Size returns the current participant count.
func (r *Room) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants)
}

// SetLanguage updates a participant's conversation language.
func (r *Room) SetLanguage(connectionID, language string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[connectionID]
	if !ok {
		return false
	}
	p.Language = language
	return true
}

// SetNotesLanguage updates a participant's meeting-notes language
// preference.
func (r *Room) SetNotesLanguage(connectionID, language string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[connectionID]
	if !ok {
		return false
	}
	p.NotesLanguage = language
	return true
}

// SetVoiceID records a cloned-voice identity for a participant.
func (r *Room) SetVoiceID(connectionID, voiceID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[connectionID]
	if !ok {
		return false
	}
	p.VoiceID = voiceID
	return true
}

// AppendMessage stores a finalized message, evicting the oldest when
// the history cap is exceeded.
func (r *Room) AppendMessage(m Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
	if len(r.messages) > MaxStoredMessages {
		r.messages = r.messages[len(r.messages)-MaxStoredMessages:]
	}
	r.lastActivity = time.Now()
}

// Messages returns a snapshot of the stored history, oldest first.
func (r *Room) Messages() []Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Message, len(r.messages))
	for i, m := range r.messages {
		out[i] = m.Clone()
	}
	return out
}

// ToggleReaction flips the (reactor, emoji) reaction on the stored
// message and returns the updated reaction map. ok is false when the
// message id is unknown.
func (r *Room) ToggleReaction(messageID, connectionID, username, emoji string) (Reactions, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.messages {
		if r.messages[i].ID != messageID {
			continue
		}
		if r.messages[i].Reactions == nil {
			r.messages[i].Reactions = make(Reactions)
		}
		r.messages[i].Reactions.Toggle(connectionID, username, emoji)
		return r.messages[i].Reactions.Clone(), true
	}
	return nil, false
}

// CountMessageForNotes increments the messages-since-last-summary
// counter and reports whether the automatic notes threshold was
// reached; the counter resets when it was.
func (r *Room) CountMessageForNotes() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinceLastSummary++
	if r.sinceLastSummary >= NotesMessageThreshold {
		r.sinceLastSummary = 0
		return true
	}
	return false
}

// AppendNote stores a generated meeting-notes document.
func (r *Room) AppendNote(n MeetingNote) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

// Notes returns a snapshot of generated meeting notes, oldest first.
func (r *Room) Notes() []MeetingNote {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]MeetingNote(nil), r.notes...)
}

// Roster returns broadcast summaries for all participants.
func (r *Room) Roster() []Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Summary, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, p.Summarize())
	}
	return out
}
