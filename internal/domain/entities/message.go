package entities

import (
	"math/rand"
	"strconv"
	"time"
)

// Reactor identifies a participant who reacted to a message.
type Reactor struct {
	ConnectionID string `json:"userId"`
	Username     string `json:"username"`
}

// Reactions maps an emoji to the participants who reacted with it,
// in reaction order.
type Reactions map[string][]Reactor

// Toggle adds the reactor to the emoji's set, or removes them if they
// already reacted with this exact emoji. Empty sets are dropped so the
// map never carries emoji keys with no reactors.
func (r Reactions) Toggle(connectionID, username, emoji string) {
	reactors := r[emoji]
	for i, existing := range reactors {
		if existing.ConnectionID == connectionID {
			reactors = append(reactors[:i], reactors[i+1:]...)
			if len(reactors) == 0 {
				delete(r, emoji)
			} else {
				r[emoji] = reactors
			}
			return
		}
	}
	r[emoji] = append(reactors, Reactor{ConnectionID: connectionID, Username: username})
}

// Clone returns a deep copy safe to hand to other goroutines.
func (r Reactions) Clone() Reactions {
	out := make(Reactions, len(r))
	for emoji, reactors := range r {
		out[emoji] = append([]Reactor(nil), reactors...)
	}
	return out
}

// Message is the canonical stored form of one utterance, typed chat
// line, or system notice. Text is always the original-language text;
// translations are computed per recipient and never stored.
type Message struct {
	ID              string    `json:"id"`
	SenderID        string    `json:"userId"`
	SenderUsername  string    `json:"username"`
	Text            string    `json:"text"`
	Language        string    `json:"language"`
	LanguageDisplay string    `json:"languageDisplay,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
	IsFinal         bool      `json:"isFinal"`
	IsSystem        bool      `json:"isSystem,omitempty"`
	Reactions       Reactions `json:"reactions"`
}

// NewMessageID generates a unique message id at finalization time.
// Time-prefixed so ids sort by approximate recency.
func NewMessageID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 36) + strconv.FormatInt(rand.Int63(), 36)
}

// Clone returns a copy with its own reactions map.
func (m Message) Clone() Message {
	out := m
	out.Reactions = m.Reactions.Clone()
	return out
}
