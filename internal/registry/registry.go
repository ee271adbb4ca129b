// Package registry owns the in-memory map of room name to live room
// state. Rooms are created on first join and deleted when the last
// participant leaves; nothing survives a restart.
package registry

import (
	"sync"

	"go.uber.org/zap"

	"github.com/thinkingjet/SpeakSync/internal/domain/entities"
)

// Registry is the room lifecycle owner. It is injected into the
// dispatcher, accumulator and notes service rather than accessed as
// ambient state, so independent registries can run side by side.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]*entities.Room
	logger *zap.Logger
}

// New creates an empty registry.
func New(logger *zap.Logger) *Registry {
	return &Registry{
		rooms:  make(map[string]*entities.Room),
		logger: logger,
	}
}

// GetOrCreate returns the room, creating it when absent.
func (r *Registry) GetOrCreate(name string) *entities.Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[name]
	if !ok {
		room = entities.NewRoom(name)
		r.rooms[name] = room
		r.logger.Info("room created", zap.String("room", name))
	}
	return room
}

// Get returns the room when it exists.
func (r *Registry) Get(name string) (*entities.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[name]
	return room, ok
}

// Join adds the participant to the room, creating the room on first
// join. Idempotent per connection id.
func (r *Registry) Join(roomName string, p *entities.Participant) *entities.Room {
	room := r.GetOrCreate(roomName)
	room.AddParticipant(p)
	r.logger.Info("participant joined",
		zap.String("room", roomName),
		zap.String("connection", p.ConnectionID),
		zap.String("username", p.Username),
		zap.String("language", p.Language),
	)
	return room
}

// Leave removes the connection from the room. When the room becomes
// empty it is deleted entirely; no orphaned empty rooms remain.
func (r *Registry) Leave(roomName, connectionID string) (removed *entities.Participant, deleted bool) {
	r.mu.Lock()
	room, ok := r.rooms[roomName]
	if !ok {
		r.mu.Unlock()
		return nil, false
	}
	removed, empty := room.RemoveParticipant(connectionID)
	if empty {
		delete(r.rooms, roomName)
	}
	r.mu.Unlock()

	if removed != nil {
		r.logger.Info("participant left",
			zap.String("room", roomName),
			zap.String("connection", connectionID),
			zap.String("username", removed.Username),
		)
	}
	if empty {
		r.logger.Info("room deleted", zap.String("room", roomName))
	}
	return removed, empty
}

// FindByConnection locates the room holding a connection id.
func (r *Registry) FindByConnection(connectionID string) (*entities.Room, entities.Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, room := range r.rooms {
		if p, ok := room.Participant(connectionID); ok {
			return room, p, true
		}
	}
	return nil, entities.Participant{}, false
}

// RoomCount returns the number of live rooms.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
