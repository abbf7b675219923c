// internal/relay/store.go
package relay

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Store manages active relay rooms in memory. Rooms are created on
// first attach and deleted when their last connection leaves; there is
// no registry of valid codes, any well-formed code names a room.
type Store struct {
	mu    sync.Mutex
	rooms map[string]*Room
	log   logrus.FieldLogger
}

// NewStore initializes an empty Store.
func NewStore(log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{
		rooms: make(map[string]*Room),
		log:   log,
	}
}

// GetOrCreateRoom returns the room for the code, creating it with an
// OnEmpty cleanup hook on first use.
func (s *Store) GetOrCreateRoom(code string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[code]; ok {
		return r
	}
	r := NewRoom(code, s.log)
	r.OnEmpty = s.DeleteRoom
	s.rooms[code] = r
	s.log.WithField("room", code).Info("relay room created")
	return r
}

// GetRoom retrieves a room by code.
func (s *Store) GetRoom(code string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[code]
	return r, ok
}

// DeleteRoom removes a room from the store, typically via OnEmpty.
func (s *Store) DeleteRoom(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[code]; ok {
		delete(s.rooms, code)
		s.log.WithField("room", code).Info("relay room deleted")
	}
}

// Count returns the number of active rooms.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}
