package game

import (
	"sort"
	"sync"
)

// RoomStore owns the live rooms of the process.
type RoomStore struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*Room),
	}
}

func (s *RoomStore) AddRoom(room *Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = room
}

func (s *RoomStore) GetRoom(id string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, exists := s.rooms[id]
	return r, exists
}

// DeleteRoom removes the room and cancels its deadline and reveal timers.
func (s *RoomStore) DeleteRoom(id string) {
	s.mu.Lock()
	r, exists := s.rooms[id]
	delete(s.rooms, id)
	s.mu.Unlock()
	if !exists {
		return
	}
	r.Mu.Lock()
	r.close()
	r.Mu.Unlock()
}

// ListRooms returns the rooms ordered by creation time.
func (s *RoomStore) ListRooms() []*Room {
	s.mu.Lock()
	out := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
