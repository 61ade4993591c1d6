package redis

import (
	"context"
	"sync"
	"time"

	"trivia-duel-service/internal/app"

	"github.com/redis/go-redis/v9"
)

// RoomStore is a Redis-aware implementation of app.RoomRepository.
// Notes:
//   - Room state itself stays in the local map so the in-process round engine
//     and broadcast fan-out keep working unchanged.
//   - Redis marks room-code liveness, so codes stay unique across restarts
//     within the TTL and the set of live codes is observable from outside.
//   - For true distribution you'd pair this with a pub/sub projector that
//     fans snapshots out across instances.
type RoomStore struct {
	client *redis.Client
	ttl    time.Duration

	mu    sync.RWMutex
	rooms map[string]*app.Room
}

func NewRoomStore(client *redis.Client, ttl time.Duration) *RoomStore {
	return &RoomStore{
		client: client,
		ttl:    ttl,
		rooms:  make(map[string]*app.Room),
	}
}

func (s *RoomStore) Put(room *app.Room) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.ID()]; ok {
		return false
	}
	// SETNX so a code held by another instance also counts as a collision.
	ok, err := s.client.SetNX(context.Background(), s.key(room.ID()), "1", s.ttl).Result()
	if err == nil && !ok {
		return false
	}
	s.rooms[room.ID()] = room
	return true
}

func (s *RoomStore) Get(code string) (*app.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[code]
	return room, ok
}

func (s *RoomStore) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[code]; !ok {
		return
	}
	delete(s.rooms, code)
	_ = s.client.Del(context.Background(), s.key(code)).Err()
}

func (s *RoomStore) All() []*app.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rooms := make([]*app.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

func (s *RoomStore) key(code string) string {
	return "room:live:" + code
}
