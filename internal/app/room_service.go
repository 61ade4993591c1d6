package app

import (
	"context"
	"fmt"
	"time"

	"trivia-duel-service/internal/domain"
	"trivia-duel-service/internal/identity"

	"github.com/rs/zerolog"
)

// DefaultMaxRounds is how many questions a room draws at creation.
const DefaultMaxRounds = 8

// roomCodeAttempts bounds collision retries during room creation.
const roomCodeAttempts = 32

// RoomRepository owns the set of live rooms (in-memory, Redis-backed, etc).
// Put must fail when the code is already taken, which is how code uniqueness
// is enforced.
type RoomRepository interface {
	Put(room *Room) bool
	Get(code string) (*Room, bool)
	Delete(code string)
	All() []*Room
}

// QuestionBank supplies ordered question sets per mode and difficulty tier.
type QuestionBank interface {
	Draw(ctx context.Context, mode domain.Mode, difficulty domain.Difficulty, count int) ([]domain.Question, error)
}

// RoomService contains the room lifecycle and round progression use cases.
type RoomService struct {
	rooms     RoomRepository
	users     *identity.Registry
	bank      QuestionBank
	maxRounds int
	now       func() time.Time
}

func NewRoomService(rooms RoomRepository, users *identity.Registry, bank QuestionBank) *RoomService {
	return NewRoomServiceWithClock(rooms, users, bank, time.Now)
}

// NewRoomServiceWithClock allows deterministic round timing in tests.
func NewRoomServiceWithClock(rooms RoomRepository, users *identity.Registry, bank QuestionBank, now func() time.Time) *RoomService {
	return &RoomService{
		rooms:     rooms,
		users:     users,
		bank:      bank,
		maxRounds: DefaultMaxRounds,
		now:       now,
	}
}

// Create draws a question set, mints a unique room code, and opens a waiting
// room with the caller as host and sole player.
func (s *RoomService) Create(ctx context.Context, userID string, mode domain.Mode, difficulty domain.Difficulty) (domain.RoomSnapshot, error) {
	user, err := s.users.Lookup(userID)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	if !mode.Valid() {
		return domain.RoomSnapshot{}, domain.ErrInvalidMode
	}
	if !difficulty.Valid() {
		return domain.RoomSnapshot{}, domain.ErrInvalidDifficulty
	}

	questions, err := s.bank.Draw(ctx, mode, difficulty, s.maxRounds)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}

	for attempt := 0; attempt < roomCodeAttempts; attempt++ {
		room := newRoomWithClock(newRoomCode(), mode, difficulty, questions, s.now)
		// Seat the host before publishing so the sweep never observes the
		// room empty.
		snap, err := room.join(user)
		if err != nil {
			return domain.RoomSnapshot{}, err
		}
		if !s.rooms.Put(room) {
			continue
		}
		return snap, nil
	}
	return domain.RoomSnapshot{}, fmt.Errorf("could not allocate a unique room code after %d attempts", roomCodeAttempts)
}

// Join adds the caller to a waiting room.
func (s *RoomService) Join(ctx context.Context, userID, code string) (domain.RoomSnapshot, error) {
	user, err := s.users.Lookup(userID)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	room, ok := s.rooms.Get(normalizeRoomCode(code))
	if !ok {
		return domain.RoomSnapshot{}, domain.ErrRoomNotFound
	}
	return room.join(user)
}

// Leave removes the caller from the room, transferring host authority if
// needed, and deletes the room when nobody remains. Reports whether the room
// was deleted.
func (s *RoomService) Leave(userID, code string) (bool, error) {
	normalized := normalizeRoomCode(code)
	room, ok := s.rooms.Get(normalized)
	if !ok {
		return false, domain.ErrRoomNotFound
	}
	if room.leave(userID) {
		s.rooms.Delete(normalized)
		room.closeWithNotice("room closed: last player left")
		return true, nil
	}
	return false, nil
}

// Start transitions a waiting room to playing. Host-only; needs both seats
// filled.
func (s *RoomService) Start(userID, code string) (domain.RoomSnapshot, error) {
	room, ok := s.rooms.Get(normalizeRoomCode(code))
	if !ok {
		return domain.RoomSnapshot{}, domain.ErrRoomNotFound
	}
	return room.start(userID)
}

// Submit records the caller's answer for the given round and returns the score
// delta it earned.
func (s *RoomService) Submit(userID, code string, round int, submission []string) (int, int, domain.RoomSnapshot, error) {
	room, ok := s.rooms.Get(normalizeRoomCode(code))
	if !ok {
		return 0, 0, domain.RoomSnapshot{}, domain.ErrRoomNotFound
	}
	return room.submit(userID, round, submission)
}

// Advance moves the room to the next round, or to finished after the last
// one. Host-only.
func (s *RoomService) Advance(userID, code string) (domain.RoomSnapshot, error) {
	room, ok := s.rooms.Get(normalizeRoomCode(code))
	if !ok {
		return domain.RoomSnapshot{}, domain.ErrRoomNotFound
	}
	return room.advance(userID)
}

// Get returns the current room snapshot. Polling clients call this
// repeatedly; round expiry is a pure function of the stored timestamps, so
// reads never mutate anything.
func (s *RoomService) Get(code string) (domain.RoomSnapshot, error) {
	room, ok := s.rooms.Get(normalizeRoomCode(code))
	if !ok {
		return domain.RoomSnapshot{}, domain.ErrRoomNotFound
	}
	return room.snapshot(), nil
}

// Subscribe returns a channel of room events. The caller must invoke the
// returned cancel function to avoid leaks.
func (s *RoomService) Subscribe(code string) (<-chan Event, func(), error) {
	room, ok := s.rooms.Get(normalizeRoomCode(code))
	if !ok {
		return nil, nil, domain.ErrRoomNotFound
	}
	ch, cancel := room.subscribe()
	return ch, cancel, nil
}

// Rename changes a user's display name and pushes refreshed snapshots to any
// room that seats them.
func (s *RoomService) Rename(userID, newUsername string) (domain.User, error) {
	user, err := s.users.Rename(userID, newUsername)
	if err != nil {
		return domain.User{}, err
	}
	for _, room := range s.rooms.All() {
		room.refreshUsername(user.ID, user.Username)
	}
	return user, nil
}

// ReaperConfig tunes the background sweep.
type ReaperConfig struct {
	Interval   time.Duration
	RoomTTL    time.Duration
	UserTTL    time.Duration
	RoundGrace time.Duration
}

// Sweep runs one reaper pass: empty rooms go immediately, idle rooms after
// RoomTTL, rounds stuck past deadline+RoundGrace are force-advanced, and idle
// users are evicted. Each room is handled under its own lock; an operation
// racing a deletion either completes first or observes room-not-found.
func (s *RoomService) Sweep(cfg ReaperConfig) (roomsDeleted, usersEvicted int) {
	for _, room := range s.rooms.All() {
		switch {
		case room.isEmpty():
			s.rooms.Delete(room.ID())
			room.closeWithNotice("room closed: empty")
			roomsDeleted++
		case room.idleFor() >= cfg.RoomTTL:
			s.rooms.Delete(room.ID())
			room.closeWithNotice("room closed: idle timeout")
			roomsDeleted++
		default:
			room.advanceIfExpired(cfg.RoundGrace)
		}
	}
	usersEvicted = s.users.EvictIdle(cfg.UserTTL)
	return roomsDeleted, usersEvicted
}

// RunReaper sweeps periodically until ctx is canceled.
func (s *RoomService) RunReaper(ctx context.Context, cfg ReaperConfig, log zerolog.Logger) {
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rooms, users := s.Sweep(cfg)
			if rooms > 0 || users > 0 {
				log.Info().Int("rooms", rooms).Int("users", users).Msg("reaper pass")
			}
		}
	}
}
