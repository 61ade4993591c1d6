package identity

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"trivia-duel-service/internal/domain"

	"github.com/google/uuid"
)

const minUsernameLen = 3

// Registry issues and tracks anonymous user identities. The user id is the
// sole cross-request credential; usernames are mutable via Rename.
type Registry struct {
	mu    sync.RWMutex
	users map[string]*domain.User
	now   func() time.Time
}

func NewRegistry() *Registry {
	return NewRegistryWithClock(time.Now)
}

// NewRegistryWithClock allows deterministic timestamps in tests.
func NewRegistryWithClock(now func() time.Time) *Registry {
	return &Registry{
		users: make(map[string]*domain.User),
		now:   now,
	}
}

// Authenticate returns the record for existingID when known, optionally
// applying requestedName. Otherwise it mints a fresh identity with
// requestedName or a generated placeholder.
func (r *Registry) Authenticate(existingID, requestedName string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if existingID != "" {
		if user, ok := r.users[existingID]; ok {
			if requestedName != "" {
				name, err := normalizeUsername(requestedName)
				if err != nil {
					return domain.User{}, err
				}
				user.Username = name
			}
			user.LastSeen = now
			return *user, nil
		}
	}

	id := uuid.NewString()
	name := "player-" + id[:4]
	if requestedName != "" {
		normalized, err := normalizeUsername(requestedName)
		if err != nil {
			return domain.User{}, err
		}
		name = normalized
	}
	user := &domain.User{ID: id, Username: name, LastSeen: now}
	r.users[id] = user
	return *user, nil
}

// Rename updates the display name of an existing user.
func (r *Registry) Rename(id, newName string) (domain.User, error) {
	name, err := normalizeUsername(newName)
	if err != nil {
		return domain.User{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	user.Username = name
	user.LastSeen = r.now()
	return *user, nil
}

// Lookup returns the record for id.
func (r *Registry) Lookup(id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return *user, nil
}

// Touch refreshes a user's idle timer. Unknown ids are ignored.
func (r *Registry) Touch(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		user.LastSeen = r.now()
	}
}

// EvictIdle drops users not seen within ttl and returns how many were removed.
func (r *Registry) EvictIdle(ttl time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-ttl)
	evicted := 0
	for id, user := range r.users {
		if user.LastSeen.Before(cutoff) {
			delete(r.users, id)
			evicted++
		}
	}
	return evicted
}

func normalizeUsername(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if utf8.RuneCountInString(name) < minUsernameLen {
		return "", domain.ErrInvalidUsername
	}
	return name, nil
}
