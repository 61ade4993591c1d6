package app

import (
	"sort"
	"sync"
	"time"

	"trivia-duel-service/internal/domain"
)

// MaxPlayers is the fixed room capacity for a duel.
const MaxPlayers = 2

// Event is what room subscribers receive: either a fresh snapshot, or a
// deletion notice when the room is removed.
type Event struct {
	Room    *domain.RoomSnapshot
	Deleted bool
	Reason  string
}

type playerState struct {
	id       string
	username string
	score    int
	answered bool
}

// Room is the independently lockable unit of game state. All mutations happen
// under its mutex, so concurrent submits, joins, and leaves for the same room
// serialize in arrival order while different rooms proceed in parallel.
type Room struct {
	id         string
	mode       domain.Mode
	difficulty domain.Difficulty
	maxRounds  int
	now        func() time.Time

	mu           sync.Mutex
	status       domain.Status
	hostID       string
	players      []*playerState
	questions    []domain.Question
	currentRound int
	roundStart   time.Time
	answers      map[string][]string
	lastActivity time.Time
	closed       bool
	subscribers  map[chan Event]struct{}
}

// NewRoom opens a waiting room with the given code and question set.
func NewRoom(id string, mode domain.Mode, difficulty domain.Difficulty, questions []domain.Question) *Room {
	return newRoomWithClock(id, mode, difficulty, questions, time.Now)
}

// newRoomWithClock allows deterministic round timing in tests.
func newRoomWithClock(id string, mode domain.Mode, difficulty domain.Difficulty, questions []domain.Question, now func() time.Time) *Room {
	return &Room{
		id:           id,
		mode:         mode,
		difficulty:   difficulty,
		maxRounds:    len(questions),
		now:          now,
		status:       domain.StatusWaiting,
		questions:    questions,
		answers:      make(map[string][]string),
		lastActivity: now(),
		subscribers:  make(map[chan Event]struct{}),
	}
}

// ID returns the room code.
func (r *Room) ID() string {
	return r.id
}

func (r *Room) join(user domain.User) (domain.RoomSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return domain.RoomSnapshot{}, domain.ErrRoomNotFound
	}
	for _, p := range r.players {
		if p.id == user.ID {
			// Rejoin by a current player refreshes the name, nothing else.
			p.username = user.Username
			return r.broadcastLocked(), nil
		}
	}
	if r.status != domain.StatusWaiting {
		return domain.RoomSnapshot{}, domain.ErrInvalidState
	}
	if len(r.players) >= MaxPlayers {
		return domain.RoomSnapshot{}, domain.ErrRoomFull
	}

	r.players = append(r.players, &playerState{id: user.ID, username: user.Username})
	if r.hostID == "" {
		r.hostID = user.ID
	}
	r.touchLocked()
	return r.broadcastLocked(), nil
}

// leave removes the player. Leaving mid-round forfeits that round for the
// leaver; the other player's progress is unaffected. The departing host's
// authority passes to the remaining player. Returns whether the room is now
// empty, in which case the caller deletes it.
func (r *Room) leave(userID string) (empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, p := range r.players {
		if p.id == userID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return len(r.players) == 0
	}

	r.players = append(r.players[:idx], r.players[idx+1:]...)
	delete(r.answers, userID)
	if r.hostID == userID && len(r.players) > 0 {
		r.hostID = r.players[0].id
	}
	r.touchLocked()
	if len(r.players) == 0 {
		return true
	}
	r.broadcastLocked()
	return false
}

func (r *Room) start(userID string) (domain.RoomSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return domain.RoomSnapshot{}, domain.ErrRoomNotFound
	}
	if r.status != domain.StatusWaiting {
		return domain.RoomSnapshot{}, domain.ErrInvalidState
	}
	if userID != r.hostID {
		return domain.RoomSnapshot{}, domain.ErrNotHost
	}
	if len(r.players) < MaxPlayers {
		return domain.RoomSnapshot{}, domain.ErrInsufficientPlayers
	}

	r.status = domain.StatusPlaying
	r.currentRound = 0
	for _, p := range r.players {
		p.score = 0
		p.answered = false
	}
	r.answers = make(map[string][]string)
	r.roundStart = r.now()
	r.touchLocked()
	return r.broadcastLocked(), nil
}

// submit admits exactly one answer per player per round and applies the score
// delta immediately. Duplicate and stale submissions never change the score.
func (r *Room) submit(userID string, round int, submission []string) (delta, total int, snap domain.RoomSnapshot, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, 0, domain.RoomSnapshot{}, domain.ErrRoomNotFound
	}
	if r.status != domain.StatusPlaying {
		return 0, 0, domain.RoomSnapshot{}, domain.ErrInvalidState
	}
	var player *playerState
	for _, p := range r.players {
		if p.id == userID {
			player = p
			break
		}
	}
	if player == nil {
		return 0, 0, domain.RoomSnapshot{}, domain.ErrNotInRoom
	}
	if round != r.currentRound {
		return 0, 0, domain.RoomSnapshot{}, domain.ErrStaleRound
	}
	if player.answered {
		return 0, player.score, r.snapshotLocked(), domain.ErrAlreadyAnswered
	}
	if r.now().Sub(r.roundStart) >= r.mode.RoundDuration() {
		return 0, 0, domain.RoomSnapshot{}, domain.ErrRoundClosed
	}

	question := r.questions[r.currentRound]
	delta, recorded := scoreSubmission(question, r.mode, submission)
	player.score += delta
	player.answered = true
	r.answers[userID] = recorded
	r.touchLocked()
	return delta, player.score, r.broadcastLocked(), nil
}

// advance moves to the next round, or to finished after the last one. The
// host may advance at any time; that is the escape hatch for a round stalled
// by an unresponsive opponent.
func (r *Room) advance(userID string) (domain.RoomSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return domain.RoomSnapshot{}, domain.ErrRoomNotFound
	}
	if r.status != domain.StatusPlaying {
		return domain.RoomSnapshot{}, domain.ErrInvalidState
	}
	if userID != r.hostID {
		return domain.RoomSnapshot{}, domain.ErrNotHost
	}
	r.advanceLocked()
	return r.broadcastLocked(), nil
}

// advanceIfExpired force-advances a round stuck past deadline+grace with no
// inbound traffic. Used by the background sweep only.
func (r *Room) advanceIfExpired(grace time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.status != domain.StatusPlaying {
		return false
	}
	if r.now().Sub(r.roundStart) < r.mode.RoundDuration()+grace {
		return false
	}
	r.advanceLocked()
	r.broadcastLocked()
	return true
}

func (r *Room) advanceLocked() {
	r.currentRound++
	if r.currentRound >= r.maxRounds {
		r.status = domain.StatusFinished
	} else {
		for _, p := range r.players {
			p.answered = false
		}
		r.answers = make(map[string][]string)
		r.roundStart = r.now()
	}
	r.touchLocked()
}

func (r *Room) refreshUsername(userID, username string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.players {
		if p.id == userID {
			p.username = username
			r.broadcastLocked()
			return
		}
	}
}

func (r *Room) snapshot() domain.RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) isEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players) == 0
}

func (r *Room) idleFor() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.now().Sub(r.lastActivity)
}

func (r *Room) subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	r.mu.Lock()
	r.subscribers[ch] = struct{}{}
	initial := r.snapshotLocked()
	// Enqueued under the lock so no broadcast can land ahead of the initial
	// snapshot. The channel is fresh and buffered, the send cannot block.
	ch <- Event{Room: &initial}
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		if _, ok := r.subscribers[ch]; ok {
			delete(r.subscribers, ch)
			close(ch)
		}
		r.mu.Unlock()
	}
	return ch, cancel
}

// closeWithNotice pushes a deletion notice to every subscriber and closes
// their channels. The room accepts no operations afterwards.
func (r *Room) closeWithNotice(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	notice := Event{Deleted: true, Reason: reason}
	for ch := range r.subscribers {
		deliverLocked(ch, notice)
		close(ch)
	}
	r.subscribers = make(map[chan Event]struct{})
}

func (r *Room) broadcastLocked() domain.RoomSnapshot {
	snap := r.snapshotLocked()
	for ch := range r.subscribers {
		deliverLocked(ch, Event{Room: &snap})
	}
	return snap
}

// deliverLocked drops the oldest buffered event when the subscriber lags, so
// a slow client never blocks the room and never observes a stale snapshot
// after a newer one.
func deliverLocked(ch chan Event, ev Event) {
	select {
	case ch <- ev:
	default:
		select {
		case <-ch:
		default:
		}
		ch <- ev
	}
}

func (r *Room) touchLocked() {
	r.lastActivity = r.now()
}

func (r *Room) snapshotLocked() domain.RoomSnapshot {
	players := make([]domain.PlayerSnapshot, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, domain.PlayerSnapshot{
			ID:          p.id,
			Username:    p.username,
			Score:       p.score,
			HasAnswered: p.answered,
		})
	}

	snap := domain.RoomSnapshot{
		RoomID:       r.id,
		HostID:       r.hostID,
		Status:       r.status,
		Mode:         r.mode,
		Difficulty:   r.difficulty,
		Players:      players,
		CurrentRound: r.currentRound,
		MaxRounds:    r.maxRounds,
		UpdatedAt:    r.now(),
	}

	switch r.status {
	case domain.StatusPlaying:
		q := r.questions[r.currentRound]
		snap.CurrentQuestion = &domain.QuestionSnapshot{
			Prompt:  q.Prompt,
			Options: q.Options,
		}
		snap.RoundStartTime = r.roundStart.UnixMilli()
		snap.RoundDurationMs = r.mode.RoundDuration().Milliseconds()
	case domain.StatusFinished:
		// Final scores are reported descending, with a single winner when
		// the top two differ and tie semantics otherwise.
		sort.SliceStable(snap.Players, func(i, j int) bool {
			return snap.Players[i].Score > snap.Players[j].Score
		})
		if len(snap.Players) > 0 {
			top := snap.Players[0]
			if len(snap.Players) > 1 && snap.Players[1].Score == top.Score {
				snap.Tie = true
			} else {
				snap.Winner = &top
			}
		}
	}
	return snap
}
